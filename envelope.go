package goserde

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/reoring/goserde/wire"
	"github.com/reoring/goserde/wire/jsonwire"
	"github.com/reoring/goserde/wire/packwire"
)

// VersionKey is the reserved top-level member carrying the schema version.
const VersionKey = "version"

// Versioned is implemented by records that declare a schema version. Records
// that do not implement it are written with version 0.
type Versioned interface {
	SchemaVersion() int
}

// Identifiable is implemented by records whose identity is not part of the
// serialized form. Deserialize restores it after a successful read.
type Identifiable interface {
	SetIdentity(path, content string)
}

// Issue is the structured error returned by every operation.
type Issue = wire.Issue

// Sentinels for errors.Is.
var (
	ErrTypeMismatch    = wire.ErrTypeMismatch
	ErrMissingField    = wire.ErrMissingField
	ErrVersionMismatch = wire.ErrVersionMismatch
	ErrMalformedInput  = wire.ErrMalformedInput
	ErrSinkFault       = wire.ErrSinkFault
	ErrUnsupported     = wire.ErrUnsupported
)

// AsIssue extracts an *Issue from an error chain.
func AsIssue(err error) (*Issue, bool) { return wire.AsIssue(err) }

// IsVersionMismatch reports whether err means the persisted data was written
// under a different schema version and should be regenerated.
func IsVersionMismatch(err error) bool { return errors.Is(err, wire.ErrVersionMismatch) }

// NewWriter returns a Writer for format delivering to sink.
func NewWriter(ctx context.Context, sink io.Writer, format Format, opts ...EncodeOpt) (Writer, error) {
	o := mergeEncodeOpts(opts)
	wo := wire.WriteOpt{Pretty: o.Pretty, Indent: o.Indent}
	switch format {
	case FormatJSON:
		return jsonwire.NewWriter(ctx, sink, wo), nil
	case FormatBinary:
		return packwire.NewWriter(ctx, sink, wo), nil
	}
	return nil, unknownFormat(format)
}

// NewReader decodes data in format and returns a Reader at its top-level value.
// Duplicate-key warnings are logged through the context logger.
func NewReader(ctx context.Context, format Format, data []byte, opts ...DecodeOpt) (Reader, error) {
	o := mergeDecodeOpts(opts)
	ro := wire.ReadOpt{
		Strictness: o.Strictness,
		MaxDepth:   o.MaxDepth,
		MaxBytes:   o.MaxBytes,
		OnIssue: func(iss wire.Issue) {
			zerolog.Ctx(ctx).Warn().Str("code", iss.Code).Str("path", iss.Path).Msg(iss.Message)
		},
	}
	switch format {
	case FormatJSON:
		return jsonwire.NewReader(ctx, data, ro)
	case FormatBinary:
		return packwire.NewReader(ctx, data, ro)
	}
	return nil, unknownFormat(format)
}

func unknownFormat(f Format) error {
	return wire.NewIssue(wire.CodeUnsupported, "", map[string]string{"got": "format " + strconv.Itoa(int(f))})
}

// Encode writes rec in format to sink as a versioned envelope: a top-level
// object holding the version followed by the record's members.
func Encode(ctx context.Context, sink io.Writer, format Format, rec Record, opts ...EncodeOpt) error {
	w, err := NewWriter(ctx, sink, format, opts...)
	if err != nil {
		return err
	}
	version := 0
	if v, ok := rec.(Versioned); ok {
		version = v.SchemaVersion()
	}
	members := append([]Member{Field(VersionKey, Int(&version))}, rec.Members()...)
	if err := writeMembers(w, members); err != nil {
		return err
	}
	return w.Flush()
}

// Serialize encodes rec in format and returns the bytes.
func Serialize(ctx context.Context, format Format, rec Record, opts ...EncodeOpt) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(ctx, &buf, format, rec, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize reads a record persisted by Serialize. When expected is present
// the envelope version is checked before any record member is read; a
// different or missing version yields a nil record and a version_mismatch
// Issue. On success path and content are restored through Identifiable.
//
// Any failure returns a nil record; a partially populated record is never
// exposed.
func Deserialize[T any, PT interface {
	*T
	Record
}](ctx context.Context, format Format, path string, data []byte, content string, expected Optional[int], opts ...DecodeOpt) (*T, error) {
	log := zerolog.Ctx(ctx).With().Str("path", path).Str("format", format.String()).Logger()
	r, err := NewReader(log.WithContext(ctx), format, data, opts...)
	if err != nil {
		log.Debug().Err(err).Msg("failed to decode")
		return nil, err
	}
	if want, ok := expected.Get(); ok {
		if err := checkVersion(r, want); err != nil {
			log.Debug().Err(err).Msg("stale data")
			return nil, err
		}
	}
	rec := new(T)
	if err := readMembers(r, PT(rec).Members()); err != nil {
		log.Debug().Err(err).Msg("failed to read record")
		return nil, err
	}
	if id, ok := any(rec).(Identifiable); ok {
		id.SetIdentity(path, content)
	}
	return rec, nil
}

func checkVersion(r Reader, want int) error {
	if !r.IsObject() {
		return wire.TypeMismatch(r.Path(), "object", describe(r))
	}
	if !r.HasMember(VersionKey) {
		return versionMismatch(want, "none")
	}
	var got int
	if err := r.DoMember(VersionKey, Int(&got).Read); err != nil {
		return err
	}
	if got != want {
		return versionMismatch(want, strconv.Itoa(got))
	}
	return nil
}

func versionMismatch(want int, got string) error {
	return wire.NewIssue(wire.CodeVersionMismatch, wire.JoinPointer("", VersionKey),
		map[string]string{"expected": strconv.Itoa(want), "got": got})
}
