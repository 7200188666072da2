package goserde

import "github.com/reoring/goserde/wire"

// Format selects the wire encoding.
type Format = wire.Format

const (
	FormatJSON   = wire.FormatJSON
	FormatBinary = wire.FormatBinary
)

// ParseFormat maps a format name ("json", "binary", "msgpack") to a Format.
func ParseFormat(s string) (Format, error) { return wire.ParseFormat(s) }

// Reader and Writer are the capability interfaces implemented by the codecs.
type (
	Reader = wire.Reader
	Writer = wire.Writer
)

// Severity and Strictness configure duplicate-key handling on read.
type (
	Severity   = wire.Severity
	Strictness = wire.Strictness
)

const (
	Ignore = wire.Ignore
	Warn   = wire.Warn
	Error  = wire.Error
)

// EncodeOpt configures Serialize/Encode.
type EncodeOpt struct {
	// Pretty switches JSON output to the indented, diff-friendly form used for
	// test fixtures. It affects formatting only, never member selection.
	Pretty bool
	Indent string // Defaults to two spaces.
}

// DefaultMaxDepth is the nesting limit applied when DecodeOpt.MaxDepth is 0.
const DefaultMaxDepth = 256

// DecodeOpt configures Deserialize.
type DecodeOpt struct {
	Strictness Strictness
	MaxDepth   int   // 0 selects DefaultMaxDepth; negative disables the limit.
	MaxBytes   int64 // 0 disables the size limit.
}

func mergeEncodeOpts(opts []EncodeOpt) EncodeOpt {
	if len(opts) == 0 {
		return EncodeOpt{}
	}
	return opts[len(opts)-1]
}

func mergeDecodeOpts(opts []DecodeOpt) DecodeOpt {
	o := DecodeOpt{Strictness: Strictness{OnDuplicateKey: Error}}
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	switch {
	case o.MaxDepth == 0:
		o.MaxDepth = DefaultMaxDepth
	case o.MaxDepth < 0:
		o.MaxDepth = 0
	}
	return o
}
