package wire

import (
	"fmt"
	"strings"
)

// Format selects a wire encoding. It is passed explicitly to every
// serialize/deserialize call and never inferred from content.
type Format uint8

const (
	FormatJSON   Format = iota // Structured text; absent optionals are omitted.
	FormatBinary               // MessagePack; every member is always written.
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatBinary:
		return "binary"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Ext returns the file extension used for artifacts persisted in f.
func (f Format) Ext() string {
	if f == FormatBinary {
		return ".blob"
	}
	return ".json"
}

// ParseFormat maps a user-facing name to a Format. "msgpack" and "blob" are
// accepted as aliases of binary.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "binary", "msgpack", "blob":
		return FormatBinary, nil
	}
	return 0, fmt.Errorf("wire: unknown format %q", s)
}

// Severity expresses how a tolerated input anomaly is handled.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures input enforcement for duplicate keys.
type Strictness struct {
	OnDuplicateKey Severity // Ignore, Warn (last value wins, issue logged) or Error.
}

// ReadOpt bundles reader construction options.
type ReadOpt struct {
	Strictness Strictness
	MaxDepth   int   // 0 disables the nesting limit.
	MaxBytes   int64 // 0 disables the size limit.
	// OnIssue receives non-fatal issues (for example duplicate keys under Warn).
	OnIssue func(Issue)
}

// WriteOpt bundles writer construction options.
type WriteOpt struct {
	// Pretty re-indents structured-text output for diff-friendly fixtures.
	// It never changes which members are written.
	Pretty bool
	Indent string // Defaults to two spaces when Pretty is set.
}
