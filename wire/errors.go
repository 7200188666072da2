package wire

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/goserde/i18n"
)

// Issue codes.
const (
	CodeTypeMismatch    = "type_mismatch"
	CodeMissingField    = "missing_field"
	CodeVersionMismatch = "version_mismatch"
	CodeMalformedInput  = "malformed_input"
	CodeSinkFault       = "sink_fault"
	CodeUnsupported     = "unsupported"
	// CodeDuplicateKey is reported through ReadOpt.OnIssue under Warn; under
	// Error it is promoted to malformed_input.
	CodeDuplicateKey = "duplicate_key"
)

// Sentinels matched by errors.Is against an *Issue of the same code.
var (
	ErrTypeMismatch    = errors.New("wire: type mismatch")
	ErrMissingField    = errors.New("wire: missing field")
	ErrVersionMismatch = errors.New("wire: version mismatch")
	ErrMalformedInput  = errors.New("wire: malformed input")
	ErrSinkFault       = errors.New("wire: sink fault")
	ErrUnsupported     = errors.New("wire: unsupported")
)

var sentinels = map[string]error{
	CodeTypeMismatch:    ErrTypeMismatch,
	CodeMissingField:    ErrMissingField,
	CodeVersionMismatch: ErrVersionMismatch,
	CodeMalformedInput:  ErrMalformedInput,
	CodeSinkFault:       ErrSinkFault,
	CodeUnsupported:     ErrUnsupported,
}

// Issue is a single tagged failure raised while reading or writing.
type Issue struct {
	Code    string // One of the codes listed above.
	Path    string // JSON Pointer of the offending value ("/" for the root).
	Message string
	// Params carries structured parameters such as {"expected": "int32",
	// "got": "string"} for i18n and logging.
	Params map[string]string
	Cause  error
}

// NewIssue builds an Issue whose message comes from the i18n catalog.
func NewIssue(code, path string, params map[string]string) *Issue {
	return &Issue{Code: code, Path: normalizePath(path), Message: i18n.T(code, params), Params: params}
}

// Wrap builds an Issue carrying cause.
func Wrap(code, path string, cause error) *Issue {
	iss := NewIssue(code, path, nil)
	iss.Cause = cause
	return iss
}

// TypeMismatch builds a type_mismatch Issue.
func TypeMismatch(path, expected, got string) *Issue {
	return NewIssue(CodeTypeMismatch, path, map[string]string{"expected": expected, "got": got})
}

// MissingField builds a missing_field Issue for the member name under path.
func MissingField(path, name string) *Issue {
	return NewIssue(CodeMissingField, JoinPointer(path, name), map[string]string{"key": name})
}

func (i *Issue) Error() string {
	b := &strings.Builder{}
	// e.g. type_mismatch at /symbols/2/kind: type mismatch (expected int32, got string)
	fmt.Fprintf(b, "%s at %s", i.Code, i.Path)
	if i.Message != "" && i.Message != i.Code {
		b.WriteString(": ")
		b.WriteString(i.Message)
	}
	if i.Cause != nil {
		b.WriteString(": ")
		b.WriteString(i.Cause.Error())
	}
	return b.String()
}

func (i *Issue) Unwrap() error { return i.Cause }

// Is matches the sentinel registered for the Issue's code.
func (i *Issue) Is(target error) bool {
	s, ok := sentinels[i.Code]
	return ok && s == target
}

// AsIssue extracts an *Issue from an error chain using errors.As.
func AsIssue(err error) (*Issue, bool) {
	if err == nil {
		return nil, false
	}
	var iss *Issue
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// JoinPointer appends one reference token to a JSON Pointer.
func JoinPointer(base, token string) string {
	if base == "/" {
		base = ""
	}
	return base + "/" + pointerEscaper.Replace(token)
}
