// Package jsonwire implements the structured-text wire codec on top of
// github.com/goccy/go-json.
//
// Objects are unordered key/value mappings with unique keys, arrays are
// ordered, and scalars map to native JSON null/boolean/number/string. Numbers
// are kept as text until a typed extractor asks for a specific width.
package jsonwire

import (
	"context"

	"github.com/reoring/goserde/internal/engine"
	"github.com/reoring/goserde/wire"
)

// NewReader parses data and returns a Reader positioned at the top-level
// value. Parse failures, trailing data, limit violations and duplicate keys
// under wire.Error are reported as malformed_input Issues.
func NewReader(ctx context.Context, data []byte, opt wire.ReadOpt) (wire.Reader, error) {
	if err := engine.CheckSize(len(data), opt.MaxBytes); err != nil {
		return nil, err
	}
	src := engine.WrapWithEnforcement(newSource(data), engine.EnforceOptions{
		OnDuplicate: opt.Strictness.OnDuplicateKey,
		MaxDepth:    opt.MaxDepth,
		IssueSink:   opt.OnIssue,
	})
	root, err := engine.BuildTree(src)
	if err != nil {
		return nil, err
	}
	return engine.NewCursor(ctx, wire.FormatJSON, root), nil
}
