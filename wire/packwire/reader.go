// Package packwire implements the binary wire codec on top of
// github.com/vmihailenco/msgpack/v5.
//
// Every value carries its MessagePack type code. Records are written as maps
// whose keys are always present, so the layout of a given record type is the
// same regardless of which optional members are set.
package packwire

import (
	"context"

	"github.com/reoring/goserde/internal/engine"
	"github.com/reoring/goserde/wire"
)

// NewReader decodes data and returns a Reader positioned at the top-level
// value. Decode failures, non-string map keys, trailing bytes, limit
// violations and duplicate keys under wire.Error are reported as
// malformed_input Issues. Nesting depth is enforced before each container is
// entered.
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
	return engine.NewCursor(ctx, wire.FormatBinary, root), nil
}
