package engine

import (
	"context"
	"math"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/reoring/goserde/wire"
)

// Cursor walks a value tree produced by BuildTree (structured text) or by the
// binary decoder and implements wire.Reader over it. Accepted node shapes are
// nil, bool, string, []byte, json.Number, the Go integer and float kinds,
// []any and map[string]any.
type Cursor struct {
	ctx    context.Context
	format wire.Format
	node   any
	path   string
}

var _ wire.Reader = (*Cursor)(nil)

// NewCursor returns a Reader positioned at root.
func NewCursor(ctx context.Context, format wire.Format, root any) *Cursor {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Cursor{ctx: ctx, format: format, node: root}
}

func (c *Cursor) child(node any, token string) *Cursor {
	return &Cursor{ctx: c.ctx, format: c.format, node: node, path: wire.JoinPointer(c.path, token)}
}

func (c *Cursor) Format() wire.Format        { return c.format }
func (c *Cursor) Context() context.Context   { return c.ctx }
func (c *Cursor) Path() string               { return c.path }
func (c *Cursor) mismatch(want string) error { return wire.TypeMismatch(c.path, want, kindName(c.node)) }

// number is the normalized view of a numeric node.
type number struct {
	i      int64
	u      uint64
	f      float64
	signed bool // i is exact
	uns    bool // u is exact
}

func numberOf(v any) (number, bool) {
	switch n := v.(type) {
	case json.Number:
		s := string(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromInt(i), true
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return number{u: u, f: float64(u), uns: true}, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return number{}, false
		}
		return number{f: f}, true
	case int64:
		return fromInt(n), true
	case int:
		return fromInt(int64(n)), true
	case int32:
		return fromInt(int64(n)), true
	case int16:
		return fromInt(int64(n)), true
	case int8:
		return fromInt(int64(n)), true
	case uint64:
		if n <= math.MaxInt64 {
			return fromInt(int64(n)), true
		}
		return number{u: n, f: float64(n), uns: true}, true
	case uint:
		return numberOf(uint64(n))
	case uint32:
		return fromInt(int64(n)), true
	case uint16:
		return fromInt(int64(n)), true
	case uint8:
		return fromInt(int64(n)), true
	case float64:
		return number{f: n}, true
	case float32:
		return number{f: float64(n)}, true
	}
	return number{}, false
}

func fromInt(i int64) number {
	return number{i: i, u: uint64(i), f: float64(i), signed: true, uns: i >= 0}
}

func (c *Cursor) IsNull() bool { return c.node == nil }

func (c *Cursor) IsBool() bool {
	_, ok := c.node.(bool)
	return ok
}

func (c *Cursor) IsInt32() bool {
	n, ok := numberOf(c.node)
	return ok && n.signed && n.i >= math.MinInt32 && n.i <= math.MaxInt32
}

func (c *Cursor) IsUint32() bool {
	n, ok := numberOf(c.node)
	return ok && n.uns && n.u <= math.MaxUint32
}

func (c *Cursor) IsInt64() bool {
	n, ok := numberOf(c.node)
	return ok && n.signed
}

func (c *Cursor) IsUint64() bool {
	n, ok := numberOf(c.node)
	return ok && n.uns
}

// IsFloat accepts every numeric node; integers widen to float64.
func (c *Cursor) IsFloat() bool {
	_, ok := numberOf(c.node)
	return ok
}

func (c *Cursor) IsString() bool {
	switch c.node.(type) {
	case string, []byte:
		return true
	}
	return false
}

func (c *Cursor) IsArray() bool {
	_, ok := c.node.([]any)
	return ok
}

func (c *Cursor) IsObject() bool {
	_, ok := c.node.(map[string]any)
	return ok
}

func (c *Cursor) GetNull() error {
	if !c.IsNull() {
		return c.mismatch("null")
	}
	return nil
}

func (c *Cursor) GetBool() (bool, error) {
	b, ok := c.node.(bool)
	if !ok {
		return false, c.mismatch("bool")
	}
	return b, nil
}

func (c *Cursor) GetInt32() (int32, error) {
	if !c.IsInt32() {
		return 0, c.mismatch("int32")
	}
	n, _ := numberOf(c.node)
	return int32(n.i), nil
}

func (c *Cursor) GetUint32() (uint32, error) {
	if !c.IsUint32() {
		return 0, c.mismatch("uint32")
	}
	n, _ := numberOf(c.node)
	return uint32(n.u), nil
}

func (c *Cursor) GetInt64() (int64, error) {
	if !c.IsInt64() {
		return 0, c.mismatch("int64")
	}
	n, _ := numberOf(c.node)
	return n.i, nil
}

func (c *Cursor) GetUint64() (uint64, error) {
	if !c.IsUint64() {
		return 0, c.mismatch("uint64")
	}
	n, _ := numberOf(c.node)
	return n.u, nil
}

func (c *Cursor) GetFloat64() (float64, error) {
	n, ok := numberOf(c.node)
	if !ok {
		return 0, c.mismatch("float64")
	}
	return n.f, nil
}

func (c *Cursor) GetString() (string, error) {
	switch s := c.node.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	}
	return "", c.mismatch("string")
}

func (c *Cursor) IterArray(fn func(wire.Reader) error) error {
	arr, ok := c.node.([]any)
	if !ok {
		return c.mismatch("array")
	}
	for i, e := range arr {
		if err := fn(c.child(e, strconv.Itoa(i))); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cursor) HasMember(name string) bool {
	obj, ok := c.node.(map[string]any)
	if !ok {
		return false
	}
	_, ok = obj[name]
	return ok
}

func (c *Cursor) DoMember(name string, fn func(wire.Reader) error) error {
	obj, ok := c.node.(map[string]any)
	if !ok {
		return c.mismatch("object")
	}
	v, ok := obj[name]
	if !ok {
		return wire.MissingField(c.path, name)
	}
	return fn(c.child(v, name))
}

func kindName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string, []byte:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if _, ok := numberOf(v); ok {
		return "number"
	}
	return "unknown"
}
