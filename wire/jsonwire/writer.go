package jsonwire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/reoring/goserde/wire"
)

const defaultIndent = "  "

type scope struct {
	n      int    // values (or keys) written so far
	object bool
	key    string // last key written in an object
}

// Writer emits compact JSON into an in-memory buffer and hands it to the sink
// on Flush, re-indented when WriteOpt.Pretty is set.
type Writer struct {
	ctx      context.Context
	sink     io.Writer
	opt      wire.WriteOpt
	buf      bytes.Buffer
	stack    []scope
	afterKey bool
	err      error
}

var _ wire.Writer = (*Writer)(nil)

// NewWriter returns a JSON Writer delivering to sink.
func NewWriter(ctx context.Context, sink io.Writer, opt wire.WriteOpt) *Writer {
	if ctx == nil {
		ctx = context.Background()
	}
	if opt.Pretty && opt.Indent == "" {
		opt.Indent = defaultIndent
	}
	return &Writer{ctx: ctx, sink: sink, opt: opt}
}

func (w *Writer) Format() wire.Format      { return wire.FormatJSON }
func (w *Writer) Context() context.Context { return w.ctx }

// separate writes the comma owed before the next value or key.
func (w *Writer) separate() {
	if w.afterKey {
		w.afterKey = false
		return
	}
	if n := len(w.stack); n > 0 {
		top := &w.stack[n-1]
		if top.n > 0 {
			w.buf.WriteByte(',')
		}
		top.n++
	}
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) Null() {
	w.separate()
	w.buf.WriteString("null")
}

func (w *Writer) Bool(v bool) {
	w.separate()
	w.buf.WriteString(strconv.FormatBool(v))
}

func (w *Writer) Int32(v int32) { w.Int64(int64(v)) }

func (w *Writer) Uint32(v uint32) { w.Uint64(uint64(v)) }

func (w *Writer) Int64(v int64) {
	w.separate()
	w.buf.Write(strconv.AppendInt(w.buf.AvailableBuffer(), v, 10))
}

func (w *Writer) Uint64(v uint64) {
	w.separate()
	w.buf.Write(strconv.AppendUint(w.buf.AvailableBuffer(), v, 10))
}

func (w *Writer) Float64(v float64) {
	w.separate()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		iss := wire.NewIssue(wire.CodeUnsupported, w.path(), map[string]string{"got": strconv.FormatFloat(v, 'g', -1, 64)})
		iss.Cause = fmt.Errorf("JSON cannot represent %v", v)
		w.fail(iss)
		w.buf.WriteString("null")
		return
	}
	w.buf.Write(strconv.AppendFloat(w.buf.AvailableBuffer(), v, 'g', -1, 64))
}

func (w *Writer) String(v string) {
	w.separate()
	w.quote(v)
}

func (w *Writer) StringBytes(v []byte) {
	w.separate()
	w.quote(string(v))
}

func (w *Writer) quote(s string) {
	b, err := json.MarshalWithOption(s, json.DisableHTMLEscape())
	if err != nil {
		w.fail(wire.Wrap(wire.CodeUnsupported, w.path(), err))
		w.buf.WriteString(`""`)
		return
	}
	w.buf.Write(b)
}

// StartArray ignores n; JSON arrays are delimited, not length-prefixed.
func (w *Writer) StartArray(n int) {
	w.separate()
	w.buf.WriteByte('[')
	w.stack = append(w.stack, scope{})
}

func (w *Writer) EndArray() {
	w.pop()
	w.buf.WriteByte(']')
}

func (w *Writer) StartObject() {
	w.separate()
	w.buf.WriteByte('{')
	w.stack = append(w.stack, scope{object: true})
}

func (w *Writer) EndObject() {
	w.pop()
	w.buf.WriteByte('}')
}

func (w *Writer) pop() {
	if n := len(w.stack); n > 0 {
		w.stack = w.stack[:n-1]
	}
	w.afterKey = false
}

func (w *Writer) Key(name string) {
	w.separate()
	if n := len(w.stack); n > 0 {
		w.stack[n-1].key = name
	}
	w.quote(name)
	w.buf.WriteByte(':')
	w.afterKey = true
}

// path locates the value being written as a JSON Pointer.
func (w *Writer) path() string {
	p := ""
	for _, s := range w.stack {
		if s.object {
			p = wire.JoinPointer(p, s.key)
		} else if s.n > 0 {
			p = wire.JoinPointer(p, strconv.Itoa(s.n-1))
		}
	}
	return p
}

// Flush writes the buffered document to the sink. Output is delivered only
// once; later calls return the recorded error, if any.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	out := w.buf.Bytes()
	if w.opt.Pretty {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, out, "", w.opt.Indent); err != nil {
			w.fail(wire.Wrap(wire.CodeMalformedInput, "", err))
			return w.err
		}
		pretty.WriteByte('\n')
		out = pretty.Bytes()
	}
	if _, err := w.sink.Write(out); err != nil {
		w.fail(wire.Wrap(wire.CodeSinkFault, "", err))
		return w.err
	}
	w.buf.Reset()
	return nil
}
