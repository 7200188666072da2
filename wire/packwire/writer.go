package packwire

import (
	"bytes"
	"context"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/reoring/goserde/wire"
)

// scope buffers one open object until its member count is known.
type scope struct {
	buf  bytes.Buffer
	enc  *msgpack.Encoder
	keys int
}

func newScope() *scope {
	s := &scope{}
	s.enc = msgpack.NewEncoder(&s.buf)
	return s
}

// Writer emits MessagePack. Arrays are length-prefixed directly; objects are
// buffered per scope and prefixed with their member count at EndObject.
type Writer struct {
	ctx   context.Context
	sink  io.Writer
	stack []*scope // stack[0] is the document root
	err   error
}

var _ wire.Writer = (*Writer)(nil)

// NewWriter returns a binary Writer delivering to sink. WriteOpt has no effect
// on binary output.
func NewWriter(ctx context.Context, sink io.Writer, _ wire.WriteOpt) *Writer {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Writer{ctx: ctx, sink: sink, stack: []*scope{newScope()}}
}

func (w *Writer) Format() wire.Format      { return wire.FormatBinary }
func (w *Writer) Context() context.Context { return w.ctx }

func (w *Writer) top() *scope { return w.stack[len(w.stack)-1] }

func (w *Writer) check(err error) {
	if err != nil && w.err == nil {
		w.err = wire.Wrap(wire.CodeSinkFault, "", err)
	}
}

func (w *Writer) Null()             { w.check(w.top().enc.EncodeNil()) }
func (w *Writer) Bool(v bool)       { w.check(w.top().enc.EncodeBool(v)) }
func (w *Writer) Int32(v int32)     { w.check(w.top().enc.EncodeInt(int64(v))) }
func (w *Writer) Uint32(v uint32)   { w.check(w.top().enc.EncodeUint(uint64(v))) }
func (w *Writer) Int64(v int64)     { w.check(w.top().enc.EncodeInt(v)) }
func (w *Writer) Uint64(v uint64)   { w.check(w.top().enc.EncodeUint(v)) }
func (w *Writer) Float64(v float64) { w.check(w.top().enc.EncodeFloat64(v)) }
func (w *Writer) String(v string)   { w.check(w.top().enc.EncodeString(v)) }

func (w *Writer) StringBytes(v []byte) { w.check(w.top().enc.EncodeString(string(v))) }

func (w *Writer) StartArray(n int) { w.check(w.top().enc.EncodeArrayLen(n)) }

func (w *Writer) EndArray() {}

func (w *Writer) StartObject() { w.stack = append(w.stack, newScope()) }

func (w *Writer) EndObject() {
	if len(w.stack) < 2 {
		return
	}
	s := w.top()
	w.stack = w.stack[:len(w.stack)-1]
	parent := w.top()
	w.check(parent.enc.EncodeMapLen(s.keys))
	_, err := parent.buf.Write(s.buf.Bytes())
	w.check(err)
}

func (w *Writer) Key(name string) {
	s := w.top()
	s.keys++
	w.check(s.enc.EncodeString(name))
}

// Flush writes the encoded document to the sink.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	root := w.stack[0]
	if _, err := w.sink.Write(root.buf.Bytes()); err != nil {
		w.check(err)
		return w.err
	}
	root.buf.Reset()
	return nil
}
