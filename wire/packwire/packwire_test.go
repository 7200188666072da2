package packwire

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/reoring/goserde/wire"
)

func encode(t *testing.T, fn func(w *Writer)) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(context.Background(), &buf, wire.WriteOpt{})
	fn(w)
	require.NoError(t, w.Flush())
	return buf.Bytes()
}

func TestWriter_ObjectCountsMembers(t *testing.T) {
	data := encode(t, func(w *Writer) {
		w.StartObject()
		w.Key("a")
		w.Int64(-5)
		w.Key("nested")
		w.StartObject()
		w.Key("x")
		w.Null()
		w.EndObject()
		w.Key("list")
		w.StartArray(2)
		w.String("s")
		w.Uint32(7)
		w.EndArray()
		w.EndObject()
	})

	var m map[string]any
	require.NoError(t, msgpack.Unmarshal(data, &m))
	assert.Len(t, m, 3)
	assert.EqualValues(t, -5, m["a"])
	assert.Equal(t, map[string]any{"x": nil}, m["nested"])
	assert.Len(t, m["list"], 2)
}

func TestRoundTrip(t *testing.T) {
	data := encode(t, func(w *Writer) {
		w.StartObject()
		w.Key("u")
		w.Uint64(1 << 63)
		w.Key("f")
		w.Float64(0.25)
		w.Key("b")
		w.Bool(true)
		w.Key("raw")
		w.StringBytes([]byte("bytes"))
		w.EndObject()
	})

	r, err := NewReader(context.Background(), data, wire.ReadOpt{})
	require.NoError(t, err)
	assert.Equal(t, wire.FormatBinary, r.Format())

	require.NoError(t, r.DoMember("u", func(r wire.Reader) error {
		assert.False(t, r.IsInt64())
		v, err := r.GetUint64()
		assert.Equal(t, uint64(1<<63), v)
		return err
	}))
	require.NoError(t, r.DoMember("f", func(r wire.Reader) error {
		v, err := r.GetFloat64()
		assert.Equal(t, 0.25, v)
		return err
	}))
	require.NoError(t, r.DoMember("raw", func(r wire.Reader) error {
		v, err := r.GetString()
		assert.Equal(t, "bytes", v)
		return err
	}))
}

func TestReader_Malformed(t *testing.T) {
	valid, err := msgpack.Marshal(map[string]any{"a": 1})
	require.NoError(t, err)
	nonStringKey, err := msgpack.Marshal(map[int]string{1: "x"})
	require.NoError(t, err)

	tests := map[string][]byte{
		"empty":          nil,
		"truncated":      valid[:len(valid)-1],
		"trailing":       append(append([]byte{}, valid...), 0xc0),
		"non-string key": nonStringKey,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewReader(context.Background(), in, wire.ReadOpt{})
			assert.ErrorIs(t, err, wire.ErrMalformedInput)
		})
	}
}

func TestReader_Limits(t *testing.T) {
	data, err := msgpack.Marshal([]any{[]any{[]any{1}}})
	require.NoError(t, err)
	_, err = NewReader(context.Background(), data, wire.ReadOpt{MaxDepth: 2})
	assert.ErrorIs(t, err, wire.ErrMalformedInput)
	_, err = NewReader(context.Background(), data, wire.ReadOpt{MaxDepth: 3})
	assert.NoError(t, err)
	_, err = NewReader(context.Background(), data, wire.ReadOpt{MaxBytes: 1})
	assert.ErrorIs(t, err, wire.ErrMalformedInput)
}

type brokenSink struct{}

func (brokenSink) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWriter_SinkFault(t *testing.T) {
	w := NewWriter(context.Background(), brokenSink{}, wire.WriteOpt{})
	w.Int32(1)
	assert.ErrorIs(t, w.Flush(), wire.ErrSinkFault)
}

func TestReader_DeepNestingStopsAtLimit(t *testing.T) {
	// One million single-element arrays would exhaust the stack if decoded
	// recursively before the limit is checked.
	data := append(bytes.Repeat([]byte{0x91}, 1_000_000), 0xc0)
	_, err := NewReader(context.Background(), data, wire.ReadOpt{MaxDepth: 64})
	iss, ok := wire.AsIssue(err)
	require.True(t, ok)
	assert.Equal(t, wire.CodeMalformedInput, iss.Code)
	assert.Contains(t, err.Error(), "max depth exceeded")
}

func TestReader_DuplicateKeys(t *testing.T) {
	// {"a": 1, "a": 2}
	data := []byte{0x82, 0xa1, 'a', 0x01, 0xa1, 'a', 0x02}

	_, err := NewReader(context.Background(), data, wire.ReadOpt{
		Strictness: wire.Strictness{OnDuplicateKey: wire.Error},
	})
	assert.ErrorIs(t, err, wire.ErrMalformedInput)

	var warned []wire.Issue
	r, err := NewReader(context.Background(), data, wire.ReadOpt{
		Strictness: wire.Strictness{OnDuplicateKey: wire.Warn},
		OnIssue:    func(iss wire.Issue) { warned = append(warned, iss) },
	})
	require.NoError(t, err)
	require.Len(t, warned, 1)
	assert.Equal(t, "/a", warned[0].Path)
	require.NoError(t, r.DoMember("a", func(r wire.Reader) error {
		v, err := r.GetInt64()
		assert.Equal(t, int64(2), v)
		return err
	}))
}

func TestReader_FloatStaysFloat(t *testing.T) {
	data := encode(t, func(w *Writer) { w.Float64(2) })
	r, err := NewReader(context.Background(), data, wire.ReadOpt{})
	require.NoError(t, err)
	assert.False(t, r.IsInt64())
	assert.True(t, r.IsFloat())
	v, err := r.GetFloat64()
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
}
