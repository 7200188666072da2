package packwire

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/reoring/goserde/internal/engine"
	"github.com/reoring/goserde/wire"
)

// frame tracks one open array or map. MessagePack containers are length
// prefixed, so the end token is synthesized once remaining reaches zero.
type frame struct {
	isMap        bool
	remaining    int
	expectingKey bool
}

// source adapts a msgpack.Decoder to engine.TokenSource. It reads one header
// or scalar per token and never recurses, so nesting is bounded only by the
// enforcement layer wrapped around it.
type source struct {
	r     *bytes.Reader
	dec   *msgpack.Decoder
	size  int64
	stack []frame
}

func newSource(b []byte) *source {
	r := bytes.NewReader(b)
	return &source{r: r, dec: msgpack.NewDecoder(r), size: int64(len(b))}
}

func (s *source) NextToken() (engine.Token, error) {
	if n := len(s.stack); n > 0 {
		top := &s.stack[n-1]
		if top.remaining == 0 {
			s.stack = s.stack[:n-1]
			if top.isMap {
				return s.token(engine.Token{Kind: engine.KindEndObject}), nil
			}
			return s.token(engine.Token{Kind: engine.KindEndArray}), nil
		}
		if top.isMap && top.expectingKey {
			return s.key(top)
		}
	}

	c, err := s.dec.PeekCode()
	if err != nil {
		if len(s.stack) > 0 && err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return engine.Token{}, err
	}
	s.consume()

	switch {
	case c == msgpcode.Nil:
		if err := s.dec.DecodeNil(); err != nil {
			return engine.Token{}, err
		}
		return s.token(engine.Token{Kind: engine.KindNull}), nil
	case c == msgpcode.True || c == msgpcode.False:
		b, err := s.dec.DecodeBool()
		if err != nil {
			return engine.Token{}, err
		}
		return s.token(engine.Token{Kind: engine.KindBool, Bool: b}), nil
	case msgpcode.IsFixedNum(c), c >= msgpcode.Int8 && c <= msgpcode.Int64:
		i, err := s.dec.DecodeInt64()
		if err != nil {
			return engine.Token{}, err
		}
		return s.token(engine.Token{Kind: engine.KindNumber, Number: strconv.FormatInt(i, 10)}), nil
	case c >= msgpcode.Uint8 && c <= msgpcode.Uint64:
		u, err := s.dec.DecodeUint64()
		if err != nil {
			return engine.Token{}, err
		}
		return s.token(engine.Token{Kind: engine.KindNumber, Number: strconv.FormatUint(u, 10)}), nil
	case c == msgpcode.Float || c == msgpcode.Double:
		f, err := s.dec.DecodeFloat64()
		if err != nil {
			return engine.Token{}, err
		}
		return s.token(engine.Token{Kind: engine.KindNumber, Number: floatText(f)}), nil
	case msgpcode.IsString(c):
		v, err := s.dec.DecodeString()
		if err != nil {
			return engine.Token{}, err
		}
		return s.token(engine.Token{Kind: engine.KindString, String: v}), nil
	case msgpcode.IsBin(c):
		v, err := s.dec.DecodeBytes()
		if err != nil {
			return engine.Token{}, err
		}
		return s.token(engine.Token{Kind: engine.KindString, String: string(v)}), nil
	case msgpcode.IsFixedArray(c), c == msgpcode.Array16, c == msgpcode.Array32:
		n, err := s.dec.DecodeArrayLen()
		if err != nil {
			return engine.Token{}, err
		}
		s.stack = append(s.stack, frame{remaining: n})
		return s.token(engine.Token{Kind: engine.KindBeginArray}), nil
	case msgpcode.IsFixedMap(c), c == msgpcode.Map16, c == msgpcode.Map32:
		n, err := s.dec.DecodeMapLen()
		if err != nil {
			return engine.Token{}, err
		}
		s.stack = append(s.stack, frame{isMap: true, remaining: n, expectingKey: true})
		return s.token(engine.Token{Kind: engine.KindBeginObject}), nil
	}
	return engine.Token{}, fmt.Errorf("unsupported type code 0x%02x", c)
}

// key reads a map key, which must be a string.
func (s *source) key(top *frame) (engine.Token, error) {
	c, err := s.dec.PeekCode()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return engine.Token{}, err
	}
	if !msgpcode.IsString(c) {
		return engine.Token{}, wire.Wrap(wire.CodeMalformedInput, "", fmt.Errorf("map key with type code 0x%02x is not a string", c))
	}
	k, err := s.dec.DecodeString()
	if err != nil {
		return engine.Token{}, err
	}
	top.expectingKey = false
	return s.token(engine.Token{Kind: engine.KindKey, String: k}), nil
}

// consume accounts the value about to be read against the enclosing container.
func (s *source) consume() {
	if n := len(s.stack); n > 0 {
		top := &s.stack[n-1]
		top.remaining--
		if top.isMap {
			top.expectingKey = true
		}
	}
}

func (s *source) token(t engine.Token) engine.Token {
	t.Offset = s.Location()
	return t
}

func (s *source) Location() int64 { return s.size - int64(s.r.Len()) }

// floatText renders f so it never reads back as an integer.
func floatText(f float64) string {
	t := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(t, ".eEnI") {
		return t
	}
	return t + ".0"
}
