package jsonwire

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/reoring/goserde/internal/engine"
)

// container is one open object or array. Only objects ever expect a key.
type container struct {
	object  bool
	keyNext bool
}

// source adapts the go-json token stream to engine.TokenSource. The decoder
// reports keys as plain strings, so each open container records whether its
// next string token is a key.
type source struct {
	dec   *json.Decoder
	stack []container
}

func newSource(b []byte) *source {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return &source{dec: dec}
}

func (s *source) NextToken() (engine.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return engine.Token{}, err
	}
	switch v := tok.(type) {
	case json.Delim:
		return s.delim(v)
	case string:
		if n := len(s.stack); n > 0 && s.stack[n-1].keyNext {
			s.stack[n-1].keyNext = false
			return engine.Token{Kind: engine.KindKey, String: v, Offset: s.dec.InputOffset()}, nil
		}
		s.valueDone()
		return engine.Token{Kind: engine.KindString, String: v, Offset: s.dec.InputOffset()}, nil
	case json.Number:
		s.valueDone()
		return engine.Token{Kind: engine.KindNumber, Number: v.String(), Offset: s.dec.InputOffset()}, nil
	case bool:
		s.valueDone()
		return engine.Token{Kind: engine.KindBool, Bool: v, Offset: s.dec.InputOffset()}, nil
	case nil:
		s.valueDone()
		return engine.Token{Kind: engine.KindNull, Offset: s.dec.InputOffset()}, nil
	}
	return engine.Token{}, fmt.Errorf("unexpected token %T", tok)
}

func (s *source) delim(d json.Delim) (engine.Token, error) {
	switch d {
	case '{':
		s.stack = append(s.stack, container{object: true, keyNext: true})
		return engine.Token{Kind: engine.KindBeginObject, Offset: s.dec.InputOffset()}, nil
	case '[':
		s.stack = append(s.stack, container{})
		return engine.Token{Kind: engine.KindBeginArray, Offset: s.dec.InputOffset()}, nil
	}
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	s.valueDone()
	if d == '}' {
		return engine.Token{Kind: engine.KindEndObject, Offset: s.dec.InputOffset()}, nil
	}
	return engine.Token{Kind: engine.KindEndArray, Offset: s.dec.InputOffset()}, nil
}

// valueDone re-arms key detection after a member value inside an object.
func (s *source) valueDone() {
	if n := len(s.stack); n > 0 && s.stack[n-1].object {
		s.stack[n-1].keyNext = true
	}
}

func (s *source) Location() int64 { return s.dec.InputOffset() }
