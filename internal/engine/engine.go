package engine

import (
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/reoring/goserde/wire"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

var errTrailingData = errors.New("trailing data after top-level value")

// BuildTree consumes src and builds the value tree walked by Cursor.
// Objects become map[string]any, arrays []any, numbers json.Number.
// Any token error or trailing data is reported as malformed_input; issues
// already raised by the enforcement layer are returned unchanged.
func BuildTree(src TokenSource) (any, error) {
	tok, err := src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, wire.Wrap(wire.CodeMalformedInput, "", io.ErrUnexpectedEOF)
		}
		return nil, asMalformed(err)
	}
	v, err := decodeValue(src, tok)
	if err != nil {
		return nil, asMalformed(err)
	}
	if _, err := src.NextToken(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, asMalformed(err)
		}
		return nil, wire.Wrap(wire.CodeMalformedInput, "", errTrailingData)
	}
	return v, nil
}

func asMalformed(err error) error {
	if _, ok := wire.AsIssue(err); ok {
		return err
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return wire.Wrap(wire.CodeMalformedInput, "", err)
}

func decodeValue(src TokenSource, tok Token) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return decodeObject(src)
	case KindBeginArray:
		return decodeArray(src)
	case KindString:
		return tok.String, nil
	case KindNumber:
		return json.Number(tok.Number), nil
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected token kind %d", tok.Kind)
	}
}

func decodeObject(src TokenSource) (any, error) {
	m := make(map[string]any)
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, io.ErrUnexpectedEOF
		}
		vt, err := src.NextToken()
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(src, vt)
		if err != nil {
			return nil, err
		}
		// Duplicates that survive enforcement resolve to the last value.
		m[tok.String] = v
	}
}

func decodeArray(src TokenSource) (any, error) {
	arr := []any{}
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := decodeValue(src, tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

// CheckSize rejects inputs larger than max bytes (max <= 0 disables it).
func CheckSize(n int, max int64) error {
	if max > 0 && int64(n) > max {
		return wire.Wrap(wire.CodeMalformedInput, "", fmt.Errorf("input of %d bytes exceeds limit of %d", n, max))
	}
	return nil
}
