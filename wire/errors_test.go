package wire_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/goserde/wire"
)

func TestIssue_IsMatchesSentinelByCode(t *testing.T) {
	err := fmt.Errorf("loading: %w", wire.TypeMismatch("/a/0", "int32", "string"))

	assert.ErrorIs(t, err, wire.ErrTypeMismatch)
	assert.NotErrorIs(t, err, wire.ErrMissingField)

	iss, ok := wire.AsIssue(err)
	require.True(t, ok)
	assert.Equal(t, wire.CodeTypeMismatch, iss.Code)
	assert.Equal(t, "/a/0", iss.Path)
	assert.Equal(t, "int32", iss.Params["expected"])
}

func TestIssue_ErrorIncludesCause(t *testing.T) {
	cause := errors.New("disk full")
	iss := wire.Wrap(wire.CodeSinkFault, "", cause)

	assert.ErrorIs(t, iss, cause)
	assert.ErrorIs(t, iss, wire.ErrSinkFault)
	assert.Equal(t, "sink_fault at /: output sink failed: disk full", iss.Error())
}

func TestMissingField_PathIncludesName(t *testing.T) {
	iss := wire.MissingField("/symbols/1", "name")
	assert.Equal(t, "/symbols/1/name", iss.Path)
	assert.ErrorIs(t, iss, wire.ErrMissingField)
}

func TestJoinPointer_Escapes(t *testing.T) {
	assert.Equal(t, "/a~1b", wire.JoinPointer("", "a/b"))
	assert.Equal(t, "/x/m~0n", wire.JoinPointer("/x", "m~n"))
	assert.Equal(t, "/k", wire.JoinPointer("/", "k"))
}

func TestAsIssue_Nil(t *testing.T) {
	_, ok := wire.AsIssue(nil)
	assert.False(t, ok)
	_, ok = wire.AsIssue(errors.New("plain"))
	assert.False(t, ok)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]wire.Format{
		"json": wire.FormatJSON, "JSON": wire.FormatJSON,
		"binary": wire.FormatBinary, "msgpack": wire.FormatBinary, "blob": wire.FormatBinary,
	} {
		got, err := wire.ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := wire.ParseFormat("xml")
	assert.Error(t, err)

	assert.Equal(t, ".blob", wire.FormatBinary.Ext())
	assert.Equal(t, "json", wire.FormatJSON.String())
}
