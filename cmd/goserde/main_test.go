package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/goserde"
	"github.com/reoring/goserde/index"
	"github.com/reoring/goserde/store"
)

func writeIndex(t *testing.T, dir, name string, format goserde.Format, rec goserde.Record) string {
	t.Helper()
	data, err := goserde.Serialize(context.Background(), format, rec)
	require.NoError(t, err)
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func sample() *index.File {
	return &index.File{
		Language: "c",
		Includes: []index.Include{{Line: 1, ResolvedPath: "stdio.h"}},
		Symbols:  []index.Symbol{{USR: 9, Name: "main", Kind: index.KindFunction, Extent: index.Range{StartLine: 2}}},
	}
}

type oldFile struct{ index.File }

func (*oldFile) SchemaVersion() int { return 1 }

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestConvert_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := writeIndex(t, dir, "a.json", goserde.FormatJSON, sample())
	blob := filepath.Join(dir, "out", "a.blob")
	back := filepath.Join(dir, "b.json")

	code, _, stderr := runCLI(t, "convert", "-i", in, "-o", blob)
	require.Equal(t, exitOK, code, stderr)
	code, _, stderr = runCLI(t, "convert", "-i", blob, "-o", back, "-pretty")
	require.Equal(t, exitOK, code, stderr)

	want, err := os.ReadFile(in)
	require.NoError(t, err)
	got, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
	assert.True(t, strings.HasSuffix(string(got), "}\n"))
}

func TestCheck_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	current := writeIndex(t, dir, "cur.blob", goserde.FormatBinary, sample())
	stale := writeIndex(t, dir, "old.json", goserde.FormatJSON, &oldFile{File: *sample()})
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"version":`), 0o644))

	code, out, _ := runCLI(t, "check", current)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "current")

	code, out, _ = runCLI(t, "check", stale)
	assert.Equal(t, exitStale, code)
	assert.Contains(t, out, "stale")

	code, _, _ = runCLI(t, "check", "-version", "1", stale)
	assert.Equal(t, exitOK, code)

	code, _, stderr := runCLI(t, "check", broken)
	assert.Equal(t, exitFail, code)
	assert.Contains(t, stderr, "malformed_input")
}

func TestInspect_PrintsSummaryTuple(t *testing.T) {
	dir := t.TempDir()
	p := writeIndex(t, dir, "a.json", goserde.FormatJSON, sample())
	code, out, stderr := runCLI(t, "inspect", p)
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, `["`+p+`","c",1,[[2,12,"main"]]]`+"\n", out)
}

func TestStore_PutGet(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "goserde.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("format: binary\nstore:\n  dir: "+filepath.Join(dir, "cache")+"\n  compression: fastest\n"), 0o644))
	p := writeIndex(t, dir, "a.json", goserde.FormatJSON, sample())

	code, _, stderr := runCLI(t, "-config", cfg, "store", "put", "-key", "a.c", p)
	require.Equal(t, exitOK, code, stderr)

	code, out, stderr := runCLI(t, "-config", cfg, "store", "get", "-key", "a.c")
	require.Equal(t, exitOK, code, stderr)
	want, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), out)

	code, _, _ = runCLI(t, "-config", cfg, "store", "get", "-key", "missing")
	assert.Equal(t, exitFail, code)
}

func TestStore_PutHonorsPretty(t *testing.T) {
	dir := t.TempDir()
	cache := filepath.Join(dir, "cache")
	cfg := filepath.Join(dir, "goserde.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("format: json\npretty: true\nstore:\n  dir: "+cache+"\n"), 0o644))
	p := writeIndex(t, dir, "a.json", goserde.FormatJSON, sample())

	code, _, stderr := runCLI(t, "-config", cfg, "store", "put", "-key", "a.c", p)
	require.Equal(t, exitOK, code, stderr)

	b, err := store.NewFileBackend(cache)
	require.NoError(t, err)
	defer b.Close()
	a, err := b.Get(context.Background(), "a.c")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(a.Data), "{\n  \"version\": 3,\n"), string(a.Data))
}

func TestStore_Stale(t *testing.T) {
	dir := t.TempDir()
	cache := filepath.Join(dir, "cache")
	cfg := filepath.Join(dir, "goserde.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[store]\ndir = \""+cache+"\"\n"), 0o644))
	old := writeIndex(t, dir, "old.json", goserde.FormatJSON, &oldFile{File: *sample()})

	// put validates the version, so it refuses stale input.
	code, _, _ := runCLI(t, "-config", cfg, "store", "put", old)
	assert.Equal(t, exitFail, code)

	b, err := store.NewFileBackend(cache)
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, store.Save(context.Background(), b, "old.c", goserde.FormatJSON, &oldFile{File: *sample()}))

	code, out, _ := runCLI(t, "-config", cfg, "store", "get", "-key", "old.c")
	assert.Equal(t, exitStale, code)
	assert.Contains(t, out, "stale, removed")
	_, err = b.Get(context.Background(), "old.c")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsage(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "Usage:")

	code, _, _ = runCLI(t, "bogus")
	assert.Equal(t, exitUsage, code)

	code, _, _ = runCLI(t, "convert", "-i", "x")
	assert.Equal(t, exitUsage, code)

	code, _, stderr = runCLI(t, "-config", "nope.ini", "check", "x")
	assert.Equal(t, exitFail, code)
	assert.Contains(t, stderr, "unsupported extension")
}
