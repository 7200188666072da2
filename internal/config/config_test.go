package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/goserde"
)

const yamlDoc = `
format: binary
project_root: /work
pretty: true
decode:
  duplicates: warn
  max_depth: 32
store:
  backend: redis
  compression: better
  redis:
    addr: localhost:6380
    db: 2
    ttl: 90s
log:
  level: debug
  no_color: true
`

const tomlDoc = `
format = "binary"
project_root = "/work"
pretty = true

[decode]
duplicates = "warn"
max_depth = 32

[store]
backend = "redis"
compression = "better"

[store.redis]
addr = "localhost:6380"
db = 2
ttl = "90s"

[log]
level = "debug"
no_color = true
`

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_YAMLAndTOMLAgree(t *testing.T) {
	fromYAML, err := Load(write(t, "c.yaml", yamlDoc))
	require.NoError(t, err)
	fromTOML, err := Load(write(t, "c.toml", tomlDoc))
	require.NoError(t, err)
	assert.Equal(t, fromYAML, fromTOML)

	c := fromYAML
	assert.Equal(t, goserde.FormatBinary, c.WireFormat())
	assert.Equal(t, "/work", c.ProjectRoot)
	// Unset keys keep their defaults.
	assert.Equal(t, ".goserde-cache", c.Store.Dir)
	assert.Equal(t, "goserde::", c.Store.Redis.Prefix)
	assert.Equal(t, "  ", c.Indent)

	assert.Equal(t, goserde.DecodeOpt{
		Strictness: goserde.Strictness{OnDuplicateKey: goserde.Warn},
		MaxDepth:   32,
	}, c.DecodeOpt())
	assert.Equal(t, goserde.EncodeOpt{Pretty: true, Indent: "  "}, c.EncodeOpt())

	on, level, err := c.Compression()
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, zstd.SpeedBetterCompression, level)

	ttl, err := c.TTL()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, ttl)
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]string{
		"c.yaml": "format: xml\n",
		"d.yaml": "unknown_key: 1\n",
		"e.toml": "bogus = 1\n",
		"f.toml": "[store]\nbackend = \"s3\"\n",
		"g.yml":  "store:\n  compression: extreme\n",
		"h.yml":  "store:\n  redis:\n    ttl: soon\n",
		"i.yml":  "decode:\n  duplicates: maybe\n",
		"j.json": "{}",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(write(t, name, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	c, err := Load(write(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, goserde.FormatJSON, c.WireFormat())
	on, _, err := c.Compression()
	require.NoError(t, err)
	assert.False(t, on)
}
