// Package config loads the CLI configuration from a YAML or TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/reoring/goserde"
)

// Config is the CLI configuration. Zero-valued fields fall back to Default.
type Config struct {
	Format      string `yaml:"format" toml:"format"`
	ProjectRoot string `yaml:"project_root" toml:"project_root"`
	Pretty      bool   `yaml:"pretty" toml:"pretty"`
	Indent      string `yaml:"indent" toml:"indent"`
	Decode      Decode `yaml:"decode" toml:"decode"`
	Store       Store  `yaml:"store" toml:"store"`
	Log         Log    `yaml:"log" toml:"log"`
}

type Decode struct {
	Duplicates string `yaml:"duplicates" toml:"duplicates"` // error, warn or ignore
	MaxDepth   int    `yaml:"max_depth" toml:"max_depth"`
	MaxBytes   int64  `yaml:"max_bytes" toml:"max_bytes"`
}

type Store struct {
	Backend     string `yaml:"backend" toml:"backend"` // file or redis
	Dir         string `yaml:"dir" toml:"dir"`
	Compression string `yaml:"compression" toml:"compression"` // none, fastest, default, better, best
	Redis       Redis  `yaml:"redis" toml:"redis"`
}

type Redis struct {
	Addr     string `yaml:"addr" toml:"addr"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
	Prefix   string `yaml:"prefix" toml:"prefix"`
	TTL      string `yaml:"ttl" toml:"ttl"`
}

type Log struct {
	Level   string `yaml:"level" toml:"level"`
	NoColor bool   `yaml:"no_color" toml:"no_color"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Format: "json",
		Indent: "  ",
		Decode: Decode{Duplicates: "error", MaxDepth: goserde.DefaultMaxDepth},
		Store: Store{
			Backend:     "file",
			Dir:         ".goserde-cache",
			Compression: "none",
			Redis:       Redis{Addr: "127.0.0.1:6379", Prefix: "goserde::"},
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path, choosing the decoder by extension (.yaml, .yml or .toml),
// applies it over Default and validates the result. Unknown keys are errors.
func Load(path string) (Config, error) {
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
		}
	default:
		return Config{}, fmt.Errorf("load config: unsupported extension %q", ext)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated fields and limits.
func (c Config) Validate() error {
	if _, err := goserde.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := c.severity(); err != nil {
		return err
	}
	if c.Decode.MaxDepth < 0 || c.Decode.MaxBytes < 0 {
		return errors.New("decode limits must not be negative")
	}
	switch c.Store.Backend {
	case "file":
		if c.Store.Dir == "" {
			return errors.New("store.dir is required for the file backend")
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if _, _, err := c.Compression(); err != nil {
		return err
	}
	if _, err := c.TTL(); err != nil {
		return err
	}
	return nil
}

// WireFormat returns the configured default format.
func (c Config) WireFormat() goserde.Format {
	f, _ := goserde.ParseFormat(c.Format)
	return f
}

func (c Config) severity() (goserde.Severity, error) {
	switch strings.ToLower(c.Decode.Duplicates) {
	case "", "error":
		return goserde.Error, nil
	case "warn":
		return goserde.Warn, nil
	case "ignore":
		return goserde.Ignore, nil
	}
	return 0, fmt.Errorf("unknown duplicates policy %q", c.Decode.Duplicates)
}

// DecodeOpt returns the read options described by the configuration.
func (c Config) DecodeOpt() goserde.DecodeOpt {
	sev, _ := c.severity()
	return goserde.DecodeOpt{
		Strictness: goserde.Strictness{OnDuplicateKey: sev},
		MaxDepth:   c.Decode.MaxDepth,
		MaxBytes:   c.Decode.MaxBytes,
	}
}

// EncodeOpt returns the write options described by the configuration.
func (c Config) EncodeOpt() goserde.EncodeOpt {
	return goserde.EncodeOpt{Pretty: c.Pretty, Indent: c.Indent}
}

// Compression reports whether store compression is on and at which level.
func (c Config) Compression() (bool, zstd.EncoderLevel, error) {
	switch strings.ToLower(c.Store.Compression) {
	case "", "none":
		return false, 0, nil
	case "fastest":
		return true, zstd.SpeedFastest, nil
	case "default":
		return true, zstd.SpeedDefault, nil
	case "better":
		return true, zstd.SpeedBetterCompression, nil
	case "best":
		return true, zstd.SpeedBestCompression, nil
	}
	return false, 0, fmt.Errorf("unknown compression %q", c.Store.Compression)
}

// TTL parses store.redis.ttl; empty means no expiry.
func (c Config) TTL() (time.Duration, error) {
	s := strings.TrimSpace(c.Store.Redis.TTL)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse store.redis.ttl: %w", err)
	}
	if d < 0 {
		return 0, errors.New("store.redis.ttl must not be negative")
	}
	return d, nil
}
