package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/reoring/goserde"
)

const compressedExt = ".zst"

// FileOption configures a FileBackend.
type FileOption func(*fileConfig)

type fileConfig struct {
	compress bool
	level    zstd.EncoderLevel
}

// WithCompression enables zstd compression at level for new artifacts.
// Compressed and plain artifacts can be read regardless of this setting.
func WithCompression(level zstd.EncoderLevel) FileOption {
	return func(c *fileConfig) {
		c.compress = true
		c.level = level
	}
}

// FileBackend stores one file per key under a directory, sharded by the
// key's hash. Writes go to a temporary file renamed into place.
type FileBackend struct {
	dir string
	enc *zstd.Encoder // nil when compression is off
	dec *zstd.Decoder
}

var _ Backend = (*FileBackend)(nil)

// NewFileBackend returns a backend rooted at dir, creating it if needed.
func NewFileBackend(dir string, opts ...FileOption) (*FileBackend, error) {
	if dir == "" {
		return nil, errors.New("store: directory is required")
	}
	var cfg fileConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create %s: %w", dir, err)
	}
	b := &FileBackend{dir: dir}
	if cfg.compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(cfg.level))
		if err != nil {
			return nil, err
		}
		b.enc = enc
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	b.dec = dec
	return b, nil
}

// Close releases the codec resources.
func (b *FileBackend) Close() error {
	if b.enc != nil {
		if err := b.enc.Close(); err != nil {
			return err
		}
	}
	b.dec.Close()
	return nil
}

// base returns the extension-less path for key.
func (b *FileBackend) base(key string) string {
	h := fmt.Sprintf("%016x", xxhash.Sum64String(key))
	return filepath.Join(b.dir, h[:2], h)
}

// candidates lists every file name an artifact for key may have.
func (b *FileBackend) candidates(key string) []string {
	base := b.base(key)
	var out []string
	for _, f := range []goserde.Format{goserde.FormatJSON, goserde.FormatBinary} {
		out = append(out, base+f.Ext(), base+f.Ext()+compressedExt)
	}
	return out
}

func (b *FileBackend) Put(ctx context.Context, key string, a Artifact) error {
	name := b.base(key) + a.Format.Ext()
	data := a.Data
	if b.enc != nil {
		name += compressedExt
		data = b.enc.EncodeAll(a.Data, nil)
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(name), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	// Drop copies left in another format or compression.
	for _, c := range b.candidates(key) {
		if c != name {
			if err := os.Remove(c); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
	}
	return nil
}

func (b *FileBackend) Get(ctx context.Context, key string) (Artifact, error) {
	for _, name := range b.candidates(key) {
		data, err := os.ReadFile(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Artifact{}, err
		}
		ext := filepath.Ext(name)
		if ext == compressedExt {
			if data, err = b.dec.DecodeAll(data, nil); err != nil {
				return Artifact{}, fmt.Errorf("store: decompress %s: %w", name, err)
			}
			ext = filepath.Ext(name[:len(name)-len(compressedExt)])
		}
		format := goserde.FormatJSON
		if ext == goserde.FormatBinary.Ext() {
			format = goserde.FormatBinary
		}
		return Artifact{Format: format, Data: data}, nil
	}
	return Artifact{}, ErrNotFound
}

func (b *FileBackend) Delete(ctx context.Context, key string) error {
	for _, c := range b.candidates(key) {
		if err := os.Remove(c); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
