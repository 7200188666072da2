// Package store persists serialized records under string keys and discards
// artifacts written under an older schema version.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/reoring/goserde"
)

var (
	// ErrNotFound is returned when no artifact exists for a key.
	ErrNotFound = errors.New("store: artifact not found")
	// ErrStale is returned by Load when the stored artifact was written under
	// a different schema version. The artifact has been deleted.
	ErrStale = errors.New("store: artifact is stale")
)

// Artifact is one stored envelope and the format it was written in.
type Artifact struct {
	Format goserde.Format
	Data   []byte
}

// Backend stores artifacts. Implementations must be safe for concurrent use.
type Backend interface {
	Put(ctx context.Context, key string, a Artifact) error
	Get(ctx context.Context, key string) (Artifact, error)
	Delete(ctx context.Context, key string) error
}

// Save serializes rec in format and stores it under key.
func Save(ctx context.Context, b Backend, key string, format goserde.Format, rec goserde.Record, opts ...goserde.EncodeOpt) error {
	data, err := goserde.Serialize(ctx, format, rec, opts...)
	if err != nil {
		return fmt.Errorf("store: serialize %s: %w", key, err)
	}
	if err := b.Put(ctx, key, Artifact{Format: format, Data: data}); err != nil {
		return fmt.Errorf("store: put %s: %w", key, err)
	}
	zerolog.Ctx(ctx).Debug().Str("key", key).Str("format", format.String()).Int("bytes", len(data)).Msg("artifact saved")
	return nil
}

// Load reads the artifact stored under key. The key doubles as the record's
// path identity; content is handed to Identifiable records unchanged. When
// expected is present and the stored version differs, the artifact is deleted
// and the returned error matches both ErrStale and goserde.ErrVersionMismatch.
func Load[T any, PT interface {
	*T
	goserde.Record
}](ctx context.Context, b Backend, key, content string, expected goserde.Optional[int], opts ...goserde.DecodeOpt) (*T, error) {
	a, err := b.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	rec, err := goserde.Deserialize[T, PT](ctx, a.Format, key, a.Data, content, expected, opts...)
	if err == nil {
		return rec, nil
	}
	if !goserde.IsVersionMismatch(err) {
		return nil, fmt.Errorf("store: load %s: %w", key, err)
	}
	log := zerolog.Ctx(ctx)
	if derr := b.Delete(ctx, key); derr != nil {
		log.Warn().Err(derr).Str("key", key).Msg("failed to delete stale artifact")
	} else {
		log.Info().Str("key", key).Msg("deleted stale artifact")
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrStale, key, err)
}
