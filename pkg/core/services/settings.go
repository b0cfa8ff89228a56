// Package services wires the core components into the operations the
// outer surfaces call: settings, schedule administration and the
// appointment lifecycle around admission.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"dockbook/pkg/cache"
	"dockbook/pkg/db"
)

const bufferCacheKey = "buffer_minutes"

// Settings serves the globally tunable values with a TTL cache in
// front of the store. It implements docks.BufferSource.
type Settings struct {
	store          db.SettingsStore
	cache          *cache.Cache[string, int]
	defaultMinutes int
	logger         *zap.Logger
}

// NewSettings creates a settings service. defaultMinutes is used until
// a buffer value has been written to the store.
func NewSettings(store db.SettingsStore, c *cache.Cache[string, int], defaultMinutes int, logger *zap.Logger) *Settings {
	return &Settings{store: store, cache: c, defaultMinutes: defaultMinutes, logger: logger}
}

// BufferMinutes returns the global dock idle buffer.
func (s *Settings) BufferMinutes(ctx context.Context) (int, error) {
	if minutes, ok := s.cache.Get(bufferCacheKey); ok {
		return minutes, nil
	}

	minutes, err := s.store.GetBufferMinutes(ctx)
	if errors.Is(err, db.ErrNotFound) {
		minutes = s.defaultMinutes
	} else if err != nil {
		return 0, fmt.Errorf("failed to load buffer minutes: %w", err)
	}

	s.cache.Set(bufferCacheKey, minutes)
	return minutes, nil
}

// SetBufferMinutes writes the buffer and invalidates the cache so the
// next read observes the new value immediately.
func (s *Settings) SetBufferMinutes(ctx context.Context, minutes int) error {
	if err := s.store.SetBufferMinutes(ctx, minutes); err != nil {
		return err
	}
	s.cache.Invalidate()
	s.logger.Info("Buffer minutes updated", zap.Int("minutes", minutes))
	return nil
}
