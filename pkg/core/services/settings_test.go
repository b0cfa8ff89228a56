package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dockbook/pkg/cache"
	"dockbook/pkg/db"
)

type mockSettingsStore struct {
	minutes int
	set     bool
	reads   int
}

func (m *mockSettingsStore) GetBufferMinutes(ctx context.Context) (int, error) {
	m.reads++
	if !m.set {
		return 0, fmt.Errorf("buffer: %w", db.ErrNotFound)
	}
	return m.minutes, nil
}

func (m *mockSettingsStore) SetBufferMinutes(ctx context.Context, minutes int) error {
	m.minutes = minutes
	m.set = true
	return nil
}

func newSettingsCache() *cache.Cache[string, int] {
	return cache.New[string, int](time.Minute)
}

func TestBufferMinutes_FallsBackToDefault(t *testing.T) {
	store := &mockSettingsStore{}
	s := NewSettings(store, newSettingsCache(), 15, zap.NewNop())

	minutes, err := s.BufferMinutes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, minutes)
}

func TestBufferMinutes_CachesReads(t *testing.T) {
	store := &mockSettingsStore{minutes: 20, set: true}
	s := NewSettings(store, newSettingsCache(), 15, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		minutes, err := s.BufferMinutes(ctx)
		require.NoError(t, err)
		assert.Equal(t, 20, minutes)
	}
	assert.Equal(t, 1, store.reads)
}

func TestSetBufferMinutes_InvalidatesCache(t *testing.T) {
	store := &mockSettingsStore{minutes: 20, set: true}
	s := NewSettings(store, newSettingsCache(), 15, zap.NewNop())
	ctx := context.Background()

	minutes, err := s.BufferMinutes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, minutes)

	require.NoError(t, s.SetBufferMinutes(ctx, 30))

	// A fresh read, not the cached 20
	minutes, err = s.BufferMinutes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, minutes)
	assert.Equal(t, 2, store.reads)
}
