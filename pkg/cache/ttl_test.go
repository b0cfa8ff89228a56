package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetSet(t *testing.T) {
	c := New[string, int](time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 42)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestExpiry(t *testing.T) {
	c := New[string, int](time.Minute)

	current := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Set("a", 1)

	current = current.Add(59 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok)

	current = current.Add(2 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate()

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)

	// Cache remains usable after invalidation
	c.Set("c", 3)
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}
