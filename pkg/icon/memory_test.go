package icon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCacheEvictsByBytes(t *testing.T) {
	var evicted int
	// Room for exactly two 8×8 icons.
	m := newMemoryCache(2*bitmapBytes(8, 8), func() { evicted++ })

	a, b, c := solid(red, 8), solid(green, 8), solid(blue, 8)
	m.add("a", a)
	m.add("b", b)

	// Touch a so that b becomes the oldest.
	_, ok := m.get("a")
	assert.True(t, ok)

	m.add("c", c)

	_, ok = m.get("b")
	assert.False(t, ok, "least recently used entry is evicted")
	got, ok := m.get("a")
	assert.True(t, ok)
	assert.Same(t, a, got)
	_, ok = m.get("c")
	assert.True(t, ok)

	entries, bytes, budget, evictions := m.stats()
	assert.Equal(t, 2, entries)
	assert.Equal(t, 2*bitmapBytes(8, 8), bytes)
	assert.Equal(t, budget, bytes)
	assert.Equal(t, uint64(1), evictions)
	assert.Equal(t, 1, evicted)
}

func TestMemoryCacheLargeEntryEvictsSeveral(t *testing.T) {
	m := newMemoryCache(bitmapBytes(16, 16), nil)

	for _, k := range []string{"a", "b", "c", "d"} {
		m.add(k, solid(red, 8))
	}
	m.add("big", solid(red, 16))

	entries, bytes, _, evictions := m.stats()
	assert.Equal(t, 1, entries)
	assert.Equal(t, bitmapBytes(16, 16), bytes)
	assert.Equal(t, uint64(4), evictions)
}

func TestMemoryCacheSkipsOversized(t *testing.T) {
	m := newMemoryCache(bitmapBytes(4, 4), nil)

	m.add("small", solid(red, 4))
	m.add("huge", solid(red, 8))

	_, ok := m.get("huge")
	assert.False(t, ok)
	_, ok = m.get("small")
	assert.True(t, ok, "oversized entry does not flush the cache")
}

func TestMemoryCacheReplaceKeepsAccounting(t *testing.T) {
	m := newMemoryCache(bitmapBytes(16, 16), nil)

	m.add("a", solid(red, 8))
	m.add("a", solid(green, 4))

	entries, bytes, _, _ := m.stats()
	assert.Equal(t, 1, entries)
	assert.Equal(t, bitmapBytes(4, 4), bytes)
}

func TestMemoryCachePurge(t *testing.T) {
	m := newMemoryCache(bitmapBytes(16, 16), nil)
	m.add("a", solid(red, 8))

	m.purge()

	entries, bytes, _, _ := m.stats()
	assert.Zero(t, entries)
	assert.Zero(t, bytes)
}
