package icon

import (
	"image"
	"math"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// memoryCache is an LRU of rendered icons bounded by decoded bytes rather
// than entry count.
type memoryCache struct {
	mu        sync.Mutex
	lru       *simplelru.LRU[string, *image.NRGBA]
	bytes     int64
	budget    int64
	evictions uint64
	onEvict   func()
}

func newMemoryCache(budget int64, onEvict func()) *memoryCache {
	m := &memoryCache{budget: budget, onEvict: onEvict}

	// Count is unbounded; eviction is driven by m.bytes.
	lru, _ := simplelru.NewLRU[string, *image.NRGBA](math.MaxInt32, m.evicted)
	m.lru = lru
	return m
}

// evicted runs under m.mu from inside the LRU.
func (m *memoryCache) evicted(_ string, img *image.NRGBA) {
	m.bytes -= sizeOf(img)
	m.evictions++
	if m.onEvict != nil {
		m.onEvict()
	}
}

func (m *memoryCache) get(key string) (*image.NRGBA, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Get(key)
}

// add stores img and evicts least recently used entries until the budget
// holds. An icon larger than the whole budget is not cached.
func (m *memoryCache) add(key string, img *image.NRGBA) {
	n := sizeOf(img)

	m.mu.Lock()
	defer m.mu.Unlock()

	if n > m.budget {
		return
	}

	if old, ok := m.lru.Peek(key); ok {
		m.bytes -= sizeOf(old)
	}
	m.lru.Add(key, img)
	m.bytes += n

	for m.bytes > m.budget {
		if _, _, ok := m.lru.RemoveOldest(); !ok {
			break
		}
	}
}

func (m *memoryCache) purge() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lru.Purge()
	m.bytes = 0
}

func (m *memoryCache) stats() (entries int, bytes, budget int64, evictions uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len(), m.bytes, m.budget, m.evictions
}

func (m *memoryCache) usage() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bytes
}

func sizeOf(img *image.NRGBA) int64 {
	if img == nil {
		return 0
	}
	b := img.Bounds()
	return bitmapBytes(b.Dx(), b.Dy())
}
