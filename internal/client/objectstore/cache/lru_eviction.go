package cache

import (
	"container/list"
	"sync"
)

// SizeFunc reports the size of the object stored under key, 0 when unknown.
type SizeFunc func(key string) int64

type lruEntry struct {
	key  string
	size int64
}

// LRUEvictionPolicy tracks cached keys by recency and evicts the least
// recently used ones once their total size exceeds maxSizeBytes.
type LRUEvictionPolicy struct {
	mu sync.Mutex

	maxSizeBytes int64
	currentSize  int64
	sizeOf       SizeFunc

	// items maps cache keys to their position in the LRU list.
	items map[string]*list.Element
	// order keeps items ordered by recency (front = most recently used).
	order *list.List
}

// NewLRUEvictionPolicy creates an LRU policy with a soft limit of maxSizeBytes.
// A non-positive limit never evicts. Unknown sizes count as 0.
func NewLRUEvictionPolicy(maxSizeBytes int64, sizeOf SizeFunc) *LRUEvictionPolicy {
	if sizeOf == nil {
		sizeOf = func(string) int64 { return 0 }
	}
	return &LRUEvictionPolicy{
		maxSizeBytes: maxSizeBytes,
		sizeOf:       sizeOf,
		items:        make(map[string]*list.Element),
		order:        list.New(),
	}
}

func (p *LRUEvictionPolicy) OnAccess(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if elem, ok := p.items[key]; ok {
		p.order.MoveToFront(elem)
	}
}

func (p *LRUEvictionPolicy) OnAdd(key string) []string {
	size := p.sizeOf(key)

	p.mu.Lock()
	defer p.mu.Unlock()

	// If the key already exists, treat as access.
	if elem, ok := p.items[key]; ok {
		p.order.MoveToFront(elem)
		return nil
	}

	elem := p.order.PushFront(&lruEntry{key: key, size: size})
	p.items[key] = elem
	p.currentSize += size

	return p.evictIfNeeded()
}

func (p *LRUEvictionPolicy) OnRemove(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elem, ok := p.items[key]
	if !ok {
		return
	}

	p.currentSize -= elem.Value.(*lruEntry).size
	p.order.Remove(elem)
	delete(p.items, key)
}

// Size returns the tracked total size in bytes.
func (p *LRUEvictionPolicy) Size() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentSize
}

func (p *LRUEvictionPolicy) evictIfNeeded() []string {
	if p.maxSizeBytes <= 0 {
		return nil
	}

	var evicted []string
	for p.currentSize > p.maxSizeBytes && p.order.Len() > 0 {
		back := p.order.Back()
		entry := back.Value.(*lruEntry)

		delete(p.items, entry.key)
		p.order.Remove(back)
		p.currentSize -= entry.size
		evicted = append(evicted, entry.key)
	}

	return evicted
}
