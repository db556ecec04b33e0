package cache

import (
	"container/list"
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCapacity is the Memory entry limit when none is configured.
const DefaultCapacity = 512

type entry struct {
	key     string
	value   []byte
	tags    []Tag
	expires time.Time
}

// Stats reports Memory cache activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithCapacity sets the maximum number of entries.
func WithCapacity(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.capacity = n
		}
	}
}

// WithDefaultTTL sets the lifetime applied when Set receives a zero ttl.
// Zero means entries never expire.
func WithDefaultTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) {
		m.defaultTTL = max(ttl, 0)
	}
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// Memory is an in-process LRU cache with per-entry expiry and a tag index.
type Memory struct {
	mu         sync.Mutex
	capacity   int
	defaultTTL time.Duration
	now        func() time.Time

	items *list.List
	index map[string]*list.Element
	tags  map[Tag]map[string]struct{}

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an empty Memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		capacity: DefaultCapacity,
		now:      time.Now,
		items:    list.New(),
		index:    make(map[string]*list.Element),
		tags:     make(map[Tag]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.index[key]
	if !ok {
		m.misses.Add(1)
		return nil, false, nil
	}

	e := el.Value.(*entry)
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.removeLocked(el)
		m.misses.Add(1)
		return nil, false, nil
	}

	m.items.MoveToFront(el)
	m.hits.Add(1)
	return slices.Clone(e.value), true, nil
}

// Set stores a copy of value under key, labeled with tags. The least recently
// used entry is evicted when the cache is full.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration, tags ...Tag) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	e := &entry{
		key:   key,
		value: slices.Clone(value),
		tags:  slices.Compact(slices.Sorted(slices.Values(tags))),
	}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.index[key]; ok {
		m.removeLocked(el)
	}

	m.index[key] = m.items.PushFront(e)
	for _, tag := range e.tags {
		keys, ok := m.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			m.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}

	for m.items.Len() > m.capacity {
		m.removeLocked(m.items.Back())
		m.evictions.Add(1)
	}
	return nil
}

// InvalidateTags drops every entry labeled with any of tags.
func (m *Memory) InvalidateTags(_ context.Context, tags ...Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tag := range tags {
		for key := range m.tags[tag] {
			if el, ok := m.index[key]; ok {
				m.removeLocked(el)
			}
		}
		delete(m.tags, tag)
	}
	return nil
}

// Reset drops all entries. Stats counters are kept.
func (m *Memory) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items.Init()
	clear(m.index)
	clear(m.tags)
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// collected.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Len()
}

// Stats returns a snapshot of cache counters.
func (m *Memory) Stats() Stats {
	return Stats{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Evictions: m.evictions.Load(),
		Entries:   m.Len(),
	}
}

func (m *Memory) removeLocked(el *list.Element) {
	e := m.items.Remove(el).(*entry)
	delete(m.index, e.key)
	for _, tag := range e.tags {
		if keys, ok := m.tags[tag]; ok {
			delete(keys, e.key)
			if len(keys) == 0 {
				delete(m.tags, tag)
			}
		}
	}
}
