// Package memo memoises pure, string-keyed computations in a go-cache store.
//
// Entries expire after a sliding ttl: every hit pushes the expiry out again, so
// a key the host keeps asking about is computed once per process.
package memo

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/relayout/internal/log"
)

// Stats counts lookups since the Memo was created.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// Memo caches the results of fn by key.
type Memo[V any] struct {
	name   string
	ttl    time.Duration
	fn     func(key string) V
	store  *gocache.Cache
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a Memo over fn. A non-positive ttl keeps entries until Forget.
func New[V any](name string, ttl time.Duration, fn func(key string) V) *Memo[V] {
	cleanup := ttl
	if ttl <= 0 {
		ttl, cleanup = gocache.NoExpiration, 0
	}
	return &Memo[V]{
		name:  name,
		ttl:   ttl,
		fn:    fn,
		store: gocache.New(ttl, cleanup),
	}
}

// Get returns the cached value for key, computing and storing it on a miss.
func (m *Memo[V]) Get(key string) V {
	if cached, ok := m.store.Get(key); ok {
		if v, ok := cached.(V); ok {
			m.hits.Add(1)
			m.store.Set(key, v, m.ttl)
			return v
		}
		log.Error(log.CatCache, "cached value has the wrong type", "memo", m.name, "key", key)
	}

	m.misses.Add(1)
	v := m.fn(key)
	m.store.Set(key, v, m.ttl)
	log.Debug(log.CatCache, "memo miss", "memo", m.name, "key", key)
	return v
}

// Forget drops the given keys, or every key when none is named.
func (m *Memo[V]) Forget(keys ...string) {
	if len(keys) == 0 {
		m.store.Flush()
		return
	}
	for _, k := range keys {
		m.store.Delete(k)
	}
}

// Stats reports hit and miss counts and the live entry count.
func (m *Memo[V]) Stats() Stats {
	return Stats{
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
		Entries: m.store.ItemCount(),
	}
}
