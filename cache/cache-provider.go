package cache

import (
	"net/http"
	"sync"
	"time"
)

// Entry is a stored response together with the key it is stored under.
// The URL is kept alongside the key so that invalidation can match on
// request paths even though keys themselves are hashed.
type Entry struct {
	Key      string
	Method   string
	URL      string
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// Clone returns a deep copy of the entry.
// The provider owns its entries exclusively; everything going in or out
// is copied so callers can never mutate a stored response in place.
func (e Entry) Clone() Entry {
	clone := e
	if e.Header != nil {
		clone.Header = e.Header.Clone()
	}
	if e.Body != nil {
		clone.Body = make([]byte, len(e.Body))
		copy(clone.Body, e.Body)
	}
	return clone
}

// Provider is an interface for a cache provider.
// It stores response entries under opaque keys.
// Entries never expire on their own; they live until purged or cleared.
//
// Implementations must be thread-safe!
type Provider interface {
	// Get returns the entry for the given key, if it exists.
	// The returned entry is a copy; mutating it does not affect
	// the store.
	Get(key string) (Entry, bool)
	// Put stores the given entry under the given key,
	// overwriting any existing entry.
	Put(key string, entry Entry)
	// Purge removes the entry for the given key.
	// It is a no-op if the key is absent.
	Purge(key string)
	// PurgeMatching removes every entry satisfying match
	// and returns the removed entries.
	// The matcher is supplied by the invalidation policy;
	// the provider itself is policy-agnostic.
	PurgeMatching(match func(Entry) bool) []Entry
	// Clear removes all entries and returns how many were removed.
	Clear() int
	// Len returns the number of stored entries.
	Len() int
	// Keys calls the given callback for each key.
	Keys(cb func(string))
}

type MemCache struct {
	mutex *sync.RWMutex
	db    map[string]Entry
}

func NewMemCache() MemCache {
	return MemCache{
		mutex: &sync.RWMutex{},
		db:    make(map[string]Entry),
	}
}

func (m MemCache) Get(key string) (Entry, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	entry, ok := m.db[key]
	if !ok {
		return Entry{}, false
	}
	return entry.Clone(), true
}

func (m MemCache) Put(key string, entry Entry) {
	clone := entry.Clone()
	clone.Key = key
	if clone.StoredAt.IsZero() {
		clone.StoredAt = time.Now()
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.db[key] = clone
}

func (m MemCache) Purge(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.db, key)
}

func (m MemCache) PurgeMatching(match func(Entry) bool) []Entry {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	removed := make([]Entry, 0)
	for key, entry := range m.db {
		if match(entry) {
			removed = append(removed, entry)
			delete(m.db, key)
		}
	}
	return removed
}

func (m MemCache) Clear() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	count := len(m.db)
	for key := range m.db {
		delete(m.db, key)
	}
	return count
}

func (m MemCache) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.db)
}

func (m MemCache) Keys(cb func(string)) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for key := range m.db {
		cb(key)
	}
}
