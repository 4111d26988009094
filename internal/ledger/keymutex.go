package ledger

import "sync"

// KeyedMutex serializes operations per user identifier. Operations on
// different users proceed in parallel; two mutations for the same user are
// mutually exclusive for the duration of read-modify-write-persist.
//
// Entries are never evicted: the map is bounded by the number of distinct
// users seen by the process, and a mutex is a few words.
type KeyedMutex struct {
	mu    sync.RWMutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex creates an empty per-key mutex registry.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns the matching unlock func.
func (m *KeyedMutex) Lock(key string) func() {
	l := m.get(key)
	l.Lock()
	return l.Unlock
}

func (m *KeyedMutex) get(key string) *sync.Mutex {
	m.mu.RLock()
	l, ok := m.locks[key]
	m.mu.RUnlock()
	if ok {
		return l
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if l, ok = m.locks[key]; ok {
		return l
	}
	l = &sync.Mutex{}
	m.locks[key] = l
	return l
}
