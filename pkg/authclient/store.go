package authclient

import "sync"

// KeyValue is the token storage contract. Implementations may persist
// anywhere (file, keychain, browser storage behind wasm); the client only
// requires the write-on-success, clear-on-failure behavior it drives.
type KeyValue interface {
	Get(key string) (string, bool)
	Set(key string, value string)
	Delete(key string)
}

// MemoryStore is a threadsafe in-memory KeyValue. The zero value is not
// usable; call NewMemoryStore.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key string, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}
