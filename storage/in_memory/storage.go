package in_memory

import (
	"encoding/json"

	"github.com/puzpuzpuz/xsync/v3"
)

// FallbackStore keeps serialized collections in process memory. Values are
// replaced whole, never mutated in place, so readers always observe a complete
// collection; concurrent writers to one key race and the last Set wins.
type FallbackStore struct {
	collections *xsync.MapOf[string, []byte]
}

func CreateFallbackStore() *FallbackStore {
	return &FallbackStore{
		collections: xsync.NewMapOf[string, []byte](),
	}
}

// Get returns a copy of the stored value.
func (s *FallbackStore) Get(key string) ([]byte, bool) {
	value, found := s.collections.Load(key)
	if !found {
		return nil, false
	}
	return append([]byte(nil), value...), true
}

func (s *FallbackStore) Set(key string, value []byte) {
	if key == "" {
		panic("in_memory: empty key")
	}
	s.collections.Store(key, append([]byte(nil), value...))
}

func (s *FallbackStore) Delete(key string) {
	s.collections.Delete(key)
}

// Len returns the number of elements in the collection stored under key,
// or 0 when the key is absent or does not hold a JSON array.
func (s *FallbackStore) Len(key string) int {
	value, found := s.collections.Load(key)
	if !found {
		return 0
	}
	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil {
		return 0
	}
	return len(items)
}

// Keys returns the number of stored collections.
func (s *FallbackStore) Keys() int {
	return s.collections.Size()
}
