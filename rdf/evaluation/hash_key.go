package evaluation

import (
	"encoding/binary"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
)

// HashKey is a hashable key for the values a solution binds to an ordered
// list of names. Unbound names hold nil. It avoids building strings by
// hashing the values directly.
type HashKey struct {
	hash   uint64
	values []rdf.Value
}

// NewHashKey creates a key from the values of names in sol.
func NewHashKey(sol Solution, names []string) HashKey {
	values := make([]rdf.Value, len(names))
	h := rdf.HashSeed()
	for i, name := range names {
		values[i] = sol.Get(name)
		h = rdf.HashCombine(h, rdf.HashValue(values[i]))
	}
	return HashKey{hash: h, values: values}
}

// NewValuesKey creates a key from an explicit value list.
func NewValuesKey(values ...rdf.Value) HashKey {
	h := rdf.HashSeed()
	for _, v := range values {
		h = rdf.HashCombine(h, rdf.HashValue(v))
	}
	return HashKey{hash: h, values: values}
}

// Hash returns the precomputed hash.
func (k HashKey) Hash() uint64 { return k.hash }

// Values returns the key's values. The slice must not be modified.
func (k HashKey) Values() []rdf.Value { return k.values }

// Equal checks if two keys hold the same values.
func (k HashKey) Equal(other HashKey) bool {
	if k.hash != other.hash || len(k.values) != len(other.values) {
		return false
	}
	for i, v := range k.values {
		if v != other.values[i] {
			return false
		}
	}
	return true
}

type keyEntry[V any] struct {
	key   HashKey
	value V
}

// KeyMap is a hash map keyed by HashKey. Entries whose hashes collide are
// chained and told apart with HashKey.Equal.
type KeyMap[V any] struct {
	buckets map[uint64][]keyEntry[V]
	size    int
}

// NewKeyMap creates a map sized for about capacity entries.
func NewKeyMap[V any](capacity int) *KeyMap[V] {
	return &KeyMap[V]{buckets: make(map[uint64][]keyEntry[V], capacity)}
}

// Put stores value under key, replacing an existing entry.
func (m *KeyMap[V]) Put(key HashKey, value V) {
	bucket := m.buckets[key.hash]
	for i := range bucket {
		if bucket[i].key.Equal(key) {
			bucket[i].value = value
			return
		}
	}
	m.buckets[key.hash] = append(bucket, keyEntry[V]{key: key, value: value})
	m.size++
}

// Get returns the value stored under key.
func (m *KeyMap[V]) Get(key HashKey) (V, bool) {
	for _, e := range m.buckets[key.hash] {
		if e.key.Equal(key) {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

// Contains reports whether key has an entry.
func (m *KeyMap[V]) Contains(key HashKey) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of entries.
func (m *KeyMap[V]) Len() int { return m.size }

// KeySet is a set of HashKeys.
type KeySet struct {
	m *KeyMap[struct{}]
}

func NewKeySet(capacity int) *KeySet {
	return &KeySet{m: NewKeyMap[struct{}](capacity)}
}

// Add inserts key and reports whether it was not already present.
func (s *KeySet) Add(key HashKey) bool {
	if s.m.Contains(key) {
		return false
	}
	s.m.Put(key, struct{}{})
	return true
}

func (s *KeySet) Contains(key HashKey) bool { return s.m.Contains(key) }

func (s *KeySet) Len() int { return s.m.Len() }

func appendUvarint(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

func readUvarint(b []byte) (uint64, int, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, 0, rdf.ErrMalformedValue
	}
	return v, n, nil
}
