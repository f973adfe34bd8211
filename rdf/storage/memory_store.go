package storage

import (
	"bytes"
	"sync"

	"github.com/google/btree"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
)

type indexEntry struct {
	key []byte
	st  rdf.Statement
}

func lessIndexEntry(a, b indexEntry) bool { return bytes.Compare(a.key, b.key) < 0 }

// MemoryStore keeps statements in three B-tree indexes. It is safe for
// concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	indexes map[IndexType]*btree.BTreeG[indexEntry]
}

var memoryIndexes = []IndexType{SPOC, POSC, OSPC}

func NewMemoryStore(statements ...rdf.Statement) *MemoryStore {
	m := &MemoryStore{indexes: make(map[IndexType]*btree.BTreeG[indexEntry])}
	for _, idx := range memoryIndexes {
		m.indexes[idx] = btree.NewG(32, lessIndexEntry)
	}
	m.Add(statements...)
	return m
}

// memoryKey orders index entries by value, so a scan over a bound prefix
// returns statements in CompareValues order.
func memoryKey(idx IndexType, c [4]rdf.Value) []byte {
	var key []byte
	for _, pos := range indexOrder[idx] {
		key = rdf.AppendSortKey(key, c[pos], false)
	}
	return key
}

func memoryPrefix(prefix []rdf.Value) []byte {
	var key []byte
	for _, v := range prefix {
		key = rdf.AppendSortKey(key, v, false)
	}
	return key
}

func (m *MemoryStore) Add(statements ...rdf.Statement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range statements {
		c := components(st)
		for _, idx := range memoryIndexes {
			m.indexes[idx].ReplaceOrInsert(indexEntry{key: memoryKey(idx, c), st: st})
		}
	}
	return nil
}

func (m *MemoryStore) Remove(statements ...rdf.Statement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range statements {
		c := components(st)
		for _, idx := range memoryIndexes {
			m.indexes[idx].Delete(indexEntry{key: memoryKey(idx, c)})
		}
	}
	return nil
}

// GetStatements returns a snapshot of the matching statements.
func (m *MemoryStore) GetStatements(subj, pred, obj rdf.Value, contexts ...rdf.Value) (rdf.StatementIterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, prefix := selectIndex(patternComponents(subj, pred, obj, contexts), memoryIndexes)
	start := memoryPrefix(prefix)

	var out []rdf.Statement
	m.indexes[idx].AscendGreaterOrEqual(indexEntry{key: start}, func(e indexEntry) bool {
		if !bytes.HasPrefix(e.key, start) {
			return false
		}
		if matches(e.st, subj, pred, obj, contexts) {
			out = append(out, e.st)
		}
		return true
	})
	return rdf.NewSliceStatementIterator(out), nil
}

func (m *MemoryStore) Size() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.indexes[SPOC].Len(), nil
}

func (m *MemoryStore) Close() error { return nil }
