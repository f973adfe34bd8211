package evaluation

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/btree"
	log "github.com/sirupsen/logrus"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
)

// OrderStore is an ordered multiset of solutions, each stored under a
// byte key whose order is the output order.
type OrderStore interface {
	// Add stores sol under key, or counts one more occurrence of an
	// existing key. With distinct set, an existing key is left alone and
	// Add reports false.
	Add(key []byte, sol Solution, distinct bool) (bool, error)
	// LastKey returns the greatest key, or ok=false when empty.
	LastKey() (key []byte, ok bool, err error)
	// RemoveLast drops one occurrence of the greatest key.
	RemoveLast() error
	// Len is the number of stored occurrences.
	Len() int
	// Iterate yields every entry in key order, repeated per occurrence.
	Iterate() (Iterator, error)
	Close() error
}

type orderEntry struct {
	key   []byte
	sol   Solution
	count int
}

func lessEntry(a, b *orderEntry) bool { return bytes.Compare(a.key, b.key) < 0 }

// memoryOrderStore keeps entries in a B-tree.
type memoryOrderStore struct {
	tree *btree.BTreeG[*orderEntry]
	size int
}

func newMemoryOrderStore() *memoryOrderStore {
	return &memoryOrderStore{tree: btree.NewG(32, lessEntry)}
}

func (m *memoryOrderStore) Add(key []byte, sol Solution, distinct bool) (bool, error) {
	if e, ok := m.tree.Get(&orderEntry{key: key}); ok {
		if distinct {
			return false, nil
		}
		e.count++
		m.size++
		return true, nil
	}
	m.tree.ReplaceOrInsert(&orderEntry{key: key, sol: sol, count: 1})
	m.size++
	return true, nil
}

func (m *memoryOrderStore) LastKey() ([]byte, bool, error) {
	e, ok := m.tree.Max()
	if !ok {
		return nil, false, nil
	}
	return e.key, true, nil
}

func (m *memoryOrderStore) RemoveLast() error {
	e, ok := m.tree.Max()
	if !ok {
		return nil
	}
	if e.count > 1 {
		e.count--
	} else {
		m.tree.DeleteMax()
	}
	m.size--
	return nil
}

func (m *memoryOrderStore) Len() int { return m.size }

// entries returns the distinct entries in key order.
func (m *memoryOrderStore) entries() []*orderEntry {
	out := make([]*orderEntry, 0, m.tree.Len())
	m.tree.Ascend(func(e *orderEntry) bool {
		out = append(out, e)
		return true
	})
	return out
}

func (m *memoryOrderStore) Iterate() (Iterator, error) {
	return newCursor(&replayProducer{entries: m.entries()}), nil
}

func (m *memoryOrderStore) Close() error {
	m.tree.Clear(false)
	m.size = 0
	return nil
}

// replayProducer emits each entry count times.
type replayProducer struct {
	entries []*orderEntry
	pos     int
	emitted int
}

func (r *replayProducer) produce() (Solution, bool, error) {
	for r.pos < len(r.entries) {
		e := r.entries[r.pos]
		if r.emitted < e.count {
			r.emitted++
			return e.sol, true, nil
		}
		r.pos++
		r.emitted = 0
	}
	return Solution{}, false, nil
}

func (r *replayProducer) release() error {
	r.entries = nil
	return nil
}

// maxSpillKeySize bounds the Badger keys of a spilled store. Order keys
// carry whole solutions and can be far longer than Badger accepts.
const maxSpillKeySize = 1024

// spillKey is the record key for an order key: the key itself, or its
// first maxSpillKeySize bytes. Records keep the key order because every
// order key sharing that prefix sorts between the prefix and the next
// record.
func spillKey(key []byte) []byte {
	if len(key) > maxSpillKeySize {
		return key[:maxSpillKeySize]
	}
	return key
}

// spillingOrderStore buffers in memory until it holds more than threshold
// entries, then moves everything into a temporary Badger database. Each
// record holds the entries whose order keys share its spill key, sorted by
// full key, each as the key, a uvarint occurrence count and the encoded
// solution.
type spillingOrderStore struct {
	mem       *memoryOrderStore
	db        *badger.DB
	parent    string
	dir       string
	threshold int
	size      int
	unsynced  int
	ctx       Context
}

func newSpillingOrderStore(parent string, threshold int, ctx Context) *spillingOrderStore {
	return &spillingOrderStore{
		mem:       newMemoryOrderStore(),
		parent:    parent,
		threshold: threshold,
		ctx:       ctx,
	}
}

// Spilled reports whether the store has moved to disk.
func (s *spillingOrderStore) Spilled() bool { return s.db != nil }

func (s *spillingOrderStore) Add(key []byte, sol Solution, distinct bool) (bool, error) {
	if s.db == nil {
		added, err := s.mem.Add(key, sol, distinct)
		if err != nil || !added {
			return added, err
		}
		s.size++
		if s.mem.tree.Len() > s.threshold {
			return true, s.spill()
		}
		return true, nil
	}

	added := false
	rkey := spillKey(key)
	err := s.db.Update(func(txn *badger.Txn) error {
		entries, err := getOrderRecord(txn, rkey)
		if err != nil {
			return err
		}
		i := sort.Search(len(entries), func(i int) bool {
			return bytes.Compare(entries[i].key, key) >= 0
		})
		if i < len(entries) && bytes.Equal(entries[i].key, key) {
			if distinct {
				return nil
			}
			entries[i].count++
		} else {
			entries = append(entries, nil)
			copy(entries[i+1:], entries[i:])
			entries[i] = &orderEntry{key: key, sol: sol, count: 1}
		}
		added = true
		return txn.Set(rkey, encodeOrderRecord(entries))
	})
	if err != nil || !added {
		return added, err
	}
	s.size++
	s.unsynced++
	if s.unsynced >= s.threshold {
		s.unsynced = 0
		if err := s.db.Sync(); err != nil {
			return true, fmt.Errorf("failed to sync order buffer: %w", err)
		}
	}
	return true, nil
}

func encodeOrderRecord(entries []*orderEntry) []byte {
	dst := appendUvarint(nil, uint64(len(entries)))
	for _, e := range entries {
		dst = appendUvarint(dst, uint64(len(e.key)))
		dst = append(dst, e.key...)
		dst = appendUvarint(dst, uint64(e.count))
		dst = e.sol.encode(dst)
	}
	return dst
}

func decodeOrderRecord(val []byte) ([]*orderEntry, error) {
	n, read, err := readUvarint(val)
	if err != nil {
		return nil, err
	}
	val = val[read:]
	entries := make([]*orderEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		keyLen, read, err := readUvarint(val)
		if err != nil {
			return nil, err
		}
		val = val[read:]
		if uint64(len(val)) < keyLen {
			return nil, rdf.ErrMalformedValue
		}
		key := val[:keyLen]
		val = val[keyLen:]
		count, read, err := readUvarint(val)
		if err != nil {
			return nil, err
		}
		sol, read2, err := decodeSolution(val[read:])
		if err != nil {
			return nil, err
		}
		val = val[read+read2:]
		entries = append(entries, &orderEntry{key: key, sol: sol, count: int(count)})
	}
	return entries, nil
}

// getOrderRecord reads the entries stored under rkey, or nil if there are
// none.
func getOrderRecord(txn *badger.Txn, rkey []byte) ([]*orderEntry, error) {
	item, err := txn.Get(rkey)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return decodeOrderRecord(val)
}

// spill copies the in-memory entries into a fresh Badger database.
func (s *spillingOrderStore) spill() error {
	dir, err := os.MkdirTemp(s.parent, "order-spill-")
	if err != nil {
		return fmt.Errorf("failed to create spill directory: %w", err)
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("failed to open badger: %w", err)
	}

	// Entries sharing a spill key are adjacent in key order.
	wb := db.NewWriteBatch()
	entries := s.mem.entries()
	for start := 0; start < len(entries); {
		rkey := spillKey(entries[start].key)
		end := start + 1
		for end < len(entries) && bytes.Equal(spillKey(entries[end].key), rkey) {
			end++
		}
		if err := wb.Set(rkey, encodeOrderRecord(entries[start:end])); err != nil {
			wb.Cancel()
			db.Close()
			os.RemoveAll(dir)
			return fmt.Errorf("failed to spill order buffer: %w", err)
		}
		start = end
	}
	if err := wb.Flush(); err != nil {
		db.Close()
		os.RemoveAll(dir)
		return fmt.Errorf("failed to spill order buffer: %w", err)
	}

	s.mem.Close()
	s.mem = nil
	s.db, s.dir = db, dir
	log.WithFields(log.Fields{"entries": s.size, "dir": dir}).Debug("order buffer spilled to disk")
	s.ctx.OrderSpilled(s.size, dir)
	return nil
}

// lastRecord reads the greatest record within txn.
func lastRecord(txn *badger.Txn) (rkey []byte, entries []*orderEntry, err error) {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()
	it.Rewind()
	if !it.Valid() {
		return nil, nil, nil
	}
	item := it.Item()
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, nil, err
	}
	entries, err = decodeOrderRecord(val)
	return item.KeyCopy(nil), entries, err
}

func (s *spillingOrderStore) LastKey() ([]byte, bool, error) {
	if s.db == nil {
		return s.mem.LastKey()
	}
	var key []byte
	err := s.db.View(func(txn *badger.Txn) error {
		_, entries, err := lastRecord(txn)
		if err != nil || len(entries) == 0 {
			return err
		}
		key = entries[len(entries)-1].key
		return nil
	})
	return key, key != nil, err
}

func (s *spillingOrderStore) RemoveLast() error {
	if s.db == nil {
		if s.mem.Len() > 0 {
			s.size--
		}
		return s.mem.RemoveLast()
	}
	removed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		rkey, entries, err := lastRecord(txn)
		if err != nil || len(entries) == 0 {
			return err
		}
		removed = true
		last := entries[len(entries)-1]
		if last.count > 1 {
			last.count--
		} else {
			entries = entries[:len(entries)-1]
		}
		if len(entries) == 0 {
			return txn.Delete(rkey)
		}
		return txn.Set(rkey, encodeOrderRecord(entries))
	})
	if removed {
		s.size--
	}
	return err
}

func (s *spillingOrderStore) Len() int { return s.size }

func (s *spillingOrderStore) Iterate() (Iterator, error) {
	if s.db == nil {
		return s.mem.Iterate()
	}
	txn := s.db.NewTransaction(false)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	it.Rewind()
	return newCursor(&badgerReplayProducer{txn: txn, it: it}), nil
}

func (s *spillingOrderStore) Close() error {
	if s.db == nil {
		return s.mem.Close()
	}
	err := s.db.Close()
	if rerr := os.RemoveAll(s.dir); err == nil {
		err = rerr
	}
	s.db = nil
	return err
}

// badgerReplayProducer walks a spilled store record by record, replaying
// each record's entries.
type badgerReplayProducer struct {
	txn    *badger.Txn
	it     *badger.Iterator
	replay replayProducer
}

func (b *badgerReplayProducer) produce() (Solution, bool, error) {
	for {
		if sol, ok, _ := b.replay.produce(); ok {
			return sol, true, nil
		}
		if !b.it.Valid() {
			return Solution{}, false, nil
		}
		val, err := b.it.Item().ValueCopy(nil)
		if err != nil {
			return Solution{}, false, err
		}
		entries, err := decodeOrderRecord(val)
		if err != nil {
			return Solution{}, false, err
		}
		b.replay = replayProducer{entries: entries}
		b.it.Next()
	}
}

func (b *badgerReplayProducer) release() error {
	b.replay.release()
	if b.it != nil {
		b.it.Close()
		b.txn.Discard()
		b.it = nil
	}
	return nil
}
