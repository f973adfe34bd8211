package storage

import (
	"bytes"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
)

// BadgerStore implements Store using BadgerDB. Every statement is written
// to four key-only indexes: an index byte followed by the encoded
// components in index order.
type BadgerStore struct {
	db *badger.DB
}

var badgerIndexes = []IndexType{SPOC, POSC, OSPC, CSPO}

// NewBadgerStore opens or creates a store in path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable BadgerDB logs for now

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func encodeKey(idx IndexType, c [4]rdf.Value) []byte {
	key := []byte{byte(idx)}
	for _, pos := range indexOrder[idx] {
		key = rdf.EncodeValue(key, c[pos])
	}
	return key
}

func decodeKey(key []byte) (rdf.Statement, error) {
	if len(key) == 0 || int(key[0]) >= len(indexOrder) {
		return rdf.Statement{}, fmt.Errorf("invalid index key %x", key)
	}
	idx := IndexType(key[0])
	rest := key[1:]
	var c [4]rdf.Value
	for _, pos := range indexOrder[idx] {
		v, n, err := rdf.DecodeValue(rest)
		if err != nil {
			return rdf.Statement{}, fmt.Errorf("failed to decode %v key: %w", idx, err)
		}
		c[pos] = v
		rest = rest[n:]
	}
	return fromComponents(c), nil
}

// Add writes statements to all indexes
func (s *BadgerStore) Add(statements ...rdf.Statement) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, st := range statements {
			c := components(st)
			for _, idx := range badgerIndexes {
				if err := txn.Set(encodeKey(idx, c), nil); err != nil {
					return fmt.Errorf("failed to write to %v index: %w", idx, err)
				}
			}
		}
		return nil
	})
}

// Remove deletes statements from all indexes
func (s *BadgerStore) Remove(statements ...rdf.Statement) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, st := range statements {
			c := components(st)
			for _, idx := range badgerIndexes {
				if err := txn.Delete(encodeKey(idx, c)); err != nil && err != badger.ErrKeyNotFound {
					return fmt.Errorf("failed to delete from %v index: %w", idx, err)
				}
			}
		}
		return nil
	})
}

// GetStatements scans the index with the longest bound prefix. The returned
// iterator holds a read transaction until it is closed.
func (s *BadgerStore) GetStatements(subj, pred, obj rdf.Value, contexts ...rdf.Value) (rdf.StatementIterator, error) {
	idx, bound := selectIndex(patternComponents(subj, pred, obj, contexts), badgerIndexes)
	prefix := []byte{byte(idx)}
	for _, v := range bound {
		prefix = rdf.EncodeValue(prefix, v)
	}

	txn := s.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false // keys only
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	it.Seek(prefix)

	return &badgerStatements{
		txn:      txn,
		it:       it,
		prefix:   prefix,
		subj:     subj,
		pred:     pred,
		obj:      obj,
		contexts: contexts,
	}, nil
}

// Size counts the statements in the SPOC index.
func (s *BadgerStore) Size() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte{byte(SPOC)}
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close closes the store
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

type badgerStatements struct {
	txn      *badger.Txn
	it       *badger.Iterator
	prefix   []byte
	started  bool
	current  rdf.Statement
	err      error
	subj     rdf.Value
	pred     rdf.Value
	obj      rdf.Value
	contexts []rdf.Value
}

func (b *badgerStatements) Next() bool {
	if b.it == nil {
		return false
	}
	for {
		if b.started {
			b.it.Next()
		}
		b.started = true
		if !b.it.ValidForPrefix(b.prefix) {
			return false
		}
		key := b.it.Item().Key()
		if !bytes.HasPrefix(key, b.prefix) {
			return false
		}
		st, err := decodeKey(key)
		if err != nil {
			b.err = err
			return false
		}
		if matches(st, b.subj, b.pred, b.obj, b.contexts) {
			b.current = st
			return true
		}
	}
}

func (b *badgerStatements) Statement() rdf.Statement { return b.current }

func (b *badgerStatements) Err() error { return b.err }

func (b *badgerStatements) Close() error {
	if b.it != nil {
		b.it.Close()
		b.txn.Discard()
		b.it = nil
	}
	return nil
}
