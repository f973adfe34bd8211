// Package storage provides quad stores that serve statements to the
// evaluator.
package storage

import (
	"github.com/ansell/openrdf-sesame-sub015/rdf"
)

// IndexType represents different index orderings
type IndexType uint8

const (
	SPOC IndexType = iota // Subject-Predicate-Object-Context
	POSC                  // Predicate-Object-Subject-Context
	OSPC                  // Object-Subject-Predicate-Context
	CSPO                  // Context-Subject-Predicate-Object
)

func (i IndexType) String() string {
	return [...]string{"SPOC", "POSC", "OSPC", "CSPO"}[i]
}

// indexOrder lists statement positions (subject, predicate, object,
// context) in the order an index stores them.
var indexOrder = [...][4]int{
	SPOC: {0, 1, 2, 3},
	POSC: {1, 2, 0, 3},
	OSPC: {2, 0, 1, 3},
	CSPO: {3, 0, 1, 2},
}

// Store is the interface for statement storage
type Store interface {
	// Write operations
	Add(statements ...rdf.Statement) error
	Remove(statements ...rdf.Statement) error

	// Read operations. A nil component is a wildcard; with no contexts
	// every graph is searched and a nil context selects the default graph.
	GetStatements(subj, pred, obj rdf.Value, contexts ...rdf.Value) (rdf.StatementIterator, error)
	Size() (int, error)

	// Lifecycle
	Close() error
}

func components(st rdf.Statement) [4]rdf.Value {
	return [4]rdf.Value{st.Subject, st.Predicate, st.Object, st.Context}
}

func fromComponents(c [4]rdf.Value) rdf.Statement {
	return rdf.Statement{Subject: c[0], Predicate: c[1], Object: c[2], Context: c[3]}
}

// patternComponents returns the bound positions of a lookup. The context is
// only bound when exactly one named graph is requested.
func patternComponents(subj, pred, obj rdf.Value, contexts []rdf.Value) [4]rdf.Value {
	p := [4]rdf.Value{subj, pred, obj, nil}
	if len(contexts) == 1 && contexts[0] != nil {
		p[3] = contexts[0]
	}
	return p
}

// selectIndex picks, among indexes, the one whose leading positions are
// bound the furthest, and returns those bound values in index order.
func selectIndex(pattern [4]rdf.Value, indexes []IndexType) (IndexType, []rdf.Value) {
	best := indexes[0]
	var bestPrefix []rdf.Value
	for _, idx := range indexes {
		var prefix []rdf.Value
		for _, pos := range indexOrder[idx] {
			if pattern[pos] == nil {
				break
			}
			prefix = append(prefix, pattern[pos])
		}
		if len(prefix) > len(bestPrefix) {
			best, bestPrefix = idx, prefix
		}
	}
	return best, bestPrefix
}

func matches(st rdf.Statement, subj, pred, obj rdf.Value, contexts []rdf.Value) bool {
	return st.Matches(subj, pred, obj) && st.InContexts(contexts)
}
