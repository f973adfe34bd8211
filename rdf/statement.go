package rdf

import "fmt"

// Statement is a triple in a named graph. A nil Context places the
// statement in the default graph.
type Statement struct {
	Subject   Value
	Predicate Value
	Object    Value
	Context   Value
}

// NewStatement builds a default-graph statement.
func NewStatement(subj, pred, obj Value) Statement {
	return Statement{Subject: subj, Predicate: pred, Object: obj}
}

// NewQuad builds a statement in graph ctx.
func NewQuad(subj, pred, obj, ctx Value) Statement {
	return Statement{Subject: subj, Predicate: pred, Object: obj, Context: ctx}
}

func (s Statement) String() string {
	if s.Context == nil {
		return fmt.Sprintf("(%v %v %v)", s.Subject, s.Predicate, s.Object)
	}
	return fmt.Sprintf("(%v %v %v %v)", s.Subject, s.Predicate, s.Object, s.Context)
}

// Matches reports whether s agrees with every non-nil component given.
func (s Statement) Matches(subj, pred, obj Value) bool {
	return (subj == nil || s.Subject == subj) &&
		(pred == nil || s.Predicate == pred) &&
		(obj == nil || s.Object == obj)
}

// InContexts reports whether s belongs to one of the listed graphs. An empty
// list matches every graph; a nil entry matches the default graph.
func (s Statement) InContexts(contexts []Value) bool {
	if len(contexts) == 0 {
		return true
	}
	for _, c := range contexts {
		if s.Context == c {
			return true
		}
	}
	return false
}

// StatementIterator is a lazy, closeable sequence of statements. After Next
// returns false, Err reports the failure that ended the sequence, if any.
type StatementIterator interface {
	Next() bool
	Statement() Statement
	Err() error
	Close() error
}

// SliceStatementIterator iterates over an in-memory slice.
type SliceStatementIterator struct {
	statements []Statement
	pos        int
	current    Statement
}

// NewSliceStatementIterator returns an iterator over statements.
func NewSliceStatementIterator(statements []Statement) *SliceStatementIterator {
	return &SliceStatementIterator{statements: statements}
}

func (it *SliceStatementIterator) Next() bool {
	if it.pos >= len(it.statements) {
		return false
	}
	it.current = it.statements[it.pos]
	it.pos++
	return true
}

func (it *SliceStatementIterator) Statement() Statement { return it.current }

func (it *SliceStatementIterator) Err() error { return nil }

func (it *SliceStatementIterator) Close() error {
	it.pos = len(it.statements)
	return nil
}

// CollectStatements drains and closes it.
func CollectStatements(it StatementIterator) ([]Statement, error) {
	defer it.Close()
	var out []Statement
	for it.Next() {
		out = append(out, it.Statement())
	}
	return out, it.Err()
}
