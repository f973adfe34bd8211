package evaluation

import (
	"errors"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
)

// UnionSource presents several triple sources as one. Statements found in
// more than one member are reported once unless the members are declared
// disjoint.
type UnionSource struct {
	members  []TripleSource
	disjoint bool
	pool     *WorkerPool
	ctx      Context
}

func NewUnionSource(members []TripleSource, disjoint bool, ctx Context) *UnionSource {
	if ctx == nil {
		ctx = &BaseContext{}
	}
	return &UnionSource{
		members:  members,
		disjoint: disjoint,
		pool:     NewWorkerPool(len(members)),
		ctx:      ctx,
	}
}

// Members returns the federated sources.
func (u *UnionSource) Members() []TripleSource { return u.members }

// GetStatements opens the matching statements of every member concurrently
// and reads them member by member.
func (u *UnionSource) GetStatements(subj, pred, obj rdf.Value, contexts ...rdf.Value) (rdf.StatementIterator, error) {
	inputs := make([]interface{}, len(u.members))
	for i, m := range u.members {
		inputs[i] = m
	}
	results, err := u.pool.ExecuteParallel(u.ctx, inputs, func(_ Context, input interface{}) (interface{}, error) {
		return input.(TripleSource).GetStatements(subj, pred, obj, contexts...)
	})

	its := make([]rdf.StatementIterator, 0, len(results))
	for _, r := range results {
		if it, ok := r.(rdf.StatementIterator); ok && it != nil {
			its = append(its, it)
		}
	}
	if err != nil {
		for _, it := range its {
			it.Close()
		}
		return nil, err
	}

	union := &unionStatements{members: its}
	if !u.disjoint {
		union.seen = make(map[rdf.Statement]struct{})
	}
	return union, nil
}

type unionStatements struct {
	members []rdf.StatementIterator
	pos     int
	current rdf.Statement
	seen    map[rdf.Statement]struct{}
	err     error
}

func (u *unionStatements) Next() bool {
	for u.pos < len(u.members) {
		it := u.members[u.pos]
		if it.Next() {
			st := it.Statement()
			if u.seen != nil {
				if _, dup := u.seen[st]; dup {
					continue
				}
				u.seen[st] = struct{}{}
			}
			u.current = st
			return true
		}
		if err := it.Err(); err != nil {
			u.err = err
			return false
		}
		u.pos++
	}
	return false
}

func (u *unionStatements) Statement() rdf.Statement { return u.current }

func (u *unionStatements) Err() error { return u.err }

func (u *unionStatements) Close() error {
	var errs []error
	for _, it := range u.members {
		if err := it.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	u.members, u.seen = nil, nil
	return errors.Join(errs...)
}

// NewFederation returns a strategy over the union of members with parallel
// joins enabled. A nil executor in opts defaults to GoExecutor.
func NewFederation(members []TripleSource, disjoint bool, opts Options) *Strategy {
	opts.EnableParallelJoins = true
	if opts.Executor == nil {
		opts.Executor = GoExecutor{}
	}
	opts = opts.withDefaults()
	return NewStrategy(NewUnionSource(members, disjoint, opts.Context), opts)
}
