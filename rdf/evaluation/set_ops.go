package evaluation

import (
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
)

func (s *Strategy) evaluateUnion(u *algebra.Union, bindings Solution) (Iterator, error) {
	left, err := s.Evaluate(u.Left, bindings)
	if err != nil {
		return nil, err
	}
	return newCursor(&unionProducer{strategy: s, current: left, right: u.Right, bindings: bindings}), nil
}

// unionProducer streams the left solutions, then evaluates the right
// argument only once the left one is exhausted.
type unionProducer struct {
	strategy *Strategy
	current  Iterator
	right    algebra.TupleExpr
	bindings Solution
}

func (u *unionProducer) produce() (Solution, bool, error) {
	for {
		if u.current.Next() {
			return u.current.Solution(), true, nil
		}
		err := u.current.Err()
		if cerr := u.current.Close(); err == nil {
			err = cerr
		}
		if err != nil || u.right == nil {
			return Solution{}, false, err
		}
		next, err := u.strategy.Evaluate(u.right, u.bindings)
		if err != nil {
			return Solution{}, false, err
		}
		u.current, u.right = next, nil
	}
}

func (u *unionProducer) release() error {
	return u.current.Close()
}

// keyNames is the name list used to key whole solutions of expr.
func keyNames(expr algebra.TupleExpr, bindings Solution) []string {
	return algebra.UnionNames(expr.BindingNames(), bindings.Names())
}

func (s *Strategy) evaluateDistinct(d *algebra.Distinct, bindings Solution) (Iterator, error) {
	var (
		arg Iterator
		err error
	)
	if order, ok := d.Arg.(*algebra.Order); ok {
		arg, err = s.evaluateOrder(order, bindings, -1, true)
	} else {
		arg, err = s.Evaluate(d.Arg, bindings)
	}
	if err != nil {
		return nil, err
	}
	return newCursor(&distinctProducer{
		arg:   arg,
		names: keyNames(d, bindings),
		seen:  NewKeySet(64),
		claim: claim{budget: s.budget},
	}), nil
}

// distinctProducer drops solutions whose key it has already emitted.
type distinctProducer struct {
	arg   Iterator
	names []string
	seen  *KeySet
	claim claim
}

func (d *distinctProducer) produce() (Solution, bool, error) {
	for d.arg.Next() {
		sol := d.arg.Solution()
		if d.seen.Contains(NewHashKey(sol, d.names)) {
			continue
		}
		if err := d.claim.add(1); err != nil {
			return Solution{}, false, evalError("distinct", err)
		}
		d.seen.Add(NewHashKey(sol, d.names))
		return sol, true, nil
	}
	return Solution{}, false, d.arg.Err()
}

func (d *distinctProducer) release() error {
	d.claim.releaseAll()
	d.seen = nil
	return d.arg.Close()
}

func (s *Strategy) evaluateReduced(r *algebra.Reduced, bindings Solution) (Iterator, error) {
	var (
		arg Iterator
		err error
	)
	if order, ok := r.Arg.(*algebra.Order); ok {
		arg, err = s.evaluateOrder(order, bindings, -1, true)
	} else {
		arg, err = s.Evaluate(r.Arg, bindings)
	}
	if err != nil {
		return nil, err
	}
	return newCursor(&reducedProducer{arg: arg}), nil
}

// reducedProducer drops a solution equal to the one before it.
type reducedProducer struct {
	arg      Iterator
	previous Solution
	started  bool
}

func (r *reducedProducer) produce() (Solution, bool, error) {
	for r.arg.Next() {
		sol := r.arg.Solution()
		if r.started && sol.Equal(r.previous) {
			continue
		}
		r.previous, r.started = sol, true
		return sol, true, nil
	}
	return Solution{}, false, r.arg.Err()
}

func (r *reducedProducer) release() error { return r.arg.Close() }

func (s *Strategy) evaluateIntersection(i *algebra.Intersection, bindings Solution) (Iterator, error) {
	left, err := s.Evaluate(i.Left, bindings)
	if err != nil {
		return nil, err
	}
	return newCursor(&intersectionProducer{
		strategy: s,
		left:     left,
		right:    i.Right,
		bindings: bindings,
		names:    keyNames(i, bindings),
		claim:    claim{budget: s.budget},
	}), nil
}

// intersectionProducer materializes the right argument on first use and
// keeps left solutions found in it.
type intersectionProducer struct {
	strategy *Strategy
	left     Iterator
	right    algebra.TupleExpr
	bindings Solution
	names    []string
	included *KeySet
	claim    claim
}

func (i *intersectionProducer) produce() (Solution, bool, error) {
	if i.included == nil {
		set, err := i.materialize()
		if err != nil {
			return Solution{}, false, err
		}
		i.included = set
	}
	for i.left.Next() {
		sol := i.left.Solution()
		if i.included.Contains(NewHashKey(sol, i.names)) {
			return sol, true, nil
		}
	}
	return Solution{}, false, i.left.Err()
}

func (i *intersectionProducer) materialize() (*KeySet, error) {
	it, err := i.strategy.Evaluate(i.right, i.bindings)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	set := NewKeySet(64)
	for it.Next() {
		if set.Add(NewHashKey(it.Solution(), i.names)) {
			if err := i.claim.add(1); err != nil {
				return nil, evalError("intersection", err)
			}
		}
	}
	return set, it.Err()
}

func (i *intersectionProducer) release() error {
	i.claim.releaseAll()
	i.included = nil
	return i.left.Close()
}

func (s *Strategy) evaluateDifference(d *algebra.Difference, bindings Solution) (Iterator, error) {
	return newCursor(&minusProducer{
		strategy:  s,
		expr:      d,
		bindings:  bindings,
		argShared: algebra.IntersectNames(d.Left.BindingNames(), d.Right.BindingNames()),
		claim:     claim{budget: s.budget},
	}), nil
}

func (s *Strategy) materializeExcluded(right algebra.TupleExpr, bindings Solution, held *claim) ([]Solution, error) {
	it, err := s.Evaluate(right, bindings)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	names := keyNames(right, bindings)
	seen := NewKeySet(64)
	var excluded []Solution
	for it.Next() {
		sol := it.Solution()
		if !seen.Add(NewHashKey(sol, names)) {
			continue
		}
		if err := held.add(1); err != nil {
			return nil, evalError("minus", err)
		}
		excluded = append(excluded, sol)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return excluded, nil
}

// minusProducer keeps a left solution unless some excluded solution shares
// a variable with it and is compatible. Excluded solutions with no shared
// variable never remove anything. The right side is read completely before
// the first left solution.
//
// Names carried in from the input bindings appear on both sides without
// being shared by the arguments themselves, so they only count when both
// arguments can bind them.
type minusProducer struct {
	strategy  *Strategy
	expr      *algebra.Difference
	bindings  Solution
	argShared []string

	left     Iterator
	excluded []Solution
	claim    claim
}

func (m *minusProducer) produce() (Solution, bool, error) {
	if m.left == nil {
		excluded, err := m.strategy.materializeExcluded(m.expr.Right, m.bindings, &m.claim)
		if err != nil {
			return Solution{}, false, err
		}
		left, err := m.strategy.Evaluate(m.expr.Left, m.bindings)
		if err != nil {
			return Solution{}, false, err
		}
		m.excluded, m.left = excluded, left
	}
	for m.left.Next() {
		sol := m.left.Solution()
		if m.accept(sol) {
			return sol, true, nil
		}
	}
	return Solution{}, false, m.left.Err()
}

func (m *minusProducer) accept(sol Solution) bool {
	for _, ex := range m.excluded {
		if m.shares(ex, sol) && ex.Compatible(sol) {
			return false
		}
	}
	return true
}

func (m *minusProducer) shares(ex, sol Solution) bool {
	for _, b := range ex.Bindings() {
		if !sol.Has(b.Name) {
			continue
		}
		if !m.bindings.Has(b.Name) || containsName(m.argShared, b.Name) {
			return true
		}
	}
	return false
}

func (m *minusProducer) release() error {
	m.claim.releaseAll()
	m.excluded = nil
	if m.left == nil {
		return nil
	}
	return m.left.Close()
}
