package evaluation

import (
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
)

func (s *Strategy) parallelJoins() bool {
	return s.opts.EnableParallelJoins && s.opts.Executor != nil
}

func (s *Strategy) evaluateJoin(j *algebra.Join, bindings Solution) (Iterator, error) {
	parallel := s.parallelJoins()
	return s.ctx.Join(parallel, j, func() (Iterator, error) {
		left, err := s.Evaluate(j.Left, bindings)
		if err != nil {
			return nil, err
		}
		if parallel {
			return NewParallelJoinCursor(s, left, j.Right), nil
		}
		return newCursor(&joinProducer{strategy: s, left: left, right: j.Right}), nil
	})
}

// joinProducer is a nested loop join: the right argument is evaluated once
// per left solution, with that solution as its input bindings.
type joinProducer struct {
	strategy *Strategy
	left     Iterator
	right    algebra.TupleExpr
	current  Iterator
}

func (j *joinProducer) produce() (Solution, bool, error) {
	for {
		if j.current != nil {
			if j.current.Next() {
				return j.current.Solution(), true, nil
			}
			err := j.current.Err()
			if cerr := j.current.Close(); err == nil {
				err = cerr
			}
			j.current = nil
			if err != nil {
				return Solution{}, false, err
			}
		}

		if !j.left.Next() {
			return Solution{}, false, j.left.Err()
		}
		it, err := j.strategy.Evaluate(j.right, j.left.Solution())
		if err != nil {
			return Solution{}, false, err
		}
		j.current = it
	}
}

func (j *joinProducer) release() error {
	err := closeAll(j.current, j.left)
	j.current = nil
	return err
}

func (s *Strategy) evaluateLeftJoin(lj *algebra.LeftJoin, bindings Solution) (Iterator, error) {
	// Input bindings the right side may bind but the left side does not
	// guarantee make the join badly designed.
	problemVars := algebra.SubtractNames(
		algebra.IntersectNames(bindings.Names(), lj.Right.BindingNames()),
		lj.Left.AssuredBindingNames())
	if len(problemVars) > 0 {
		s.ctx.BadlyDesignedLeftJoin(lj, problemVars)
		inner, err := s.leftJoin(lj, bindings.Without(problemVars...), false)
		if err != nil {
			return nil, err
		}
		return newCursor(&badlyDesignedProducer{
			inner:       inner,
			bindings:    bindings,
			problemVars: problemVars,
		}), nil
	}
	return s.leftJoin(lj, bindings, s.parallelJoins())
}

func (s *Strategy) leftJoin(lj *algebra.LeftJoin, bindings Solution, parallel bool) (Iterator, error) {
	scope := algebra.UnionNames(lj.BindingNames(), bindings.Names())
	return s.ctx.Join(parallel, lj, func() (Iterator, error) {
		left, err := s.Evaluate(lj.Left, bindings)
		if err != nil {
			return nil, err
		}
		if parallel {
			return NewParallelLeftJoinCursor(s, left, lj, scope), nil
		}
		return newCursor(&leftJoinProducer{
			strategy: s,
			join:     lj,
			scope:    scope,
			left:     left,
		}), nil
	})
}

// conditionHolds evaluates a left join condition on sol restricted to the
// names in scope. Expression errors count as false.
func (s *Strategy) conditionHolds(cond algebra.ValueExpr, sol Solution, scope []string) (bool, error) {
	if cond == nil {
		return true, nil
	}
	ok, err := s.IsTrue(cond, sol.Retain(scope))
	if err != nil {
		if IsValueExprError(err) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// leftJoinProducer emits, for each left solution, the joined right
// solutions that satisfy the condition, or the left solution alone when
// there are none.
type leftJoinProducer struct {
	strategy *Strategy
	join     *algebra.LeftJoin
	scope    []string
	left     Iterator
	right    Iterator
	current  Solution
	matched  bool
}

func (lj *leftJoinProducer) produce() (Solution, bool, error) {
	for {
		if lj.right != nil {
			for lj.right.Next() {
				sol := lj.right.Solution()
				ok, err := lj.strategy.conditionHolds(lj.join.Condition, sol, lj.scope)
				if err != nil {
					return Solution{}, false, err
				}
				if ok {
					lj.matched = true
					return sol, true, nil
				}
			}
			err := lj.right.Err()
			if cerr := lj.right.Close(); err == nil {
				err = cerr
			}
			lj.right = nil
			if err != nil {
				return Solution{}, false, err
			}
			if !lj.matched {
				return lj.current, true, nil
			}
		}

		if !lj.left.Next() {
			return Solution{}, false, lj.left.Err()
		}
		lj.current = lj.left.Solution()
		lj.matched = false
		it, err := lj.strategy.Evaluate(lj.join.Right, lj.current)
		if err != nil {
			return Solution{}, false, err
		}
		lj.right = it
	}
}

func (lj *leftJoinProducer) release() error {
	err := closeAll(lj.right, lj.left)
	lj.right = nil
	return err
}

// badlyDesignedProducer post-processes a left join evaluated without the
// problem variables: results that contradict the original input are
// dropped and the problem variables are bound again.
type badlyDesignedProducer struct {
	inner       Iterator
	bindings    Solution
	problemVars []string
}

func (b *badlyDesignedProducer) produce() (Solution, bool, error) {
	for b.inner.Next() {
		sol := b.inner.Solution()
		if !b.bindings.Compatible(sol) {
			continue
		}
		for _, name := range b.problemVars {
			if !sol.Has(name) {
				sol = sol.With(name, b.bindings.Get(name))
			}
		}
		return sol, true, nil
	}
	return Solution{}, false, b.inner.Err()
}

func (b *badlyDesignedProducer) release() error {
	return b.inner.Close()
}
