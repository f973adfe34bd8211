package evaluation

import (
	"bytes"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
)

// evaluateOrder sorts the argument. A non-negative limit keeps only the
// first limit solutions while reading; distinct drops repeated solutions.
func (s *Strategy) evaluateOrder(o *algebra.Order, bindings Solution, limit int64, distinct bool) (Iterator, error) {
	arg, err := s.Evaluate(o.Arg, bindings)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		if err := arg.Close(); err != nil {
			return nil, err
		}
		return EmptyIterator(), nil
	}
	return newCursor(&orderProducer{
		strategy: s,
		order:    o,
		arg:      arg,
		limit:    limit,
		distinct: distinct,
		claim:    claim{budget: s.budget},
	}), nil
}

func (s *Strategy) newOrderStore() OrderStore {
	if s.opts.OrderSyncThreshold > 0 {
		return newSpillingOrderStore(s.opts.SpillDir, s.opts.OrderSyncThreshold, s.ctx)
	}
	return newMemoryOrderStore()
}

// orderKey encodes the order values of sol followed by the whole solution,
// so equal order values still sort deterministically and only identical
// solutions share a key. Order expressions without a value sort first.
func (s *Strategy) orderKey(o *algebra.Order, sol Solution) ([]byte, error) {
	var key []byte
	for _, elem := range o.Elements {
		v, err := s.EvaluateValue(elem.Expr, sol)
		if err != nil {
			if !IsValueExprError(err) {
				return nil, err
			}
			v = nil
		}
		key = rdf.AppendSortKey(key, v, !elem.Ascending)
	}
	return sol.appendSortKey(key), nil
}

// orderProducer reads its whole argument on the first call.
type orderProducer struct {
	strategy *Strategy
	order    *algebra.Order
	arg      Iterator
	limit    int64
	distinct bool
	claim    claim

	store OrderStore
	out   Iterator
}

func (o *orderProducer) produce() (Solution, bool, error) {
	if o.out == nil {
		if err := o.fill(); err != nil {
			return Solution{}, false, evalError("order", err)
		}
		out, err := o.store.Iterate()
		if err != nil {
			return Solution{}, false, evalError("order", err)
		}
		o.out = out
	}
	if o.out.Next() {
		return o.out.Solution(), true, nil
	}
	return Solution{}, false, o.out.Err()
}

func (o *orderProducer) fill() error {
	o.store = o.strategy.newOrderStore()
	defer o.arg.Close()

	for o.arg.Next() {
		sol := o.arg.Solution()
		key, err := o.strategy.orderKey(o.order, sol)
		if err != nil {
			return err
		}

		full := o.limit > 0 && int64(o.store.Len()) >= o.limit
		if full {
			last, ok, err := o.store.LastKey()
			if err != nil {
				return err
			}
			if ok && bytes.Compare(key, last) >= 0 {
				continue
			}
		}

		added, err := o.store.Add(key, sol, o.distinct)
		if err != nil {
			return err
		}
		if !added {
			continue
		}
		if err := o.claim.add(1); err != nil {
			return err
		}
		if o.limit > 0 && int64(o.store.Len()) > o.limit {
			if err := o.store.RemoveLast(); err != nil {
				return err
			}
			o.claim.drop(1)
		}
	}
	return o.arg.Err()
}

func (o *orderProducer) release() error {
	o.claim.releaseAll()
	err := closeAll(o.out, o.arg)
	if o.store != nil {
		if cerr := o.store.Close(); err == nil {
			err = cerr
		}
		o.store = nil
	}
	return err
}
