package evaluation

import (
	log "github.com/sirupsen/logrus"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
)

// filterProducer maps or drops the solutions of an argument iterator.
// fn returns keep=false to drop a solution.
type filterProducer struct {
	arg Iterator
	fn  func(Solution) (out Solution, keep bool, err error)
}

func (f *filterProducer) produce() (Solution, bool, error) {
	for f.arg.Next() {
		out, keep, err := f.fn(f.arg.Solution())
		if err != nil {
			return Solution{}, false, err
		}
		if keep {
			return out, true, nil
		}
	}
	return Solution{}, false, f.arg.Err()
}

func (f *filterProducer) release() error { return f.arg.Close() }

func mapIterator(arg Iterator, fn func(Solution) (Solution, bool, error)) Iterator {
	return newCursor(&filterProducer{arg: arg, fn: fn})
}

func (s *Strategy) evaluateProjection(p *algebra.Projection, bindings Solution) (Iterator, error) {
	arg, err := s.Evaluate(p.Arg, bindings)
	if err != nil {
		return nil, err
	}
	return mapIterator(arg, func(sol Solution) (Solution, bool, error) {
		return project(p.Elements, sol, bindings), true, nil
	}), nil
}

// project keeps the projected values of sol, renamed to their targets, on
// top of the parent bindings. A projected value overrides a parent binding
// of the same name.
func project(elems []algebra.ProjectionElem, sol, parent Solution) Solution {
	result := parent
	for _, e := range elems {
		if v := sol.Get(e.Source); v != nil {
			result = result.With(e.Target, v)
		}
	}
	return result
}

func (s *Strategy) evaluateExtension(e *algebra.Extension, bindings Solution) (Iterator, error) {
	arg, err := s.Evaluate(e.Arg, bindings)
	if err != nil {
		return nil, err
	}
	return mapIterator(arg, func(sol Solution) (Solution, bool, error) {
		for _, elem := range e.Elements {
			v, err := s.EvaluateValue(elem.Expr, sol)
			if err != nil {
				if IsValueExprError(err) {
					// The target stays unbound
					sol = sol.Without(elem.Name)
					continue
				}
				return Solution{}, false, evalError("extension", err)
			}
			sol = sol.With(elem.Name, v)
		}
		return sol, true, nil
	}), nil
}

func (s *Strategy) evaluateFilter(f *algebra.Filter, bindings Solution) (Iterator, error) {
	arg, err := s.Evaluate(f.Arg, bindings)
	if err != nil {
		return nil, err
	}
	return mapIterator(arg, func(sol Solution) (Solution, bool, error) {
		ok, err := s.IsTrue(f.Condition, sol)
		if err != nil {
			if IsValueExprError(err) {
				return Solution{}, false, nil
			}
			return Solution{}, false, evalError("filter", err)
		}
		return sol, ok, nil
	}), nil
}

func (s *Strategy) evaluateSlice(sl *algebra.Slice, bindings Solution) (Iterator, error) {
	var (
		arg Iterator
		err error
	)
	limit := int64(-1)
	if sl.HasLimit() {
		limit = sl.Offset + sl.Limit
	}

	// An Order directly below, possibly through Distinct or Reduced, only
	// needs to keep the first offset+limit solutions.
	switch inner := sl.Arg.(type) {
	case *algebra.Order:
		arg, err = s.evaluateOrder(inner, bindings, limit, false)
	case *algebra.Distinct:
		if order, ok := inner.Arg.(*algebra.Order); ok {
			arg, err = s.distinctOver(inner, order, bindings, limit)
		} else {
			arg, err = s.Evaluate(inner, bindings)
		}
	case *algebra.Reduced:
		if order, ok := inner.Arg.(*algebra.Order); ok {
			arg, err = s.evaluateOrder(order, bindings, limit, true)
		} else {
			arg, err = s.Evaluate(inner, bindings)
		}
	default:
		arg, err = s.Evaluate(sl.Arg, bindings)
	}
	if err != nil {
		return nil, err
	}
	if !sl.HasOffset() && !sl.HasLimit() {
		return arg, nil
	}
	return newCursor(&sliceProducer{arg: arg, offset: sl.Offset, limit: sl.Limit}), nil
}

// distinctOver evaluates Distinct(Order) with the order already removing
// duplicates and bounded to limit.
func (s *Strategy) distinctOver(d *algebra.Distinct, order *algebra.Order, bindings Solution, limit int64) (Iterator, error) {
	arg, err := s.evaluateOrder(order, bindings, limit, true)
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

// sliceProducer skips offset solutions and then yields at most limit.
type sliceProducer struct {
	arg     Iterator
	offset  int64
	limit   int64
	skipped int64
	emitted int64
}

func (sp *sliceProducer) produce() (Solution, bool, error) {
	for sp.skipped < sp.offset {
		if !sp.arg.Next() {
			return Solution{}, false, sp.arg.Err()
		}
		sp.skipped++
	}
	if sp.limit >= 0 && sp.emitted >= sp.limit {
		return Solution{}, false, nil
	}
	if !sp.arg.Next() {
		return Solution{}, false, sp.arg.Err()
	}
	sp.emitted++
	return sp.arg.Solution(), true, nil
}

func (sp *sliceProducer) release() error { return sp.arg.Close() }

func (s *Strategy) evaluateBindingSetAssignment(b *algebra.BindingSetAssignment, bindings Solution) Iterator {
	rows := make([]Solution, 0, len(b.Rows))
	for _, row := range b.Rows {
		merged, ok := NewSolution(row).Merge(bindings)
		if ok {
			rows = append(rows, merged)
		}
	}
	return NewSliceIterator(rows...)
}

func (s *Strategy) evaluateService(svc *algebra.Service, bindings Solution) (Iterator, error) {
	it, err := s.callService(svc, bindings)
	if err != nil {
		if svc.Silent {
			log.WithError(err).WithField("service", svc.ServiceRef.String()).
				Warn("silent service failed, passing input through")
			return SingletonIterator(bindings), nil
		}
		return nil, s.fail("service", err)
	}
	// Remote solutions must agree with what is already bound
	return mapIterator(it, func(sol Solution) (Solution, bool, error) {
		merged, ok := sol.Merge(bindings)
		return merged, ok, nil
	}), nil
}

func (s *Strategy) callService(svc *algebra.Service, bindings Solution) (Iterator, error) {
	ref := varValue(svc.ServiceRef, bindings)
	iri, ok := ref.(rdf.IRI)
	if !ok {
		return nil, valueErrorf("service reference %s is not bound to an IRI", svc.ServiceRef)
	}
	if s.opts.ServiceResolver == nil {
		return nil, valueErrorf("no service resolver configured for %s", iri)
	}
	endpoint, err := s.opts.ServiceResolver.Service(iri)
	if err != nil {
		return nil, err
	}
	return endpoint.Evaluate(svc.Arg, bindings)
}
