package evaluation

import (
	"github.com/ansell/openrdf-sesame-sub015/rdf"
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
)

func (s *Strategy) evaluateDescribe(d *algebra.Describe, bindings Solution) (Iterator, error) {
	arg, err := s.Evaluate(d.Arg, bindings)
	if err != nil {
		return nil, err
	}
	return newCursor(&describeProducer{
		strategy: s,
		arg:      arg,
		names:    d.Arg.BindingNames(),
		bindings: bindings,
		queued:   make(map[rdf.BNode]struct{}),
	}), nil
}

// describeProducer emits, for every value bound by the argument, the
// statements with that value as subject and then those with it as object.
// Blank nodes reached on the far side of a statement are expanded in the
// same direction, each at most once per query.
type describeProducer struct {
	strategy *Strategy
	arg      Iterator
	names    []string
	bindings Solution

	starts   []rdf.Value
	start    rdf.Value
	outgoing bool
	pending  []rdf.BNode
	queued   map[rdf.BNode]struct{}
	current  Iterator
	emitted  int
}

func (d *describeProducer) produce() (Solution, bool, error) {
	for {
		if d.current != nil {
			if d.current.Next() {
				sol := d.current.Solution()
				d.follow(sol)
				d.emitted++
				return sol, true, nil
			}
			err := d.current.Err()
			if cerr := d.current.Close(); err == nil {
				err = cerr
			}
			d.current = nil
			if err != nil {
				return Solution{}, false, err
			}
		}

		var next rdf.Value
		switch {
		case len(d.pending) > 0:
			next, d.pending = d.pending[0], d.pending[1:]
		case d.start != nil && d.outgoing:
			d.outgoing = false
			next = d.start
		default:
			if d.start != nil {
				d.strategy.ctx.DescribeExpanded(d.start, d.emitted)
				d.start = nil
			}
			if len(d.starts) == 0 {
				if !d.arg.Next() {
					return Solution{}, false, d.arg.Err()
				}
				sol := d.arg.Solution()
				for _, name := range d.names {
					if v := sol.Get(name); v != nil {
						d.starts = append(d.starts, v)
					}
				}
				continue
			}
			d.start, d.starts = d.starts[0], d.starts[1:]
			d.outgoing, d.emitted = true, 0
			next = d.start
		}

		it, err := d.expand(next)
		if err != nil {
			return Solution{}, false, err
		}
		d.current = it
	}
}

// follow queues the blank node on the far side of a described statement.
func (d *describeProducer) follow(sol Solution) {
	far := algebra.DescribeObject
	if !d.outgoing {
		far = algebra.DescribeSubject
	}
	b, ok := sol.Get(far).(rdf.BNode)
	if !ok {
		return
	}
	if _, seen := d.queued[b]; seen {
		return
	}
	d.queued[b] = struct{}{}
	d.pending = append(d.pending, b)
}

func (d *describeProducer) expand(v rdf.Value) (Iterator, error) {
	subj := &algebra.Var{Name: algebra.DescribeSubject}
	obj := &algebra.Var{Name: algebra.DescribeObject}
	if d.outgoing {
		subj.Value = v
	} else {
		obj.Value = v
	}
	pattern := algebra.NewStatementPattern(subj, &algebra.Var{Name: algebra.DescribePredicate}, obj)
	return d.strategy.Evaluate(pattern, d.bindings)
}

func (d *describeProducer) release() error {
	err := closeAll(d.current, d.arg)
	d.current = nil
	return err
}
