// Package evaluation interprets algebra trees as lazy pipelines of
// solutions over a TripleSource.
package evaluation

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
)

// Strategy evaluates algebra trees against a TripleSource. A Strategy has
// no per-query state, so independent Evaluate calls may run concurrently.
type Strategy struct {
	source TripleSource
	opts   Options
	ctx    Context
	budget *collectionBudget
}

// NewStrategy creates a strategy over source. Unset options take their
// DefaultOptions values.
func NewStrategy(source TripleSource, opts Options) *Strategy {
	opts = opts.withDefaults()
	return &Strategy{
		source: source,
		opts:   opts,
		ctx:    opts.Context,
		budget: newCollectionBudget(opts.MaxCollectionSize),
	}
}

// Source returns the strategy's triple source.
func (s *Strategy) Source() TripleSource { return s.source }

// Options returns the effective options.
func (s *Strategy) Options() Options { return s.opts }

// Query evaluates expr as a complete query: it reports the start of
// evaluation and, once the returned iterator is closed, the number of
// solutions it produced.
func (s *Strategy) Query(expr algebra.TupleExpr, bindings Solution) (Iterator, error) {
	start := time.Now()
	s.ctx.EvaluationBegin(expr)
	it, err := s.Evaluate(expr, bindings)
	if err != nil {
		s.ctx.EvaluationComplete(start, 0, err)
		return nil, err
	}
	counting := NewCountingIterator(it)
	counting.onClose = func(count int, err error) {
		s.ctx.EvaluationComplete(start, count, err)
	}
	return counting, nil
}

// Evaluate returns the solutions of expr that are compatible with, and
// extend, bindings.
func (s *Strategy) Evaluate(expr algebra.TupleExpr, bindings Solution) (Iterator, error) {
	if s.opts.EnableDebugLogging && expr != nil {
		log.WithFields(log.Fields{
			"expr":     expr.String(),
			"bindings": bindings.String(),
		}).Debug("evaluating")
	}

	switch e := expr.(type) {
	case nil:
		return nil, s.fail("evaluate", fmt.Errorf("nil tuple expression"))
	case *algebra.StatementPattern:
		return s.evaluateStatementPattern(e, bindings)
	case *algebra.SingletonSet:
		return SingletonIterator(bindings), nil
	case *algebra.EmptySet:
		return EmptyIterator(), nil
	case *algebra.BindingSetAssignment:
		return s.evaluateBindingSetAssignment(e, bindings), nil
	case *algebra.Projection:
		return s.evaluateProjection(e, bindings)
	case *algebra.Extension:
		return s.evaluateExtension(e, bindings)
	case *algebra.Filter:
		return s.evaluateFilter(e, bindings)
	case *algebra.Distinct:
		return s.evaluateDistinct(e, bindings)
	case *algebra.Reduced:
		return s.evaluateReduced(e, bindings)
	case *algebra.Order:
		return s.evaluateOrder(e, bindings, -1, false)
	case *algebra.Slice:
		return s.evaluateSlice(e, bindings)
	case *algebra.Group:
		return s.evaluateGroup(e, bindings)
	case *algebra.Describe:
		return s.evaluateDescribe(e, bindings)
	case *algebra.Service:
		return s.evaluateService(e, bindings)
	case *algebra.Join:
		return s.evaluateJoin(e, bindings)
	case *algebra.LeftJoin:
		return s.evaluateLeftJoin(e, bindings)
	case *algebra.Union:
		return s.evaluateUnion(e, bindings)
	case *algebra.Intersection:
		return s.evaluateIntersection(e, bindings)
	case *algebra.Difference:
		return s.evaluateDifference(e, bindings)
	default:
		if s.opts.Fallback != nil {
			return s.opts.Fallback(s, expr, bindings)
		}
		return nil, s.fail("evaluate", fmt.Errorf("unsupported tuple expression %T", expr))
	}
}

// fail wraps err as an EvaluationError for op and reports it.
func (s *Strategy) fail(op string, err error) error {
	wrapped := evalError(op, err)
	s.ctx.EvaluationFailed(op, err)
	return wrapped
}

// varValue resolves a variable from its constant or from bindings.
func varValue(v *algebra.Var, bindings Solution) rdf.Value {
	if v == nil {
		return nil
	}
	if v.HasValue() {
		return v.Value
	}
	return bindings.Get(v.Name)
}
