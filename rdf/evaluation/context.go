package evaluation

import (
	"time"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
	"github.com/ansell/openrdf-sesame-sub015/rdf/annotations"
)

// Context provides annotation points for evaluation tracking. Methods may
// be called from parallel cursor goroutines.
type Context interface {
	// Evaluation lifecycle
	EvaluationBegin(expr algebra.TupleExpr)
	EvaluationComplete(start time.Time, solutions int, err error)

	// Statement access
	ScanPattern(sp *algebra.StatementPattern, fn func() (rdf.StatementIterator, error)) (rdf.StatementIterator, error)

	// Joins
	Join(parallel bool, join algebra.TupleExpr, fn func() (Iterator, error)) (Iterator, error)
	BadlyDesignedLeftJoin(join *algebra.LeftJoin, problemVars []string)

	// Buffering and traversal
	OrderSpilled(entries int, dir string)
	DescribeExpanded(value rdf.Value, statements int)
	CloseGraceLapsed(grace time.Duration)

	// Errors
	EvaluationFailed(op string, err error)

	// Get underlying collector
	Collector() *annotations.Collector
}

// NewContext creates an appropriate context based on whether annotations
// are needed.
func NewContext(handler annotations.Handler) Context {
	if handler == nil {
		return &BaseContext{}
	}
	return &AnnotatedContext{
		collector: annotations.NewCollector(handler),
	}
}

// BaseContext provides a no-op implementation with zero overhead.
type BaseContext struct{}

func (c *BaseContext) EvaluationBegin(expr algebra.TupleExpr) {}

func (c *BaseContext) EvaluationComplete(start time.Time, solutions int, err error) {}

func (c *BaseContext) ScanPattern(sp *algebra.StatementPattern, fn func() (rdf.StatementIterator, error)) (rdf.StatementIterator, error) {
	return fn()
}

func (c *BaseContext) Join(parallel bool, join algebra.TupleExpr, fn func() (Iterator, error)) (Iterator, error) {
	return fn()
}

func (c *BaseContext) BadlyDesignedLeftJoin(join *algebra.LeftJoin, problemVars []string) {}

func (c *BaseContext) OrderSpilled(entries int, dir string) {}

func (c *BaseContext) DescribeExpanded(value rdf.Value, statements int) {}

func (c *BaseContext) CloseGraceLapsed(grace time.Duration) {}

func (c *BaseContext) EvaluationFailed(op string, err error) {}

func (c *BaseContext) Collector() *annotations.Collector { return nil }

// AnnotatedContext records an annotation event at each point.
type AnnotatedContext struct {
	collector *annotations.Collector
}

func (c *AnnotatedContext) EvaluationBegin(expr algebra.TupleExpr) {
	c.collector.Add(annotations.Event{
		Name:  annotations.EvaluationBegin,
		Start: time.Now(),
		End:   time.Now(),
		Data:  map[string]interface{}{"expr": algebra.Format(expr)},
	})
}

func (c *AnnotatedContext) EvaluationComplete(start time.Time, solutions int, err error) {
	data := map[string]interface{}{
		"solutions": solutions,
		"success":   err == nil,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	c.collector.AddTiming(annotations.EvaluationComplete, start, data)
}

func (c *AnnotatedContext) ScanPattern(sp *algebra.StatementPattern, fn func() (rdf.StatementIterator, error)) (rdf.StatementIterator, error) {
	start := time.Now()
	it, err := fn()
	if err != nil {
		return nil, err
	}
	return &countingStatements{
		inner: it,
		onClose: func(count int) {
			c.collector.AddTiming(annotations.PatternScan, start, map[string]interface{}{
				"pattern":    sp.String(),
				"statements": count,
			})
		},
	}, nil
}

func (c *AnnotatedContext) Join(parallel bool, join algebra.TupleExpr, fn func() (Iterator, error)) (Iterator, error) {
	start := time.Now()
	it, err := fn()
	if err != nil {
		return nil, err
	}
	name := annotations.JoinNested
	if parallel {
		name = annotations.JoinParallel
	}
	counting := NewCountingIterator(it)
	counting.onClose = func(count int, err error) {
		data := map[string]interface{}{
			"join":      join.String(),
			"solutions": count,
		}
		if err != nil {
			data["error"] = err.Error()
		}
		c.collector.AddTiming(name, start, data)
	}
	return counting, nil
}

func (c *AnnotatedContext) BadlyDesignedLeftJoin(join *algebra.LeftJoin, problemVars []string) {
	c.collector.Add(annotations.Event{
		Name:  annotations.LeftJoinBadlyDesigned,
		Start: time.Now(),
		End:   time.Now(),
		Data:  map[string]interface{}{"join": join.String(), "problem.vars": problemVars},
	})
}

func (c *AnnotatedContext) OrderSpilled(entries int, dir string) {
	c.collector.Add(annotations.Event{
		Name:  annotations.OrderSpilled,
		Start: time.Now(),
		End:   time.Now(),
		Data:  map[string]interface{}{"entries": entries, "dir": dir},
	})
}

func (c *AnnotatedContext) DescribeExpanded(value rdf.Value, statements int) {
	c.collector.Add(annotations.Event{
		Name:  annotations.DescribeExpanded,
		Start: time.Now(),
		End:   time.Now(),
		Data:  map[string]interface{}{"value": value.String(), "statements": statements},
	})
}

func (c *AnnotatedContext) CloseGraceLapsed(grace time.Duration) {
	c.collector.Add(annotations.Event{
		Name:  annotations.ParallelCloseGraceLapse,
		Start: time.Now(),
		End:   time.Now(),
		Data:  map[string]interface{}{"grace": grace},
	})
}

func (c *AnnotatedContext) EvaluationFailed(op string, err error) {
	c.collector.Add(annotations.Event{
		Name:  annotations.ErrorEvaluation,
		Start: time.Now(),
		End:   time.Now(),
		Data:  map[string]interface{}{"op": op, "error": err.Error()},
	})
}

func (c *AnnotatedContext) Collector() *annotations.Collector { return c.collector }

// countingStatements counts the statements read from a scan.
type countingStatements struct {
	inner   rdf.StatementIterator
	count   int
	onClose func(count int)
}

func (s *countingStatements) Next() bool {
	if s.inner.Next() {
		s.count++
		return true
	}
	return false
}

func (s *countingStatements) Statement() rdf.Statement { return s.inner.Statement() }
func (s *countingStatements) Err() error               { return s.inner.Err() }

func (s *countingStatements) Close() error {
	err := s.inner.Close()
	if s.onClose != nil {
		s.onClose(s.count)
		s.onClose = nil
	}
	return err
}
