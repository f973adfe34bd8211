package evaluation

import (
	"fmt"
	"strings"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
)

// groupEntry collects the solutions that share one group key.
type groupEntry struct {
	prototype Solution
	solutions []Solution
}

func (s *Strategy) evaluateGroup(g *algebra.Group, bindings Solution) (Iterator, error) {
	return newCursor(&groupProducer{strategy: s, group: g, bindings: bindings}), nil
}

// groupProducer reads and aggregates the whole argument on first use.
type groupProducer struct {
	strategy *Strategy
	group    *algebra.Group
	bindings Solution
	results  *SliceIterator
}

func (p *groupProducer) produce() (Solution, bool, error) {
	if p.results == nil {
		results, err := p.strategy.aggregateGroups(p.group, p.bindings)
		if err != nil {
			return Solution{}, false, err
		}
		p.results = NewSliceIterator(results...)
	}
	if p.results.Next() {
		return p.results.Solution(), true, nil
	}
	return Solution{}, false, nil
}

func (p *groupProducer) release() error {
	p.results = nil
	return nil
}

func (s *Strategy) aggregateGroups(g *algebra.Group, bindings Solution) ([]Solution, error) {
	entries, held, err := s.buildGroups(g, bindings)
	defer held.releaseAll()
	if err != nil {
		return nil, err
	}

	// Aggregating nothing without grouping still yields one row
	if len(entries) == 0 && len(g.GroupNames) == 0 {
		entries = []*groupEntry{{prototype: bindings}}
	}

	results := make([]Solution, 0, len(entries))
	for _, entry := range entries {
		sol := bindings
		for _, name := range g.GroupNames {
			if v := entry.prototype.Get(name); v != nil {
				sol = sol.With(name, v)
			}
		}
		for _, elem := range g.Elements {
			v, err := s.aggregate(elem.Operator, entry.solutions, bindings)
			if err != nil {
				if IsValueExprError(err) {
					continue
				}
				return nil, s.fail("group", err)
			}
			if v != nil {
				sol = sol.With(elem.Name, v)
			}
		}
		results = append(results, sol)
	}
	return results, nil
}

// buildGroups reads the argument and splits it by group key, keeping the
// groups in order of first appearance.
func (s *Strategy) buildGroups(g *algebra.Group, bindings Solution) ([]*groupEntry, claim, error) {
	held := claim{budget: s.budget}
	it, err := s.Evaluate(g.Arg, bindings)
	if err != nil {
		return nil, held, err
	}
	defer it.Close()

	byKey := NewKeyMap[*groupEntry](16)
	var ordered []*groupEntry
	for it.Next() {
		sol := it.Solution()
		if err := held.add(1); err != nil {
			return nil, held, evalError("group", err)
		}
		key := NewHashKey(sol, g.GroupNames)
		entry, ok := byKey.Get(key)
		if !ok {
			entry = &groupEntry{prototype: sol}
			byKey.Put(key, entry)
			ordered = append(ordered, entry)
		}
		entry.solutions = append(entry.solutions, sol)
	}
	return ordered, held, it.Err()
}

// aggregate computes one aggregate over the solutions of a group. A nil
// value with no error leaves the target unbound.
func (s *Strategy) aggregate(op algebra.AggregateOperator, solutions []Solution, parent Solution) (rdf.Value, error) {
	if c, ok := op.(*algebra.Count); ok && c.Arg == nil {
		if !c.Distinct {
			return rdf.NewInteger(int64(len(solutions))), nil
		}
		seen := NewKeySet(len(solutions))
		for _, sol := range solutions {
			seen.Add(NewHashKey(sol, sol.Names()))
		}
		return rdf.NewInteger(int64(seen.Len())), nil
	}

	values, err := s.aggregateValues(op, solutions)
	if err != nil {
		return nil, err
	}

	switch a := op.(type) {
	case *algebra.Count:
		return rdf.NewInteger(int64(len(values))), nil
	case *algebra.Min:
		return extreme(values, -1), nil
	case *algebra.Max:
		return extreme(values, 1), nil
	case *algebra.Sum:
		return sumValues(values)
	case *algebra.Avg:
		if len(values) == 0 {
			return rdf.NewDouble(0), nil
		}
		sum, err := sumValues(values)
		if err != nil {
			return nil, err
		}
		total, _ := sum.(rdf.Literal).Float64()
		return rdf.NewDouble(total / float64(len(values))), nil
	case *algebra.Sample:
		if len(values) == 0 {
			return nil, nil
		}
		return values[0], nil
	case *algebra.GroupConcat:
		sep := " "
		if a.Separator != nil {
			v, err := s.EvaluateValue(a.Separator, parent)
			if err != nil {
				return nil, err
			}
			if sep, err = lexical(v); err != nil {
				return nil, err
			}
		}
		parts := make([]string, 0, len(values))
		for _, v := range values {
			text, err := lexical(v)
			if err != nil {
				return nil, err
			}
			parts = append(parts, text)
		}
		return rdf.NewString(strings.Join(parts, sep)), nil
	}
	return nil, evalError("group", fmt.Errorf("unsupported aggregate %T", op))
}

// aggregateValues evaluates the operand of op on every solution. Solutions
// where the operand has no value are skipped; distinct operators keep the
// first occurrence of each value.
func (s *Strategy) aggregateValues(op algebra.AggregateOperator, solutions []Solution) ([]rdf.Value, error) {
	var seen *KeySet
	if op.IsDistinct() {
		seen = NewKeySet(len(solutions))
	}
	values := make([]rdf.Value, 0, len(solutions))
	for _, sol := range solutions {
		v, err := s.EvaluateValue(op.Operand(), sol)
		if err != nil {
			if IsValueExprError(err) {
				continue
			}
			return nil, err
		}
		if seen != nil && !seen.Add(NewValuesKey(v)) {
			continue
		}
		values = append(values, v)
	}
	return values, nil
}

func extreme(values []rdf.Value, sign int) rdf.Value {
	var result rdf.Value
	for _, v := range values {
		if result == nil || rdf.CompareValues(v, result)*sign > 0 {
			result = v
		}
	}
	return result
}

// sumValues adds numeric literals. The result is an integer unless an
// operand promotes it to decimal, float or double.
func sumValues(values []rdf.Value) (rdf.Value, error) {
	var result rdf.Value = rdf.NewInteger(0)
	for _, v := range values {
		lit, ok := v.(rdf.Literal)
		if !ok || !lit.IsNumeric() {
			return nil, valueErrorf("not a number: %s", v)
		}
		next, err := MathOperation(result, lit, algebra.Plus)
		if err != nil {
			return nil, err
		}
		result = next
	}
	return result, nil
}
