package evaluation

import (
	"github.com/ansell/openrdf-sesame-sub015/rdf"
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
)

func (s *Strategy) evaluateStatementPattern(sp *algebra.StatementPattern, bindings Solution) (Iterator, error) {
	subj := varValue(sp.Subject, bindings)
	pred := varValue(sp.Predicate, bindings)
	obj := varValue(sp.Object, bindings)
	ctx := varValue(sp.Context, bindings)

	// Literals cannot be subjects or graph names, and only IRIs predicates
	if subj != nil && !isResource(subj) {
		return EmptyIterator(), nil
	}
	if pred != nil && pred.Kind() != rdf.KindIRI {
		return EmptyIterator(), nil
	}
	if ctx != nil && !isResource(ctx) {
		return EmptyIterator(), nil
	}

	contexts, empty := s.patternContexts(sp, ctx)
	if empty {
		return EmptyIterator(), nil
	}

	it, err := s.ctx.ScanPattern(sp, func() (rdf.StatementIterator, error) {
		return s.source.GetStatements(subj, pred, obj, contexts...)
	})
	if err != nil {
		return nil, s.fail("statement pattern", err)
	}

	return newCursor(&patternProducer{
		pattern:        sp,
		vars:           [4]*algebra.Var{sp.Subject, sp.Predicate, sp.Object, sp.Context},
		bindings:       bindings,
		statements:     it,
		excludeDefault: len(contexts) == 0 && sp.Scope == algebra.NamedContexts,
	}), nil
}

// patternContexts resolves the graphs to search. empty is true when the
// dataset rules out every graph.
func (s *Strategy) patternContexts(sp *algebra.StatementPattern, ctx rdf.Value) (contexts []rdf.Value, empty bool) {
	ds := s.opts.Dataset
	if ds == nil {
		if ctx != nil {
			return []rdf.Value{ctx}, false
		}
		return nil, false
	}

	graphs := ds.DefaultGraphs
	if sp.Scope == algebra.NamedContexts {
		graphs = ds.NamedGraphs
	}
	if len(graphs) == 0 {
		return nil, true
	}

	if ctx != nil {
		for _, g := range graphs {
			if g == ctx {
				return []rdf.Value{ctx}, false
			}
		}
		return nil, true
	}

	contexts = make([]rdf.Value, len(graphs))
	for i, g := range graphs {
		contexts[i] = g
	}
	return contexts, false
}

func isResource(v rdf.Value) bool {
	k := v.Kind()
	return k == rdf.KindIRI || k == rdf.KindBNode
}

// patternProducer turns matching statements into solutions.
type patternProducer struct {
	pattern        *algebra.StatementPattern
	vars           [4]*algebra.Var
	bindings       Solution
	statements     rdf.StatementIterator
	excludeDefault bool
}

func (p *patternProducer) produce() (Solution, bool, error) {
	for p.statements.Next() {
		st := p.statements.Statement()
		if p.excludeDefault && st.Context == nil {
			continue
		}
		values := [4]rdf.Value{st.Subject, st.Predicate, st.Object, st.Context}
		if !p.consistent(values) {
			continue
		}
		return p.bind(values), true, nil
	}
	if err := p.statements.Err(); err != nil {
		return Solution{}, false, evalError("statement pattern", err)
	}
	return Solution{}, false, nil
}

// consistent checks that a variable used in several positions matched the
// same value in each.
func (p *patternProducer) consistent(values [4]rdf.Value) bool {
	for i := 0; i < len(p.vars); i++ {
		if p.vars[i] == nil {
			continue
		}
		for j := i + 1; j < len(p.vars); j++ {
			if p.vars[j] != nil && p.vars[j].Name == p.vars[i].Name && values[i] != values[j] {
				return false
			}
		}
	}
	return true
}

func (p *patternProducer) bind(values [4]rdf.Value) Solution {
	result := p.bindings
	for i, v := range p.vars {
		if !v.Bindable() || values[i] == nil {
			continue
		}
		if !result.Has(v.Name) {
			result = result.With(v.Name, values[i])
		}
	}
	return result
}

func (p *patternProducer) release() error {
	return p.statements.Close()
}
