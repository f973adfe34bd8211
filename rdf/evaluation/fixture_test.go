package evaluation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
	"github.com/ansell/openrdf-sesame-sub015/rdf/storage"
)

const ex = "http://example.org/"

var (
	exA = rdf.IRI(ex + "a")
	exB = rdf.IRI(ex + "b")
	exC = rdf.IRI(ex + "c")
	exX = rdf.IRI(ex + "x")
	exP = rdf.IRI(ex + "p")
	exQ = rdf.IRI(ex + "q")
)

// threeTriples is the store used by most scenarios:
// (a p b), (a p c), (x q a).
func threeTriples() *storage.MemoryStore {
	return storage.NewMemoryStore(
		rdf.NewStatement(exA, exP, exB),
		rdf.NewStatement(exA, exP, exC),
		rdf.NewStatement(exX, exQ, exA),
	)
}

func pattern(s, p, o interface{}) *algebra.StatementPattern {
	return algebra.NewStatementPattern(term(s), term(p), term(o))
}

// term turns a string into a variable and a value into a constant.
func term(t interface{}) *algebra.Var {
	switch v := t.(type) {
	case string:
		return algebra.NewVar(v)
	case rdf.Value:
		return algebra.NewConstantVar(v)
	}
	panic("bad term")
}

func v(name string) *algebra.Var { return algebra.NewVar(name) }

func constant(val rdf.Value) *algebra.ValueConstant { return algebra.NewValueConstant(val) }

func newTestStrategy(opts Options) *Strategy {
	return NewStrategy(threeTriples(), opts)
}

func evaluate(t *testing.T, s *Strategy, expr algebra.TupleExpr) []Solution {
	t.Helper()
	it, err := s.Evaluate(expr, Solution{})
	require.NoError(t, err)
	sols, err := Collect(it)
	require.NoError(t, err)
	return sols
}

// strs renders solutions for order-insensitive comparisons.
func strs(sols []Solution) []string {
	out := make([]string, len(sols))
	for i, s := range sols {
		out[i] = s.String()
	}
	return out
}

func sol(pairs ...interface{}) Solution { return SolutionOf(pairs...) }
