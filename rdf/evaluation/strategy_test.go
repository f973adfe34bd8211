package evaluation

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
	"github.com/ansell/openrdf-sesame-sub015/rdf/annotations"
	"github.com/ansell/openrdf-sesame-sub015/rdf/storage"
)

// eventRecorder collects annotation events from any goroutine.
type eventRecorder struct {
	mu     sync.Mutex
	events []annotations.Event
}

func (r *eventRecorder) handle(e annotations.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) named(name string) []annotations.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []annotations.Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func TestJoinScenario(t *testing.T) {
	s := newTestStrategy(Options{})

	// ?s ex:p ?o . ?x ex:q ?s
	join := algebra.NewJoin(pattern("s", exP, "o"), pattern("x", exQ, "s"))
	got := evaluate(t, s, join)

	assert.Equal(t, []string{
		sol("s", exA, "o", exB, "x", exX).String(),
		sol("s", exA, "o", exC, "x", exX).String(),
	}, strs(got))
}

func TestJoinOrderIndependence(t *testing.T) {
	tests := []struct {
		name        string
		left, right algebra.TupleExpr
	}{
		{"shared subject", pattern("s", exP, "o"), pattern("x", exQ, "s")},
		{"no shared vars", pattern("s", exP, "o"), pattern("x", exQ, "y")},
		{"no matches", pattern("s", exP, "o"), pattern("o", exP, "z")},
		{"singleton", &algebra.SingletonSet{}, pattern("s", "p", "o")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStrategy(Options{})
			lr := evaluate(t, s, algebra.NewJoin(tt.left, tt.right))
			rl := evaluate(t, s, algebra.NewJoin(tt.right, tt.left))
			assert.ElementsMatch(t, strs(lr), strs(rl))
		})
	}
}

func TestLeftJoinScenario(t *testing.T) {
	s := newTestStrategy(Options{})

	t.Run("matches", func(t *testing.T) {
		lj := algebra.NewLeftJoin(pattern("x", exQ, "y"), pattern("y", exP, "z"), nil)
		assert.Equal(t, []string{
			sol("x", exX, "y", exA, "z", exB).String(),
			sol("x", exX, "y", exA, "z", exC).String(),
		}, strs(evaluate(t, s, lj)))
	})

	t.Run("no match keeps left", func(t *testing.T) {
		lj := algebra.NewLeftJoin(pattern("s", exP, "o"), pattern("o", exP, "z"), nil)
		assert.Equal(t, []string{
			sol("s", exA, "o", exB).String(),
			sol("s", exA, "o", exC).String(),
		}, strs(evaluate(t, s, lj)))
	})

	t.Run("condition selects", func(t *testing.T) {
		cond := algebra.NewCompare(v("z"), constant(exB), algebra.EQ)
		lj := algebra.NewLeftJoin(pattern("x", exQ, "y"), pattern("y", exP, "z"), cond)
		assert.Equal(t, []string{sol("x", exX, "y", exA, "z", exB).String()}, strs(evaluate(t, s, lj)))
	})

	t.Run("condition rejects all", func(t *testing.T) {
		cond := algebra.NewCompare(v("z"), constant(exX), algebra.EQ)
		lj := algebra.NewLeftJoin(pattern("x", exQ, "y"), pattern("y", exP, "z"), cond)
		assert.Equal(t, []string{sol("x", exX, "y", exA).String()}, strs(evaluate(t, s, lj)))
	})

	t.Run("condition error counts as false", func(t *testing.T) {
		cond := algebra.NewCompare(v("z"), constant(rdf.NewInteger(1)), algebra.LT)
		lj := algebra.NewLeftJoin(pattern("x", exQ, "y"), pattern("y", exP, "z"), cond)
		assert.Equal(t, []string{sol("x", exX, "y", exA).String()}, strs(evaluate(t, s, lj)))
	})
}

func TestLeftJoinOuterIdentity(t *testing.T) {
	s := newTestStrategy(Options{})
	left := pattern("s", "p", "o")

	lj := evaluate(t, s, algebra.NewLeftJoin(left, &algebra.EmptySet{}, nil))
	plain := evaluate(t, s, left)
	assert.Equal(t, strs(plain), strs(lj))
}

func TestBadlyDesignedLeftJoin(t *testing.T) {
	rec := &eventRecorder{}
	s := newTestStrategy(Options{Context: NewContext(rec.handle)})

	// The right side binds ?y, which the input binds but the left side
	// does not guarantee.
	lj := algebra.NewLeftJoin(pattern("s", exP, "o"), pattern("x", exQ, "y"), nil)

	t.Run("conflicting input", func(t *testing.T) {
		it, err := s.Evaluate(lj, sol("y", exB))
		require.NoError(t, err)
		got, err := Collect(it)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("agreeing input", func(t *testing.T) {
		it, err := s.Evaluate(lj, sol("y", exA))
		require.NoError(t, err)
		got, err := Collect(it)
		require.NoError(t, err)
		assert.Equal(t, []string{
			sol("s", exA, "o", exB, "x", exX, "y", exA).String(),
			sol("s", exA, "o", exC, "x", exX, "y", exA).String(),
		}, strs(got))
	})

	events := rec.named(annotations.LeftJoinBadlyDesigned)
	require.Len(t, events, 2)
	assert.Equal(t, []string{"y"}, events[0].Data["problem.vars"])
}

func TestUnion(t *testing.T) {
	s := newTestStrategy(Options{})
	u := algebra.NewUnion(pattern("s", exP, "o"), pattern("s", exQ, "o"))
	assert.Equal(t, []string{
		sol("s", exA, "o", exB).String(),
		sol("s", exA, "o", exC).String(),
		sol("s", exX, "o", exA).String(),
	}, strs(evaluate(t, s, u)))
}

func TestIntersection(t *testing.T) {
	s := newTestStrategy(Options{})
	subjects := algebra.NewProjection(pattern("n", "p", "o"), "n")
	objects := algebra.NewProjection(pattern("s", "p", "n"), "n")

	got := evaluate(t, s, algebra.NewIntersection(subjects, objects))
	assert.Equal(t, []string{sol("n", exA).String(), sol("n", exA).String()}, strs(got))
}

func TestMinus(t *testing.T) {
	tests := []struct {
		name  string
		right algebra.TupleExpr
		want  int
	}{
		// Shares ?s and is compatible with every left solution.
		{"compatible shared", pattern("x", exQ, "s"), 0},
		// Shares ?s but binds it to ex:x.
		{"incompatible shared", pattern("s", exQ, "z"), 2},
		// No shared variable never removes anything.
		{"disjoint", pattern("x", exQ, "y"), 2},
		{"empty", &algebra.EmptySet{}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStrategy(Options{})
			got := evaluate(t, s, algebra.NewDifference(pattern("s", exP, "o"), tt.right))
			assert.Len(t, got, tt.want)
		})
	}
}

func TestMinusUnderJoin(t *testing.T) {
	tests := []struct {
		name  string
		minus *algebra.Difference
		other algebra.TupleExpr
		want  int
	}{
		// The arguments share nothing, so names bound by the other join
		// argument must not make them overlap.
		{"disjoint arguments", algebra.NewDifference(pattern("x", exQ, "y"), pattern("u", exP, "w")), pattern("s", exP, "o"), 2},
		// ?s is shared by both arguments and also bound from outside.
		{"shared argument name", algebra.NewDifference(pattern("s", exP, "o2"), pattern("z", exQ, "s")), pattern("s", exP, "o"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStrategy(Options{})
			minusFirst := evaluate(t, s, algebra.NewJoin(tt.minus, tt.other))
			minusSecond := evaluate(t, s, algebra.NewJoin(tt.other, tt.minus))
			assert.Len(t, minusFirst, tt.want)
			assert.ElementsMatch(t, strs(minusFirst), strs(minusSecond))
		})
	}
}

func TestDistinctIdempotence(t *testing.T) {
	s := newTestStrategy(Options{})
	subjects := algebra.NewProjection(pattern("s", "p", "o"), "s")

	once := evaluate(t, s, algebra.NewDistinct(subjects))
	twice := evaluate(t, s, algebra.NewDistinct(algebra.NewDistinct(subjects)))

	assert.Equal(t, []string{sol("s", exA).String(), sol("s", exX).String()}, strs(once))
	assert.Equal(t, strs(once), strs(twice))
}

func TestReduced(t *testing.T) {
	s := newTestStrategy(Options{})
	subjects := algebra.NewProjection(pattern("s", "p", "o"), "s")
	got := evaluate(t, s, algebra.NewReduced(subjects))
	assert.Equal(t, []string{sol("s", exA).String(), sol("s", exX).String()}, strs(got))
}

func TestProjection(t *testing.T) {
	s := newTestStrategy(Options{})
	p := algebra.NewRenamingProjection(pattern("s", exQ, "o"),
		algebra.ProjectionElem{Source: "o", Target: "target"},
		algebra.ProjectionElem{Source: "missing", Target: "m"})

	got := evaluate(t, s, p)
	assert.Equal(t, []string{sol("target", exA).String()}, strs(got))

	// Parent bindings survive projection
	it, err := s.Evaluate(p, sol("keep", exC))
	require.NoError(t, err)
	withParent, err := Collect(it)
	require.NoError(t, err)
	assert.Equal(t, []string{sol("keep", exC, "target", exA).String()}, strs(withParent))
}

func TestExtension(t *testing.T) {
	s := newTestStrategy(Options{})
	ext := algebra.NewExtension(pattern("s", exQ, "o"),
		algebra.ExtensionElem{Name: "label", Expr: algebra.NewStr(v("o"))},
		algebra.ExtensionElem{Name: "broken", Expr: algebra.NewStr(v("missing"))})

	got := evaluate(t, s, ext)
	require.Len(t, got, 1)
	assert.Equal(t, rdf.NewString(ex+"a"), got[0].Get("label"))
	assert.False(t, got[0].Has("broken"))
}

func TestFilter(t *testing.T) {
	s := newTestStrategy(Options{})
	tests := []struct {
		name string
		cond algebra.ValueExpr
		want int
	}{
		{"equal", algebra.NewCompare(v("o"), constant(exB), algebra.EQ), 1},
		{"not equal", algebra.NewCompare(v("o"), constant(exB), algebra.NE), 1},
		{"bound", algebra.NewBound(v("o")), 2},
		{"unbound operand", algebra.NewCompare(v("nope"), constant(exB), algebra.EQ), 0},
		{"error or true", algebra.NewOr(algebra.NewCompare(v("nope"), constant(exB), algebra.EQ), constant(rdf.NewBoolean(true))), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evaluate(t, s, algebra.NewFilter(pattern("s", exP, "o"), tt.cond))
			assert.Len(t, got, tt.want)
		})
	}
}

func TestSlice(t *testing.T) {
	s := newTestStrategy(Options{})
	all := pattern("s", "p", "o")

	tests := []struct {
		offset, limit int64
		want          int
	}{
		{0, -1, 3},
		{1, -1, 2},
		{0, 2, 2},
		{1, 1, 1},
		{5, 1, 0},
		{0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("offset=%d,limit=%d", tt.offset, tt.limit), func(t *testing.T) {
			assert.Len(t, evaluate(t, s, algebra.NewSlice(all, tt.offset, tt.limit)), tt.want)
		})
	}
}

func TestBindingSetAssignment(t *testing.T) {
	s := newTestStrategy(Options{})
	values := algebra.NewBindingSetAssignment([]string{"o"},
		map[string]rdf.Value{"o": exB},
		map[string]rdf.Value{"o": exX})

	got := evaluate(t, s, algebra.NewJoin(values, pattern("s", exP, "o")))
	assert.Equal(t, []string{sol("o", exB, "s", exA).String()}, strs(got))

	// Rows that conflict with the input are dropped
	it, err := s.Evaluate(values, sol("o", exX))
	require.NoError(t, err)
	rows, err := Collect(it)
	require.NoError(t, err)
	assert.Equal(t, []string{sol("o", exX).String()}, strs(rows))
}

func TestStatementPatternRepeatedVariable(t *testing.T) {
	store := storage.NewMemoryStore(
		rdf.NewStatement(exA, exP, exA),
		rdf.NewStatement(exA, exP, exB),
	)
	s := NewStrategy(store, Options{})
	got := evaluate(t, s, pattern("x", exP, "x"))
	assert.Equal(t, []string{sol("x", exA).String()}, strs(got))
}

func TestStatementPatternLiteralSubject(t *testing.T) {
	s := newTestStrategy(Options{})
	it, err := s.Evaluate(pattern("s", "p", "o"), sol("s", rdf.NewString("lit")))
	require.NoError(t, err)
	got, err := Collect(it)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDatasetScopes(t *testing.T) {
	g1 := rdf.IRI(ex + "g1")
	g2 := rdf.IRI(ex + "g2")
	store := storage.NewMemoryStore(
		rdf.NewStatement(exA, exP, exB),
		rdf.NewQuad(exA, exP, exC, g1),
		rdf.NewQuad(exA, exP, exX, g2),
	)

	named := func(ctx string) *algebra.StatementPattern {
		return algebra.NewContextStatementPattern(algebra.NamedContexts, v("s"), v("p"), v("o"), v(ctx))
	}

	t.Run("no dataset", func(t *testing.T) {
		s := NewStrategy(store, Options{})
		assert.Len(t, evaluate(t, s, pattern("s", "p", "o")), 3)
		// Named scope skips the default graph
		assert.Len(t, evaluate(t, s, named("g")), 2)
	})

	t.Run("default graphs", func(t *testing.T) {
		s := NewStrategy(store, Options{Dataset: &Dataset{DefaultGraphs: []rdf.IRI{g1}}})
		got := evaluate(t, s, pattern("s", "p", "o"))
		assert.Equal(t, []string{sol("s", exA, "p", exP, "o", exC).String()}, strs(got))
		assert.Empty(t, evaluate(t, s, named("g")))
	})

	t.Run("named graphs", func(t *testing.T) {
		s := NewStrategy(store, Options{Dataset: &Dataset{NamedGraphs: []rdf.IRI{g2}}})
		got := evaluate(t, s, named("g"))
		require.Len(t, got, 1)
		assert.Equal(t, g2, got[0].Get("g"))

		it, err := s.Evaluate(named("g"), sol("g", g1))
		require.NoError(t, err)
		outside, err := Collect(it)
		require.NoError(t, err)
		assert.Empty(t, outside)
	})
}

type customExpr struct{ algebra.SingletonSet }

func (*customExpr) String() string { return "Custom" }

func TestFallback(t *testing.T) {
	t.Run("unsupported", func(t *testing.T) {
		s := newTestStrategy(Options{})
		_, err := s.Evaluate(&customExpr{}, Solution{})
		var ee *EvaluationError
		require.True(t, errors.As(err, &ee))
		assert.Equal(t, "evaluate", ee.Op)
	})

	t.Run("fallback", func(t *testing.T) {
		s := newTestStrategy(Options{
			Fallback: func(s *Strategy, expr algebra.TupleExpr, bindings Solution) (Iterator, error) {
				return SingletonIterator(bindings.With("custom", exA)), nil
			},
		})
		got := evaluate(t, s, &customExpr{})
		assert.Equal(t, []string{sol("custom", exA).String()}, strs(got))
	})
}

func TestQueryAnnotations(t *testing.T) {
	rec := &eventRecorder{}
	s := newTestStrategy(Options{Context: NewContext(rec.handle)})

	it, err := s.Query(algebra.NewJoin(pattern("s", exP, "o"), pattern("x", exQ, "s")), Solution{})
	require.NoError(t, err)
	got, err := Collect(it)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	assert.Len(t, rec.named(annotations.EvaluationBegin), 1)
	complete := rec.named(annotations.EvaluationComplete)
	require.Len(t, complete, 1)
	assert.Equal(t, 2, complete[0].Data["solutions"])
	assert.NotEmpty(t, rec.named(annotations.PatternScan))
	assert.Len(t, rec.named(annotations.JoinNested), 1)
}

func TestMaxCollectionSize(t *testing.T) {
	s := newTestStrategy(Options{MaxCollectionSize: 1})
	it, err := s.Evaluate(algebra.NewDistinct(pattern("s", "p", "o")), Solution{})
	require.NoError(t, err)
	_, err = Collect(it)
	assert.ErrorIs(t, err, ErrCollectionSizeExceeded)

	// Closing returns the claimed slots
	it, err = s.Evaluate(algebra.NewDistinct(algebra.NewSlice(pattern("s", "p", "o"), 0, 1)), Solution{})
	require.NoError(t, err)
	got, err := Collect(it)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

type failingSource struct{ err error }

func (f failingSource) GetStatements(subj, pred, obj rdf.Value, contexts ...rdf.Value) (rdf.StatementIterator, error) {
	return nil, f.err
}

func TestSourceError(t *testing.T) {
	boom := errors.New("boom")
	s := NewStrategy(failingSource{err: boom}, Options{})
	_, err := s.Evaluate(pattern("s", "p", "o"), Solution{})
	assert.ErrorIs(t, err, boom)
	var ee *EvaluationError
	assert.True(t, errors.As(err, &ee))
}
