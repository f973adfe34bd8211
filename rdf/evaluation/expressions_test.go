package evaluation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
)

func TestCompareTerms(t *testing.T) {
	tests := []struct {
		name    string
		l, r    rdf.Value
		op      algebra.CompareOp
		want    bool
		wantErr bool
	}{
		{"int lt", rdf.NewInteger(1), rdf.NewInteger(2), algebra.LT, true, false},
		{"int vs double", rdf.NewInteger(2), rdf.NewDouble(2), algebra.EQ, true, false},
		{"decimal gt", rdf.NewDecimal(2.5), rdf.NewInteger(2), algebra.GT, true, false},
		{"strings", rdf.NewString("abc"), rdf.NewString("abd"), algebra.LE, true, false},
		{"booleans", rdf.NewBoolean(false), rdf.NewBoolean(true), algebra.LT, true, false},
		{"dateTime", rdf.NewTypedLiteral("2020-01-01T00:00:00Z", rdf.XSDDateTime),
			rdf.NewTypedLiteral("2021-01-01T00:00:00Z", rdf.XSDDateTime), algebra.LT, true, false},
		{"same lang", rdf.NewLangString("chat", "fr"), rdf.NewLangString("chat", "fr"), algebra.EQ, true, false},
		{"lang vs plain", rdf.NewLangString("chat", "fr"), rdf.NewString("chat"), algebra.EQ, false, false},
		{"lang vs plain ne", rdf.NewLangString("chat", "fr"), rdf.NewString("chat"), algebra.NE, true, false},
		{"lang ordering", rdf.NewLangString("a", "en"), rdf.NewLangString("b", "en"), algebra.LT, false, true},
		{"string vs int", rdf.NewString("1"), rdf.NewInteger(1), algebra.EQ, false, true},
		{"iri eq", exA, exA, algebra.EQ, true, false},
		{"iri ne", exA, exB, algebra.NE, true, false},
		{"iri vs literal", exA, rdf.NewString("a"), algebra.EQ, false, false},
		{"iri ordering", exA, exB, algebra.LT, false, true},
		{"unknown datatype equal", rdf.NewTypedLiteral("x", ex+"t"), rdf.NewTypedLiteral("x", ex+"t"), algebra.EQ, true, false},
		{"unknown datatype differ", rdf.NewTypedLiteral("x", ex+"t"), rdf.NewTypedLiteral("y", ex+"t"), algebra.EQ, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompareTerms(tt.l, tt.r, tt.op)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValueExprError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMathOperation(t *testing.T) {
	tests := []struct {
		name    string
		l, r    rdf.Value
		op      algebra.MathOp
		want    rdf.Value
		wantErr bool
	}{
		{"int plus", rdf.NewInteger(2), rdf.NewInteger(3), algebra.Plus, rdf.NewInteger(5), false},
		{"int minus", rdf.NewInteger(2), rdf.NewInteger(3), algebra.Minus, rdf.NewInteger(-1), false},
		{"int times", rdf.NewInteger(4), rdf.NewInteger(3), algebra.Multiply, rdf.NewInteger(12), false},
		{"int divide", rdf.NewInteger(3), rdf.NewInteger(2), algebra.Divide, rdf.NewDecimal(1.5), false},
		{"decimal", rdf.NewDecimal(1.5), rdf.NewInteger(1), algebra.Plus, rdf.NewDecimal(2.5), false},
		{"double", rdf.NewDouble(1), rdf.NewInteger(1), algebra.Plus, rdf.NewDouble(2), false},
		{"divide by zero", rdf.NewInteger(1), rdf.NewInteger(0), algebra.Divide, nil, true},
		{"double divide by zero", rdf.NewDouble(1), rdf.NewInteger(0), algebra.Divide, rdf.NewDouble(math.Inf(1)), false},
		{"not numeric", rdf.NewString("1"), rdf.NewInteger(1), algebra.Plus, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MathOperation(tt.l, tt.r, tt.op)
			if tt.wantErr {
				assert.True(t, IsValueExprError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffectiveBooleanValue(t *testing.T) {
	tests := []struct {
		name    string
		v       rdf.Value
		want    bool
		wantErr bool
	}{
		{"true", rdf.NewBoolean(true), true, false},
		{"invalid boolean", rdf.NewTypedLiteral("maybe", rdf.XSDBoolean), false, false},
		{"zero", rdf.NewInteger(0), false, false},
		{"non-zero", rdf.NewDecimal(0.5), true, false},
		{"NaN", rdf.NewDouble(math.NaN()), false, false},
		{"empty string", rdf.NewString(""), false, false},
		{"string", rdf.NewString("x"), true, false},
		{"lang string", rdf.NewLangString("x", "en"), true, false},
		{"iri", exA, false, true},
		{"dateTime", rdf.NewTypedLiteral("2020-01-01T00:00:00Z", rdf.XSDDateTime), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EffectiveBooleanValue(tt.v)
			if tt.wantErr {
				assert.True(t, IsValueExprError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateValue(t *testing.T) {
	s := newTestStrategy(Options{})
	bindings := sol(
		"iri", exA,
		"lit", rdf.NewLangString("Chat", "fr-CA"),
		"n", rdf.NewInteger(4),
		"str", rdf.NewString("Hello World"),
	)
	unbound := algebra.NewCompare(v("missing"), constant(exA), algebra.EQ)
	truth := constant(rdf.NewBoolean(true))
	falsity := constant(rdf.NewBoolean(false))

	tests := []struct {
		name    string
		expr    algebra.ValueExpr
		want    rdf.Value
		wantErr bool
	}{
		{"var", v("iri"), exA, false},
		{"unbound var", v("missing"), nil, true},
		{"bound", algebra.NewBound(v("missing")), rdf.NewBoolean(false), false},
		{"str of iri", algebra.NewStr(v("iri")), rdf.NewString(ex + "a"), false},
		{"lang", algebra.NewLang(v("lit")), rdf.NewString("fr-ca"), false},
		{"lang of iri", algebra.NewLang(v("iri")), nil, true},
		{"datatype", algebra.NewDatatype(v("n")), rdf.XSDInteger, false},
		{"datatype of lang", algebra.NewDatatype(v("lit")), rdf.RDFLangString, false},
		{"isIRI", algebra.NewIsIRI(v("iri")), rdf.NewBoolean(true), false},
		{"isBlank", algebra.NewIsBNode(v("iri")), rdf.NewBoolean(false), false},
		{"isLiteral", algebra.NewIsLiteral(v("lit")), rdf.NewBoolean(true), false},
		{"isNumeric", algebra.NewIsNumeric(v("n")), rdf.NewBoolean(true), false},
		{"not", algebra.NewNot(falsity), rdf.NewBoolean(true), false},
		{"and false wins over error", algebra.NewAnd(unbound, falsity), rdf.NewBoolean(false), false},
		{"and error", algebra.NewAnd(truth, unbound), nil, true},
		{"or true wins over error", algebra.NewOr(unbound, truth), rdf.NewBoolean(true), false},
		{"or error", algebra.NewOr(falsity, unbound), nil, true},
		{"sameTerm", algebra.NewSameTerm(v("iri"), constant(exA)), rdf.NewBoolean(true), false},
		{"math", algebra.NewMathExpr(v("n"), constant(rdf.NewInteger(2)), algebra.Multiply), rdf.NewInteger(8), false},
		{"regex", algebra.NewRegex(v("str"), constant(rdf.NewString("^hello")), constant(rdf.NewString("i"))), rdf.NewBoolean(true), false},
		{"regex case", algebra.NewRegex(v("str"), constant(rdf.NewString("^hello")), nil), rdf.NewBoolean(false), false},
		{"regex bad flag", algebra.NewRegex(v("str"), constant(rdf.NewString("x")), constant(rdf.NewString("x"))), nil, true},
		{"regex bad pattern", algebra.NewRegex(v("str"), constant(rdf.NewString("(")), nil), nil, true},
		{"langMatches prefix", algebra.NewLangMatches(algebra.NewLang(v("lit")), constant(rdf.NewString("FR"))), rdf.NewBoolean(true), false},
		{"langMatches star", algebra.NewLangMatches(algebra.NewLang(v("lit")), constant(rdf.NewString("*"))), rdf.NewBoolean(true), false},
		{"langMatches other", algebra.NewLangMatches(algebra.NewLang(v("lit")), constant(rdf.NewString("fr-c"))), rdf.NewBoolean(false), false},
		{"if", algebra.NewIf(truth, v("n"), v("iri")), rdf.NewInteger(4), false},
		{"coalesce", algebra.NewCoalesce(v("missing"), v("iri")), exA, false},
		{"coalesce none", algebra.NewCoalesce(v("missing")), nil, true},
		{"function", algebra.NewFunctionCall(rdf.FNNamespace+"upper-case", v("lit")), rdf.NewLangString("CHAT", "fr-ca"), false},
		{"exists", algebra.NewExists(pattern("iri", exP, "o")), rdf.NewBoolean(true), false},
		{"not exists", algebra.NewExists(pattern("iri", exQ, "o")), rdf.NewBoolean(false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.EvaluateValue(tt.expr, bindings)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValueExprError(err), "expected a recoverable error, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateValueFatalErrors(t *testing.T) {
	s := newTestStrategy(Options{})

	_, err := s.EvaluateValue(algebra.NewFunctionCall(ex+"nope"), Solution{})
	require.Error(t, err)
	assert.False(t, IsValueExprError(err))

	_, err = s.EvaluateValue(nil, Solution{})
	require.Error(t, err)
	assert.False(t, IsValueExprError(err))

	// A fatal error in a filter fails the query
	it, err := s.Evaluate(algebra.NewFilter(pattern("s", "p", "o"), algebra.NewFunctionCall(ex+"nope")), Solution{})
	require.NoError(t, err)
	_, err = Collect(it)
	var ee *EvaluationError
	assert.ErrorAs(t, err, &ee)
}

func TestBNodeGenerator(t *testing.T) {
	s := newTestStrategy(Options{})
	a, err := s.EvaluateValue(&algebra.BNodeGenerator{}, Solution{})
	require.NoError(t, err)
	b, err := s.EvaluateValue(&algebra.BNodeGenerator{}, Solution{})
	require.NoError(t, err)

	assert.Equal(t, rdf.KindBNode, a.Kind())
	assert.NotEqual(t, a, b)
}

func TestFunctions(t *testing.T) {
	fns := DefaultFunctions()
	call := func(iri string, args ...rdf.Value) (rdf.Value, error) {
		fn, ok := fns.Lookup(iri)
		require.True(t, ok, iri)
		return fn(args...)
	}

	tests := []struct {
		name    string
		iri     string
		args    []rdf.Value
		want    rdf.Value
		wantErr bool
	}{
		{"string of iri", string(rdf.XSDString), []rdf.Value{exA}, rdf.NewString(ex + "a"), false},
		{"integer of string", string(rdf.XSDInteger), []rdf.Value{rdf.NewString(" 42 ")}, rdf.NewInteger(42), false},
		{"integer of decimal", string(rdf.XSDInteger), []rdf.Value{rdf.NewDecimal(3.9)}, rdf.NewInteger(3), false},
		{"integer of boolean", string(rdf.XSDInteger), []rdf.Value{rdf.NewBoolean(true)}, rdf.NewInteger(1), false},
		{"integer of junk", string(rdf.XSDInteger), []rdf.Value{rdf.NewString("x")}, nil, true},
		{"integer of iri", string(rdf.XSDInteger), []rdf.Value{exA}, nil, true},
		{"decimal of string", string(rdf.XSDDecimal), []rdf.Value{rdf.NewString("1.25")}, rdf.NewDecimal(1.25), false},
		{"double of integer", string(rdf.XSDDouble), []rdf.Value{rdf.NewInteger(2)}, rdf.NewDouble(2), false},
		{"boolean of string", string(rdf.XSDBoolean), []rdf.Value{rdf.NewString("true")}, rdf.NewBoolean(true), false},
		{"boolean of zero", string(rdf.XSDBoolean), []rdf.Value{rdf.NewInteger(0)}, rdf.NewBoolean(false), false},
		{"arity", string(rdf.XSDBoolean), nil, nil, true},
		{"concat", rdf.FNNamespace + "concat", []rdf.Value{rdf.NewString("a"), rdf.NewLangString("b", "en")}, rdf.NewString("ab"), false},
		{"concat iri", rdf.FNNamespace + "concat", []rdf.Value{exA}, nil, true},
		{"lower-case", rdf.FNNamespace + "lower-case", []rdf.Value{rdf.NewString("AbC")}, rdf.NewString("abc"), false},
		{"string-length", rdf.FNNamespace + "string-length", []rdf.Value{rdf.NewString("héllo")}, rdf.NewInteger(5), false},
		{"contains", rdf.FNNamespace + "contains", []rdf.Value{rdf.NewString("hello"), rdf.NewString("ell")}, rdf.NewBoolean(true), false},
		{"starts-with", rdf.FNNamespace + "starts-with", []rdf.Value{rdf.NewString("hello"), rdf.NewString("lo")}, rdf.NewBoolean(false), false},
		{"ends-with", rdf.FNNamespace + "ends-with", []rdf.Value{rdf.NewString("hello"), rdf.NewString("lo")}, rdf.NewBoolean(true), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(tt.iri, tt.args...)
			if tt.wantErr {
				assert.True(t, IsValueExprError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFunctionRegistryCustom(t *testing.T) {
	fns := NewFunctionRegistry()
	fns.Register(ex+"answer", func(args ...rdf.Value) (rdf.Value, error) {
		return rdf.NewInteger(42), nil
	})
	assert.Equal(t, []string{ex + "answer"}, fns.Names())

	s := newTestStrategy(Options{Functions: fns})
	got, err := s.EvaluateValue(algebra.NewFunctionCall(ex+"answer"), Solution{})
	require.NoError(t, err)
	assert.Equal(t, rdf.NewInteger(42), got)

	_, ok := fns.Lookup(string(rdf.XSDString))
	assert.False(t, ok)
}
