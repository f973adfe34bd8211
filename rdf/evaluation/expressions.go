package evaluation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
)

// EvaluateValue computes expr over bindings. Type errors and unbound
// variables are returned as *ValueExprError; anything else is fatal for the
// query.
func (s *Strategy) EvaluateValue(expr algebra.ValueExpr, bindings Solution) (rdf.Value, error) {
	switch e := expr.(type) {
	case *algebra.Var:
		if v := varValue(e, bindings); v != nil {
			return v, nil
		}
		return nil, valueErrorf("unbound variable ?%s", e.Name)
	case *algebra.ValueConstant:
		return e.Value, nil
	case *algebra.Bound:
		return rdf.NewBoolean(varValue(e.Arg, bindings) != nil), nil
	case *algebra.Str:
		return s.unaryValue(e.Arg, bindings, strValue)
	case *algebra.Lang:
		return s.unaryValue(e.Arg, bindings, langValue)
	case *algebra.Datatype:
		return s.unaryValue(e.Arg, bindings, datatypeValue)
	case *algebra.IsIRI:
		return s.kindTest(e.Arg, bindings, rdf.KindIRI)
	case *algebra.IsBNode:
		return s.kindTest(e.Arg, bindings, rdf.KindBNode)
	case *algebra.IsLiteral:
		return s.kindTest(e.Arg, bindings, rdf.KindLiteral)
	case *algebra.IsNumeric:
		return s.unaryValue(e.Arg, bindings, func(v rdf.Value) (rdf.Value, error) {
			lit, ok := v.(rdf.Literal)
			return rdf.NewBoolean(ok && lit.IsNumeric()), nil
		})
	case *algebra.Not:
		ok, err := s.IsTrue(e.Arg, bindings)
		if err != nil {
			return nil, err
		}
		return rdf.NewBoolean(!ok), nil
	case *algebra.And:
		return s.evaluateAnd(e, bindings)
	case *algebra.Or:
		return s.evaluateOr(e, bindings)
	case *algebra.SameTerm:
		l, r, err := s.binaryValues(e.Left, e.Right, bindings)
		if err != nil {
			return nil, err
		}
		return rdf.NewBoolean(rdf.ValuesEqual(l, r)), nil
	case *algebra.Compare:
		l, r, err := s.binaryValues(e.Left, e.Right, bindings)
		if err != nil {
			return nil, err
		}
		ok, err := CompareTerms(l, r, e.Op)
		if err != nil {
			return nil, err
		}
		return rdf.NewBoolean(ok), nil
	case *algebra.MathExpr:
		l, r, err := s.binaryValues(e.Left, e.Right, bindings)
		if err != nil {
			return nil, err
		}
		return MathOperation(l, r, e.Op)
	case *algebra.Regex:
		return s.evaluateRegex(e, bindings)
	case *algebra.LangMatches:
		l, r, err := s.binaryValues(e.Left, e.Right, bindings)
		if err != nil {
			return nil, err
		}
		return langMatches(l, r)
	case *algebra.If:
		ok, err := s.IsTrue(e.Condition, bindings)
		if err != nil {
			return nil, err
		}
		if ok {
			return s.EvaluateValue(e.Then, bindings)
		}
		return s.EvaluateValue(e.Else, bindings)
	case *algebra.Coalesce:
		for _, arg := range e.Args {
			v, err := s.EvaluateValue(arg, bindings)
			if err == nil {
				return v, nil
			}
			if !IsValueExprError(err) {
				return nil, err
			}
		}
		return nil, valueErrorf("coalesce: no argument has a value")
	case *algebra.FunctionCall:
		return s.callFunction(e, bindings)
	case *algebra.BNodeGenerator:
		return rdf.BNode(uuid.NewString()), nil
	case *algebra.Exists:
		return s.evaluateExists(e, bindings)
	case nil:
		return nil, evalError("value", fmt.Errorf("nil value expression"))
	default:
		return nil, evalError("value", fmt.Errorf("unsupported value expression %T", expr))
	}
}

// IsTrue evaluates expr and returns its effective boolean value.
func (s *Strategy) IsTrue(expr algebra.ValueExpr, bindings Solution) (bool, error) {
	v, err := s.EvaluateValue(expr, bindings)
	if err != nil {
		return false, err
	}
	return EffectiveBooleanValue(v)
}

// EffectiveBooleanValue converts a value to a boolean: booleans by value,
// numbers by being non-zero, strings by being non-empty. Invalid booleans
// and numbers are false. Other values have no boolean value.
func EffectiveBooleanValue(v rdf.Value) (bool, error) {
	lit, ok := v.(rdf.Literal)
	if !ok {
		return false, valueErrorf("no effective boolean value for %s", v)
	}
	switch {
	case lit.Datatype == rdf.XSDBoolean:
		b, _ := lit.Bool()
		return b, nil
	case rdf.IsNumericType(lit.Datatype):
		f, ok := lit.Float64()
		return ok && f != 0 && !math.IsNaN(f), nil
	case lit.IsPlain() || lit.Language != "":
		return lit.Label != "", nil
	}
	return false, valueErrorf("no effective boolean value for %s", v)
}

func (s *Strategy) unaryValue(arg algebra.ValueExpr, bindings Solution, fn func(rdf.Value) (rdf.Value, error)) (rdf.Value, error) {
	v, err := s.EvaluateValue(arg, bindings)
	if err != nil {
		return nil, err
	}
	return fn(v)
}

func (s *Strategy) binaryValues(left, right algebra.ValueExpr, bindings Solution) (rdf.Value, rdf.Value, error) {
	l, err := s.EvaluateValue(left, bindings)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.EvaluateValue(right, bindings)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

func (s *Strategy) kindTest(arg algebra.ValueExpr, bindings Solution, kind rdf.Kind) (rdf.Value, error) {
	return s.unaryValue(arg, bindings, func(v rdf.Value) (rdf.Value, error) {
		return rdf.NewBoolean(v.Kind() == kind), nil
	})
}

func strValue(v rdf.Value) (rdf.Value, error) {
	switch t := v.(type) {
	case rdf.IRI:
		return rdf.NewString(string(t)), nil
	case rdf.Literal:
		return rdf.NewString(t.Label), nil
	}
	return nil, valueErrorf("str() of %s", v)
}

func langValue(v rdf.Value) (rdf.Value, error) {
	lit, ok := v.(rdf.Literal)
	if !ok {
		return nil, valueErrorf("lang() of %s", v)
	}
	return rdf.NewString(lit.Language), nil
}

func datatypeValue(v rdf.Value) (rdf.Value, error) {
	lit, ok := v.(rdf.Literal)
	if !ok {
		return nil, valueErrorf("datatype() of %s", v)
	}
	switch {
	case lit.Language != "":
		return rdf.RDFLangString, nil
	case lit.Datatype == "":
		return rdf.XSDString, nil
	}
	return lit.Datatype, nil
}

// evaluateAnd is false if any operand is false, even when others fail.
func (s *Strategy) evaluateAnd(a *algebra.And, bindings Solution) (rdf.Value, error) {
	var deferred error
	for _, arg := range a.Args {
		ok, err := s.IsTrue(arg, bindings)
		if err != nil {
			if !IsValueExprError(err) {
				return nil, err
			}
			deferred = err
			continue
		}
		if !ok {
			return rdf.NewBoolean(false), nil
		}
	}
	if deferred != nil {
		return nil, deferred
	}
	return rdf.NewBoolean(true), nil
}

// evaluateOr is true if any operand is true, even when others fail.
func (s *Strategy) evaluateOr(o *algebra.Or, bindings Solution) (rdf.Value, error) {
	var deferred error
	for _, arg := range o.Args {
		ok, err := s.IsTrue(arg, bindings)
		if err != nil {
			if !IsValueExprError(err) {
				return nil, err
			}
			deferred = err
			continue
		}
		if ok {
			return rdf.NewBoolean(true), nil
		}
	}
	if deferred != nil {
		return nil, deferred
	}
	return rdf.NewBoolean(false), nil
}

// CompareTerms applies op to two values. Numbers, strings, booleans and
// dateTimes compare by value; other terms only support = and !=.
// Literals of incompatible types fail unless one carries a language tag,
// in which case they are simply unequal.
func CompareTerms(left, right rdf.Value, op algebra.CompareOp) (bool, error) {
	l, lok := left.(rdf.Literal)
	r, rok := right.(rdf.Literal)
	if lok && rok {
		return compareLiterals(l, r, op)
	}
	if op == algebra.EQ || op == algebra.NE {
		return (op == algebra.EQ) == rdf.ValuesEqual(left, right), nil
	}
	return false, valueErrorf("cannot order %s and %s", left, right)
}

func compareLiterals(l, r rdf.Literal, op algebra.CompareOp) (bool, error) {
	equalityOnly := op == algebra.EQ || op == algebra.NE

	switch {
	case l.IsNumeric() && r.IsNumeric():
		return applyCompare(compareNumbers(l, r), op), nil
	case l.IsPlain() && r.IsPlain():
		return applyCompare(strings.Compare(l.Label, r.Label), op), nil
	case l.Datatype == rdf.XSDBoolean && r.Datatype == rdf.XSDBoolean:
		lb, lok := l.Bool()
		rb, rok := r.Bool()
		if !lok || !rok {
			return false, valueErrorf("invalid boolean in %s, %s", l, r)
		}
		return applyCompare(compareBools(lb, rb), op), nil
	case l.Datatype == rdf.XSDDateTime && r.Datatype == rdf.XSDDateTime:
		lt, lerr := time.Parse(time.RFC3339Nano, l.Label)
		rt, rerr := time.Parse(time.RFC3339Nano, r.Label)
		if lerr != nil || rerr != nil {
			return false, valueErrorf("invalid dateTime in %s, %s", l, r)
		}
		return applyCompare(lt.Compare(rt), op), nil
	case l.Language != "" || r.Language != "":
		if !equalityOnly {
			return false, valueErrorf("cannot order %s and %s", l, r)
		}
		return (op == algebra.EQ) == (l == r), nil
	case l == r && equalityOnly:
		return op == algebra.EQ, nil
	}
	return false, valueErrorf("incompatible literals %s and %s", l, r)
}

func compareNumbers(l, r rdf.Literal) int {
	if li, ok := l.Int64(); ok {
		if ri, ok := r.Int64(); ok {
			switch {
			case li < ri:
				return -1
			case li > ri:
				return 1
			}
			return 0
		}
	}
	lf, _ := l.Float64()
	rf, _ := r.Float64()
	switch {
	case lf < rf:
		return -1
	case lf > rf:
		return 1
	}
	return 0
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

func applyCompare(cmp int, op algebra.CompareOp) bool {
	switch op {
	case algebra.EQ:
		return cmp == 0
	case algebra.NE:
		return cmp != 0
	case algebra.LT:
		return cmp < 0
	case algebra.LE:
		return cmp <= 0
	case algebra.GE:
		return cmp >= 0
	case algebra.GT:
		return cmp > 0
	}
	return false
}

// MathOperation applies op to two numeric literals. Integer operands give
// an integer except for division, which gives a decimal. A double or float
// operand makes the result a double.
func MathOperation(left, right rdf.Value, op algebra.MathOp) (rdf.Value, error) {
	l, lok := left.(rdf.Literal)
	r, rok := right.(rdf.Literal)
	if !lok || !rok || !l.IsNumeric() || !r.IsNumeric() {
		return nil, valueErrorf("%s %s %s: operands must be numeric", left, op, right)
	}

	if li, ok := l.Int64(); ok && op != algebra.Divide {
		if ri, ok := r.Int64(); ok {
			switch op {
			case algebra.Plus:
				return rdf.NewInteger(li + ri), nil
			case algebra.Minus:
				return rdf.NewInteger(li - ri), nil
			case algebra.Multiply:
				return rdf.NewInteger(li * ri), nil
			}
		}
	}

	lf, _ := l.Float64()
	rf, _ := r.Float64()
	double := isDouble(l) || isDouble(r)
	var result float64
	switch op {
	case algebra.Plus:
		result = lf + rf
	case algebra.Minus:
		result = lf - rf
	case algebra.Multiply:
		result = lf * rf
	case algebra.Divide:
		if rf == 0 && !double {
			return nil, valueErrorf("division by zero")
		}
		result = lf / rf
	}
	if double {
		return rdf.NewDouble(result), nil
	}
	return rdf.NewDecimal(result), nil
}

func isDouble(l rdf.Literal) bool {
	return l.Datatype == rdf.XSDDouble || l.Datatype == rdf.XSDFloat
}

var regexCache sync.Map

func compileRegex(pattern, flags string) (*regexp.Regexp, error) {
	prefix := ""
	for _, f := range flags {
		switch f {
		case 'i', 's', 'm':
			if !strings.ContainsRune(prefix, f) {
				prefix += string(f)
			}
		default:
			return nil, valueErrorf("unsupported regex flag %q", f)
		}
	}
	if prefix != "" {
		pattern = "(?" + prefix + ")" + pattern
	}
	if re, ok := regexCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, valueErrorf("invalid regex %q: %v", pattern, err)
	}
	regexCache.Store(pattern, re)
	return re, nil
}

func (s *Strategy) evaluateRegex(r *algebra.Regex, bindings Solution) (rdf.Value, error) {
	arg, pattern, err := s.binaryValues(r.Arg, r.Pattern, bindings)
	if err != nil {
		return nil, err
	}
	text, err := stringArg("regex", arg)
	if err != nil {
		return nil, err
	}
	pat, err := stringArg("regex", pattern)
	if err != nil {
		return nil, err
	}
	flags := ""
	if r.Flags != nil {
		fv, err := s.EvaluateValue(r.Flags, bindings)
		if err != nil {
			return nil, err
		}
		fl, err := stringArg("regex", fv)
		if err != nil {
			return nil, err
		}
		flags = fl.Label
	}
	re, err := compileRegex(pat.Label, flags)
	if err != nil {
		return nil, err
	}
	return rdf.NewBoolean(re.MatchString(text.Label)), nil
}

// langMatches implements basic language range matching: "*" matches any
// tag, otherwise the range must equal the tag or be a prefix of it ending
// at a hyphen.
func langMatches(tagValue, rangeValue rdf.Value) (rdf.Value, error) {
	tag, ok := tagValue.(rdf.Literal)
	if !ok {
		return nil, valueErrorf("langMatches tag %s is not a literal", tagValue)
	}
	rng, ok := rangeValue.(rdf.Literal)
	if !ok {
		return nil, valueErrorf("langMatches range %s is not a literal", rangeValue)
	}
	t := strings.ToLower(tag.Label)
	lr := strings.ToLower(rng.Label)
	if lr == "*" {
		return rdf.NewBoolean(t != ""), nil
	}
	match := t == lr || (strings.HasPrefix(t, lr) && len(t) > len(lr) && t[len(lr)] == '-')
	return rdf.NewBoolean(match), nil
}

func (s *Strategy) callFunction(f *algebra.FunctionCall, bindings Solution) (rdf.Value, error) {
	fn, ok := s.opts.Functions.Lookup(f.IRI)
	if !ok {
		return nil, evalError("function", fmt.Errorf("unknown function <%s>", f.IRI))
	}
	args := make([]rdf.Value, len(f.Args))
	for i, arg := range f.Args {
		v, err := s.EvaluateValue(arg, bindings)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return fn(args...)
}

func (s *Strategy) evaluateExists(e *algebra.Exists, bindings Solution) (rdf.Value, error) {
	it, err := s.Evaluate(e.SubQuery, bindings)
	if err != nil {
		return nil, err
	}
	found := it.Next()
	err = it.Err()
	if cerr := it.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return rdf.NewBoolean(found), nil
}
