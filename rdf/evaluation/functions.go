package evaluation

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
)

// Function computes a value from already evaluated arguments. Type errors
// should be reported with a ValueExprError so filters can recover.
type Function func(args ...rdf.Value) (rdf.Value, error)

// FunctionRegistry maps function IRIs to implementations.
type FunctionRegistry struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{funcs: make(map[string]Function)}
}

// Register adds or replaces the function for iri.
func (r *FunctionRegistry) Register(iri string, fn Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[iri] = fn
}

// Lookup returns the function registered for iri.
func (r *FunctionRegistry) Lookup(iri string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[iri]
	return fn, ok
}

// Names returns the registered IRIs in no particular order.
func (r *FunctionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}

// DefaultFunctions returns a registry with the XSD casts and a handful of
// XPath string functions.
func DefaultFunctions() *FunctionRegistry {
	r := NewFunctionRegistry()
	r.Register(string(rdf.XSDString), castString)
	r.Register(string(rdf.XSDInteger), castInteger)
	r.Register(string(rdf.XSDDecimal), castDecimal)
	r.Register(string(rdf.XSDDouble), castDouble)
	r.Register(string(rdf.XSDBoolean), castBoolean)

	r.Register(rdf.FNNamespace+"concat", fnConcat)
	r.Register(rdf.FNNamespace+"upper-case", stringFunc(strings.ToUpper))
	r.Register(rdf.FNNamespace+"lower-case", stringFunc(strings.ToLower))
	r.Register(rdf.FNNamespace+"string-length", fnStringLength)
	r.Register(rdf.FNNamespace+"contains", stringPredicate(strings.Contains))
	r.Register(rdf.FNNamespace+"starts-with", stringPredicate(strings.HasPrefix))
	r.Register(rdf.FNNamespace+"ends-with", stringPredicate(strings.HasSuffix))
	return r
}

func arity(name string, args []rdf.Value, n int) error {
	if len(args) != n {
		return valueErrorf("%s expects %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

// lexical returns the label of a literal or the text of an IRI.
func lexical(v rdf.Value) (string, error) {
	switch t := v.(type) {
	case rdf.Literal:
		return t.Label, nil
	case rdf.IRI:
		return string(t), nil
	}
	return "", valueErrorf("no lexical form for %s", v)
}

func stringArg(name string, v rdf.Value) (rdf.Literal, error) {
	lit, ok := v.(rdf.Literal)
	if !ok || !(lit.IsPlain() || lit.Language != "") {
		return rdf.Literal{}, valueErrorf("%s expects a string, got %s", name, v)
	}
	return lit, nil
}

func castString(args ...rdf.Value) (rdf.Value, error) {
	if err := arity("xsd:string", args, 1); err != nil {
		return nil, err
	}
	label, err := lexical(args[0])
	if err != nil {
		return nil, err
	}
	return rdf.NewString(label), nil
}

func castInteger(args ...rdf.Value) (rdf.Value, error) {
	if err := arity("xsd:integer", args, 1); err != nil {
		return nil, err
	}
	lit, ok := args[0].(rdf.Literal)
	if !ok {
		return nil, valueErrorf("cannot cast %s to xsd:integer", args[0])
	}
	if b, ok := lit.Bool(); ok {
		if b {
			return rdf.NewInteger(1), nil
		}
		return rdf.NewInteger(0), nil
	}
	if f, ok := lit.Float64(); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, valueErrorf("cannot cast %s to xsd:integer", lit)
		}
		return rdf.NewInteger(int64(f)), nil
	}
	if lit.IsPlain() {
		v, err := strconv.ParseInt(strings.TrimSpace(lit.Label), 10, 64)
		if err == nil {
			return rdf.NewInteger(v), nil
		}
	}
	return nil, valueErrorf("cannot cast %s to xsd:integer", lit)
}

func parseFloatArg(name string, v rdf.Value) (float64, error) {
	lit, ok := v.(rdf.Literal)
	if !ok {
		return 0, valueErrorf("cannot cast %s to %s", v, name)
	}
	if b, ok := lit.Bool(); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	if f, ok := lit.Float64(); ok {
		return f, nil
	}
	if lit.IsPlain() {
		f, ok := rdf.NewTypedLiteral(lit.Label, rdf.XSDDouble).Float64()
		if ok {
			return f, nil
		}
	}
	return 0, valueErrorf("cannot cast %s to %s", lit, name)
}

func castDecimal(args ...rdf.Value) (rdf.Value, error) {
	if err := arity("xsd:decimal", args, 1); err != nil {
		return nil, err
	}
	f, err := parseFloatArg("xsd:decimal", args[0])
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, valueErrorf("cannot cast %s to xsd:decimal", args[0])
	}
	return rdf.NewDecimal(f), nil
}

func castDouble(args ...rdf.Value) (rdf.Value, error) {
	if err := arity("xsd:double", args, 1); err != nil {
		return nil, err
	}
	f, err := parseFloatArg("xsd:double", args[0])
	if err != nil {
		return nil, err
	}
	return rdf.NewDouble(f), nil
}

func castBoolean(args ...rdf.Value) (rdf.Value, error) {
	if err := arity("xsd:boolean", args, 1); err != nil {
		return nil, err
	}
	lit, ok := args[0].(rdf.Literal)
	if !ok {
		return nil, valueErrorf("cannot cast %s to xsd:boolean", args[0])
	}
	if f, ok := lit.Float64(); ok {
		return rdf.NewBoolean(f != 0 && !math.IsNaN(f)), nil
	}
	if b, ok := rdf.NewTypedLiteral(lit.Label, rdf.XSDBoolean).Bool(); ok && (lit.IsPlain() || lit.Datatype == rdf.XSDBoolean) {
		return rdf.NewBoolean(b), nil
	}
	return nil, valueErrorf("cannot cast %s to xsd:boolean", lit)
}

func fnConcat(args ...rdf.Value) (rdf.Value, error) {
	var sb strings.Builder
	for _, a := range args {
		lit, err := stringArg("concat", a)
		if err != nil {
			return nil, err
		}
		sb.WriteString(lit.Label)
	}
	return rdf.NewString(sb.String()), nil
}

// stringFunc lifts a string mapping to a function that keeps the language
// tag of its argument.
func stringFunc(fn func(string) string) Function {
	return func(args ...rdf.Value) (rdf.Value, error) {
		if err := arity("string function", args, 1); err != nil {
			return nil, err
		}
		lit, err := stringArg("string function", args[0])
		if err != nil {
			return nil, err
		}
		if lit.Language != "" {
			return rdf.NewLangString(fn(lit.Label), lit.Language), nil
		}
		return rdf.NewString(fn(lit.Label)), nil
	}
}

func fnStringLength(args ...rdf.Value) (rdf.Value, error) {
	if err := arity("string-length", args, 1); err != nil {
		return nil, err
	}
	lit, err := stringArg("string-length", args[0])
	if err != nil {
		return nil, err
	}
	return rdf.NewInteger(int64(utf8.RuneCountInString(lit.Label))), nil
}

func stringPredicate(fn func(s, sub string) bool) Function {
	return func(args ...rdf.Value) (rdf.Value, error) {
		if err := arity("string predicate", args, 2); err != nil {
			return nil, err
		}
		s, err := stringArg("string predicate", args[0])
		if err != nil {
			return nil, err
		}
		sub, err := stringArg("string predicate", args[1])
		if err != nil {
			return nil, err
		}
		return rdf.NewBoolean(fn(s.Label, sub.Label)), nil
	}
}
