package algebra

import (
	"fmt"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
)

// ValueConstant is a literal term in an expression.
type ValueConstant struct {
	Value rdf.Value
}

func NewValueConstant(v rdf.Value) *ValueConstant {
	if v == nil {
		panic("algebra: value constant needs a value")
	}
	return &ValueConstant{Value: v}
}

func (c *ValueConstant) Operands() []ValueExpr { return nil }
func (c *ValueConstant) String() string        { return c.Value.String() }
func (*ValueConstant) valueExpr()              {}

// unaryValue holds the operand of single-argument value operators.
type unaryValue struct {
	Arg ValueExpr
}

func (u *unaryValue) Operands() []ValueExpr { return []ValueExpr{u.Arg} }
func (*unaryValue) valueExpr()              {}

func newUnaryValue(op string, arg ValueExpr) unaryValue {
	if arg == nil {
		panic("algebra: " + op + " requires an argument")
	}
	return unaryValue{Arg: arg}
}

// binaryValue holds the operands of two-argument value operators.
type binaryValue struct {
	Left  ValueExpr
	Right ValueExpr
}

func (b *binaryValue) Operands() []ValueExpr { return []ValueExpr{b.Left, b.Right} }
func (*binaryValue) valueExpr()              {}

func newBinaryValue(op string, left, right ValueExpr) binaryValue {
	if left == nil || right == nil {
		panic("algebra: " + op + " requires two arguments")
	}
	return binaryValue{Left: left, Right: right}
}

// Bound tests whether a variable is bound.
type Bound struct {
	Arg *Var
}

func NewBound(v *Var) *Bound {
	if v == nil {
		panic("algebra: bound requires a variable")
	}
	return &Bound{Arg: v}
}

func (b *Bound) Operands() []ValueExpr { return []ValueExpr{b.Arg} }
func (b *Bound) String() string        { return fmt.Sprintf("bound(%s)", b.Arg) }
func (*Bound) valueExpr()              {}

type Str struct{ unaryValue }

func NewStr(arg ValueExpr) *Str { return &Str{newUnaryValue("str", arg)} }
func (s *Str) String() string   { return fmt.Sprintf("str(%s)", s.Arg) }

type Lang struct{ unaryValue }

func NewLang(arg ValueExpr) *Lang { return &Lang{newUnaryValue("lang", arg)} }
func (l *Lang) String() string    { return fmt.Sprintf("lang(%s)", l.Arg) }

type Datatype struct{ unaryValue }

func NewDatatype(arg ValueExpr) *Datatype { return &Datatype{newUnaryValue("datatype", arg)} }
func (d *Datatype) String() string        { return fmt.Sprintf("datatype(%s)", d.Arg) }

type IsIRI struct{ unaryValue }

func NewIsIRI(arg ValueExpr) *IsIRI { return &IsIRI{newUnaryValue("isIRI", arg)} }
func (i *IsIRI) String() string     { return fmt.Sprintf("isIRI(%s)", i.Arg) }

type IsBNode struct{ unaryValue }

func NewIsBNode(arg ValueExpr) *IsBNode { return &IsBNode{newUnaryValue("isBlank", arg)} }
func (i *IsBNode) String() string       { return fmt.Sprintf("isBlank(%s)", i.Arg) }

type IsLiteral struct{ unaryValue }

func NewIsLiteral(arg ValueExpr) *IsLiteral { return &IsLiteral{newUnaryValue("isLiteral", arg)} }
func (i *IsLiteral) String() string         { return fmt.Sprintf("isLiteral(%s)", i.Arg) }

type IsNumeric struct{ unaryValue }

func NewIsNumeric(arg ValueExpr) *IsNumeric { return &IsNumeric{newUnaryValue("isNumeric", arg)} }
func (i *IsNumeric) String() string         { return fmt.Sprintf("isNumeric(%s)", i.Arg) }

// Not negates the effective boolean value of its operand.
type Not struct{ unaryValue }

func NewNot(arg ValueExpr) *Not { return &Not{newUnaryValue("not", arg)} }
func (n *Not) String() string { return fmt.Sprintf("!(%s)", n.Arg) }

// Regex matches Arg against Pattern with optional Flags.
type Regex struct {
	Arg     ValueExpr
	Pattern ValueExpr
	Flags   ValueExpr
}

// NewRegex returns a regex test; flags may be nil.
func NewRegex(arg, pattern, flags ValueExpr) *Regex {
	if arg == nil || pattern == nil {
		panic("algebra: regex requires an argument and a pattern")
	}
	return &Regex{Arg: arg, Pattern: pattern, Flags: flags}
}

func (r *Regex) Operands() []ValueExpr {
	if r.Flags == nil {
		return []ValueExpr{r.Arg, r.Pattern}
	}
	return []ValueExpr{r.Arg, r.Pattern, r.Flags}
}

func (r *Regex) String() string { return fmt.Sprintf("regex(%s)", joinStrings(r.Operands())) }
func (*Regex) valueExpr()       {}

type LangMatches struct{ binaryValue }

func NewLangMatches(tag, rangeExpr ValueExpr) *LangMatches {
	return &LangMatches{newBinaryValue("langMatches", tag, rangeExpr)}
}

func (l *LangMatches) String() string {
	return fmt.Sprintf("langMatches(%s, %s)", l.Left, l.Right)
}

type SameTerm struct{ binaryValue }

func NewSameTerm(left, right ValueExpr) *SameTerm {
	return &SameTerm{newBinaryValue("sameTerm", left, right)}
}

func (s *SameTerm) String() string { return fmt.Sprintf("sameTerm(%s, %s)", s.Left, s.Right) }

// And is the logical conjunction of its operands, evaluated left to right.
type And struct {
	Args []ValueExpr
}

func NewAnd(args ...ValueExpr) *And {
	mustValues("and", args)
	return &And{Args: args}
}

func (a *And) Operands() []ValueExpr { return a.Args }
func (a *And) String() string        { return fmt.Sprintf("and(%s)", joinStrings(a.Args)) }
func (*And) valueExpr()              {}

// Or is the logical disjunction of its operands, evaluated left to right.
type Or struct {
	Args []ValueExpr
}

func NewOr(args ...ValueExpr) *Or {
	mustValues("or", args)
	return &Or{Args: args}
}

func (o *Or) Operands() []ValueExpr { return o.Args }
func (o *Or) String() string        { return fmt.Sprintf("or(%s)", joinStrings(o.Args)) }
func (*Or) valueExpr()              {}

// CompareOp is a comparison operator.
type CompareOp uint8

const (
	EQ CompareOp = iota
	NE
	LT
	LE
	GE
	GT
)

func (op CompareOp) String() string {
	return [...]string{"=", "!=", "<", "<=", ">=", ">"}[op]
}

// Compare compares its operands with SPARQL operator semantics.
type Compare struct {
	binaryValue
	Op CompareOp
}

func NewCompare(left, right ValueExpr, op CompareOp) *Compare {
	return &Compare{binaryValue: newBinaryValue("compare", left, right), Op: op}
}

func (c *Compare) String() string { return fmt.Sprintf("(%s %s %s)", c.Left, c.Op, c.Right) }

// MathOp is an arithmetic operator.
type MathOp uint8

const (
	Plus MathOp = iota
	Minus
	Multiply
	Divide
)

func (op MathOp) String() string {
	return [...]string{"+", "-", "*", "/"}[op]
}

// MathExpr applies an arithmetic operator to two numeric operands.
type MathExpr struct {
	binaryValue
	Op MathOp
}

func NewMathExpr(left, right ValueExpr, op MathOp) *MathExpr {
	return &MathExpr{binaryValue: newBinaryValue("math", left, right), Op: op}
}

func (m *MathExpr) String() string { return fmt.Sprintf("(%s %s %s)", m.Left, m.Op, m.Right) }

// If evaluates Then or Else depending on Condition.
type If struct {
	Condition ValueExpr
	Then      ValueExpr
	Else      ValueExpr
}

func NewIf(condition, then, otherwise ValueExpr) *If {
	mustValues("if", []ValueExpr{condition, then, otherwise})
	return &If{Condition: condition, Then: then, Else: otherwise}
}

func (i *If) Operands() []ValueExpr { return []ValueExpr{i.Condition, i.Then, i.Else} }
func (i *If) String() string        { return fmt.Sprintf("if(%s)", joinStrings(i.Operands())) }
func (*If) valueExpr()              {}

// Coalesce returns the first operand that evaluates without error.
type Coalesce struct {
	Args []ValueExpr
}

func NewCoalesce(args ...ValueExpr) *Coalesce {
	mustValues("coalesce", args)
	return &Coalesce{Args: args}
}

func (c *Coalesce) Operands() []ValueExpr { return c.Args }
func (c *Coalesce) String() string        { return fmt.Sprintf("coalesce(%s)", joinStrings(c.Args)) }
func (*Coalesce) valueExpr()              {}

// FunctionCall invokes a function registered under IRI.
type FunctionCall struct {
	IRI  string
	Args []ValueExpr
}

func NewFunctionCall(iri string, args ...ValueExpr) *FunctionCall {
	mustValues("function call", args)
	return &FunctionCall{IRI: iri, Args: args}
}

func (f *FunctionCall) Operands() []ValueExpr { return f.Args }

func (f *FunctionCall) String() string {
	return fmt.Sprintf("<%s>(%s)", f.IRI, joinStrings(f.Args))
}

func (*FunctionCall) valueExpr() {}

// BNodeGenerator produces a fresh blank node on every evaluation.
type BNodeGenerator struct{}

func (*BNodeGenerator) Operands() []ValueExpr { return nil }
func (*BNodeGenerator) String() string        { return "bnode()" }
func (*BNodeGenerator) valueExpr()            {}

// Exists is true when its subquery has a solution compatible with the
// current one.
type Exists struct {
	SubQuery TupleExpr
}

func NewExists(sub TupleExpr) *Exists {
	mustTuple("exists", sub)
	return &Exists{SubQuery: sub}
}

func (*Exists) Operands() []ValueExpr { return nil }
func (e *Exists) String() string      { return "exists" }
func (*Exists) valueExpr()            {}

func mustValues(op string, args []ValueExpr) {
	for _, a := range args {
		if a == nil {
			panic("algebra: " + op + " requires non-nil operands")
		}
	}
}
