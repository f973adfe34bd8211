package algebra

import (
	"fmt"
	"strings"
)

// unary holds the single argument shared by the unary operators.
type unary struct {
	Arg TupleExpr
}

func (u *unary) Children() []TupleExpr { return []TupleExpr{u.Arg} }

func (u *unary) BindingNames() []string { return u.Arg.BindingNames() }

func (u *unary) AssuredBindingNames() []string { return u.Arg.AssuredBindingNames() }

// ProjectionElem renames Source to Target in projected solutions.
type ProjectionElem struct {
	Source string
	Target string
}

// Projection restricts solutions to a list of (possibly renamed) names.
type Projection struct {
	unary
	Elements []ProjectionElem
}

// NewProjection projects arg onto names without renaming.
func NewProjection(arg TupleExpr, names ...string) *Projection {
	elems := make([]ProjectionElem, len(names))
	for i, n := range names {
		elems[i] = ProjectionElem{Source: n, Target: n}
	}
	return NewRenamingProjection(arg, elems...)
}

// NewRenamingProjection projects arg with explicit source/target pairs.
func NewRenamingProjection(arg TupleExpr, elems ...ProjectionElem) *Projection {
	mustTuple("projection", arg)
	return &Projection{unary: unary{Arg: arg}, Elements: elems}
}

// TargetNames returns the projected names in element order.
func (p *Projection) TargetNames() []string {
	out := make([]string, len(p.Elements))
	for i, e := range p.Elements {
		out[i] = e.Target
	}
	return out
}

func (p *Projection) BindingNames() []string { return UnionNames(p.TargetNames()) }

func (p *Projection) AssuredBindingNames() []string {
	assured := newNameSet(p.Arg.AssuredBindingNames())
	out := make(nameSet)
	for _, e := range p.Elements {
		if _, ok := assured[e.Source]; ok {
			out.add(e.Target)
		}
	}
	return out.sorted()
}

func (p *Projection) String() string {
	parts := make([]string, len(p.Elements))
	for i, e := range p.Elements {
		if e.Source == e.Target {
			parts[i] = e.Target
		} else {
			parts[i] = e.Source + " AS " + e.Target
		}
	}
	return fmt.Sprintf("Projection(%s)", strings.Join(parts, ", "))
}

// ExtensionElem binds Name to the value of Expr.
type ExtensionElem struct {
	Name string
	Expr ValueExpr
}

// Extension adds computed bindings to each solution of its argument.
type Extension struct {
	unary
	Elements []ExtensionElem
}

func NewExtension(arg TupleExpr, elems ...ExtensionElem) *Extension {
	mustTuple("extension", arg)
	for _, e := range elems {
		if e.Expr == nil {
			panic("algebra: extension element " + e.Name + " has no expression")
		}
	}
	return &Extension{unary: unary{Arg: arg}, Elements: elems}
}

func (e *Extension) BindingNames() []string {
	names := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		names[i] = el.Name
	}
	return UnionNames(e.Arg.BindingNames(), names)
}

func (e *Extension) String() string {
	parts := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		parts[i] = fmt.Sprintf("%s AS ?%s", el.Expr, el.Name)
	}
	return fmt.Sprintf("Extension(%s)", strings.Join(parts, ", "))
}

// Filter keeps solutions whose condition is true.
type Filter struct {
	unary
	Condition ValueExpr
}

func NewFilter(arg TupleExpr, condition ValueExpr) *Filter {
	mustTuple("filter", arg)
	if condition == nil {
		panic("algebra: filter requires a condition")
	}
	return &Filter{unary: unary{Arg: arg}, Condition: condition}
}

func (f *Filter) String() string { return fmt.Sprintf("Filter(%s)", f.Condition) }

// Distinct removes duplicate solutions.
type Distinct struct{ unary }

func NewDistinct(arg TupleExpr) *Distinct {
	mustTuple("distinct", arg)
	return &Distinct{unary{Arg: arg}}
}

func (*Distinct) String() string { return "Distinct" }

// Reduced permits, but does not require, duplicate removal. Adjacent
// duplicates are dropped.
type Reduced struct{ unary }

func NewReduced(arg TupleExpr) *Reduced {
	mustTuple("reduced", arg)
	return &Reduced{unary{Arg: arg}}
}

func (*Reduced) String() string { return "Reduced" }

// OrderElem sorts by Expr in the given direction.
type OrderElem struct {
	Expr      ValueExpr
	Ascending bool
}

// Order sorts solutions by its elements, in sequence.
type Order struct {
	unary
	Elements []OrderElem
}

func NewOrder(arg TupleExpr, elems ...OrderElem) *Order {
	mustTuple("order", arg)
	return &Order{unary: unary{Arg: arg}, Elements: elems}
}

func (o *Order) String() string {
	parts := make([]string, len(o.Elements))
	for i, e := range o.Elements {
		dir := "ASC"
		if !e.Ascending {
			dir = "DESC"
		}
		parts[i] = fmt.Sprintf("%s(%s)", dir, e.Expr)
	}
	return fmt.Sprintf("Order(%s)", strings.Join(parts, ", "))
}

// Slice skips Offset solutions and returns at most Limit. A negative Limit
// means no limit.
type Slice struct {
	unary
	Offset int64
	Limit  int64
}

func NewSlice(arg TupleExpr, offset, limit int64) *Slice {
	mustTuple("slice", arg)
	if offset < 0 {
		offset = 0
	}
	return &Slice{unary: unary{Arg: arg}, Offset: offset, Limit: limit}
}

func (s *Slice) HasLimit() bool  { return s.Limit >= 0 }
func (s *Slice) HasOffset() bool { return s.Offset > 0 }

func (s *Slice) String() string {
	return fmt.Sprintf("Slice(offset=%d, limit=%d)", s.Offset, s.Limit)
}

// GroupElem binds Name to an aggregate over each group.
type GroupElem struct {
	Name     string
	Operator AggregateOperator
}

// Group partitions solutions by GroupNames and computes aggregates.
type Group struct {
	unary
	GroupNames []string
	Elements   []GroupElem
}

func NewGroup(arg TupleExpr, groupNames []string, elems ...GroupElem) *Group {
	mustTuple("group", arg)
	return &Group{unary: unary{Arg: arg}, GroupNames: UnionNames(groupNames), Elements: elems}
}

func (g *Group) BindingNames() []string {
	names := make([]string, len(g.Elements))
	for i, e := range g.Elements {
		names[i] = e.Name
	}
	return UnionNames(g.GroupNames, names)
}

func (g *Group) AssuredBindingNames() []string {
	assured := IntersectNames(g.GroupNames, g.Arg.AssuredBindingNames())
	for _, e := range g.Elements {
		if _, ok := e.Operator.(*Count); ok {
			assured = append(assured, e.Name)
		}
	}
	return UnionNames(assured)
}

func (g *Group) String() string {
	parts := make([]string, len(g.Elements))
	for i, e := range g.Elements {
		parts[i] = fmt.Sprintf("%s AS ?%s", e.Operator, e.Name)
	}
	return fmt.Sprintf("Group(%v; %s)", g.GroupNames, strings.Join(parts, ", "))
}

// Describe output binding names.
const (
	DescribeSubject   = "subject"
	DescribePredicate = "predicate"
	DescribeObject    = "object"
)

// Describe returns the statements around every value bound by its argument.
type Describe struct{ unary }

func NewDescribe(arg TupleExpr) *Describe {
	mustTuple("describe", arg)
	return &Describe{unary{Arg: arg}}
}

func (*Describe) BindingNames() []string {
	return []string{DescribeObject, DescribePredicate, DescribeSubject}
}

func (d *Describe) AssuredBindingNames() []string { return d.BindingNames() }

func (*Describe) String() string { return "Describe" }

// Service evaluates its argument at a remote endpoint.
type Service struct {
	unary
	ServiceRef *Var
	Silent     bool
}

func NewService(ref *Var, arg TupleExpr, silent bool) *Service {
	mustTuple("service", arg)
	if ref == nil {
		panic("algebra: service requires a reference")
	}
	return &Service{unary: unary{Arg: arg}, ServiceRef: ref, Silent: silent}
}

func (s *Service) String() string {
	if s.Silent {
		return fmt.Sprintf("Service SILENT(%s)", s.ServiceRef)
	}
	return fmt.Sprintf("Service(%s)", s.ServiceRef)
}
