// Package algebra is the operator tree a query is compiled into: tuple
// expressions that produce solutions, value expressions evaluated against a
// single solution, and aggregate operators used by Group. Trees are built
// once and treated as immutable while they are evaluated.
package algebra

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
)

// Node is any element of an algebra tree.
type Node interface {
	String() string
}

// TupleExpr is an operator that produces a sequence of solutions.
type TupleExpr interface {
	Node
	// BindingNames lists, sorted, every variable a produced solution may bind.
	BindingNames() []string
	// AssuredBindingNames lists, sorted, the variables every produced
	// solution binds.
	AssuredBindingNames() []string
	// Children returns the operator's tuple expression arguments.
	Children() []TupleExpr
}

// ValueExpr is an expression evaluated against one solution.
type ValueExpr interface {
	Node
	// Operands returns the nested value expressions, in evaluation order.
	Operands() []ValueExpr
	valueExpr()
}

// Var is a variable slot. A Var with a Value is a constant; anonymous
// constants are generated for terms written directly in a pattern and are
// never bound in solutions.
type Var struct {
	Name      string
	Value     rdf.Value
	Anonymous bool
}

// NewVar returns a named, unbound variable.
func NewVar(name string) *Var {
	if name == "" {
		panic("algebra: variable name must not be empty")
	}
	return &Var{Name: name}
}

// NewConstantVar returns an anonymous variable fixed to v. Its name is
// derived from the value so equal constants share a name.
func NewConstantVar(v rdf.Value) *Var {
	if v == nil {
		panic("algebra: constant variable needs a value")
	}
	return &Var{Name: fmt.Sprintf("_const_%016x", rdf.HashValue(v)), Value: v, Anonymous: true}
}

// HasValue reports whether the variable carries a constant.
func (v *Var) HasValue() bool { return v.Value != nil }

// Bindable reports whether solutions can bind this variable.
func (v *Var) Bindable() bool { return v != nil && !v.Anonymous }

func (v *Var) String() string {
	switch {
	case v.Anonymous && v.Value != nil:
		return v.Value.String()
	case v.Value != nil:
		return "?" + v.Name + "=" + v.Value.String()
	}
	return "?" + v.Name
}

func (v *Var) Operands() []ValueExpr { return nil }
func (*Var) valueExpr()              {}

// nameSet builds sorted, de-duplicated name lists.
type nameSet map[string]struct{}

func newNameSet(lists ...[]string) nameSet {
	s := make(nameSet)
	for _, l := range lists {
		s.add(l...)
	}
	return s
}

func (s nameSet) add(names ...string) {
	for _, n := range names {
		s[n] = struct{}{}
	}
}

func (s nameSet) sorted() []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// UnionNames returns the sorted union of the given name lists.
func UnionNames(lists ...[]string) []string {
	return newNameSet(lists...).sorted()
}

// IntersectNames returns the sorted names present in both lists.
func IntersectNames(a, b []string) []string {
	in := newNameSet(b)
	out := make(nameSet)
	for _, n := range a {
		if _, ok := in[n]; ok {
			out[n] = struct{}{}
		}
	}
	return out.sorted()
}

// SubtractNames returns the sorted names of a that are not in b.
func SubtractNames(a, b []string) []string {
	in := newNameSet(b)
	out := make(nameSet)
	for _, n := range a {
		if _, ok := in[n]; !ok {
			out[n] = struct{}{}
		}
	}
	return out.sorted()
}

func varNames(vars ...*Var) []string {
	s := make(nameSet)
	for _, v := range vars {
		if v.Bindable() {
			s.add(v.Name)
		}
	}
	return s.sorted()
}

func mustTuple(op string, args ...TupleExpr) {
	for _, a := range args {
		if a == nil {
			panic("algebra: " + op + " requires non-nil arguments")
		}
	}
}

func joinStrings(nodes []ValueExpr) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}
