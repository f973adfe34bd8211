package algebra

import (
	"fmt"
	"strings"
)

// A Visitor's Visit method is invoked for each node encountered by Walk.
// If the result visitor w is not nil, Walk visits each of the children of
// node with w, followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an algebra tree in depth-first order. Auxiliary children
// come before the tuple arguments: extension and order elements, filter and
// left join conditions, aggregate operands and service references are
// visited before the operator's arguments.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *StatementPattern:
		for _, sv := range n.Vars() {
			Walk(v, sv)
		}

	case *Extension:
		for _, e := range n.Elements {
			Walk(v, e.Expr)
		}
		Walk(v, n.Arg)

	case *Filter:
		Walk(v, n.Condition)
		Walk(v, n.Arg)

	case *Order:
		for _, e := range n.Elements {
			Walk(v, e.Expr)
		}
		Walk(v, n.Arg)

	case *Group:
		for _, e := range n.Elements {
			Walk(v, e.Operator)
		}
		Walk(v, n.Arg)

	case *Service:
		Walk(v, n.ServiceRef)
		Walk(v, n.Arg)

	case *LeftJoin:
		if n.Condition != nil {
			Walk(v, n.Condition)
		}
		Walk(v, n.Left)
		Walk(v, n.Right)

	case *Exists:
		Walk(v, n.SubQuery)

	case *GroupConcat:
		Walk(v, n.Arg)
		if n.Separator != nil {
			Walk(v, n.Separator)
		}

	case AggregateOperator:
		if arg := n.Operand(); arg != nil {
			Walk(v, arg)
		}

	case ValueExpr:
		for _, op := range n.Operands() {
			Walk(v, op)
		}

	case TupleExpr:
		for _, child := range n.Children() {
			Walk(v, child)
		}

	default:
		panic(fmt.Sprintf("algebra.Walk: unexpected node type %T", n))
	}

	v.Visit(nil)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses an algebra tree in depth-first order: it starts by
// calling f(node); if f returns true, Inspect invokes f recursively for each
// of the children of node, followed by a call of f(nil).
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// StatementPatterns collects the statement patterns of expr in visiting
// order, including those nested inside EXISTS expressions.
func StatementPatterns(expr Node) []*StatementPattern {
	var out []*StatementPattern
	Inspect(expr, func(n Node) bool {
		if sp, ok := n.(*StatementPattern); ok {
			out = append(out, sp)
		}
		return true
	})
	return out
}

// VarNames returns the sorted names of all bindable variables under node.
func VarNames(node Node) []string {
	names := make(nameSet)
	Inspect(node, func(n Node) bool {
		if v, ok := n.(*Var); ok && v.Bindable() {
			names.add(v.Name)
		}
		return true
	})
	return names.sorted()
}

// Format renders expr as an indented tree, one operator per line.
func Format(expr TupleExpr) string {
	var sb strings.Builder
	format(&sb, expr, 0)
	return sb.String()
}

func format(sb *strings.Builder, expr TupleExpr, depth int) {
	sb.WriteString(strings.Repeat("   ", depth))
	sb.WriteString(expr.String())
	sb.WriteByte('\n')
	for _, child := range expr.Children() {
		format(sb, child, depth+1)
	}
}
