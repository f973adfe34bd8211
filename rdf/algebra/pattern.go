package algebra

import (
	"fmt"
	"strings"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
)

// Scope selects which graphs a statement pattern ranges over.
type Scope uint8

const (
	// DefaultContexts matches statements in the dataset's default graphs.
	DefaultContexts Scope = iota
	// NamedContexts matches statements in the dataset's named graphs.
	NamedContexts
)

func (s Scope) String() string {
	if s == NamedContexts {
		return "NAMED"
	}
	return "DEFAULT"
}

// StatementPattern matches statements against subject, predicate, object
// and optional context variables.
type StatementPattern struct {
	Scope     Scope
	Subject   *Var
	Predicate *Var
	Object    *Var
	Context   *Var
}

// NewStatementPattern returns a default-scope pattern without a context var.
func NewStatementPattern(subj, pred, obj *Var) *StatementPattern {
	return NewContextStatementPattern(DefaultContexts, subj, pred, obj, nil)
}

// NewContextStatementPattern returns a pattern with an explicit scope. ctx
// may be nil.
func NewContextStatementPattern(scope Scope, subj, pred, obj, ctx *Var) *StatementPattern {
	if subj == nil || pred == nil || obj == nil {
		panic("algebra: statement pattern requires subject, predicate and object")
	}
	return &StatementPattern{Scope: scope, Subject: subj, Predicate: pred, Object: obj, Context: ctx}
}

// Vars returns the pattern's variables in subject, predicate, object,
// context order, skipping an absent context.
func (sp *StatementPattern) Vars() []*Var {
	if sp.Context == nil {
		return []*Var{sp.Subject, sp.Predicate, sp.Object}
	}
	return []*Var{sp.Subject, sp.Predicate, sp.Object, sp.Context}
}

func (sp *StatementPattern) BindingNames() []string {
	return varNames(sp.Vars()...)
}

// AssuredBindingNames excludes the context of a default-scope pattern,
// which stays unbound for statements in the default graph.
func (sp *StatementPattern) AssuredBindingNames() []string {
	if sp.Scope == NamedContexts || sp.Context == nil {
		return sp.BindingNames()
	}
	return varNames(sp.Subject, sp.Predicate, sp.Object)
}

func (sp *StatementPattern) Children() []TupleExpr { return nil }

func (sp *StatementPattern) String() string {
	parts := make([]string, 0, 4)
	for _, v := range sp.Vars() {
		parts = append(parts, v.String())
	}
	if sp.Scope == NamedContexts {
		return fmt.Sprintf("StatementPattern FROM NAMED (%s)", strings.Join(parts, " "))
	}
	return fmt.Sprintf("StatementPattern(%s)", strings.Join(parts, " "))
}

// EmptySet produces no solutions.
type EmptySet struct{}

func (*EmptySet) BindingNames() []string        { return nil }
func (*EmptySet) AssuredBindingNames() []string { return nil }
func (*EmptySet) Children() []TupleExpr         { return nil }
func (*EmptySet) String() string                { return "EmptySet" }

// SingletonSet produces the input solution once.
type SingletonSet struct{}

func (*SingletonSet) BindingNames() []string        { return nil }
func (*SingletonSet) AssuredBindingNames() []string { return nil }
func (*SingletonSet) Children() []TupleExpr         { return nil }
func (*SingletonSet) String() string                { return "SingletonSet" }

// BindingSetAssignment is an inline table of solutions (a VALUES block).
// A row may leave some names unbound.
type BindingSetAssignment struct {
	Names []string
	Rows  []map[string]rdf.Value
}

// NewBindingSetAssignment returns an inline table over names.
func NewBindingSetAssignment(names []string, rows ...map[string]rdf.Value) *BindingSetAssignment {
	return &BindingSetAssignment{Names: UnionNames(names), Rows: rows}
}

func (b *BindingSetAssignment) BindingNames() []string { return b.Names }

func (b *BindingSetAssignment) AssuredBindingNames() []string {
	var assured []string
	for _, name := range b.Names {
		all := true
		for _, row := range b.Rows {
			if row[name] == nil {
				all = false
				break
			}
		}
		if all {
			assured = append(assured, name)
		}
	}
	return assured
}

func (b *BindingSetAssignment) Children() []TupleExpr { return nil }

func (b *BindingSetAssignment) String() string {
	return fmt.Sprintf("BindingSetAssignment(%v, %d rows)", b.Names, len(b.Rows))
}
