package algebra

import "fmt"

// AggregateOperator computes one value over the solutions of a group.
type AggregateOperator interface {
	Node
	// Operand returns the expression aggregated over, or nil for COUNT(*).
	Operand() ValueExpr
	// IsDistinct reports whether duplicate operand values are ignored.
	IsDistinct() bool
	aggregateOp()
}

type aggregate struct {
	Arg      ValueExpr
	Distinct bool
}

func (a *aggregate) Operand() ValueExpr { return a.Arg }
func (a *aggregate) IsDistinct() bool   { return a.Distinct }
func (*aggregate) aggregateOp()         {}

func (a *aggregate) format(name string) string {
	arg := "*"
	if a.Arg != nil {
		arg = a.Arg.String()
	}
	if a.Distinct {
		return fmt.Sprintf("%s(DISTINCT %s)", name, arg)
	}
	return fmt.Sprintf("%s(%s)", name, arg)
}

func newAggregate(op string, arg ValueExpr, distinct bool) aggregate {
	if arg == nil {
		panic("algebra: " + op + " requires an argument")
	}
	return aggregate{Arg: arg, Distinct: distinct}
}

// Count counts solutions, or bound values of Arg when it is set.
type Count struct{ aggregate }

// NewCount returns COUNT(arg); a nil arg counts solutions.
func NewCount(arg ValueExpr, distinct bool) *Count {
	return &Count{aggregate{Arg: arg, Distinct: distinct}}
}

func (c *Count) String() string { return c.format("count") }

type Min struct{ aggregate }

func NewMin(arg ValueExpr) *Min { return &Min{newAggregate("min", arg, false)} }
func (m *Min) String() string   { return m.format("min") }

type Max struct{ aggregate }

func NewMax(arg ValueExpr) *Max { return &Max{newAggregate("max", arg, false)} }
func (m *Max) String() string   { return m.format("max") }

type Sum struct{ aggregate }

func NewSum(arg ValueExpr, distinct bool) *Sum { return &Sum{newAggregate("sum", arg, distinct)} }
func (s *Sum) String() string                  { return s.format("sum") }

type Avg struct{ aggregate }

func NewAvg(arg ValueExpr, distinct bool) *Avg { return &Avg{newAggregate("avg", arg, distinct)} }
func (a *Avg) String() string                  { return a.format("avg") }

type Sample struct{ aggregate }

func NewSample(arg ValueExpr) *Sample { return &Sample{newAggregate("sample", arg, false)} }
func (s *Sample) String() string      { return s.format("sample") }

// GroupConcat joins the string forms of Arg with Separator, which defaults
// to a single space.
type GroupConcat struct {
	aggregate
	Separator ValueExpr
}

// NewGroupConcat returns GROUP_CONCAT(arg); separator may be nil.
func NewGroupConcat(arg ValueExpr, distinct bool, separator ValueExpr) *GroupConcat {
	return &GroupConcat{aggregate: newAggregate("group_concat", arg, distinct), Separator: separator}
}

func (g *GroupConcat) String() string { return g.format("group_concat") }
