package algebra

import "fmt"

// binary holds the two arguments shared by the binary operators.
type binary struct {
	Left  TupleExpr
	Right TupleExpr
}

func (b *binary) Children() []TupleExpr { return []TupleExpr{b.Left, b.Right} }

func (b *binary) BindingNames() []string {
	return UnionNames(b.Left.BindingNames(), b.Right.BindingNames())
}

// Join is the natural join of its arguments.
type Join struct{ binary }

func NewJoin(left, right TupleExpr) *Join {
	mustTuple("join", left, right)
	return &Join{binary{Left: left, Right: right}}
}

func (j *Join) AssuredBindingNames() []string {
	return UnionNames(j.Left.AssuredBindingNames(), j.Right.AssuredBindingNames())
}

func (*Join) String() string { return "Join" }

// LeftJoin is the left outer join (OPTIONAL) of its arguments, with an
// optional condition on the joined solution.
type LeftJoin struct {
	binary
	Condition ValueExpr
}

// NewLeftJoin returns a left join; condition may be nil.
func NewLeftJoin(left, right TupleExpr, condition ValueExpr) *LeftJoin {
	mustTuple("left join", left, right)
	return &LeftJoin{binary: binary{Left: left, Right: right}, Condition: condition}
}

func (lj *LeftJoin) AssuredBindingNames() []string { return lj.Left.AssuredBindingNames() }

func (lj *LeftJoin) String() string {
	if lj.Condition == nil {
		return "LeftJoin"
	}
	return fmt.Sprintf("LeftJoin(%s)", lj.Condition)
}

// Union concatenates the solutions of both arguments.
type Union struct{ binary }

func NewUnion(left, right TupleExpr) *Union {
	mustTuple("union", left, right)
	return &Union{binary{Left: left, Right: right}}
}

func (u *Union) AssuredBindingNames() []string {
	return IntersectNames(u.Left.AssuredBindingNames(), u.Right.AssuredBindingNames())
}

func (*Union) String() string { return "Union" }

// Intersection keeps left solutions that also occur on the right.
type Intersection struct{ binary }

func NewIntersection(left, right TupleExpr) *Intersection {
	mustTuple("intersection", left, right)
	return &Intersection{binary{Left: left, Right: right}}
}

func (i *Intersection) AssuredBindingNames() []string {
	return UnionNames(i.Left.AssuredBindingNames(), i.Right.AssuredBindingNames())
}

func (*Intersection) String() string { return "Intersection" }

// Difference is SPARQL MINUS: left solutions without a compatible right
// solution that shares a variable.
type Difference struct{ binary }

func NewDifference(left, right TupleExpr) *Difference {
	mustTuple("difference", left, right)
	return &Difference{binary{Left: left, Right: right}}
}

func (d *Difference) BindingNames() []string { return d.Left.BindingNames() }

func (d *Difference) AssuredBindingNames() []string { return d.Left.AssuredBindingNames() }

func (*Difference) String() string { return "Difference" }
