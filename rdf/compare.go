package rdf

import (
	"math"
	"strings"
)

// CompareValues compares two values and returns:
//
//	-1 if left < right
//	 0 if left == right
//	 1 if left > right
//
// The order is total over all terms: nil (unbound) sorts first, then blank
// nodes, then IRIs, then literals. Numeric literals sort before all other
// literals and are ordered by value, then datatype, then lexical form.
// Other literals are ordered by lexical form, datatype and language.
// AppendSortKey produces byte strings with exactly this order.
func CompareValues(left, right Value) int {
	if left == nil || right == nil {
		switch {
		case left == nil && right == nil:
			return 0
		case left == nil:
			return -1
		default:
			return 1
		}
	}

	lr, rr := rank(left), rank(right)
	if lr != rr {
		return compareInts(lr, rr)
	}

	switch l := left.(type) {
	case BNode:
		return strings.Compare(string(l), string(right.(BNode)))
	case IRI:
		return strings.Compare(string(l), string(right.(IRI)))
	case Literal:
		r := right.(Literal)
		if lf, ok := l.numeric(); ok {
			rf, _ := r.numeric()
			if c := compareUint64(orderedFloatBits(lf), orderedFloatBits(rf)); c != 0 {
				return c
			}
			if c := strings.Compare(string(l.Datatype), string(r.Datatype)); c != 0 {
				return c
			}
			return strings.Compare(l.Label, r.Label)
		}
		if c := strings.Compare(l.Label, r.Label); c != 0 {
			return c
		}
		if c := strings.Compare(string(l.Datatype), string(r.Datatype)); c != 0 {
			return c
		}
		return strings.Compare(l.Language, r.Language)
	}
	return strings.Compare(left.String(), right.String())
}

// ValuesEqual reports RDF term equality. Two unbound values are equal.
func ValuesEqual(left, right Value) bool {
	return left == right
}

// rank positions a value's type class in the total order.
func rank(v Value) int {
	switch val := v.(type) {
	case BNode:
		return int(tagBNode)
	case IRI:
		return int(tagIRI)
	case Literal:
		if val.IsNumeric() {
			return int(tagNumeric)
		}
		return int(tagLiteral)
	}
	return int(tagUnknown)
}

// orderedFloatBits maps a float64 onto a uint64 whose unsigned order matches
// numeric order. NaN sorts after +Inf.
func orderedFloatBits(f float64) uint64 {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		return ^bits
	}
	return bits | (1 << 63)
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
