package evaluation

import (
	"sort"
	"strings"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
)

// Binding pairs a variable name with its value.
type Binding struct {
	Name  string
	Value rdf.Value
}

// Solution is an immutable set of variable bindings kept sorted by name.
// The zero value is the empty solution. Every modifying method returns a
// new Solution and leaves the receiver untouched.
type Solution struct {
	bindings []Binding
}

// NewSolution builds a solution from a map. Nil values are skipped.
func NewSolution(values map[string]rdf.Value) Solution {
	bs := make([]Binding, 0, len(values))
	for name, v := range values {
		if v != nil {
			bs = append(bs, Binding{Name: name, Value: v})
		}
	}
	sort.Slice(bs, func(i, j int) bool { return bs[i].Name < bs[j].Name })
	return Solution{bindings: bs}
}

// SolutionOf builds a solution from alternating name, value pairs:
// SolutionOf("x", rdf.IRI("a"), "y", rdf.NewString("b")).
func SolutionOf(pairs ...interface{}) Solution {
	if len(pairs)%2 != 0 {
		panic("evaluation: SolutionOf needs name/value pairs")
	}
	m := make(map[string]rdf.Value, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		v, _ := pairs[i+1].(rdf.Value)
		m[pairs[i].(string)] = v
	}
	return NewSolution(m)
}

func (s Solution) find(name string) (int, bool) {
	i := sort.Search(len(s.bindings), func(i int) bool { return s.bindings[i].Name >= name })
	return i, i < len(s.bindings) && s.bindings[i].Name == name
}

// Get returns the value bound to name, or nil.
func (s Solution) Get(name string) rdf.Value {
	if i, ok := s.find(name); ok {
		return s.bindings[i].Value
	}
	return nil
}

// Has reports whether name is bound.
func (s Solution) Has(name string) bool {
	_, ok := s.find(name)
	return ok
}

// Len returns the number of bindings.
func (s Solution) Len() int { return len(s.bindings) }

// Bindings returns the bindings in name order. The slice must not be
// modified.
func (s Solution) Bindings() []Binding { return s.bindings }

// Names returns the bound names in sorted order.
func (s Solution) Names() []string {
	names := make([]string, len(s.bindings))
	for i, b := range s.bindings {
		names[i] = b.Name
	}
	return names
}

// With returns s with name bound to v, replacing any previous value. A nil
// v removes the binding.
func (s Solution) With(name string, v rdf.Value) Solution {
	if v == nil {
		return s.Without(name)
	}
	i, ok := s.find(name)
	if ok {
		if s.bindings[i].Value == v {
			return s
		}
		bs := append([]Binding(nil), s.bindings...)
		bs[i].Value = v
		return Solution{bindings: bs}
	}
	bs := make([]Binding, 0, len(s.bindings)+1)
	bs = append(bs, s.bindings[:i]...)
	bs = append(bs, Binding{Name: name, Value: v})
	bs = append(bs, s.bindings[i:]...)
	return Solution{bindings: bs}
}

// Without returns s with the given names unbound.
func (s Solution) Without(names ...string) Solution {
	drop := false
	for _, n := range names {
		if s.Has(n) {
			drop = true
			break
		}
	}
	if !drop {
		return s
	}
	bs := make([]Binding, 0, len(s.bindings))
	for _, b := range s.bindings {
		if !containsName(names, b.Name) {
			bs = append(bs, b)
		}
	}
	return Solution{bindings: bs}
}

// Retain returns s restricted to the given names.
func (s Solution) Retain(names []string) Solution {
	bs := make([]Binding, 0, len(s.bindings))
	for _, b := range s.bindings {
		if containsName(names, b.Name) {
			bs = append(bs, b)
		}
	}
	if len(bs) == len(s.bindings) {
		return s
	}
	return Solution{bindings: bs}
}

// Compatible reports whether s and other agree on every shared name.
func (s Solution) Compatible(other Solution) bool {
	i, j := 0, 0
	for i < len(s.bindings) && j < len(other.bindings) {
		a, b := s.bindings[i], other.bindings[j]
		switch {
		case a.Name < b.Name:
			i++
		case a.Name > b.Name:
			j++
		default:
			if a.Value != b.Value {
				return false
			}
			i++
			j++
		}
	}
	return true
}

// SharesNames reports whether s and other bind at least one common name.
func (s Solution) SharesNames(other Solution) bool {
	i, j := 0, 0
	for i < len(s.bindings) && j < len(other.bindings) {
		a, b := s.bindings[i].Name, other.bindings[j].Name
		switch {
		case a < b:
			i++
		case a > b:
			j++
		default:
			return true
		}
	}
	return false
}

// Merge returns the union of s and other. ok is false when they bind a
// shared name to different values.
func (s Solution) Merge(other Solution) (Solution, bool) {
	if len(other.bindings) == 0 {
		return s, true
	}
	if len(s.bindings) == 0 {
		return other, true
	}
	bs := make([]Binding, 0, len(s.bindings)+len(other.bindings))
	i, j := 0, 0
	for i < len(s.bindings) && j < len(other.bindings) {
		a, b := s.bindings[i], other.bindings[j]
		switch {
		case a.Name < b.Name:
			bs = append(bs, a)
			i++
		case a.Name > b.Name:
			bs = append(bs, b)
			j++
		default:
			if a.Value != b.Value {
				return Solution{}, false
			}
			bs = append(bs, a)
			i++
			j++
		}
	}
	bs = append(bs, s.bindings[i:]...)
	bs = append(bs, other.bindings[j:]...)
	return Solution{bindings: bs}, true
}

// Equal reports whether both solutions bind the same names to the same
// values.
func (s Solution) Equal(other Solution) bool {
	if len(s.bindings) != len(other.bindings) {
		return false
	}
	for i, b := range s.bindings {
		if other.bindings[i] != b {
			return false
		}
	}
	return true
}

// Compare orders solutions binding by binding: by name, then by value, and
// a solution that is a prefix of another sorts first.
func (s Solution) Compare(other Solution) int {
	for i := 0; i < len(s.bindings) && i < len(other.bindings); i++ {
		a, b := s.bindings[i], other.bindings[i]
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		if c := rdf.CompareValues(a.Value, b.Value); c != 0 {
			return c
		}
	}
	switch {
	case len(s.bindings) < len(other.bindings):
		return -1
	case len(s.bindings) > len(other.bindings):
		return 1
	}
	return 0
}

func (s Solution) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, b := range s.bindings {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(b.Name)
		sb.WriteByte('=')
		sb.WriteString(b.Value.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// appendSortKey appends an order-preserving encoding of s whose byte order
// matches Compare.
func (s Solution) appendSortKey(dst []byte) []byte {
	for _, b := range s.bindings {
		dst = append(dst, 0x01)
		dst = rdf.AppendEscaped(dst, b.Name)
		dst = rdf.AppendSortKey(dst, b.Value, false)
	}
	return append(dst, 0x00)
}

// encode appends a compact binary form of s.
func (s Solution) encode(dst []byte) []byte {
	dst = appendUvarint(dst, uint64(len(s.bindings)))
	for _, b := range s.bindings {
		dst = appendUvarint(dst, uint64(len(b.Name)))
		dst = append(dst, b.Name...)
		dst = rdf.EncodeValue(dst, b.Value)
	}
	return dst
}

func decodeSolution(b []byte) (Solution, int, error) {
	count, n, err := readUvarint(b)
	if err != nil {
		return Solution{}, 0, err
	}
	bs := make([]Binding, 0, count)
	for i := uint64(0); i < count; i++ {
		length, m, err := readUvarint(b[n:])
		if err != nil {
			return Solution{}, 0, err
		}
		n += m
		if uint64(len(b)-n) < length {
			return Solution{}, 0, rdf.ErrMalformedValue
		}
		name := string(b[n : n+int(length)])
		n += int(length)
		v, m, err := rdf.DecodeValue(b[n:])
		if err != nil {
			return Solution{}, 0, err
		}
		n += m
		bs = append(bs, Binding{Name: name, Value: v})
	}
	return Solution{bindings: bs}, n, nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
