// Package rdf defines the RDF term model shared by the algebra, the
// evaluator and the statement stores: IRIs, blank nodes, literals and
// statements, plus a total order, hashing and binary encodings over them.
package rdf

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the concrete type of a Value.
type Kind byte

const (
	KindBNode Kind = iota + 1
	KindIRI
	KindLiteral
)

// Value is an RDF term. All implementations are immutable and comparable,
// so two Values can be compared with == and used as map keys. The set of
// implementations is closed: IRI, BNode and Literal.
type Value interface {
	Kind() Kind
	String() string
	term()
}

// IRI is an internationalized resource identifier.
type IRI string

func (IRI) Kind() Kind { return KindIRI }

func (IRI) term() {}

func (i IRI) String() string { return "<" + string(i) + ">" }

// Namespace returns the IRI up to and including the last '#', '/' or ':'.
func (i IRI) Namespace() string {
	s := string(i)
	return s[:localNameIndex(s)]
}

// LocalName returns the part of the IRI after its namespace.
func (i IRI) LocalName() string {
	s := string(i)
	return s[localNameIndex(s):]
}

func localNameIndex(s string) int {
	if idx := strings.LastIndexByte(s, '#'); idx >= 0 {
		return idx + 1
	}
	if idx := strings.LastIndexByte(s, '/'); idx >= 0 {
		return idx + 1
	}
	if idx := strings.LastIndexByte(s, ':'); idx >= 0 {
		return idx + 1
	}
	return 0
}

// BNode is a blank node identified by a store-local label.
type BNode string

func (BNode) Kind() Kind { return KindBNode }

func (BNode) term() {}

func (b BNode) String() string { return "_:" + string(b) }

// ID returns the blank node label without the "_:" prefix.
func (b BNode) ID() string { return string(b) }

// Literal is a lexical form with a datatype and, for language-tagged
// strings, a language tag.
type Literal struct {
	Label    string
	Datatype IRI
	Language string
}

func (Literal) Kind() Kind { return KindLiteral }

func (Literal) term() {}

func (l Literal) String() string {
	quoted := strconv.Quote(l.Label)
	switch {
	case l.Language != "":
		return quoted + "@" + l.Language
	case l.Datatype == "" || l.Datatype == XSDString:
		return quoted
	default:
		return quoted + "^^" + l.Datatype.String()
	}
}

// NewString returns a plain xsd:string literal.
func NewString(label string) Literal {
	return Literal{Label: label, Datatype: XSDString}
}

// NewLangString returns a language-tagged string. Tags are stored lower case.
func NewLangString(label, lang string) Literal {
	return Literal{Label: label, Datatype: RDFLangString, Language: strings.ToLower(lang)}
}

// NewTypedLiteral returns a literal with an explicit datatype.
func NewTypedLiteral(label string, datatype IRI) Literal {
	if datatype == "" {
		datatype = XSDString
	}
	return Literal{Label: label, Datatype: datatype}
}

func NewInteger(v int64) Literal {
	return Literal{Label: strconv.FormatInt(v, 10), Datatype: XSDInteger}
}

func NewDouble(v float64) Literal {
	return Literal{Label: formatDouble(v), Datatype: XSDDouble}
}

func NewDecimal(v float64) Literal {
	label := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(label, ".") {
		label += ".0"
	}
	return Literal{Label: label, Datatype: XSDDecimal}
}

func NewBoolean(v bool) Literal {
	return Literal{Label: strconv.FormatBool(v), Datatype: XSDBoolean}
}

func formatDouble(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "INF"
	case math.IsInf(v, -1):
		return "-INF"
	}
	return strconv.FormatFloat(v, 'E', -1, 64)
}

// IsPlain reports whether l is a simple or xsd:string literal without a
// language tag.
func (l Literal) IsPlain() bool {
	return l.Language == "" && (l.Datatype == "" || l.Datatype == XSDString)
}

// IsNumeric reports whether the literal has a numeric datatype and a
// lexical form that parses as a number.
func (l Literal) IsNumeric() bool {
	_, ok := l.numeric()
	return ok
}

// IsInteger reports whether the literal is numeric with an integer datatype.
func (l Literal) IsInteger() bool {
	if !integerTypes[l.Datatype] {
		return false
	}
	_, err := strconv.ParseInt(strings.TrimSpace(l.Label), 10, 64)
	return err == nil
}

// Float64 returns the numeric value of the literal.
func (l Literal) Float64() (float64, bool) {
	return l.numeric()
}

// Int64 returns the integer value of an integer-typed literal.
func (l Literal) Int64() (int64, bool) {
	if !integerTypes[l.Datatype] {
		return 0, false
	}
	v, err := strconv.ParseInt(strings.TrimSpace(l.Label), 10, 64)
	return v, err == nil
}

// Bool returns the value of an xsd:boolean literal.
func (l Literal) Bool() (bool, bool) {
	if l.Datatype != XSDBoolean {
		return false, false
	}
	switch strings.TrimSpace(l.Label) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

func (l Literal) numeric() (float64, bool) {
	if !numericTypes[l.Datatype] {
		return 0, false
	}
	label := strings.TrimSpace(l.Label)
	switch label {
	case "INF", "+INF":
		return math.Inf(1), true
	case "-INF":
		return math.Inf(-1), true
	}
	v, err := strconv.ParseFloat(label, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
