package rdf

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	p "github.com/vektah/goparsify"
)

// termGrammar is the grammar behind ParseTerm. Prefixed names are left unresolved
// by the grammar and expanded afterwards against the caller's prefixes.
var termGrammar p.Parser

// prefixedName is a prefix:local term before expansion.
type prefixedName struct {
	prefix string
	local  string
}

type langTag string

// literalNode is a quoted literal before its datatype is resolved.
type literalNode struct {
	label    string
	lang     string
	datatype interface{}
}

func init() {
	iri := p.Seq("<", p.Cut(), p.NotChars(">", 0), ">").Map(func(n *p.Result) {
		n.Result = IRI(n.Child[2].Token)
	})
	bnode := p.Seq("_:", p.Cut(), p.NotChars(" \t\r\n", 1)).Map(func(n *p.Result) {
		n.Result = BNode(n.Child[2].Token)
	})
	pname := p.Seq(p.Chars("A-Za-z0-9_\\-.", 0), ":", p.NotChars(" \t\r\n", 0)).Map(func(n *p.Result) {
		n.Result = prefixedName{prefix: n.Child[0].Token, local: n.Child[2].Token}
	})

	lang := p.Seq("@", p.Chars("A-Za-z0-9\\-", 1)).Map(func(n *p.Result) {
		n.Result = langTag(n.Child[1].Token)
	})
	datatype := p.Seq("^^", p.Cut(), p.Any(iri, pname)).Map(func(n *p.Result) {
		n.Result = n.Child[2].Result
	})
	literal := p.Seq(quotedString(), p.Maybe(p.Any(lang, datatype))).Map(func(n *p.Result) {
		lit := literalNode{label: n.Child[0].Token}
		switch suffix := n.Child[1].Result.(type) {
		case langTag:
			lit.lang = string(suffix)
		case nil:
		default:
			lit.datatype = suffix
		}
		n.Result = lit
	})

	number := p.Regex(`[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?`).Map(func(n *p.Result) {
		switch {
		case strings.ContainsAny(n.Token, "eE"):
			n.Result = Literal{Label: n.Token, Datatype: XSDDouble}
		case strings.Contains(n.Token, "."):
			n.Result = Literal{Label: n.Token, Datatype: XSDDecimal}
		default:
			n.Result = Literal{Label: n.Token, Datatype: XSDInteger}
		}
	})
	boolean := p.Any(p.Bind("true", NewBoolean(true)), p.Bind("false", NewBoolean(false)))
	rdfType := p.Bind("a", RDFType)

	termGrammar = p.Any(iri, bnode, literal, pname, number, boolean, rdfType)
}

// quotedString matches a double-quoted string and returns its unescaped
// content in .Token. Escapes follow Go's rules, which cover the Turtle
// ECHAR and UCHAR forms.
func quotedString() p.Parser {
	return p.NewParser("string literal", func(ps *p.State, node *p.Result) {
		ps.WS(ps)
		in := ps.Get()
		if len(in) == 0 || in[0] != '"' {
			ps.ErrorHere(`"`)
			return
		}
		var sb strings.Builder
		rest := in[1:]
		for len(rest) > 0 {
			if rest[0] == '"' {
				node.Token = sb.String()
				ps.Advance(len(in) - len(rest) + 1)
				return
			}
			r, multibyte, tail, err := strconv.UnquoteChar(rest, '"')
			if err != nil {
				ps.ErrorHere("valid escape sequence")
				return
			}
			if multibyte || r < utf8.RuneSelf {
				sb.WriteRune(r)
			} else {
				sb.WriteByte(byte(r))
			}
			rest = tail
		}
		ps.ErrorHere(`closing "`)
	})
}

// ParseTerm parses a Turtle-like term: <iri>, prefix:local, _:label,
// "label", "label"@lang, "label"^^<datatype> or "label"^^prefix:local, bare
// integers, decimals, doubles and booleans, and "a" for rdf:type. Quoted
// labels may contain escapes such as \" \n or \u00e9.
func ParseTerm(s string, prefixes map[string]string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty term")
	}
	result, err := p.Run(termGrammar, s, p.NoWhitespace)
	if err != nil {
		return nil, fmt.Errorf("cannot parse term %q: %w", s, err)
	}
	v, err := resolveTerm(result, prefixes)
	if err != nil {
		return nil, fmt.Errorf("invalid term %q: %w", s, err)
	}
	return v, nil
}

func resolveTerm(result interface{}, prefixes map[string]string) (Value, error) {
	switch r := result.(type) {
	case Value:
		return r, nil
	case prefixedName:
		ns, ok := prefixes[r.prefix]
		if !ok {
			return nil, fmt.Errorf("unknown prefix %q", r.prefix)
		}
		return IRI(ns + r.local), nil
	case literalNode:
		switch {
		case r.lang != "":
			return NewLangString(r.label, r.lang), nil
		case r.datatype != nil:
			dt, err := resolveTerm(r.datatype, prefixes)
			if err != nil {
				return nil, fmt.Errorf("datatype: %w", err)
			}
			return NewTypedLiteral(r.label, dt.(IRI)), nil
		}
		return NewString(r.label), nil
	}
	return nil, fmt.Errorf("unexpected term %T", result)
}
