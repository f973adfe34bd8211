package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTerm(t *testing.T) {
	prefixes := map[string]string{"ex": "http://example.org/"}

	tests := []struct {
		input string
		want  Value
	}{
		{"<http://example.org/a>", IRI("http://example.org/a")},
		{"ex:a", IRI("http://example.org/a")},
		{"_:n1", BNode("n1")},
		{`"hello"`, NewString("hello")},
		{`"chat"@FR`, NewLangString("chat", "fr")},
		{`"5"^^<http://www.w3.org/2001/XMLSchema#int>`, Literal{Label: "5", Datatype: XSDInt}},
		{`"x"^^ex:custom`, Literal{Label: "x", Datatype: "http://example.org/custom"}},
		{`"quote \" inside"`, NewString(`quote " inside`)},
		{`"two\nlines\tand a tab"`, NewString("two\nlines\tand a tab")},
		{`"back\\slash"@en`, NewLangString(`back\slash`, "en")},
		{`"caf\u00e9"`, NewString("café")},
		{`"x\"y"^^ex:custom`, Literal{Label: `x"y`, Datatype: "http://example.org/custom"}},
		{`""`, NewString("")},
		{"<>", IRI("")},
		{"ex:", IRI("http://example.org/")},
		{".5", Literal{Label: ".5", Datatype: XSDDecimal}},
		{"+7", Literal{Label: "+7", Datatype: XSDInteger}},
		{"42", Literal{Label: "42", Datatype: XSDInteger}},
		{"-1.5", Literal{Label: "-1.5", Datatype: XSDDecimal}},
		{"1e3", Literal{Label: "1e3", Datatype: XSDDouble}},
		{"true", NewBoolean(true)},
		{"a", RDFType},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTerm(tt.input, prefixes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTermErrors(t *testing.T) {
	inputs := []string{"", "<open", "_:", "nope:x", "plain", `"x"^^_:b`, `"x"junk`,
		`"open`, `"bad \q escape"`, `"x"@`, `"x"^^`, "12abc", "<a> <b>"}
	for _, input := range inputs {
		_, err := ParseTerm(input, nil)
		assert.Error(t, err, input)
	}
}

func TestLiteralAccessors(t *testing.T) {
	i, ok := NewInteger(7).Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(7), i)

	f, ok := Literal{Label: "INF", Datatype: XSDDouble}.Float64()
	assert.True(t, ok)
	assert.True(t, f > 1e308)

	b, ok := Literal{Label: "1", Datatype: XSDBoolean}.Bool()
	assert.True(t, ok)
	assert.True(t, b)

	assert.False(t, NewString("1").IsNumeric())
	assert.True(t, NewString("x").IsPlain())
	assert.False(t, NewLangString("x", "en").IsPlain())

	assert.Equal(t, "http://example.org/ns#", IRI("http://example.org/ns#name").Namespace())
	assert.Equal(t, "name", IRI("http://example.org/ns#name").LocalName())
	assert.Equal(t, "urn:", IRI("urn:x").Namespace())
}

func TestValueStrings(t *testing.T) {
	assert.Equal(t, "<http://x>", IRI("http://x").String())
	assert.Equal(t, "_:b", BNode("b").String())
	assert.Equal(t, `"a"`, NewString("a").String())
	assert.Equal(t, `"a"@en`, NewLangString("a", "en").String())
	assert.Equal(t, `"1"^^<http://www.w3.org/2001/XMLSchema#integer>`, NewInteger(1).String())
}
