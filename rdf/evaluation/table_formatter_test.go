package evaluation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
)

func TestFormatSolutions(t *testing.T) {
	out := SolutionsString([]string{"s", "o"}, []Solution{
		sol("s", exA, "o", exB),
		sol("s", exX),
	})

	assert.Contains(t, out, "?s")
	assert.Contains(t, out, "?o")
	assert.Contains(t, out, exB.String())
	assert.Contains(t, out, "_2 rows_")

	assert.Equal(t, "_Empty relation_", SolutionsString([]string{"s"}, nil))
	assert.Contains(t, SolutionsString(nil, []Solution{{}}), "_No columns_")
}

func TestFormatValueTruncates(t *testing.T) {
	tf := NewTableFormatter()
	tf.MaxWidth = 10

	assert.Equal(t, "", tf.formatValue(nil))
	assert.Equal(t, `"short"`, tf.formatValue(rdf.NewString("short")))

	long := tf.formatValue(rdf.IRI(ex + "a-very-long-local-name"))
	assert.Len(t, long, 10)
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestFormatValueTruncatesOnRuneBoundaries(t *testing.T) {
	tf := NewTableFormatter()
	tf.MaxWidth = 10

	for _, label := range []string{"ééééééééééééééé", "日本語の長いラベルです"} {
		got := tf.formatValue(rdf.NewString(label))
		assert.True(t, utf8.ValidString(got), got)
		assert.True(t, strings.HasSuffix(got, "..."), got)
		assert.LessOrEqual(t, runewidth.StringWidth(got), 10, got)
		assert.True(t, strings.HasPrefix(got, `"`+string([]rune(label)[:1])), got)
	}
}

func TestFormatIteratorCollectsNames(t *testing.T) {
	tf := NewTableFormatter()
	out, err := tf.FormatIterator(nil, NewSliceIterator(sol("a", exA), sol("b", exB)))
	require.NoError(t, err)
	assert.Contains(t, out, "?a")
	assert.Contains(t, out, "?b")
	assert.Contains(t, out, "_2 rows_")
}
