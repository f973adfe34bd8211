package evaluation

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
)

// TableFormatter provides utilities for formatting solutions as tables
type TableFormatter struct {
	// MaxWidth is the maximum width for a column
	MaxWidth int
	// TruncateString is the string to append when truncating
	TruncateString string
}

// NewTableFormatter creates a new table formatter with default settings
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		MaxWidth:       50,
		TruncateString: "...",
	}
}

// FormatIterator drains and closes it, then formats the solutions. With no
// names the columns are every name bound in any solution.
func (tf *TableFormatter) FormatIterator(names []string, it Iterator) (string, error) {
	solutions, err := Collect(it)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		for _, sol := range solutions {
			for _, b := range sol.Bindings() {
				if !containsName(names, b.Name) {
					names = append(names, b.Name)
				}
			}
		}
	}
	return tf.FormatSolutions(names, solutions), nil
}

// FormatSolutions formats solutions as a markdown table with one column
// per name. Unbound cells are left empty.
func (tf *TableFormatter) FormatSolutions(names []string, solutions []Solution) string {
	if len(solutions) == 0 {
		return "_Empty relation_"
	}
	if len(names) == 0 {
		return fmt.Sprintf("_No columns_\n\n_%d rows_\n", len(solutions))
	}

	tableString := &strings.Builder{}

	// Create alignment array with all columns using AlignNone for simple separators
	alignment := make([]tw.Align, len(names))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)

	headers := make([]string, len(names))
	for i, name := range names {
		headers[i] = "?" + name
	}
	table.Header(headers)

	for _, sol := range solutions {
		row := make([]string, len(names))
		for j, name := range names {
			row[j] = tf.formatValue(sol.Get(name))
		}
		table.Append(row)
	}

	table.Render()

	tableString.WriteString(fmt.Sprintf("\n_%d rows_\n", len(solutions)))

	return tableString.String()
}

// formatValue renders a value in N-Triples style, truncated to MaxWidth
// display cells. Truncation never splits a rune.
func (tf *TableFormatter) formatValue(v rdf.Value) string {
	if v == nil {
		return ""
	}
	s := v.String()
	if tf.MaxWidth > 0 {
		s = runewidth.Truncate(s, tf.MaxWidth, tf.TruncateString)
	}
	return s
}

// SolutionsString returns solutions formatted with the default formatter.
func SolutionsString(names []string, solutions []Solution) string {
	return NewTableFormatter().FormatSolutions(names, solutions)
}
