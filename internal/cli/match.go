package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
	"github.com/ansell/openrdf-sesame-sub015/rdf/evaluation"
)

// MatchOptions holds the flags of the match command.
type MatchOptions struct {
	DBPath    string
	Subject   string
	Predicate string
	Object    string
	Order     string
	Desc      bool
	Limit     int64
	Distinct  bool
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match one statement pattern",
		Long: `Evaluate a single statement pattern and print the solutions as a table.

Positions left unset are the variables ?s, ?p and ?o. Terms use the
Turtle-like syntax of the dataset files; prefixes come from --config.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "store directory (required)")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "subject term")
	cmd.Flags().StringVar(&opts.Predicate, "predicate", "", "predicate term")
	cmd.Flags().StringVar(&opts.Object, "object", "", "object term")
	cmd.Flags().StringVar(&opts.Order, "order", "", "variable to order by (s, p or o)")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "order descending")
	cmd.Flags().Int64Var(&opts.Limit, "limit", -1, "maximum number of solutions")
	cmd.Flags().BoolVar(&opts.Distinct, "distinct", false, "drop duplicate solutions")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// plan builds the tuple expression for the flags and returns the names of
// its output columns.
func (o *MatchOptions) plan(cfg *Config) (algebra.TupleExpr, []string, error) {
	positions := []struct {
		name, flag, term string
	}{
		{"s", "subject", o.Subject},
		{"p", "predicate", o.Predicate},
		{"o", "object", o.Object},
	}

	var vars [3]*algebra.Var
	var names []string
	for i, pos := range positions {
		if pos.term == "" {
			vars[i] = algebra.NewVar(pos.name)
			names = append(names, pos.name)
			continue
		}
		v, err := cfg.parseTerm(pos.term)
		if err != nil {
			return nil, nil, fmt.Errorf("--%s: %w", pos.flag, err)
		}
		vars[i] = algebra.NewConstantVar(v)
	}

	var expr algebra.TupleExpr = algebra.NewStatementPattern(vars[0], vars[1], vars[2])
	if o.Order != "" {
		if !contains(names, o.Order) {
			return nil, nil, fmt.Errorf("--order %q is not a variable of the pattern %v", o.Order, names)
		}
		expr = algebra.NewOrder(expr, algebra.OrderElem{Expr: algebra.NewVar(o.Order), Ascending: !o.Desc})
	}
	if o.Distinct {
		expr = algebra.NewDistinct(expr)
	}
	if o.Limit >= 0 {
		expr = algebra.NewSlice(expr, 0, o.Limit)
	}
	return expr, names, nil
}

func runMatch(rootOpts *RootOptions, opts *MatchOptions, cmd *cobra.Command) error {
	expr, names, err := opts.plan(rootOpts.config)
	if err != nil {
		return err
	}
	return evaluateAndPrint(rootOpts, opts.DBPath, expr, names, cmd)
}

func evaluateAndPrint(rootOpts *RootOptions, dbPath string, expr algebra.TupleExpr, names []string, cmd *cobra.Command) error {
	store, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	strategy, err := rootOpts.strategy(cmd, store)
	if err != nil {
		return err
	}
	it, err := strategy.Query(expr, evaluation.Solution{})
	if err != nil {
		return err
	}
	out, err := evaluation.NewTableFormatter().FormatIterator(names, it)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
