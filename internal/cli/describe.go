package cli

import (
	"github.com/spf13/cobra"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "describe <term>",
		Short: "Describe a resource",
		Long: `Print the statements about a resource: those with it as subject, those
with it as object, and the statements around any blank nodes they reach.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := rootOpts.config.parseTerm(args[0])
			if err != nil {
				return err
			}
			expr := algebra.NewDescribe(algebra.NewBindingSetAssignment([]string{"target"},
				map[string]rdf.Value{"target": target}))
			names := []string{algebra.DescribeSubject, algebra.DescribePredicate, algebra.DescribeObject}
			return evaluateAndPrint(rootOpts, dbPath, expr, names, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "store directory (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}
