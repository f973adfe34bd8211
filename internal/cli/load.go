package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ansell/openrdf-sesame-sub015/rdf/storage"
)

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "load <dataset.yaml>...",
		Short: "Load YAML datasets into a store",
		Long: `Load statements from one or more YAML datasets into a Badger store,
creating the store if it does not exist.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(dbPath, args, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "store directory (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runLoad(dbPath string, files []string, cmd *cobra.Command) error {
	store, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	total := 0
	for _, file := range files {
		n, err := storage.LoadFile(store, file)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
		total += n
	}

	size, err := store.Size()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d statements from %d file(s); store holds %d\n", total, len(files), size)
	return nil
}
