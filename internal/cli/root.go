// Package cli implements the sparqleval command line: loading YAML datasets
// into a Badger store and evaluating small algebra plans against it.
package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ansell/openrdf-sesame-sub015/rdf/annotations"
	"github.com/ansell/openrdf-sesame-sub015/rdf/evaluation"
	"github.com/ansell/openrdf-sesame-sub015/rdf/storage"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	ConfigPath string

	config   *Config
	registry *prometheus.Registry
}

// NewRootCommand creates the root command for the sparqleval CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sparqleval",
		Short: "Evaluate query algebra over an RDF store",
		Long: `sparqleval loads RDF statements from YAML datasets into a Badger quad
store and evaluates statement patterns, orderings and DESCRIBE against it.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := &Config{}
			if opts.ConfigPath != "" {
				loaded, err := LoadConfig(opts.ConfigPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if cfg.DebugLogging {
				log.SetLevel(log.DebugLevel)
			}
			opts.config = cfg
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.writeMetrics()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "print query annotations to stderr")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML evaluation config")

	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewMatchCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))

	return cmd
}

// strategy builds an evaluation strategy over store from the loaded config.
func (o *RootOptions) strategy(cmd *cobra.Command, store storage.Store) (*evaluation.Strategy, error) {
	cfg := o.config
	if cfg == nil {
		cfg = &Config{}
	}
	var handlers []annotations.Handler
	if o.Verbose {
		handlers = append(handlers, annotations.NewOutputFormatter(cmd.ErrOrStderr()).Handle)
	}
	if cfg.MetricsFile != "" {
		o.registry = prometheus.NewRegistry()
		handlers = append(handlers, annotations.NewPrometheusHandler(o.registry))
	}
	var handler annotations.Handler
	if len(handlers) > 0 {
		handler = annotations.MultiHandler(handlers...)
	}
	opts, err := cfg.Options(handler)
	if err != nil {
		return nil, err
	}
	return evaluation.NewStrategy(store, opts), nil
}

// writeMetrics writes the evaluation metrics of the command to the
// configured metrics file in the Prometheus text format.
func (o *RootOptions) writeMetrics() error {
	if o.registry == nil || o.config == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(o.config.MetricsFile, o.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	log.WithField("file", o.config.MetricsFile).Debug("metrics written")
	return nil
}

func openStore(dbPath string) (*storage.BadgerStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("--db is required")
	}
	return storage.NewBadgerStore(dbPath)
}
