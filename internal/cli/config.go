package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
	"github.com/ansell/openrdf-sesame-sub015/rdf/annotations"
	"github.com/ansell/openrdf-sesame-sub015/rdf/evaluation"
)

// Config is the YAML form of the evaluation options:
//
//	parallel_joins: true
//	workers: 8
//	close_grace_period: 500ms
//	order_sync_threshold: 10000
//	metrics_file: /var/lib/node_exporter/sparqleval.prom
//	prefixes:
//	  ex: http://example.org/
//	default_graphs: [ex:g1]
type Config struct {
	ParallelJoins      bool              `yaml:"parallel_joins"`
	Workers            int               `yaml:"workers"`
	QueueCapacity      int               `yaml:"queue_capacity"`
	CloseGracePeriod   time.Duration     `yaml:"close_grace_period"`
	OrderSyncThreshold int               `yaml:"order_sync_threshold"`
	SpillDir           string            `yaml:"spill_dir"`
	MaxCollectionSize  int64             `yaml:"max_collection_size"`
	DebugLogging       bool              `yaml:"debug_logging"`
	MetricsFile        string            `yaml:"metrics_file"`
	Prefixes           map[string]string `yaml:"prefixes"`
	DefaultGraphs      []string          `yaml:"default_graphs"`
	NamedGraphs        []string          `yaml:"named_graphs"`
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()
	return DecodeConfig(f)
}

// DecodeConfig parses a YAML config. Unknown keys are rejected.
func DecodeConfig(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Options maps the config onto evaluation options. A non-nil handler
// receives annotation events.
func (c *Config) Options(handler annotations.Handler) (evaluation.Options, error) {
	opts := evaluation.Options{
		EnableParallelJoins: c.ParallelJoins,
		QueueCapacity:       c.QueueCapacity,
		CloseGracePeriod:    c.CloseGracePeriod,
		OrderSyncThreshold:  c.OrderSyncThreshold,
		SpillDir:            c.SpillDir,
		MaxCollectionSize:   c.MaxCollectionSize,
		EnableDebugLogging:  c.DebugLogging,
		Context:             evaluation.NewContext(handler),
	}
	if c.ParallelJoins {
		if c.Workers > 0 {
			opts.Executor = evaluation.NewWorkerPool(c.Workers)
		} else {
			opts.Executor = evaluation.GoExecutor{}
		}
	}

	if len(c.DefaultGraphs) > 0 || len(c.NamedGraphs) > 0 {
		defaults, err := c.graphs(c.DefaultGraphs)
		if err != nil {
			return opts, fmt.Errorf("default_graphs: %w", err)
		}
		named, err := c.graphs(c.NamedGraphs)
		if err != nil {
			return opts, fmt.Errorf("named_graphs: %w", err)
		}
		opts.Dataset = &evaluation.Dataset{DefaultGraphs: defaults, NamedGraphs: named}
	}
	return opts, nil
}

func (c *Config) graphs(terms []string) ([]rdf.IRI, error) {
	out := make([]rdf.IRI, 0, len(terms))
	for _, t := range terms {
		v, err := c.parseTerm(t)
		if err != nil {
			return nil, err
		}
		iri, ok := v.(rdf.IRI)
		if !ok {
			return nil, fmt.Errorf("graph %s is not an IRI", v)
		}
		out = append(out, iri)
	}
	return out, nil
}

func (c *Config) parseTerm(s string) (rdf.Value, error) {
	if c == nil {
		return rdf.ParseTerm(s, nil)
	}
	return rdf.ParseTerm(s, c.Prefixes)
}
