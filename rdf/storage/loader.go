package storage

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
)

// Dataset is the YAML form of a set of graphs:
//
//	prefixes:
//	  ex: http://example.org/
//	graphs:
//	  - statements:
//	      - [ex:a, ex:p, ex:b]
//	  - name: ex:g1
//	    statements:
//	      - [ex:a, ex:p, '"hello"@en']
//
// A graph without a name is the default graph.
type Dataset struct {
	Prefixes map[string]string `yaml:"prefixes"`
	Graphs   []Graph           `yaml:"graphs"`
}

type Graph struct {
	Name       string     `yaml:"name"`
	Statements [][]string `yaml:"statements"`
}

// DecodeDataset parses a YAML dataset.
func DecodeDataset(r io.Reader) (*Dataset, error) {
	var ds Dataset
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	return &ds, nil
}

// Statements resolves every term of the dataset.
func (ds *Dataset) Statements() ([]rdf.Statement, error) {
	var out []rdf.Statement
	for gi, g := range ds.Graphs {
		var ctx rdf.Value
		if g.Name != "" {
			v, err := rdf.ParseTerm(g.Name, ds.Prefixes)
			if err != nil {
				return nil, fmt.Errorf("graph %d: %w", gi, err)
			}
			ctx = v
		}
		for si, terms := range g.Statements {
			if len(terms) != 3 {
				return nil, fmt.Errorf("graph %d statement %d: expected 3 terms, got %d", gi, si, len(terms))
			}
			var c [3]rdf.Value
			for i, t := range terms {
				v, err := rdf.ParseTerm(t, ds.Prefixes)
				if err != nil {
					return nil, fmt.Errorf("graph %d statement %d: %w", gi, si, err)
				}
				c[i] = v
			}
			out = append(out, rdf.NewQuad(c[0], c[1], c[2], ctx))
		}
	}
	return out, nil
}

// LoadFile reads a YAML dataset file into store and returns the number of
// statements added.
func LoadFile(store Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return Load(store, f)
}

// Load reads a YAML dataset into store.
func Load(store Store, r io.Reader) (int, error) {
	ds, err := DecodeDataset(r)
	if err != nil {
		return 0, err
	}
	statements, err := ds.Statements()
	if err != nil {
		return 0, err
	}
	if err := store.Add(statements...); err != nil {
		return 0, err
	}
	return len(statements), nil
}
