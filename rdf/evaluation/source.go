package evaluation

import (
	"fmt"

	"github.com/ansell/openrdf-sesame-sub015/rdf"
	"github.com/ansell/openrdf-sesame-sub015/rdf/algebra"
)

// TripleSource supplies statements to the evaluator. A nil subj, pred or
// obj is a wildcard. With no contexts every graph is searched; a nil entry
// in contexts selects the default graph.
type TripleSource interface {
	GetStatements(subj, pred, obj rdf.Value, contexts ...rdf.Value) (rdf.StatementIterator, error)
}

// Dataset restricts the graphs statement patterns range over.
type Dataset struct {
	DefaultGraphs []rdf.IRI
	NamedGraphs   []rdf.IRI
}

// ServiceResolver finds the endpoint for a SERVICE reference.
type ServiceResolver interface {
	Service(iri rdf.IRI) (FederatedService, error)
}

// FederatedService evaluates a sub-plan remotely. Returned solutions are
// merged with the bindings they were evaluated against.
type FederatedService interface {
	Evaluate(expr algebra.TupleExpr, bindings Solution) (Iterator, error)
}

// ServiceMap is a ServiceResolver backed by a fixed map.
type ServiceMap map[rdf.IRI]FederatedService

func (m ServiceMap) Service(iri rdf.IRI) (FederatedService, error) {
	if svc, ok := m[iri]; ok {
		return svc, nil
	}
	return nil, fmt.Errorf("unknown service %s", iri)
}
