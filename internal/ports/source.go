package ports

import "context"

// NeuronSummary is the aggregate a page is generated from.
type NeuronSummary struct {
	Type         string
	TotalCount   int64
	PreSynapses  int64
	PostSynapses int64
	SomaSides    []string
}

// NeuronSource is the slow external data source workers consult on cache miss.
type NeuronSource interface {
	Datasets(ctx context.Context) ([]string, error)
	NeuronTypes(ctx context.Context) ([]string, error)
	NeuronSummary(ctx context.Context, neuronType string) (NeuronSummary, error)
	ROIHierarchy(ctx context.Context) ([]byte, error)
}
