package digest

import "context"

// Collector gathers the raw feedback for a subject. Implementations are read-only and must not
// return the same item twice.
type Collector interface {
	Collect(ctx context.Context, subjectID string) ([]SourceItem, error)
}

// Embedder produces fixed-dimension vectors. Identical input must yield identical output within
// a process, and EmbedBatch must return one vector per input, in input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// SentimentClassifier labels texts. ClassifyBatch must return one label per input, in input order.
type SentimentClassifier interface {
	ClassifyBatch(ctx context.Context, texts []string) ([]Label, error)
}

// CompletionRequest is one call to the generative collaborator.
type CompletionRequest struct {
	// Name identifies the request shape (used as the schema name when Schema is set).
	Name string

	Instructions string
	Prompt       string

	// Schema, when non-nil, asks the collaborator for JSON matching it.
	Schema map[string]any
}

// Completer is the generative-text collaborator. It is expected, but not guaranteed, to honour
// the requested schema; callers validate the output themselves.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
