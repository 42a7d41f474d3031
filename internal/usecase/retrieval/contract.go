package retrieval

import (
	"context"

	"github.com/kailas-cloud/nutrirag/internal/domain/document"
	"github.com/kailas-cloud/nutrirag/internal/domain/query"
)

// Index answers nearest-neighbor queries over the knowledge base.
type Index interface {
	Search(ctx context.Context, text string, k int) ([]document.Hit, error)
	Len() int
}

// Analyzer derives query features.
type Analyzer interface {
	Analyze(q string) query.Analysis
}
