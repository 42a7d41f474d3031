package generation

import (
	"context"

	"github.com/kailas-cloud/nutrirag/internal/domain"
)

// Backend produces an answer for a rendered prompt.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req Request) (Answer, error)
}

// ChatClient is the remote completion provider.
type ChatClient interface {
	Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error)
}

// Budget gates and records billed completion tokens.
type Budget interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}
