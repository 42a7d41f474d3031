package conversation

import (
	"context"

	"github.com/kailas-cloud/nutrirag/internal/domain/conversation"
	domrag "github.com/kailas-cloud/nutrirag/internal/domain/rag"
	"github.com/kailas-cloud/nutrirag/internal/repository/archive"
)

// Pipeline answers one consultation.
type Pipeline interface {
	Process(ctx context.Context, req domrag.Request) domrag.Response
}

// Archive persists closed sessions.
type Archive interface {
	Save(ctx context.Context, s *conversation.Session) error
	Get(ctx context.Context, id string) (archive.Archived, error)
}
