package chi

import (
	"context"

	domconv "github.com/kailas-cloud/nutrirag/internal/domain/conversation"
	domrag "github.com/kailas-cloud/nutrirag/internal/domain/rag"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/request"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/result"
	domusage "github.com/kailas-cloud/nutrirag/internal/domain/usage"
	convuc "github.com/kailas-cloud/nutrirag/internal/usecase/conversation"
	healthuc "github.com/kailas-cloud/nutrirag/internal/usecase/health"
	raguc "github.com/kailas-cloud/nutrirag/internal/usecase/rag"
	"github.com/kailas-cloud/nutrirag/internal/usecase/retrieval"
)

// Pipeline answers single questions.
type Pipeline interface {
	Process(ctx context.Context, req domrag.Request) domrag.Response
	Stats() raguc.Stats
}

// Searcher runs retrieval without generation.
type Searcher interface {
	Search(ctx context.Context, q string, cfg request.Config) ([]result.Result, error)
	Defaults() request.Config
	Stats() retrieval.Stats
}

// Sessions manages multi-turn conversations.
type Sessions interface {
	CreateSession(owner string, profile map[string]string) string
	Process(ctx context.Context, sessionID, input string) convuc.Reply
	SessionInfo(ctx context.Context, id string) (domconv.Info, error)
	History(ctx context.Context, id string, maxTurns int) ([]domconv.Turn, error)
	Analyze(ctx context.Context, id string) (convuc.Analysis, error)
	EndSession(ctx context.Context, id string) error
	GlobalStats() convuc.GlobalStats
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports token budget consumption.
type UsageReporter interface {
	Reports(ctx context.Context, period domusage.Period) []domusage.Report
}
