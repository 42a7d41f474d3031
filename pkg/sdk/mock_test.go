package nutrirag

import (
	"context"

	domconv "github.com/kailas-cloud/nutrirag/internal/domain/conversation"
	domrag "github.com/kailas-cloud/nutrirag/internal/domain/rag"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/request"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/result"
	convuc "github.com/kailas-cloud/nutrirag/internal/usecase/conversation"
	raguc "github.com/kailas-cloud/nutrirag/internal/usecase/rag"
)

// --- public interface mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockCompleter struct {
	fn   func(ctx context.Context, req CompletionRequest) (Completion, error)
	last CompletionRequest
}

func (m *mockCompleter) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	m.last = req
	return m.fn(ctx, req)
}

// --- internal use case mocks ---

type mockPipeline struct {
	processFn func(ctx context.Context, req domrag.Request) domrag.Response
	stats     raguc.Stats
}

func (m *mockPipeline) Process(ctx context.Context, req domrag.Request) domrag.Response {
	return m.processFn(ctx, req)
}

func (m *mockPipeline) Stats() raguc.Stats { return m.stats }

type mockSearch struct {
	searchFn func(ctx context.Context, q string, cfg request.Config) ([]result.Result, error)
}

func (m *mockSearch) Search(ctx context.Context, q string, cfg request.Config) ([]result.Result, error) {
	return m.searchFn(ctx, q, cfg)
}

func (m *mockSearch) Defaults() request.Config { return request.Default() }

type mockSessions struct {
	reply    convuc.Reply
	info     domconv.Info
	turns    []domconv.Turn
	analysis convuc.Analysis
	err      error

	lastOwner   string
	lastProfile map[string]string
	lastMax     int
}

func (m *mockSessions) CreateSession(owner string, profile map[string]string) string {
	m.lastOwner, m.lastProfile = owner, profile
	return "sess-1"
}

func (m *mockSessions) Process(_ context.Context, id, _ string) convuc.Reply {
	r := m.reply
	r.SessionID = id
	return r
}

func (m *mockSessions) SessionInfo(context.Context, string) (domconv.Info, error) {
	return m.info, m.err
}

func (m *mockSessions) History(_ context.Context, _ string, maxTurns int) ([]domconv.Turn, error) {
	m.lastMax = maxTurns
	return m.turns, m.err
}

func (m *mockSessions) Analyze(context.Context, string) (convuc.Analysis, error) {
	return m.analysis, m.err
}

func (m *mockSessions) EndSession(context.Context, string) error { return m.err }
