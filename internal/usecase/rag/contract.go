package rag

import (
	"context"

	domprompt "github.com/kailas-cloud/nutrirag/internal/domain/prompt"
	domquality "github.com/kailas-cloud/nutrirag/internal/domain/quality"
	"github.com/kailas-cloud/nutrirag/internal/domain/query"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/request"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/result"
	"github.com/kailas-cloud/nutrirag/internal/usecase/generation"
	"github.com/kailas-cloud/nutrirag/internal/usecase/quality"
)

// Analyzer derives intent and keywords from a query.
type Analyzer interface {
	Analyze(q string) query.Analysis
}

// Retriever fetches knowledge for an analyzed query.
type Retriever interface {
	SearchAnalyzed(ctx context.Context, a query.Analysis, cfg request.Config) ([]result.Result, error)
}

// Assembler renders and measures prompts.
type Assembler interface {
	Build(pc domprompt.Context) domprompt.Built
	CountTokens(text string) int
}

// Generator answers a rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt, query string) (generation.Result, error)
}

// Scorer assesses an answer.
type Scorer interface {
	Assess(in quality.Input) domquality.Assessment
}
