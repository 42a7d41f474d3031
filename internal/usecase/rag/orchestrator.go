// Package rag runs one consultation through retrieval, prompt assembly,
// generation and scoring, and keeps running aggregates across calls.
package rag

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrirag/internal/domain"
	"github.com/kailas-cloud/nutrirag/internal/domain/conversation"
	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
	domprompt "github.com/kailas-cloud/nutrirag/internal/domain/prompt"
	domquality "github.com/kailas-cloud/nutrirag/internal/domain/quality"
	domrag "github.com/kailas-cloud/nutrirag/internal/domain/rag"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/request"
	"github.com/kailas-cloud/nutrirag/internal/metrics"
	"github.com/kailas-cloud/nutrirag/internal/usecase/prompt"
	"github.com/kailas-cloud/nutrirag/internal/usecase/quality"
)

// Apology is the answer of a failed call.
const Apology = "抱歉，处理您的问题时遇到了错误，请稍后重试或重新表述问题。"

// successConfidence is the confidence above which a call counts as successful.
const successConfidence = 0.5

// Config holds per-call pipeline settings.
type Config struct {
	// Retrieval is passed to the retriever. The zero value selects the
	// retriever defaults.
	Retrieval    request.Config
	UseFewShot   bool
	QualityCheck bool
}

// Stats are running aggregates over all calls.
type Stats struct {
	TotalQueries          int64   `json:"total_queries"`
	SuccessfulResponses   int64   `json:"successful_responses"`
	FailedResponses       int64   `json:"failed_responses"`
	AverageProcessingTime float64 `json:"average_processing_time"`
	AverageQualityScore   float64 `json:"average_quality_score"`
}

// Orchestrator is the pipeline. Safe for concurrent use; each call keeps
// its own state and only Stats is shared.
type Orchestrator struct {
	analyzer  Analyzer
	retriever Retriever
	assembler Assembler
	generator Generator
	scorer    Scorer
	cfg       Config
	logger    *zap.Logger

	mu     sync.Mutex
	stats  Stats
	scored int64
}

// New creates an orchestrator.
func New(
	analyzer Analyzer,
	retriever Retriever,
	assembler Assembler,
	generator Generator,
	scorer Scorer,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		analyzer:  analyzer,
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		scorer:    scorer,
		cfg:       cfg,
		logger:    logger,
	}
}

// Process answers req. It never returns an error: retrieval failures
// degrade to an empty knowledge set and anything unexpected yields a
// Failed response carrying the apology answer.
func (o *Orchestrator) Process(ctx context.Context, req domrag.Request) (resp domrag.Response) {
	c := newCall()
	defer func() {
		if r := recover(); r != nil {
			resp = o.fail(req, c, fmt.Errorf("panic: %v", r))
		}
		o.record(&resp)
	}()

	analysis := o.analyzer.Analyze(req.Query)

	c.enter(domrag.Retrieving)
	sources, err := o.retriever.SearchAnalyzed(ctx, analysis, o.cfg.Retrieval)
	if err != nil {
		o.logger.Warn("Retrieval failed, answering without knowledge",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		sources = nil
	}

	c.enter(domrag.PromptBuilding)
	built := o.assembler.Build(domprompt.Context{
		Query:      req.Query,
		Intent:     analysis.Primary,
		Knowledge:  sources,
		Profile:    promptProfile(req),
		History:    req.History,
		UseFewShot: o.cfg.UseFewShot,
	})
	validation := prompt.Validate(built.Text)
	tokens := o.assembler.CountTokens(built.Text)
	metrics.PromptTokens.Observe(float64(tokens))

	c.enter(domrag.Generating)
	gen, err := o.generator.Generate(ctx, built.Text, req.Query)
	if err != nil {
		return o.fail(req, c, err)
	}

	c.enter(domrag.Scoring)
	var (
		assessment *domquality.Assessment
		score      float64
	)
	if o.cfg.QualityCheck {
		a := o.scorer.Assess(quality.Input{
			Query:      req.Query,
			Answer:     gen.Text,
			Sources:    len(sources),
			Confidence: gen.Confidence,
		})
		assessment = &a
		score = a.Overall
		metrics.RAGQualityScore.Observe(score)
	}

	c.enter(domrag.Done)
	return domrag.NewResponse(domrag.Params{
		Query:      req.Query,
		Answer:     gen.Text,
		Sources:    sources,
		Confidence: gen.Confidence,
		Quality:    score,
		Duration:   c.elapsed(),
		Intent:     analysis.Primary.Intent,
		Prompt:     built.Text,
		Metadata: domrag.Metadata{
			State:            domrag.Done,
			Backend:          gen.Backend,
			FallbackReason:   gen.FallbackReason,
			PromptValidation: &validation,
			PromptTokens:     tokens,
			Template:         built.Template,
			Complexity:       analysis.Complexity,
			Assessment:       assessment,
		},
	})
}

func (o *Orchestrator) fail(req domrag.Request, c *call, err error) domrag.Response {
	stage := c.state
	c.enter(domrag.Failed)
	o.logger.Error("RAG pipeline failed",
		zap.String("session_id", req.SessionID),
		zap.String("stage", string(stage)),
		zap.Error(err),
	)
	msg := err.Error()
	if errors.Is(err, domain.ErrGenerationFailed) {
		msg = domain.ErrGenerationFailed.Error()
	}
	return domrag.NewResponse(domrag.Params{
		Query:    req.Query,
		Answer:   Apology,
		Duration: c.elapsed(),
		Intent:   intent.General,
		Metadata: domrag.Metadata{
			State: domrag.Failed,
			Error: fmt.Sprintf("%s: %s", stage, msg),
		},
	})
}

func (o *Orchestrator) record(resp *domrag.Response) {
	metrics.RAGRequestsTotal.WithLabelValues(string(resp.State())).Inc()

	o.mu.Lock()
	defer o.mu.Unlock()

	o.stats.TotalQueries++
	n := float64(o.stats.TotalQueries)
	o.stats.AverageProcessingTime += (resp.Duration().Seconds() - o.stats.AverageProcessingTime) / n

	if resp.State() == domrag.Failed {
		o.stats.FailedResponses++
		return
	}
	if resp.Confidence() > successConfidence {
		o.stats.SuccessfulResponses++
	}
	if resp.Quality() > 0 {
		o.scored++
		o.stats.AverageQualityScore += (resp.Quality() - o.stats.AverageQualityScore) / float64(o.scored)
	}
}

// Stats returns a snapshot of the running aggregates.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// promptProfile merges the user profile with metadata carried from the
// previous turn.
func promptProfile(req domrag.Request) map[string]string {
	profile := maps.Clone(req.Profile)
	for _, k := range []string{conversation.CarriedLastIntent, conversation.CarriedLastTopics} {
		if v := req.Carried[k]; v != "" {
			if profile == nil {
				profile = make(map[string]string)
			}
			profile[k] = v
		}
	}
	return profile
}

// call tracks the state of one pipeline run and times each stage.
type call struct {
	state   domrag.State
	started time.Time
	entered time.Time
}

func newCall() *call {
	now := time.Now()
	return &call{state: domrag.Idle, started: now, entered: now}
}

func (c *call) enter(next domrag.State) {
	now := time.Now()
	if c.state != domrag.Idle {
		metrics.RAGStageDuration.WithLabelValues(string(c.state)).Observe(now.Sub(c.entered).Seconds())
	}
	c.state = next
	c.entered = now
}

func (c *call) elapsed() time.Duration { return time.Since(c.started) }
