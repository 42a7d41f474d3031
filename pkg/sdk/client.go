package nutrirag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrirag/internal/db"
	dbRedis "github.com/kailas-cloud/nutrirag/internal/db/redis"
	"github.com/kailas-cloud/nutrirag/internal/domain"
	domconv "github.com/kailas-cloud/nutrirag/internal/domain/conversation"
	"github.com/kailas-cloud/nutrirag/internal/domain/document"
	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
	domrag "github.com/kailas-cloud/nutrirag/internal/domain/rag"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/request"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/result"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/strategy"
	"github.com/kailas-cloud/nutrirag/internal/hashembed"
	"github.com/kailas-cloud/nutrirag/internal/repository/archive"
	"github.com/kailas-cloud/nutrirag/internal/repository/knowledge"
	"github.com/kailas-cloud/nutrirag/internal/textnorm"
	"github.com/kailas-cloud/nutrirag/internal/tokencount"
	convuc "github.com/kailas-cloud/nutrirag/internal/usecase/conversation"
	"github.com/kailas-cloud/nutrirag/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/nutrirag/internal/usecase/health"
	promptuc "github.com/kailas-cloud/nutrirag/internal/usecase/prompt"
	qualityuc "github.com/kailas-cloud/nutrirag/internal/usecase/quality"
	queryuc "github.com/kailas-cloud/nutrirag/internal/usecase/query"
	raguc "github.com/kailas-cloud/nutrirag/internal/usecase/rag"
	"github.com/kailas-cloud/nutrirag/internal/usecase/retrieval"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultSweepInterval    = time.Minute
	archiveTTL              = 7 * 24 * time.Hour
	remoteName              = "custom"
)

// Retrieval defaults. The hashing embedder scores paraphrases lower than a
// neural model, so the threshold sits below request.DefaultThreshold.
const (
	DefaultStrategy  = string(strategy.Hybrid)
	DefaultTopK      = request.DefaultTopK
	DefaultThreshold = 0.2
)

// Internal interfaces, swapped in tests.
type pipelineUseCase interface {
	Process(ctx context.Context, req domrag.Request) domrag.Response
	Stats() raguc.Stats
}

type searchUseCase interface {
	Search(ctx context.Context, q string, cfg request.Config) ([]result.Result, error)
	Defaults() request.Config
}

type sessionUseCase interface {
	CreateSession(owner string, profile map[string]string) string
	Process(ctx context.Context, sessionID, input string) convuc.Reply
	SessionInfo(ctx context.Context, id string) (domconv.Info, error)
	History(ctx context.Context, id string, maxTurns int) ([]domconv.Turn, error)
	Analyze(ctx context.Context, id string) (convuc.Analysis, error)
	EndSession(ctx context.Context, id string) error
}

// Client is the nutrirag SDK entry point. Safe for concurrent use.
type Client struct {
	store     db.Store
	pipeline  pipelineUseCase
	searchSvc searchUseCase
	sessions  sessionUseCase
	healthSvc healthUseCase
	obs       *observer
	stop      context.CancelFunc
}

// New builds the assistant in process. The index is filled from the
// persisted directory or seed file first and WithDocuments second, then
// sealed. ctx bounds the Redis readiness check and document embedding.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		dimensions:    hashembed.DefaultDimensions,
		sweepInterval: defaultSweepInterval,
		strategy:      DefaultStrategy,
		topK:          DefaultTopK,
		threshold:     DefaultThreshold,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	retrievalCfg, err := request.New(strategy.Strategy(cfg.strategy), cfg.topK, cfg.threshold, 0, true)
	if err != nil {
		return nil, fmt.Errorf("nutrirag: retrieval: %w: %w", ErrInvalidInput, err)
	}

	style, err := generation.ParseStyle(cfg.style)
	if err != nil {
		return nil, fmt.Errorf("nutrirag: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store db.Store
	if len(cfg.redisAddrs) > 0 {
		if store, err = createStore(ctx, cfg); err != nil {
			return nil, err
		}
	}

	c, err := wireClient(ctx, store, cfg, retrievalCfg, style, obs)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return c, nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.redisAddrs,
		Password: cfg.redisPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("nutrirag: create redis store: %w", err)
	}
	if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("nutrirag: redis not ready: %w", err)
	}
	return s, nil
}

func wireClient(
	ctx context.Context, store db.Store, cfg *clientConfig, retrievalCfg request.Config,
	style generation.Style, obs *observer,
) (*Client, error) {
	logger := zap.NewNop()
	norm := textnorm.New()

	var emb domain.Embedder = hashembed.New(cfg.dimensions, norm)
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder, model: cfg.embedModel}
	}

	index := knowledge.New(emb, cfg.embedModel, norm, logger)
	if _, err := index.LoadOrBuild(ctx, cfg.indexDir, cfg.seedFile); err != nil {
		return nil, fmt.Errorf("nutrirag: prepare index: %w", err)
	}
	if len(cfg.documents) > 0 {
		docs, err := toDocuments(cfg.documents)
		if err != nil {
			return nil, err
		}
		if _, err := index.AddDocuments(ctx, docs); err != nil {
			return nil, fmt.Errorf("nutrirag: index documents: %w", err)
		}
	}
	index.Seal()

	analyzer := queryuc.NewAnalyzer(norm, intent.DefaultTable())
	retriever := retrieval.New(index, analyzer, retrievalCfg, logger)

	library, err := promptuc.DefaultLibrary()
	if err != nil {
		return nil, fmt.Errorf("nutrirag: prompt library: %w", err)
	}
	var counter promptuc.Counter = tokencount.Estimate{}
	if tc, err := tokencount.New(tokencount.DefaultEncoding); err == nil {
		counter = tc
	}

	var primary generation.Backend
	if cfg.completer != nil {
		primary = generation.NewRemote(&completerAdapter{inner: cfg.completer}, remoteName,
			cfg.completerModel, generation.DefaultMaxTokens, generation.DefaultTemperature)
	}

	pipeline := raguc.New(
		analyzer,
		retriever,
		promptuc.NewAssembler(library, counter, logger),
		generation.NewService(primary, generation.NewSimulated(), nil, generation.Config{Style: style}, logger),
		qualityuc.NewScorer(logger, qualityuc.WithTokenizer(norm)),
		raguc.Config{UseFewShot: cfg.fewShot, QualityCheck: true},
		logger,
	)

	convCfg := convuc.DefaultConfig()
	if cfg.idleTimeout > 0 {
		convCfg.IdleTimeout = cfg.idleTimeout
	}
	var convOpts []convuc.Option
	var pinger healthuc.DBPinger
	if store != nil {
		convOpts = append(convOpts, convuc.WithArchive(archive.New(store, archiveTTL)))
		pinger = store
	}
	sessions := convuc.NewManager(pipeline, convCfg, logger, convOpts...)

	runCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	go sessions.Run(runCtx, cfg.sweepInterval)

	return &Client{
		store:     store,
		pipeline:  pipeline,
		searchSvc: retriever,
		sessions:  sessions,
		healthSvc: healthuc.New(index, pinger, nil),
		obs:       obs,
		stop:      stop,
	}, nil
}

func toDocuments(in []Document) ([]document.Document, error) {
	docs := make([]document.Document, 0, len(in))
	for i := range in {
		d := &in[i]
		doc, err := document.New(d.ID, d.Title, d.Content, d.Category, d.Source, d.Keywords)
		if err != nil {
			return nil, fmt.Errorf("nutrirag: document %d: %w: %w", i, ErrInvalidInput, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Close stops the session janitor and releases the Redis connection.
func (c *Client) Close() {
	if c.stop != nil {
		c.stop()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ask answers a single question without session context. A failed
// pipeline returns the apology answer together with ErrAnswerFailed.
func (c *Client) Ask(ctx context.Context, query string) (ans Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opAsk, start, err) }()

	query = strings.TrimSpace(query)
	if query == "" {
		return Answer{}, fmt.Errorf("nutrirag: empty query: %w", ErrInvalidInput)
	}
	resp := c.pipeline.Process(ctx, domrag.Request{Query: query})
	ans = answerFromResponse(&resp)
	if resp.State() == domrag.Failed {
		return ans, fmt.Errorf("%w: %s", ErrAnswerFailed, resp.Metadata().Error)
	}
	return ans, nil
}

// Search retrieves up to topK knowledge snippets without generating an
// answer. topK <= 0 uses the default of 5.
func (c *Client) Search(ctx context.Context, query string, topK int) (sources []Source, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opSearch, start, err, "results", len(sources)) }()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("nutrirag: empty query: %w", ErrInvalidInput)
	}
	d := c.searchSvc.Defaults()
	cfg, err := request.New(d.Strategy(), topK, d.Threshold(), d.MaxContentLength(), d.Rerank())
	if err != nil {
		return nil, fmt.Errorf("nutrirag: %w: %w", ErrInvalidInput, err)
	}
	rs, err := c.searchSvc.Search(ctx, query, cfg)
	if err != nil {
		return nil, fmt.Errorf("nutrirag: search: %w", err)
	}
	return sourcesFromResults(rs), nil
}

// Sessions returns the multi-turn conversation service.
func (c *Client) Sessions() *SessionService {
	return &SessionService{svc: c.sessions, obs: c.obs}
}

// Stats returns running pipeline aggregates over Ask and session turns.
func (c *Client) Stats() Stats {
	s := c.pipeline.Stats()
	return Stats{
		Queries:             s.TotalQueries,
		Successful:          s.SuccessfulResponses,
		Failed:              s.FailedResponses,
		AverageQuality:      s.AverageQualityScore,
		AverageResponseTime: time.Duration(s.AverageProcessingTime * float64(time.Second)),
	}
}

func answerFromResponse(resp *domrag.Response) Answer {
	return Answer{
		Query:      resp.Query(),
		Text:       resp.Answer(),
		Intent:     string(resp.Intent()),
		Confidence: resp.Confidence(),
		Quality:    resp.Quality(),
		Duration:   resp.Duration(),
		Backend:    resp.Metadata().Backend,
		Sources:    sourcesFromResults(resp.Sources()),
	}
}

func sourcesFromResults(rs []result.Result) []Source {
	out := make([]Source, len(rs))
	for i := range rs {
		r := &rs[i]
		out[i] = Source{
			ID:         r.ID(),
			Title:      r.Title(),
			Category:   r.Category(),
			Snippet:    r.Snippet(),
			Similarity: r.Similarity(),
			Relevance:  r.Relevance(),
		}
	}
	return out
}
