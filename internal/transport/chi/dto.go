package chi

import (
	"time"

	domconv "github.com/kailas-cloud/nutrirag/internal/domain/conversation"
	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
	domrag "github.com/kailas-cloud/nutrirag/internal/domain/rag"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/result"
	domusage "github.com/kailas-cloud/nutrirag/internal/domain/usage"
	convuc "github.com/kailas-cloud/nutrirag/internal/usecase/conversation"
	raguc "github.com/kailas-cloud/nutrirag/internal/usecase/rag"
	"github.com/kailas-cloud/nutrirag/internal/usecase/retrieval"
)

// ErrorCode is a machine-readable error kind.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeNotFound          ErrorCode = "not_found"
	CodeSessionNotFound   ErrorCode = "session_not_found"
	CodeSessionClosed     ErrorCode = "session_closed"
	CodeSessionExpired    ErrorCode = "session_expired"
	CodeIndexUnavailable  ErrorCode = "index_unavailable"
	CodeGenerationFailed  ErrorCode = "generation_failed"
	CodeEmbeddingProvider ErrorCode = "embedding_provider_error"
	CodeBudgetExceeded    ErrorCode = "budget_exceeded"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	SessionID string    `json:"session_id,omitempty"`
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Query   string            `json:"query"`
	Profile map[string]string `json:"profile,omitempty"`
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query            string  `json:"query"`
	Strategy         string  `json:"strategy,omitempty"`
	TopK             int     `json:"top_k,omitempty"`
	Threshold        float64 `json:"similarity_threshold,omitempty"`
	MaxContentLength int     `json:"max_content_length,omitempty"`
	Rerank           *bool   `json:"enable_reranking,omitempty"`
}

// CreateSessionRequest is the body of POST /v1/sessions.
type CreateSessionRequest struct {
	UserID  string            `json:"user_id,omitempty"`
	Profile map[string]string `json:"profile,omitempty"`
}

// TurnRequest is the body of POST /v1/sessions/{id}/turns.
type TurnRequest struct {
	Input string `json:"input"`
}

// SourceItem is one retrieved document.
type SourceItem struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	Keywords   []string `json:"keywords,omitempty"`
	Content    string   `json:"content"`
	Snippet    string   `json:"snippet"`
	Similarity float64  `json:"similarity"`
	Relevance  float64  `json:"relevance"`
}

// PromptQuality is the prompt validation report.
type PromptQuality struct {
	Score             int      `json:"score"`
	Level             string   `json:"level"`
	Issues            []string `json:"issues,omitempty"`
	Length            int      `json:"length"`
	MissingComponents []string `json:"missing_components,omitempty"`
}

// QualityAssessment is the multi-dimension answer score.
type QualityAssessment struct {
	Overall     float64            `json:"overall"`
	Dimensions  map[string]float64 `json:"dimensions"`
	Issues      []string           `json:"issues,omitempty"`
	Suggestions []string           `json:"suggestions,omitempty"`
}

// AskMetadata describes how an answer was produced.
type AskMetadata struct {
	State          string             `json:"state"`
	Backend        string             `json:"backend,omitempty"`
	FallbackReason string             `json:"fallback_reason,omitempty"`
	Template       string             `json:"template,omitempty"`
	Complexity     string             `json:"complexity,omitempty"`
	PromptTokens   int                `json:"prompt_tokens"`
	PromptQuality  *PromptQuality     `json:"prompt_quality,omitempty"`
	Quality        *QualityAssessment `json:"quality_assessment,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// AskResponse is the body returned by POST /v1/ask.
type AskResponse struct {
	Query          string       `json:"query"`
	Answer         string       `json:"answer"`
	Intent         string       `json:"intent,omitempty"`
	Confidence     float64      `json:"confidence"`
	QualityScore   float64      `json:"quality_score"`
	ProcessingTime float64      `json:"processing_time"`
	Sources        []SourceItem `json:"sources"`
	Metadata       AskMetadata  `json:"metadata"`
}

// SearchResponse is the body returned by POST /v1/search.
type SearchResponse struct {
	Items []SourceItem `json:"items"`
	Total int          `json:"total"`
}

// CreateSessionResponse is the body returned by POST /v1/sessions.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// TurnResponse is the body returned for an accepted turn.
type TurnResponse struct {
	SessionID    string       `json:"session_id"`
	TurnID       int          `json:"turn_id"`
	Answer       string       `json:"answer"`
	Intent       string       `json:"intent,omitempty"`
	Confidence   float64      `json:"confidence"`
	QualityScore float64      `json:"quality_score"`
	Sources      []SourceItem `json:"sources,omitempty"`
	TurnCount    int          `json:"turn_count"`
	Error        string       `json:"error,omitempty"`
}

// TurnItem is one turn in a history listing.
type TurnItem struct {
	ID             int       `json:"turn_id"`
	Input          string    `json:"user_input"`
	Output         string    `json:"assistant_response"`
	Intent         string    `json:"intent,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	ProcessingTime float64   `json:"processing_time"`
	QualityScore   float64   `json:"quality_score"`
	Confidence     float64   `json:"confidence"`
	SourcesCount   int       `json:"sources_count"`
	Error          string    `json:"error,omitempty"`
}

// HistoryResponse is the body of GET /v1/sessions/{id}/history.
type HistoryResponse struct {
	SessionID string     `json:"session_id"`
	Turns     []TurnItem `json:"turns"`
}

// TurnSummaryItem is the short form of a turn in session info.
type TurnSummaryItem struct {
	ID           int     `json:"turn_id"`
	Input        string  `json:"user_input"`
	Intent       string  `json:"intent,omitempty"`
	QualityScore float64 `json:"quality_score"`
}

// SessionInfoResponse is the body of GET /v1/sessions/{id}.
type SessionInfoResponse struct {
	SessionID      string            `json:"session_id"`
	UserID         string            `json:"user_id,omitempty"`
	State          string            `json:"state"`
	StartTime      time.Time         `json:"start_time"`
	LastActivity   time.Time         `json:"last_activity"`
	Duration       float64           `json:"duration"`
	TotalTurns     int               `json:"total_turns"`
	AverageQuality float64           `json:"average_quality_score"`
	Topics         []string          `json:"topics_discussed"`
	Intents        []string          `json:"intents_used"`
	RecentTurns    []TurnSummaryItem `json:"recent_turns"`
}

// AnalysisResponse is the body of GET /v1/sessions/{id}/analysis.
type AnalysisResponse struct {
	SessionID string `json:"session_id"`
	Summary   struct {
		TotalTurns     int      `json:"total_turns"`
		Duration       float64  `json:"duration"`
		AverageQuality float64  `json:"average_quality"`
		Topics         []string `json:"topics_discussed"`
		Intents        []string `json:"intents_used"`
	} `json:"session_summary"`
	Turns    []TurnAnalysisItem `json:"turn_analysis"`
	Patterns struct {
		QualityTrend          string  `json:"quality_trend,omitempty"`
		DominantIntent        string  `json:"dominant_intent,omitempty"`
		IntentDiversity       int     `json:"intent_diversity"`
		AverageProcessingTime float64 `json:"average_processing_time"`
	} `json:"patterns"`
	Recommendations []string `json:"recommendations"`
}

// TurnAnalysisItem is one row of the per-turn breakdown.
type TurnAnalysisItem struct {
	TurnID         int     `json:"turn_id"`
	Intent         string  `json:"intent,omitempty"`
	QualityScore   float64 `json:"quality_score"`
	ProcessingTime float64 `json:"processing_time"`
	InputLength    int     `json:"input_length"`
	ResponseLength int     `json:"response_length"`
	SourcesUsed    int     `json:"sources_used"`
}

// StatsResponse is the body of GET /v1/stats.
type StatsResponse struct {
	Pipeline  raguc.Stats        `json:"pipeline"`
	Retrieval retrieval.Stats    `json:"retrieval"`
	Sessions  convuc.GlobalStats `json:"sessions"`
}

// UsageResponse is the body of GET /v1/usage.
type UsageResponse struct {
	Period  string        `json:"period"`
	Budgets []BudgetUsage `json:"budgets"`
}

// BudgetUsage is one budget scope in UsageResponse. Remaining is -1 for
// unlimited budgets.
type BudgetUsage struct {
	Scope       string    `json:"scope"`
	PeriodStart time.Time `json:"period_start"`
	ResetsAt    time.Time `json:"resets_at"`
	TokensUsed  int64     `json:"tokens_used"`
	TokensLimit int64     `json:"tokens_limit"`
	Remaining   int64     `json:"tokens_remaining"`
	Exhausted   bool      `json:"is_exhausted"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

func sourcesToDTO(rs []result.Result) []SourceItem {
	items := make([]SourceItem, len(rs))
	for i := range rs {
		r := &rs[i]
		items[i] = SourceItem{
			ID:         r.ID(),
			Title:      r.Title(),
			Category:   r.Category(),
			Keywords:   r.Keywords(),
			Content:    r.Content(),
			Snippet:    r.Snippet(),
			Similarity: r.Similarity(),
			Relevance:  r.Relevance(),
		}
	}
	return items
}

func askToDTO(resp *domrag.Response) AskResponse {
	md := resp.Metadata()
	out := AskResponse{
		Query:          resp.Query(),
		Answer:         resp.Answer(),
		Intent:         string(resp.Intent()),
		Confidence:     resp.Confidence(),
		QualityScore:   resp.Quality(),
		ProcessingTime: resp.Duration().Seconds(),
		Sources:        sourcesToDTO(resp.Sources()),
		Metadata: AskMetadata{
			State:          string(md.State),
			Backend:        md.Backend,
			FallbackReason: md.FallbackReason,
			Template:       md.Template,
			Complexity:     string(md.Complexity),
			PromptTokens:   md.PromptTokens,
			Error:          md.Error,
		},
	}
	if v := md.PromptValidation; v != nil {
		out.Metadata.PromptQuality = &PromptQuality{
			Score:             v.Score,
			Level:             string(v.Level),
			Issues:            v.Issues,
			Length:            v.Length,
			MissingComponents: v.MissingComponents,
		}
	}
	if a := md.Assessment; a != nil {
		dims := make(map[string]float64, len(a.Dimensions))
		for d, v := range a.Dimensions {
			dims[string(d)] = v
		}
		out.Metadata.Quality = &QualityAssessment{
			Overall:     a.Overall,
			Dimensions:  dims,
			Issues:      a.Issues,
			Suggestions: a.Suggestions,
		}
	}
	return out
}

func turnReplyToDTO(r convuc.Reply) TurnResponse {
	out := TurnResponse{
		SessionID: r.SessionID,
		Answer:    r.Answer,
		TurnCount: r.SessionTurns,
	}
	if t := r.Turn; t != nil {
		out.TurnID = t.ID
		out.Intent = string(t.Intent)
		out.Confidence = t.Confidence
		out.QualityScore = t.Quality
		out.Error = t.Error
	}
	if r.Response != nil {
		out.Sources = sourcesToDTO(r.Response.Sources())
	}
	return out
}

func turnsToDTO(turns []domconv.Turn) []TurnItem {
	items := make([]TurnItem, len(turns))
	for i, t := range turns {
		items[i] = TurnItem{
			ID:             t.ID,
			Input:          t.Input,
			Output:         t.Output,
			Intent:         string(t.Intent),
			Timestamp:      t.Timestamp,
			ProcessingTime: t.Duration.Seconds(),
			QualityScore:   t.Quality,
			Confidence:     t.Confidence,
			SourcesCount:   t.Sources,
			Error:          t.Error,
		}
	}
	return items
}

func infoToDTO(info domconv.Info) SessionInfoResponse {
	recent := make([]TurnSummaryItem, len(info.Recent))
	for i, t := range info.Recent {
		recent[i] = TurnSummaryItem{ID: t.ID, Input: t.Input, Intent: string(t.Intent), QualityScore: t.Quality}
	}
	return SessionInfoResponse{
		SessionID:      info.ID,
		UserID:         info.Owner,
		State:          string(info.State),
		StartTime:      info.Created,
		LastActivity:   info.LastActivity,
		Duration:       info.Duration().Seconds(),
		TotalTurns:     info.TotalTurns,
		AverageQuality: info.Stats.AverageQuality,
		Topics:         nonNil(info.Stats.Topics),
		Intents:        intentStrings(info.Stats.Intents),
		RecentTurns:    recent,
	}
}

func analysisToDTO(a convuc.Analysis) AnalysisResponse {
	var out AnalysisResponse
	out.SessionID = a.SessionID
	out.Summary.TotalTurns = a.Summary.TotalTurns
	out.Summary.Duration = a.Summary.Duration.Seconds()
	out.Summary.AverageQuality = a.Summary.AverageQuality
	out.Summary.Topics = nonNil(a.Summary.Topics)
	out.Summary.Intents = intentStrings(a.Summary.Intents)

	out.Turns = make([]TurnAnalysisItem, len(a.Turns))
	for i, t := range a.Turns {
		out.Turns[i] = TurnAnalysisItem{
			TurnID:         t.TurnID,
			Intent:         string(t.Intent),
			QualityScore:   t.Quality,
			ProcessingTime: t.Duration.Seconds(),
			InputLength:    t.InputLength,
			ResponseLength: t.OutputLength,
			SourcesUsed:    t.Sources,
		}
	}

	out.Patterns.QualityTrend = a.Patterns.QualityTrend
	out.Patterns.DominantIntent = string(a.Patterns.DominantIntent)
	out.Patterns.IntentDiversity = a.Patterns.IntentDiversity
	out.Patterns.AverageProcessingTime = a.Patterns.AverageProcessingTime.Seconds()
	out.Recommendations = nonNil(a.Recommendations)
	return out
}

func intentStrings(in []intent.Intent) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func usageToDTO(reports []domusage.Report) []BudgetUsage {
	out := make([]BudgetUsage, len(reports))
	for i := range reports {
		r := &reports[i]
		out[i] = BudgetUsage{
			Scope:       r.Scope(),
			PeriodStart: r.PeriodStart(),
			ResetsAt:    r.PeriodEnd(),
			TokensUsed:  r.Used(),
			TokensLimit: r.Limit(),
			Remaining:   r.Remaining(),
			Exhausted:   r.IsExhausted(),
		}
	}
	return out
}
