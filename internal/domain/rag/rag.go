// Package rag holds the pipeline call state machine and its immutable response record.
package rag

import (
	"slices"
	"time"

	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
	"github.com/kailas-cloud/nutrirag/internal/domain/prompt"
	"github.com/kailas-cloud/nutrirag/internal/domain/quality"
	"github.com/kailas-cloud/nutrirag/internal/domain/query"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/result"
)

// State is a pipeline call stage.
type State string

// Call states. Done and Failed are terminal.
const (
	Idle           State = "idle"
	Retrieving     State = "retrieving"
	PromptBuilding State = "prompt_building"
	Generating     State = "generating"
	Scoring        State = "scoring"
	Done           State = "done"
	Failed         State = "failed"
)

// IsTerminal reports whether s ends a call.
func (s State) IsTerminal() bool { return s == Done || s == Failed }

// Request is the input of one pipeline call.
type Request struct {
	Query     string
	SessionID string
	Profile   map[string]string
	History   []prompt.HistoryEntry
	// Carried holds session metadata such as the last intent and topics.
	Carried map[string]string
}

// Metadata describes how a response was produced.
type Metadata struct {
	State            State
	Backend          string
	FallbackReason   string
	PromptValidation *prompt.Validation
	PromptTokens     int
	Template         string
	Complexity       query.Complexity
	Assessment       *quality.Assessment
	Error            string
}

// Params carries the fields of a Response at construction.
type Params struct {
	Query      string
	Answer     string
	Sources    []result.Result
	Confidence float64
	Quality    float64
	Duration   time.Duration
	Intent     intent.Intent
	Prompt     string
	Metadata   Metadata
}

// Response is the immutable output of one pipeline call.
type Response struct {
	p Params
}

// NewResponse freezes p into a Response.
func NewResponse(p Params) Response {
	p.Sources = slices.Clone(p.Sources)
	return Response{p: p}
}

// Query returns the user query.
func (r *Response) Query() string { return r.p.Query }

// Answer returns the generated answer text.
func (r *Response) Answer() string { return r.p.Answer }

// Sources returns the knowledge used to ground the answer.
func (r *Response) Sources() []result.Result { return slices.Clone(r.p.Sources) }

// SourceCount returns len(Sources()) without copying.
func (r *Response) SourceCount() int { return len(r.p.Sources) }

// Confidence returns the generator confidence in [0,1].
func (r *Response) Confidence() float64 { return r.p.Confidence }

// Quality returns the overall quality score in [0,100].
func (r *Response) Quality() float64 { return r.p.Quality }

// Duration returns the wall time of the call.
func (r *Response) Duration() time.Duration { return r.p.Duration }

// Intent returns the classified intent.
func (r *Response) Intent() intent.Intent { return r.p.Intent }

// Prompt returns the prompt sent to the generator.
func (r *Response) Prompt() string { return r.p.Prompt }

// Metadata returns the production details.
func (r *Response) Metadata() Metadata { return r.p.Metadata }

// State returns the terminal call state.
func (r *Response) State() State { return r.p.Metadata.State }
