package prompt

import (
	"fmt"

	"github.com/kailas-cloud/nutrirag/internal/domain"
	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
	domprompt "github.com/kailas-cloud/nutrirag/internal/domain/prompt"
)

// Library defaults.
const (
	DefaultMinConfidence = 0.5
	DefaultMaxExemplars  = 1
)

// Library is the immutable set of templates and few-shot exemplars shared
// by every assembler. Build it once at startup and inject it.
type Library struct {
	templates     map[intent.Intent]domprompt.Template
	exemplars     map[intent.Intent][]domprompt.Exemplar
	fallback      intent.Intent
	minConfidence float64
	maxExemplars  int
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithFallback sets the intent whose template serves unmapped and
// low-confidence queries.
func WithFallback(in intent.Intent) LibraryOption {
	return func(l *Library) { l.fallback = in }
}

// WithMinConfidence sets the classifier confidence below which the
// fallback template is used.
func WithMinConfidence(c float64) LibraryOption {
	return func(l *Library) { l.minConfidence = c }
}

// WithMaxExemplars caps the few-shot exemplars prepended to a prompt.
func WithMaxExemplars(n int) LibraryOption {
	return func(l *Library) { l.maxExemplars = n }
}

// NewLibrary indexes templates and exemplars by intent. The fallback intent
// must have a template.
func NewLibrary(templates []domprompt.Template, exemplars []domprompt.Exemplar, opts ...LibraryOption) (*Library, error) {
	l := &Library{
		templates:     make(map[intent.Intent]domprompt.Template, len(templates)),
		exemplars:     make(map[intent.Intent][]domprompt.Exemplar),
		fallback:      intent.DiseaseNutrition,
		minConfidence: DefaultMinConfidence,
		maxExemplars:  DefaultMaxExemplars,
	}
	for _, o := range opts {
		o(l)
	}

	for _, t := range templates {
		if _, dup := l.templates[t.Intent]; dup {
			return nil, fmt.Errorf("duplicate template for intent %s: %w", t.Intent, domain.ErrInvalidConfig)
		}
		l.templates[t.Intent] = t
	}
	for _, e := range exemplars {
		l.exemplars[e.Intent] = append(l.exemplars[e.Intent], e)
	}

	if _, ok := l.templates[l.fallback]; !ok {
		return nil, fmt.Errorf("no template for fallback intent %s: %w", l.fallback, domain.ErrInvalidConfig)
	}
	if l.minConfidence < 0 || l.minConfidence > 1 {
		return nil, fmt.Errorf("min confidence %v out of [0,1]: %w", l.minConfidence, domain.ErrInvalidConfig)
	}
	if l.maxExemplars < 0 {
		l.maxExemplars = 0
	}
	return l, nil
}

// DefaultLibrary returns the built-in elderly nutrition templates and exemplars.
func DefaultLibrary(opts ...LibraryOption) (*Library, error) {
	return NewLibrary(DefaultTemplates(), DefaultExemplars(), opts...)
}

// Select picks the template for a classified intent. Scores below the
// minimum confidence, and intents without a template, get the fallback.
func (l *Library) Select(s intent.Score) domprompt.Template {
	if s.Confidence >= l.minConfidence {
		if t, ok := l.templates[s.Intent]; ok {
			return t
		}
	}
	return l.templates[l.fallback]
}

// Template returns the template registered for in.
func (l *Library) Template(in intent.Intent) (domprompt.Template, bool) {
	t, ok := l.templates[in]
	return t, ok
}

// Exemplars returns up to the configured number of exemplars for in.
func (l *Library) Exemplars(in intent.Intent) []domprompt.Exemplar {
	ex := l.exemplars[in]
	if len(ex) > l.maxExemplars {
		ex = ex[:l.maxExemplars]
	}
	return ex
}

// Fallback returns the default intent.
func (l *Library) Fallback() intent.Intent { return l.fallback }

// MinConfidence returns the template selection threshold.
func (l *Library) MinConfidence() float64 { return l.minConfidence }
