package result

import "github.com/kailas-cloud/nutrirag/internal/domain/document"

// Result is a single ranked retrieval hit.
type Result struct {
	doc        document.Document
	content    string
	similarity float64
	relevance  float64
	snippet    string
}

// New creates a search result. content is the possibly truncated document body.
func New(doc document.Document, content string, similarity, relevance float64, snippet string) Result {
	return Result{
		doc: doc, content: content,
		similarity: similarity, relevance: relevance, snippet: snippet,
	}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.doc.ID() }

// Title returns the document title.
func (r *Result) Title() string { return r.doc.Title() }

// Category returns the document category.
func (r *Result) Category() string { return r.doc.Category() }

// Keywords returns the document keywords.
func (r *Result) Keywords() []string { return r.doc.Keywords() }

// Document returns the full underlying document.
func (r *Result) Document() document.Document { return r.doc }

// Content returns the document body, truncated to the configured length.
func (r *Result) Content() string { return r.content }

// Similarity returns the raw cosine similarity in [0,1].
func (r *Result) Similarity() float64 { return r.similarity }

// Relevance returns the composite reranking score.
func (r *Result) Relevance() float64 { return r.relevance }

// Snippet returns a short preview of the content.
func (r *Result) Snippet() string { return r.snippet }
