package document

import (
	"fmt"
	"regexp"
	"slices"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// MaxContentSize is the maximum document content size in bytes.
const MaxContentSize = 64 * 1024

// Document is one unit of nutrition knowledge (immutable value object).
// Documents are created by ingestion and only ever appended to the index.
type Document struct {
	id       string
	title    string
	content  string
	category string
	keywords []string
	source   string
}

// New validates and creates a Document.
func New(id, title, content, category, source string, keywords []string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("document ID %q has invalid characters", id)
	}
	if content == "" {
		return Document{}, fmt.Errorf("content is required")
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}

	return Document{
		id:       id,
		title:    title,
		content:  content,
		category: category,
		keywords: slices.Clone(keywords),
		source:   source,
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, title, content, category, source string, keywords []string) Document {
	return Document{
		id: id, title: title, content: content,
		category: category, keywords: keywords, source: source,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Content returns the document body.
func (d *Document) Content() string { return d.content }

// Category returns the knowledge category, e.g. 疾病营养.
func (d *Document) Category() string { return d.category }

// Keywords returns the extracted keywords.
func (d *Document) Keywords() []string { return d.keywords }

// Source returns where the document was ingested from.
func (d *Document) Source() string { return d.source }

// Text is the string that gets embedded: title and content joined by a space.
func (d *Document) Text() string {
	if d.title == "" {
		return d.content
	}
	return d.title + " " + d.content
}

// WithKeywords returns a copy carrying the given keywords.
func (d *Document) WithKeywords(kw []string) Document {
	c := *d
	c.keywords = slices.Clone(kw)
	return c
}

// Hit is a document returned by a nearest-neighbor query with its cosine similarity.
type Hit struct {
	Document   Document
	Similarity float64
}
