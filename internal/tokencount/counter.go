// Package tokencount measures prompt sizes in model tokens with an offline
// BPE table, so prompt metadata and budgets need no network access.
package tokencount

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// DefaultEncoding is compatible with the GPT-4 family of chat models.
const DefaultEncoding = "cl100k_base"

var loaderOnce sync.Once

// Counter counts tokens for one encoding.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// New loads the named encoding from the embedded BPE files.
func New(encoding string) (*Counter, error) {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &Counter{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Estimate is the fallback when no encoding could be loaded: one token per
// CJK rune is a close upper bound for Chinese text.
type Estimate struct{}

// Count returns the rune count of text.
func (Estimate) Count(text string) int { return utf8.RuneCountInString(text) }
