// Package textnorm cleans, segments and extracts keywords from Chinese
// nutrition text using a forward maximum matching segmenter over a lexicon.
package textnorm

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

var (
	disallowed = regexp.MustCompile(`[^\p{Han}a-zA-Z0-9，。；：！？、\-+()\[\]％%]`)
	spaces     = regexp.MustCompile(`\s+`)
)

// DefaultKeywords is the keyword count used when callers pass k <= 0.
const DefaultKeywords = 10

// Normalizer is safe for concurrent use once constructed.
type Normalizer struct {
	lexicon   map[string]bool
	domain    map[string]bool
	stopwords map[string]bool
	weak      map[string]bool
	maxWord   int
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithTerms adds domain terms to the lexicon.
func WithTerms(terms ...string) Option {
	return func(n *Normalizer) {
		for _, t := range terms {
			n.addWord(t, true)
		}
	}
}

// WithStopwords replaces the stopword list.
func WithStopwords(words ...string) Option {
	return func(n *Normalizer) {
		n.stopwords = toSet(words)
	}
}

// New creates a Normalizer seeded with the built-in lexicon.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		lexicon:   make(map[string]bool),
		domain:    make(map[string]bool),
		stopwords: toSet(Stopwords),
		weak:      toSet(WeakWords),
	}
	for _, w := range DomainTerms {
		n.addWord(w, true)
	}
	for _, w := range CommonWords {
		n.addWord(w, false)
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Normalizer) addWord(w string, domain bool) {
	w = strings.ToLower(w)
	if w == "" {
		return
	}
	n.lexicon[w] = true
	if domain {
		n.domain[w] = true
	}
	if l := utf8.RuneCountInString(w); l > n.maxWord {
		n.maxWord = l
	}
}

// Clean folds full-width letters and digits, replaces every character that is
// not Han, ASCII alphanumeric or common punctuation with a space, and collapses
// whitespace.
func (n *Normalizer) Clean(text string) string {
	if text == "" {
		return ""
	}
	text = foldAlnum(text)
	text = disallowed.ReplaceAllString(text, " ")
	text = spaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// foldAlnum narrows full-width letters and digits (ａ１) and leaves full-width
// punctuation alone, since Clean keeps it.
func foldAlnum(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		p := width.LookupRune(r)
		if p.Kind() == width.EastAsianFullwidth && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if nr := p.Narrow(); nr != 0 {
				r = nr
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Tokenize cleans text and segments it. Stopwords and single-rune tokens
// outside the lexicon are dropped. ASCII words are lower-cased.
func (n *Normalizer) Tokenize(text string) []string {
	clean := n.Clean(text)
	if clean == "" {
		return nil
	}

	var tokens []string
	for _, seg := range splitSegments(clean) {
		if isASCIIWord(seg) {
			tokens = n.keep(tokens, strings.ToLower(seg))
			continue
		}
		for _, w := range n.segment(seg) {
			tokens = n.keep(tokens, w)
		}
	}
	return tokens
}

func (n *Normalizer) keep(tokens []string, w string) []string {
	if n.stopwords[w] {
		return tokens
	}
	if utf8.RuneCountInString(w) < 2 && !n.lexicon[w] {
		return tokens
	}
	return append(tokens, w)
}

// segment runs forward maximum matching over one Han run. Characters not
// covered by the lexicon are grouped into two-rune chunks.
func (n *Normalizer) segment(run string) []string {
	rs := []rune(run)
	var out []string
	var pending []rune

	flush := func() {
		for len(pending) > 0 {
			k := min(2, len(pending))
			out = append(out, string(pending[:k]))
			pending = pending[k:]
		}
	}

	for i := 0; i < len(rs); {
		matched := 0
		for l := min(n.maxWord, len(rs)-i); l >= 1; l-- {
			if n.lexicon[strings.ToLower(string(rs[i:i+l]))] {
				matched = l
				break
			}
		}
		if matched == 0 {
			if n.stopwords[string(rs[i])] {
				flush()
				i++
				continue
			}
			pending = append(pending, rs[i])
			i++
			continue
		}
		flush()
		out = append(out, strings.ToLower(string(rs[i:i+matched])))
		i += matched
	}
	flush()
	return out
}

// ExtractKeywords ranks tokens by frequency, doubling the weight of domain
// terms, and returns the top k. Ties keep first-occurrence order.
func (n *Normalizer) ExtractKeywords(text string, k int) []string {
	if k <= 0 {
		k = DefaultKeywords
	}
	tokens := n.Tokenize(text)

	type cand struct {
		word  string
		score float64
		first int
	}
	byWord := make(map[string]*cand)
	var order []*cand
	for i, tok := range tokens {
		if n.weak[tok] {
			continue
		}
		c, ok := byWord[tok]
		if !ok {
			c = &cand{word: tok, first: i}
			byWord[tok] = c
			order = append(order, c)
		}
		if n.domain[tok] {
			c.score += 2
		} else {
			c.score++
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].score > order[j].score })
	if len(order) > k {
		order = order[:k]
	}
	out := make([]string, len(order))
	for i, c := range order {
		out[i] = c.word
	}
	return out
}

// splitSegments splits clean text on anything that is not a Han rune or an
// ASCII letter/digit, and separates Han runs from ASCII runs.
func splitSegments(s string) []string {
	var segs []string
	var cur strings.Builder
	curHan := false

	emit := func() {
		if cur.Len() > 0 {
			segs = append(segs, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		han := unicode.Is(unicode.Han, r)
		alnum := r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r))
		if !han && !alnum {
			emit()
			continue
		}
		if cur.Len() > 0 && han != curHan {
			emit()
		}
		curHan = han
		cur.WriteRune(r)
	}
	emit()
	return segs
}

func isASCIIWord(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func toSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
