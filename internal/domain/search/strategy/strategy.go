package strategy

// Strategy selects how the retriever gathers candidates before post-processing.
type Strategy string

// Search strategy constants.
const (
	// SemanticOnly embeds the raw query.
	SemanticOnly Strategy = "semantic_only"
	// KeywordEnhanced embeds a pseudo-query built from the top keywords.
	KeywordEnhanced Strategy = "keyword_enhanced"
	// Hybrid unions SemanticOnly and KeywordEnhanced.
	Hybrid Strategy = "hybrid"
	// MultiQuery expands the query into variants and unions their hits.
	MultiQuery Strategy = "multi_query"
)

// IsValid checks if the strategy is one of the supported values.
func (s Strategy) IsValid() bool {
	return s == SemanticOnly || s == KeywordEnhanced || s == Hybrid || s == MultiQuery
}
