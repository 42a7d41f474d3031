package quality

// Dimension is one axis of answer quality.
type Dimension string

// Quality dimensions.
const (
	Relevance    Dimension = "relevance"
	Completeness Dimension = "completeness"
	Accuracy     Dimension = "accuracy"
	Readability  Dimension = "readability"
	Safety       Dimension = "safety"
)

// Dimensions lists every dimension in reporting order.
var Dimensions = []Dimension{Relevance, Completeness, Accuracy, Readability, Safety}

// Assessment is the scored quality of one answer. Scores are in [0,100].
type Assessment struct {
	Overall     float64
	Dimensions  map[Dimension]float64
	Issues      []string
	Suggestions []string
}
