package nutrirag

import "time"

// Document is a knowledge entry. Keywords are extracted from the text when
// left empty.
type Document struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Source   string   `json:"source,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// Source is a retrieved document backing an answer.
type Source struct {
	ID         string
	Title      string
	Category   string
	Snippet    string
	Similarity float64
	Relevance  float64
}

// Answer is the outcome of one question.
type Answer struct {
	Query      string
	Text       string
	Intent     string
	Confidence float64
	// Quality is the 0..100 assessment, 0 when scoring is off.
	Quality  float64
	Duration time.Duration
	// Backend names the generator that answered ("simulated" offline).
	Backend string
	Sources []Source

	// Set for session answers only.
	SessionID string
	TurnID    int
}

// Turn is one recorded exchange of a session.
type Turn struct {
	ID        int
	Input     string
	Output    string
	Intent    string
	Quality   float64
	Duration  time.Duration
	Timestamp time.Time
	Failed    bool
}

// SessionInfo is a session snapshot.
type SessionInfo struct {
	ID             string
	Owner          string
	State          string
	Created        time.Time
	LastActivity   time.Time
	Turns          int
	AverageQuality float64
	Topics         []string
}

// Analysis summarizes a session for follow-up.
type Analysis struct {
	SessionID       string
	TotalTurns      int
	AverageQuality  float64
	QualityTrend    string
	DominantIntent  string
	IntentDiversity int
	Recommendations []string
}

// Stats are running pipeline aggregates.
type Stats struct {
	Queries             int64
	Successful          int64
	Failed              int64
	AverageQuality      float64
	AverageResponseTime time.Duration
}
