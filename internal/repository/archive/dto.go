package archive

import (
	"time"

	"github.com/kailas-cloud/nutrirag/internal/domain/conversation"
	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
)

// sessionRecord is the JSON stored for an ended session.
type sessionRecord struct {
	ID           string            `json:"id"`
	Owner        string            `json:"owner,omitempty"`
	State        string            `json:"state"`
	Created      time.Time         `json:"created"`
	LastActivity time.Time         `json:"last_activity"`
	Profile      map[string]string `json:"profile,omitempty"`
	Topics       []string          `json:"topics,omitempty"`
	Intents      []string          `json:"intents,omitempty"`
	AvgQuality   float64           `json:"average_quality"`
	ProcessingMS int64             `json:"total_processing_ms"`
	Turns        []turnRecord      `json:"turns"`
}

type turnRecord struct {
	ID         int       `json:"id"`
	Input      string    `json:"input"`
	Output     string    `json:"output"`
	Intent     string    `json:"intent,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMS int64     `json:"duration_ms"`
	Quality    float64   `json:"quality"`
	Confidence float64   `json:"confidence"`
	Sources    int       `json:"sources"`
	Error      string    `json:"error,omitempty"`
}

func toRecord(s *conversation.Session) sessionRecord {
	st := s.Stats()
	intents := make([]string, len(st.Intents))
	for i, in := range st.Intents {
		intents[i] = string(in)
	}
	turns := s.Turns()
	recs := make([]turnRecord, len(turns))
	for i, t := range turns {
		recs[i] = turnRecord{
			ID:         t.ID,
			Input:      t.Input,
			Output:     t.Output,
			Intent:     string(t.Intent),
			Timestamp:  t.Timestamp,
			DurationMS: t.Duration.Milliseconds(),
			Quality:    t.Quality,
			Confidence: t.Confidence,
			Sources:    t.Sources,
			Error:      t.Error,
		}
	}
	return sessionRecord{
		ID:           s.ID(),
		Owner:        s.Owner(),
		State:        string(s.State()),
		Created:      s.Created(),
		LastActivity: s.LastActivity(),
		Profile:      s.Profile(),
		Topics:       st.Topics,
		Intents:      intents,
		AvgQuality:   st.AverageQuality,
		ProcessingMS: st.TotalProcessing.Milliseconds(),
		Turns:        recs,
	}
}

// Archived is a stored session read back from the archive.
type Archived struct {
	Info    conversation.Info
	Profile map[string]string
	Turns   []conversation.Turn
}

func (r sessionRecord) toArchived() Archived {
	intents := make([]intent.Intent, len(r.Intents))
	for i, in := range r.Intents {
		intents[i] = intent.Intent(in)
	}
	turns := make([]conversation.Turn, len(r.Turns))
	for i, t := range r.Turns {
		turns[i] = conversation.Turn{
			ID:         t.ID,
			Input:      t.Input,
			Output:     t.Output,
			Intent:     intent.Intent(t.Intent),
			Timestamp:  t.Timestamp,
			Duration:   time.Duration(t.DurationMS) * time.Millisecond,
			Quality:    t.Quality,
			Confidence: t.Confidence,
			Sources:    t.Sources,
			Error:      t.Error,
		}
	}
	return Archived{
		Info: conversation.Info{
			ID:           r.ID,
			Owner:        r.Owner,
			State:        conversation.State(r.State),
			Created:      r.Created,
			LastActivity: r.LastActivity,
			TotalTurns:   len(turns),
			Stats: conversation.Stats{
				TotalTurns:      len(turns),
				TotalProcessing: time.Duration(r.ProcessingMS) * time.Millisecond,
				AverageQuality:  r.AvgQuality,
				Topics:          r.Topics,
				Intents:         intents,
			},
		},
		Profile: r.Profile,
		Turns:   turns,
	}
}
