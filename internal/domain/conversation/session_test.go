package conversation

import (
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestSession_RecordAssignsSequentialIDs(t *testing.T) {
	s := NewSession("s1", "u1", nil, t0)
	for i := 1; i <= 4; i++ {
		got := s.Record(Turn{Input: "q", Intent: intent.DiseaseNutrition, Quality: 80}, nil, t0.Add(time.Duration(i)*time.Minute))
		if got.ID != i {
			t.Fatalf("turn %d got ID %d", i, got.ID)
		}
	}
	for i, turn := range s.Turns() {
		if turn.ID != i+1 {
			t.Errorf("turn at %d has ID %d", i, turn.ID)
		}
	}
	if s.State() != Waiting {
		t.Errorf("state = %s, want waiting", s.State())
	}
}

func TestSession_StatsAndCarried(t *testing.T) {
	s := NewSession("s1", "", nil, t0)
	s.Record(Turn{Intent: intent.DiseaseNutrition, Quality: 80, Duration: time.Second}, []string{"糖尿病"}, t0)
	s.Record(Turn{Intent: intent.NutrientDeficiency, Quality: 90, Duration: time.Second}, []string{"糖尿病", "补钙"}, t0)

	st := s.Stats()
	if st.TotalTurns != 2 || st.TotalProcessing != 2*time.Second {
		t.Errorf("unexpected totals: %+v", st)
	}
	if st.AverageQuality != 85 {
		t.Errorf("AverageQuality = %f, want 85", st.AverageQuality)
	}
	if len(st.Topics) != 2 || len(st.Intents) != 2 {
		t.Errorf("unexpected sets: %+v", st)
	}
	c := s.Carried()
	if c[CarriedLastIntent] != string(intent.NutrientDeficiency) {
		t.Errorf("last intent = %q", c[CarriedLastIntent])
	}
	if c[CarriedLastTopics] != "糖尿病,补钙" {
		t.Errorf("last topics = %q", c[CarriedLastTopics])
	}
	if c[CarriedLastQuality] != "90.0" {
		t.Errorf("last quality = %q", c[CarriedLastQuality])
	}
}

func TestSession_RecordErrorTerminates(t *testing.T) {
	s := NewSession("s1", "", nil, t0)
	s.Record(Turn{Quality: 70}, nil, t0)
	e := s.RecordError("q", "sorry", "boom", t0, true)

	if e.ID != 2 || !e.Failed() {
		t.Errorf("unexpected error turn: %+v", e)
	}
	if s.State() != Error || s.State().AcceptsTurns() {
		t.Errorf("state = %s, want error", s.State())
	}
}

func TestSession_RecordErrorKeepsOpen(t *testing.T) {
	s := NewSession("s1", "", nil, t0)
	s.RecordError("q", "sorry", "boom", t0, false)
	if !s.State().AcceptsTurns() {
		t.Errorf("state = %s, want open", s.State())
	}
}

func TestSession_IdleFor(t *testing.T) {
	s := NewSession("s1", "", nil, t0)
	if s.IdleFor(t0.Add(30*time.Minute), 30*time.Minute) {
		t.Error("exactly at timeout is not idle")
	}
	if !s.IdleFor(t0.Add(31*time.Minute), 30*time.Minute) {
		t.Error("expected idle past timeout")
	}
	if s.IdleFor(t0.Add(24*time.Hour), 0) {
		t.Error("zero timeout disables expiry")
	}
}

func TestSession_SnapshotTruncatesInput(t *testing.T) {
	s := NewSession("s1", "u", map[string]string{"age": "70"}, t0)
	s.Record(Turn{Input: strings.Repeat("糖", 120)}, nil, t0.Add(time.Minute))

	info := s.Snapshot(5)
	if info.TotalTurns != 1 || len(info.Recent) != 1 {
		t.Fatalf("unexpected snapshot: %+v", info)
	}
	if got := []rune(info.Recent[0].Input); len(got) != 103 {
		t.Errorf("summary input runes = %d, want 103", len(got))
	}
	if info.Duration() != time.Minute {
		t.Errorf("Duration() = %v", info.Duration())
	}
}

func TestSession_RecentWindow(t *testing.T) {
	s := NewSession("s1", "", nil, t0)
	for range 5 {
		s.Record(Turn{}, nil, t0)
	}
	r := s.Recent(3)
	if len(r) != 3 || r[0].ID != 3 || r[2].ID != 5 {
		t.Errorf("Recent(3) = %+v", r)
	}
	if len(s.Recent(0)) != 5 {
		t.Error("Recent(0) must return all turns")
	}
}

func TestSession_EndAndExpire(t *testing.T) {
	s := NewSession("s1", "", nil, t0)
	s.Expire()
	if s.State() != Ended || s.LastActivity() != t0 {
		t.Errorf("Expire: state=%s last=%v", s.State(), s.LastActivity())
	}
	s2 := NewSession("s2", "", nil, t0)
	s2.End(t0.Add(time.Minute))
	if s2.State() != Ended || !s2.LastActivity().Equal(t0.Add(time.Minute)) {
		t.Errorf("End: state=%s", s2.State())
	}
}
