package rag

import (
	"testing"

	"github.com/kailas-cloud/nutrirag/internal/domain/document"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/result"
)

func TestNewResponse_CopiesSources(t *testing.T) {
	doc := document.Reconstruct("a", "t", "c", "", "", nil)
	sources := []result.Result{result.New(doc, "c", 0.9, 0.9, "c")}

	r := NewResponse(Params{Query: "q", Answer: "a", Sources: sources, Metadata: Metadata{State: Done}})
	sources[0] = result.New(document.Reconstruct("b", "", "x", "", "", nil), "x", 0, 0, "")

	got := r.Sources()
	if got[0].ID() != "a" {
		t.Errorf("response sources changed after construction: %q", got[0].ID())
	}
	got[0] = sources[0]
	again := r.Sources()
	if again[0].ID() != "a" {
		t.Error("Sources() must return a copy")
	}
	if r.SourceCount() != 1 || r.State() != Done {
		t.Errorf("unexpected count/state: %d %s", r.SourceCount(), r.State())
	}
}

func TestState_IsTerminal(t *testing.T) {
	for _, s := range []State{Done, Failed} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []State{Idle, Retrieving, PromptBuilding, Generating, Scoring} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
