package knowledge

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrirag/internal/domain"
)

func TestSearch_RanksBySimilarity(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	n, err := ix.AddDocuments(ctx, seedDocs(t))
	if err != nil || n != 3 {
		t.Fatalf("AddDocuments() = %d, %v", n, err)
	}

	hits, err := ix.Search(ctx, "糖尿病老人饮食", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Document.ID() != "diabetes" {
		t.Errorf("top hit = %s, want diabetes", hits[0].Document.ID())
	}
	if hits[0].Similarity <= hits[1].Similarity {
		t.Errorf("hits not ranked: %f <= %f", hits[0].Similarity, hits[1].Similarity)
	}
	if hits[0].Similarity < 0 || hits[0].Similarity > 1 {
		t.Errorf("similarity out of range: %f", hits[0].Similarity)
	}
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()
	if _, err := ix.AddDocuments(ctx, seedDocs(t)); err != nil {
		t.Fatal(err)
	}

	hits, err := ix.Search(ctx, "钙", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("expected min(k, n)=3 hits, got %d", len(hits))
	}
}

func TestSearch_EmptyIndexOrQuery(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	hits, err := ix.Search(ctx, "糖尿病", 3)
	if err != nil || hits != nil {
		t.Errorf("empty index: hits=%v err=%v", hits, err)
	}

	if _, err := ix.AddDocuments(ctx, seedDocs(t)); err != nil {
		t.Fatal(err)
	}
	hits, err = ix.Search(ctx, "", 3)
	if err != nil || hits != nil {
		t.Errorf("empty query: hits=%v err=%v", hits, err)
	}
}

func TestSearch_EmbedderError(t *testing.T) {
	emb := &vocabEmbedder{vocab: testVocab}
	ix := New(emb, "m", nil, zap.NewNop())
	if _, err := ix.AddDocuments(context.Background(), seedDocs(t)); err != nil {
		t.Fatal(err)
	}

	emb.err = errors.New("down")
	if _, err := ix.Search(context.Background(), "糖尿病", 1); err == nil {
		t.Fatal("expected embed error")
	}
}

func TestAdd_Validation(t *testing.T) {
	ix := newTestIndex(t)
	doc := mustDoc(t, "a", "t", "c", "x")

	if err := ix.Add(doc, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty vector: %v", err)
	}
	if err := ix.Add(doc, []float32{1, 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ix.Add(doc, []float32{0, 1}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("duplicate id: %v", err)
	}
	other := mustDoc(t, "b", "t", "c", "x")
	if err := ix.Add(other, []float32{1, 0, 0}); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("dimension mismatch: %v", err)
	}
	if _, err := ix.NearestNeighbors([]float32{1}, 1); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("query dimension mismatch: %v", err)
	}
}

func TestSeal_RejectsWrites(t *testing.T) {
	ix := newTestIndex(t)
	ix.Seal()

	if err := ix.Add(mustDoc(t, "a", "t", "c", "x"), []float32{1}); !errors.Is(err, domain.ErrIndexSealed) {
		t.Errorf("Add after Seal: %v", err)
	}
	if _, err := ix.AddDocuments(context.Background(), seedDocs(t)); !errors.Is(err, domain.ErrIndexSealed) {
		t.Errorf("AddDocuments after Seal: %v", err)
	}
	if !ix.Stats().Sealed {
		t.Error("Stats().Sealed = false")
	}
}

func TestAdd_ExtractsMissingKeywords(t *testing.T) {
	ix := New(&vocabEmbedder{vocab: testVocab}, "m", fixedKeywords{"糖尿病", "饮食"}, zap.NewNop())
	if _, err := ix.AddDocuments(context.Background(), seedDocs(t)[:1]); err != nil {
		t.Fatal(err)
	}
	doc, ok := ix.Get("diabetes")
	if !ok {
		t.Fatal("document not found")
	}
	if kw := doc.Keywords(); len(kw) != 2 || kw[0] != "糖尿病" {
		t.Errorf("keywords = %v", kw)
	}
}

func TestStats(t *testing.T) {
	ix := newTestIndex(t)
	if _, err := ix.AddDocuments(context.Background(), seedDocs(t)); err != nil {
		t.Fatal(err)
	}
	st := ix.Stats()
	if st.Documents != 3 || st.Dimension != len(testVocab) || st.Model != "vocab-v1" {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestHealthCheck(t *testing.T) {
	ix := newTestIndex(t)
	if err := ix.HealthCheck(context.Background()); !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("empty index: %v", err)
	}
	if _, err := ix.AddDocuments(context.Background(), seedDocs(t)); err != nil {
		t.Fatal(err)
	}
	if err := ix.HealthCheck(context.Background()); err != nil {
		t.Errorf("loaded index: %v", err)
	}
}

func TestWithQueryEmbedder(t *testing.T) {
	ctx := context.Background()
	queryErr := errors.New("query model down")
	ix := newTestIndex(t).WithQueryEmbedder(&vocabEmbedder{vocab: testVocab, err: queryErr})

	if _, err := ix.AddDocuments(ctx, seedDocs(t)); err != nil {
		t.Fatalf("documents must use the document embedder: %v", err)
	}
	if _, err := ix.Search(ctx, "糖尿病", 1); !errors.Is(err, queryErr) {
		t.Errorf("Search() error = %v, want query embedder error", err)
	}
}
