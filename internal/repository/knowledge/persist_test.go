package knowledge

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := newTestIndex(t)
	if _, err := src.AddDocuments(ctx, seedDocs(t)); err != nil {
		t.Fatal(err)
	}
	if err := src.Save(dir); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	for _, name := range []string{IndexFile, DocumentsFile, ConfigFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	var cfg configRecord
	data, _ := os.ReadFile(filepath.Join(dir, ConfigFile))
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.ModelName != "vocab-v1" || cfg.Dimension != len(testVocab) || len(cfg.DocIDs) != 3 {
		t.Errorf("config = %+v", cfg)
	}

	dst := newTestIndex(t)
	if err := dst.Load(dir); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if dst.Len() != src.Len() {
		t.Fatalf("Len() = %d, want %d", dst.Len(), src.Len())
	}

	want, _ := src.Search(ctx, "高血压 盐", 3)
	got, _ := dst.Search(ctx, "高血压 盐", 3)
	for i := range want {
		if got[i].Document.ID() != want[i].Document.ID() {
			t.Errorf("rank %d: %s, want %s", i, got[i].Document.ID(), want[i].Document.ID())
		}
		if math.Abs(got[i].Similarity-want[i].Similarity) > 1e-6 {
			t.Errorf("rank %d similarity: %f, want %f", i, got[i].Similarity, want[i].Similarity)
		}
	}
}

func TestLoad_ModelMismatchWarns(t *testing.T) {
	dir := t.TempDir()
	src := newTestIndex(t)
	if _, err := src.AddDocuments(context.Background(), seedDocs(t)); err != nil {
		t.Fatal(err)
	}
	if err := src.Save(dir); err != nil {
		t.Fatal(err)
	}

	core, logs := observer.New(zapcore.WarnLevel)
	dst := New(&vocabEmbedder{vocab: testVocab}, "other-model", nil, zap.New(core))
	if err := dst.Load(dir); err != nil {
		t.Fatalf("Load() should not fail on mismatch: %v", err)
	}
	if logs.FilterMessage("Index model mismatch").Len() != 1 {
		t.Error("expected a model mismatch warning")
	}
	if dst.Len() != 3 {
		t.Errorf("Len() = %d", dst.Len())
	}
}

func TestLoad_MissingConfig(t *testing.T) {
	if err := newTestIndex(t).Load(t.TempDir()); err == nil {
		t.Fatal("expected error for missing config.json")
	}
}

func TestLoad_CorruptIndex(t *testing.T) {
	dir := t.TempDir()
	src := newTestIndex(t)
	if _, err := src.AddDocuments(context.Background(), seedDocs(t)); err != nil {
		t.Fatal(err)
	}
	if err := src.Save(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, IndexFile), []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := newTestIndex(t).Load(dir); err == nil {
		t.Fatal("expected error for corrupt index.bin")
	}
}

func TestLoadOrBuild(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "idx")
	seed := filepath.Join(t.TempDir(), "seed.json")

	records := []documentRecord{
		{ID: "d1", Title: "糖尿病", Content: "控制血糖", Category: "疾病营养"},
		{ID: "d2", Title: "补钙", Content: "多喝牛奶", Category: "营养素"},
	}
	data, _ := json.Marshal(records)
	if err := os.WriteFile(seed, data, 0o600); err != nil {
		t.Fatal(err)
	}

	first := newTestIndex(t)
	loaded, err := first.LoadOrBuild(ctx, dir, seed)
	if err != nil || loaded {
		t.Fatalf("first LoadOrBuild() = %v, %v", loaded, err)
	}
	if first.Len() != 2 {
		t.Fatalf("Len() = %d", first.Len())
	}

	second := newTestIndex(t)
	loaded, err = second.LoadOrBuild(ctx, dir, seed)
	if err != nil || !loaded {
		t.Fatalf("second LoadOrBuild() = %v, %v", loaded, err)
	}
	if second.Len() != 2 {
		t.Errorf("Len() = %d", second.Len())
	}
}

func TestReadSeed_InvalidDocument(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(seed, []byte(`[{"id":"bad id!","content":"x"}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSeed(seed); err == nil {
		t.Fatal("expected validation error")
	}
}
