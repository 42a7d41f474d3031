package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrirag/internal/domain/document"
)

// Artifact names inside an index directory.
const (
	IndexFile     = "index.bin"
	DocumentsFile = "documents.json"
	ConfigFile    = "config.json"
)

// Save writes the index, document sidecar and config into dir.
// Each file is written to a temp name and renamed into place.
func (ix *Index) Save(dir string) error {
	ix.mu.RLock()
	records := make([]documentRecord, len(ix.docs))
	ids := make([]string, len(ix.docs))
	for i := range ix.docs {
		records[i] = toRecord(&ix.docs[i])
		ids[i] = ix.docs[i].ID()
	}
	var vecBuf bytes.Buffer
	err := writeVectors(&vecBuf, ix.dim, ix.vectors)
	cfg := configRecord{ModelName: ix.model, Dimension: ix.dim, DocIDs: ids}
	ix.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode vectors: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, IndexFile), vecBuf.Bytes()); err != nil {
		return err
	}
	docsJSON, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, DocumentsFile), docsJSON); err != nil {
		return err
	}
	cfgJSON, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, ConfigFile), cfgJSON); err != nil {
		return err
	}

	ix.logger.Info("Index saved", zap.String("dir", dir), zap.Int("documents", len(records)))
	return nil
}

// Load replaces the index contents with the artifacts in dir. A model name
// differing from the configured one is logged, not rejected.
func (ix *Index) Load(dir string) error {
	cfgData, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var cfg configRecord
	if err := json.Unmarshal(cfgData, &cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	docsData, err := os.ReadFile(filepath.Join(dir, DocumentsFile))
	if err != nil {
		return fmt.Errorf("read documents: %w", err)
	}
	var records []documentRecord
	if err := json.Unmarshal(docsData, &records); err != nil {
		return fmt.Errorf("parse documents: %w", err)
	}

	f, err := os.Open(filepath.Join(dir, IndexFile))
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only
	dim, rows, err := readVectors(f)
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}

	if len(rows) != len(records) || len(cfg.DocIDs) != len(records) {
		return fmt.Errorf("artifact mismatch: %d vectors, %d documents, %d ids",
			len(rows), len(records), len(cfg.DocIDs))
	}
	if cfg.Dimension != dim {
		return fmt.Errorf("config dimension %d, index dimension %d", cfg.Dimension, dim)
	}

	docs := make([]document.Document, len(records))
	positions := make(map[string]int, len(records))
	for i, r := range records {
		if r.ID != cfg.DocIDs[i] {
			return fmt.Errorf("document %d: id %q does not match config id %q", i, r.ID, cfg.DocIDs[i])
		}
		docs[i] = document.Reconstruct(r.ID, r.Title, r.Content, r.Category, r.Source, r.Keywords)
		positions[r.ID] = i
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.sealed {
		return errSealedLoad
	}
	if ix.model != "" && cfg.ModelName != ix.model {
		ix.logger.Warn("Index model mismatch",
			zap.String("saved", cfg.ModelName),
			zap.String("configured", ix.model),
		)
	}
	if ix.model == "" {
		ix.model = cfg.ModelName
	}
	ix.dim = dim
	ix.docs = docs
	ix.vectors = rows
	ix.positions = positions

	ix.logger.Info("Index loaded", zap.String("dir", dir), zap.Int("documents", len(docs)), zap.Int("dimension", dim))
	return nil
}

var errSealedLoad = errors.New("cannot load into a sealed index")

// LoadOrBuild loads a persisted index from dir when one exists. Otherwise it
// ingests seedFile and, when dir is set, saves the result. Reports whether
// the index came from disk.
func (ix *Index) LoadOrBuild(ctx context.Context, dir, seedFile string) (bool, error) {
	if dir != "" {
		if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil {
			if err := ix.Load(dir); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	if seedFile == "" {
		ix.logger.Warn("No persisted index and no seed file, starting empty")
		return false, nil
	}
	docs, err := ReadSeed(seedFile)
	if err != nil {
		return false, err
	}
	if _, err := ix.AddDocuments(ctx, docs); err != nil {
		return false, fmt.Errorf("ingest seed: %w", err)
	}
	if dir != "" {
		if err := ix.Save(dir); err != nil {
			return false, fmt.Errorf("save index: %w", err)
		}
	}
	return false, nil
}

// ReadSeed parses a JSON array of documents.
func ReadSeed(path string) ([]document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var records []documentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	docs := make([]document.Document, 0, len(records))
	for _, r := range records {
		doc, err := r.toDocument()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
