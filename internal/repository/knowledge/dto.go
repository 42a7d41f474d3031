package knowledge

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/kailas-cloud/nutrirag/internal/domain/document"
)

// indexMagic opens every index.bin file.
var indexMagic = [4]byte{'N', 'R', 'I', 'X'}

// documentRecord is the JSON shape of one document in documents.json and
// in seed files.
type documentRecord struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Keywords []string `json:"keywords,omitempty"`
	Source   string   `json:"source,omitempty"`
}

// configRecord is the JSON shape of config.json.
type configRecord struct {
	ModelName string   `json:"model_name"`
	Dimension int      `json:"dimension"`
	DocIDs    []string `json:"doc_ids"`
}

func toRecord(d *document.Document) documentRecord {
	return documentRecord{
		ID:       d.ID(),
		Title:    d.Title(),
		Content:  d.Content(),
		Category: d.Category(),
		Keywords: d.Keywords(),
		Source:   d.Source(),
	}
}

// toDocument validates a seed record.
func (r documentRecord) toDocument() (document.Document, error) {
	doc, err := document.New(r.ID, r.Title, r.Content, r.Category, r.Source, r.Keywords)
	if err != nil {
		return document.Document{}, fmt.Errorf("document %q: %w", r.ID, err)
	}
	return doc, nil
}

// writeVectors encodes rows as magic, dimension, count, then little-endian
// float32 values row by row.
func writeVectors(w io.Writer, dim int, rows [][]float32) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(indexMagic[:]); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	header := []uint32{uint32(dim), uint32(len(rows))} //nolint:gosec // bounded by memory
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	buf := make([]byte, 4*dim)
	for i, row := range rows {
		if len(row) != dim {
			return fmt.Errorf("row %d: dimension %d, want %d", i, len(row), dim)
		}
		for j, f := range row {
			binary.LittleEndian.PutUint32(buf[j*4:], math.Float32bits(f))
		}
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func readVectors(r io.Reader) (int, [][]float32, error) {
	br := bufio.NewReader(r)
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return 0, nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != indexMagic {
		return 0, nil, errors.New("not an index file")
	}
	header := make([]uint32, 2)
	if err := binary.Read(br, binary.LittleEndian, header); err != nil {
		return 0, nil, fmt.Errorf("read header: %w", err)
	}
	dim, count := int(header[0]), int(header[1])

	rows := make([][]float32, count)
	buf := make([]byte, 4*dim)
	for i := range rows {
		if _, err := io.ReadFull(br, buf); err != nil {
			return 0, nil, fmt.Errorf("read row %d: %w", i, err)
		}
		row := make([]float32, dim)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		rows[i] = row
	}
	return dim, rows, nil
}
