package document

import (
	"strings"
	"testing"
)

func TestNew_Valid(t *testing.T) {
	kw := []string{"糖尿病", "饮食"}
	doc, err := New("diabetes-001", "糖尿病饮食原则", "控制总能量摄入。", "疾病营养", "guide.pdf", kw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "diabetes-001" {
		t.Errorf("ID() = %q", doc.ID())
	}
	if doc.Category() != "疾病营养" {
		t.Errorf("Category() = %q", doc.Category())
	}
	if doc.Source() != "guide.pdf" {
		t.Errorf("Source() = %q", doc.Source())
	}

	kw[0] = "mutated"
	if doc.Keywords()[0] != "糖尿病" {
		t.Error("keywords must be copied on construction")
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		content string
	}{
		{"empty id", "", "x"},
		{"bad chars", "doc 1", "x"},
		{"long id", strings.Repeat("a", 257), "x"},
		{"empty content", "doc-1", ""},
		{"huge content", "doc-1", strings.Repeat("a", MaxContentSize+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.id, "", tt.content, "", "", nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestText(t *testing.T) {
	withTitle := Reconstruct("a", "标题", "内容", "", "", nil)
	if got := withTitle.Text(); got != "标题 内容" {
		t.Errorf("Text() = %q", got)
	}
	noTitle := Reconstruct("b", "", "内容", "", "", nil)
	if got := noTitle.Text(); got != "内容" {
		t.Errorf("Text() = %q", got)
	}
}

func TestWithKeywords_DoesNotMutateOriginal(t *testing.T) {
	doc := Reconstruct("a", "t", "c", "", "", []string{"x"})
	next := doc.WithKeywords([]string{"y", "z"})

	if len(doc.Keywords()) != 1 || doc.Keywords()[0] != "x" {
		t.Errorf("original changed: %v", doc.Keywords())
	}
	if len(next.Keywords()) != 2 {
		t.Errorf("copy keywords = %v", next.Keywords())
	}
}
