package knowledge

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrirag/internal/domain"
	"github.com/kailas-cloud/nutrirag/internal/domain/document"
)

// vocabEmbedder marks one dimension per vocabulary term found in the text.
type vocabEmbedder struct {
	vocab []string
	model string
	err   error
}

func (e *vocabEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	vec := make([]float32, len(e.vocab))
	for i, w := range e.vocab {
		if strings.Contains(text, w) {
			vec[i] = 1
		}
	}
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: 1}, nil
}

func (e *vocabEmbedder) ModelName() string { return e.model }

type fixedKeywords []string

func (k fixedKeywords) ExtractKeywords(string, int) []string { return k }

var testVocab = []string{"糖尿病", "饮食", "血糖", "高血压", "盐", "钙", "牛奶", "老人"}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	return New(&vocabEmbedder{vocab: testVocab, model: "vocab-v1"}, "", nil, zap.NewNop())
}

func mustDoc(t *testing.T, id, title, content, category string) document.Document {
	t.Helper()
	d, err := document.New(id, title, content, category, "test", nil)
	if err != nil {
		t.Fatalf("document.New(%s): %v", id, err)
	}
	return d
}

func seedDocs(t *testing.T) []document.Document {
	t.Helper()
	return []document.Document{
		mustDoc(t, "diabetes", "糖尿病饮食", "糖尿病老人应控制血糖，饮食定时定量。", "疾病营养"),
		mustDoc(t, "hypertension", "高血压", "高血压患者每日盐摄入不超过5克。", "疾病营养"),
		mustDoc(t, "calcium", "补钙", "牛奶是钙的优质来源。", "营养素"),
	}
}
