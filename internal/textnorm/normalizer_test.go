package textnorm

import (
	"slices"
	"testing"
)

func TestClean(t *testing.T) {
	n := New()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"keeps chinese punctuation", "糖尿病，怎么吃？", "糖尿病，怎么吃？"},
		{"drops symbols", "糖尿病@#吃*什么", "糖尿病 吃 什么"},
		{"collapses whitespace", "  维生素   D  ", "维生素 D"},
		{"folds full-width alnum", "ＶＣ１００ｍｇ", "VC100mg"},
		{"drops emoji", "补钙🌸方案", "补钙 方案"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenize_LexiconMatching(t *testing.T) {
	n := New()
	got := n.Tokenize("糖尿病老人应该怎么控制饮食？")
	want := []string{"糖尿病", "老人", "应该", "怎么", "控制", "饮食"}
	if !slices.Equal(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenize_DropsStopwordsAndShortTokens(t *testing.T) {
	n := New()
	got := n.Tokenize("我的 Diet 和 a 计划")
	if slices.Contains(got, "我") || slices.Contains(got, "的") || slices.Contains(got, "和") {
		t.Errorf("stopwords leaked: %v", got)
	}
	if slices.Contains(got, "a") {
		t.Errorf("single-letter token leaked: %v", got)
	}
	if !slices.Contains(got, "diet") || !slices.Contains(got, "计划") {
		t.Errorf("expected diet and 计划 in %v", got)
	}
}

func TestTokenize_UnknownRunsChunked(t *testing.T) {
	n := New()
	got := n.Tokenize("鳕鱼肝油")
	if len(got) != 2 || got[0] != "鳕鱼" || got[1] != "肝油" {
		t.Errorf("Tokenize = %v", got)
	}
}

func TestTokenize_Empty(t *testing.T) {
	if got := New().Tokenize("@@@"); len(got) != 0 {
		t.Errorf("expected no tokens, got %v", got)
	}
}

func TestExtractKeywords_RanksDomainTermsFirst(t *testing.T) {
	n := New()
	got := n.ExtractKeywords("糖尿病老人应该怎么控制饮食？", 3)
	want := []string{"糖尿病", "饮食", "老人"}
	if !slices.Equal(got, want) {
		t.Errorf("ExtractKeywords = %v, want %v", got, want)
	}
}

func TestExtractKeywords_FrequencyAndLimit(t *testing.T) {
	n := New()
	got := n.ExtractKeywords("蔬菜 蔬菜 蔬菜 水果 牛奶", 2)
	if len(got) != 2 || got[0] != "蔬菜" {
		t.Errorf("ExtractKeywords = %v", got)
	}
	if len(n.ExtractKeywords("蔬菜 水果", 0)) != 2 {
		t.Error("k <= 0 should use the default limit")
	}
}

func TestWithTerms(t *testing.T) {
	n := New(WithTerms("鳕鱼肝油"))
	got := n.Tokenize("鳕鱼肝油")
	if len(got) != 1 || got[0] != "鳕鱼肝油" {
		t.Errorf("Tokenize = %v", got)
	}
	kw := n.ExtractKeywords("鳕鱼肝油 蔬菜", 1)
	if kw[0] != "鳕鱼肝油" {
		t.Errorf("custom term should be weighted as domain term, got %v", kw)
	}
}

func TestWithStopwords(t *testing.T) {
	n := New(WithStopwords("蔬菜"))
	if got := n.Tokenize("蔬菜水果"); slices.Contains(got, "蔬菜") {
		t.Errorf("custom stopword leaked: %v", got)
	}
}

func TestFoldAlnum_KeepsFullWidthPunctuation(t *testing.T) {
	got := foldAlnum("每日钙１０００ｍｇ，分两次")
	if got != "每日钙1000mg，分两次" {
		t.Errorf("foldAlnum = %q", got)
	}
}
