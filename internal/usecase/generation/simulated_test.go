package generation

import (
	"context"
	"math"
	"strings"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSimulated_SelectsByKeyword(t *testing.T) {
	s := NewSimulated()

	tests := []struct {
		query string
		want  string
	}{
		{"糖尿病老人应该怎么控制饮食？", "关于糖尿病老年人的饮食管理"},
		{"老年人缺钙应该怎么补充？", "老年人钙质补充确实很重要"},
		{"高血压患者能吃鸡蛋吗？", "高血压老年人的饮食管理非常重要"},
		{"帮我制定一个老年人的健康食谱", "营养均衡的老年人一日饮食计划"},
		{"老人睡不好怎么办", "感谢您的营养咨询"},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			ans, err := s.Generate(context.Background(), Request{Prompt: "p", Query: tc.query})
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(ans.Text, tc.want) {
				t.Errorf("answer does not contain %q", tc.want)
			}
		})
	}
}

func TestSimulated_FirstTriggerWins(t *testing.T) {
	ans, _ := NewSimulated().Generate(context.Background(), Request{Query: "糖尿病合并高血压怎么吃"})
	if !strings.Contains(ans.Text, "糖尿病老年人") {
		t.Error("diabetes template is checked before hypertension")
	}
}

func TestSimulated_PromptUsedWithoutQuery(t *testing.T) {
	ans, _ := NewSimulated().Generate(context.Background(), Request{Prompt: "**用户咨询**：缺钙怎么办"})
	if !strings.Contains(ans.Text, "钙质补充") {
		t.Error("expected prompt keywords to select the calcium answer")
	}
}

func TestSimulated_Styles(t *testing.T) {
	s := NewSimulated()
	ctx := context.Background()

	friendly, _ := s.Generate(ctx, Request{Query: "糖尿病", Style: Friendly})
	if !strings.HasPrefix(friendly.Text, "您好呀！亲爱的朋友，") || !strings.HasSuffix(friendly.Text, "生活愉快！🌸") {
		t.Errorf("friendly style not applied")
	}
	if !strings.Contains(friendly.Text, "建议您") {
		t.Error("friendly style addresses the reader")
	}

	detailed, _ := s.Generate(ctx, Request{Query: "糖尿病", Style: Detailed})
	if !strings.Contains(detailed.Text, "**补充说明**") {
		t.Error("detailed style appends a note")
	}

	plain, _ := s.Generate(ctx, Request{Query: "糖尿病", Style: Professional})
	if plain.Text != diabetesAnswer {
		t.Error("professional style keeps the template unchanged")
	}
}

func TestSimulated_Confidence(t *testing.T) {
	s := NewSimulated()
	ctx := context.Background()

	short, _ := s.Generate(ctx, Request{Prompt: "短", Query: "糖尿病"})
	if !approx(short.Confidence, 0.85) {
		t.Errorf("short prompt with safety marker: %v", short.Confidence)
	}

	long, _ := s.Generate(ctx, Request{Prompt: strings.Repeat("营", 1001), Query: "糖尿病"})
	if !approx(long.Confidence, 0.95) {
		t.Errorf("long prompt: %v", long.Confidence)
	}

	calcium, _ := s.Generate(ctx, Request{Prompt: "短", Query: "缺钙"})
	if !approx(calcium.Confidence, 0.8) {
		t.Errorf("no bonuses: %v", calcium.Confidence)
	}

	if c := confidence(strings.Repeat("营", 1001), strings.Repeat("注意事项", 200)); c > 1 {
		t.Errorf("confidence must be capped at 1, got %v", c)
	}
}

func TestParseStyle(t *testing.T) {
	if s, err := ParseStyle(""); err != nil || s != Professional {
		t.Errorf("empty: %v %v", s, err)
	}
	if s, err := ParseStyle("friendly"); err != nil || s != Friendly {
		t.Errorf("friendly: %v %v", s, err)
	}
	if _, err := ParseStyle("poetic"); err == nil {
		t.Error("expected error for unknown style")
	}
}
