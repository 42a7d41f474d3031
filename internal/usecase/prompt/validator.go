package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	domprompt "github.com/kailas-cloud/nutrirag/internal/domain/prompt"
)

// Validator thresholds and deductions.
const (
	minPromptRunes = 500
	maxPromptRunes = 5000

	penaltyTooShort   = 20
	penaltyTooLong    = 10
	penaltyComponent  = 15
	penaltyFormatting = 10
	penaltyReasoning  = 15
)

// RequiredComponents are the section markers every prompt must contain.
var RequiredComponents = []string{"用户咨询", "专业资料", "分析思路", "回答要求"}

var reasoningMarkers = []string{"步骤", "分析"}

// Validate scores the structure of a rendered prompt. It starts at 100 and
// deducts for length outside [500, 5000] runes, each missing required
// component, missing bold formatting and missing reasoning guidance.
func Validate(text string) domprompt.Validation {
	v := domprompt.Validation{Length: utf8.RuneCountInString(text)}
	score := 100

	switch {
	case v.Length < minPromptRunes:
		v.Issues = append(v.Issues, "Prompt过短，可能信息不足")
		score -= penaltyTooShort
	case v.Length > maxPromptRunes:
		v.Issues = append(v.Issues, "Prompt过长，可能影响模型性能")
		score -= penaltyTooLong
	}

	for _, c := range RequiredComponents {
		if !strings.Contains(text, c) {
			v.MissingComponents = append(v.MissingComponents, c)
			score -= penaltyComponent
		}
	}
	if len(v.MissingComponents) > 0 {
		v.Issues = append(v.Issues, fmt.Sprintf("缺少必要组件: %s", strings.Join(v.MissingComponents, ", ")))
	}

	if !strings.Contains(text, "**") {
		v.Issues = append(v.Issues, "缺少格式化标记，结构不够清晰")
		score -= penaltyFormatting
	}

	if !containsAny(text, reasoningMarkers) {
		v.Issues = append(v.Issues, "缺少思维链指导")
		score -= penaltyReasoning
	}

	v.Score = max(score, 0)
	v.Level = domprompt.LevelFromScore(v.Score)
	return v
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
