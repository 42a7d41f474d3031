package generation

import (
	"context"
	"strings"
	"unicode/utf8"
)

// SimulatedName labels the canned backend in metrics and metadata.
const SimulatedName = "simulated"

// Simulated confidence model.
const (
	baseConfidence       = 0.8
	longPromptRunes      = 1000
	longPromptBonus      = 0.1
	completeAnswerRunes  = 500
	completeAnswerBonus  = 0.05
	safetyReferralBonus  = 0.05
	safetyReferralMarker = "注意事项"
)

type cannedAnswer struct {
	triggers []string
	text     string
}

// Simulated answers from canned templates chosen by keyword. It never fails
// and needs no network.
type Simulated struct {
	answers  []cannedAnswer
	fallback string
}

// NewSimulated creates the canned backend.
func NewSimulated() *Simulated {
	return &Simulated{
		answers: []cannedAnswer{
			{triggers: []string{"糖尿病"}, text: diabetesAnswer},
			{triggers: []string{"缺钙", "钙质"}, text: calciumAnswer},
			{triggers: []string{"高血压"}, text: hypertensionAnswer},
			{triggers: []string{"食谱", "饮食计划"}, text: dietPlanAnswer},
		},
		fallback: generalAnswer,
	}
}

// Name implements Backend.
func (s *Simulated) Name() string { return SimulatedName }

// Generate picks a canned answer by the first matching trigger, applies the
// style and scores confidence from prompt and answer length.
func (s *Simulated) Generate(_ context.Context, req Request) (Answer, error) {
	subject := req.Query
	if strings.TrimSpace(subject) == "" {
		subject = req.Prompt
	}

	text := s.fallback
	for _, a := range s.answers {
		if containsAny(subject, a.triggers) {
			text = a.text
			break
		}
	}
	text = applyStyle(text, req.Style)

	return Answer{
		Text:       text,
		Confidence: confidence(req.Prompt, text),
	}, nil
}

func applyStyle(text string, style Style) string {
	switch style {
	case Friendly:
		text = strings.Replace(text, "您好！", "您好呀！亲爱的朋友，", 1)
		text = strings.ReplaceAll(text, "建议", "建议您")
		return text + "\n\n愿您身体健康，生活愉快！🌸"
	case Detailed:
		return text + "\n\n**补充说明**：以上建议基于一般老年人营养需求制定，具体实施时请考虑个人体质、疾病状况和饮食习惯。"
	default:
		return text
	}
}

func confidence(prompt, answer string) float64 {
	c := baseConfidence
	if utf8.RuneCountInString(prompt) > longPromptRunes {
		c += longPromptBonus
	}
	if utf8.RuneCountInString(answer) > completeAnswerRunes {
		c += completeAnswerBonus
	}
	if strings.Contains(answer, safetyReferralMarker) {
		c += safetyReferralBonus
	}
	return min(c, 1.0)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
