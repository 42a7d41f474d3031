package conversation

import "strings"

// Topic is a discussed subject detected by substring match.
type Topic struct {
	Name string
	// InputMarkers match the user input.
	InputMarkers []string
	// AnswerMarkers match the generated answer.
	AnswerMarkers []string
}

// DefaultTopics returns the built-in topic vocabulary.
func DefaultTopics() []Topic {
	return []Topic{
		{Name: "糖尿病", InputMarkers: []string{"糖尿病"}, AnswerMarkers: []string{"糖尿病"}},
		{Name: "高血压", InputMarkers: []string{"高血压"}, AnswerMarkers: []string{"高血压"}},
		{Name: "补钙", InputMarkers: []string{"缺钙"}, AnswerMarkers: []string{"钙"}},
		{Name: "饮食规划", InputMarkers: []string{"食谱", "饮食计划"}},
	}
}

func detectTopics(topics []Topic, input, answer string) []string {
	var out []string
	for _, t := range topics {
		if containsAny(input, t.InputMarkers) || containsAny(answer, t.AnswerMarkers) {
			out = append(out, t.Name)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
