// Package prompt assembles chain-of-thought consultation prompts from an
// injected template library and scores their structure.
package prompt

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrirag/internal/domain"
	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
	domprompt "github.com/kailas-cloud/nutrirag/internal/domain/prompt"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/result"
)

// Assembler defaults.
const (
	DefaultHistoryTurns = 3
	DefaultHistoryRunes = 200
)

// Section headings. The validator looks for the same markers.
const (
	headingQuery     = "**用户咨询**"
	headingProfile   = "**用户档案**"
	headingHistory   = "**近期对话**"
	headingKnowledge = "**相关专业资料**"
	headingSteps     = "**分析思路**"
	headingRules     = "**回答要求**"
)

// NoKnowledge is rendered instead of an empty knowledge block.
const NoKnowledge = "暂无相关专业资料。"

const (
	fewShotIntro = "下面是一些专业营养师回答类似问题的示例，请参考其分析思路和回答风格："
	fewShotOutro = "现在请按照相同的专业标准回答用户的问题："
	stepsIntro   = "请按照以下步骤进行专业分析："
)

var profileLabels = map[string]string{
	"age":         "年龄",
	"gender":      "性别",
	"conditions":  "健康状况",
	"medications": "用药情况",
	"allergies":   "过敏食物",
	"preferences": "饮食偏好",
	"last_intent": "上次咨询类型",
	"last_topics": "已讨论话题",
}

// Assembler renders prompts. It is stateless after construction and safe
// for concurrent use.
type Assembler struct {
	lib          *Library
	counter      Counter
	historyTurns int
	historyRunes int
	logger       *zap.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithHistoryTurns bounds how many prior exchanges are rendered.
func WithHistoryTurns(n int) Option {
	return func(a *Assembler) {
		if n >= 0 {
			a.historyTurns = n
		}
	}
}

// WithHistoryRunes bounds the length of each rendered prior answer.
func WithHistoryRunes(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.historyRunes = n
		}
	}
}

// NewAssembler creates an assembler over lib.
func NewAssembler(lib *Library, counter Counter, logger *zap.Logger, opts ...Option) *Assembler {
	a := &Assembler{
		lib:          lib,
		counter:      counter,
		historyTurns: DefaultHistoryTurns,
		historyRunes: DefaultHistoryRunes,
		logger:       logger,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Build selects the template for pc.Intent and renders the full prompt,
// prepending exemplars when pc.UseFewShot is set.
func (a *Assembler) Build(pc domprompt.Context) domprompt.Built {
	t := a.lib.Select(pc.Intent)
	body := a.Render(t, pc)

	built := domprompt.Built{Text: body, Template: t.Name}
	if !pc.UseFewShot {
		return built
	}

	// Exemplars follow the classified intent, not the selected template.
	examples := a.lib.Exemplars(pc.Intent.Intent)
	if len(examples) == 0 {
		examples = a.lib.Exemplars(t.Intent)
	}
	if len(examples) == 0 {
		return built
	}

	var b strings.Builder
	b.WriteString(fewShotIntro)
	b.WriteString("\n\n")
	b.WriteString(formatExemplars(examples))
	b.WriteString("\n")
	b.WriteString(fewShotOutro)
	b.WriteString("\n\n")
	b.WriteString(body)

	built.Text = b.String()
	built.FewShot = len(examples)
	return built
}

// Render concatenates persona, query, profile, history, knowledge, reasoning
// steps and answer requirements for one template.
func (a *Assembler) Render(t domprompt.Template, pc domprompt.Context) string {
	var b strings.Builder

	b.WriteString(t.Persona)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s：%s\n\n", headingQuery, pc.Query)

	if block := renderProfile(pc.Profile); block != "" {
		fmt.Fprintf(&b, "%s：\n%s\n", headingProfile, block)
	}
	if block := a.renderHistory(pc.History); block != "" {
		fmt.Fprintf(&b, "%s：\n%s\n", headingHistory, block)
	}

	fmt.Fprintf(&b, "%s：\n%s\n", headingKnowledge, RenderKnowledge(pc.Knowledge))
	fmt.Fprintf(&b, "%s：\n%s\n\n%s\n\n", headingSteps, stepsIntro, renderSteps(t.Steps))

	fmt.Fprintf(&b, "%s：\n", headingRules)
	for i, r := range t.Requirements {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	b.WriteString("\n")
	b.WriteString(t.Closing)

	return b.String()
}

// RenderKnowledge numbers each result with its category, title and content.
func RenderKnowledge(items []result.Result) string {
	if len(items) == 0 {
		return NoKnowledge
	}
	parts := make([]string, 0, len(items))
	for i := range items {
		it := &items[i]
		category := it.Category()
		if category == "" {
			category = "未分类"
		}
		title := it.Title()
		if title == "" {
			title = "未知标题"
		}
		parts = append(parts, fmt.Sprintf("【资料%d】类别：%s\n标题：%s\n内容：%s\n", i+1, category, title, it.Content()))
	}
	return strings.Join(parts, "\n")
}

func renderSteps(steps []domprompt.Step) string {
	lines := make([]string, 0, len(steps)*2)
	for i, s := range steps {
		lines = append(lines, fmt.Sprintf("%d. **%s**：%s", i+1, s.Name, s.Instruction))
		if s.Example != "" {
			lines = append(lines, "   示例："+s.Example)
		}
	}
	return strings.Join(lines, "\n")
}

func renderProfile(profile map[string]string) string {
	if len(profile) == 0 {
		return ""
	}
	keys := make([]string, 0, len(profile))
	for k, v := range profile {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		label := profileLabels[k]
		if label == "" {
			label = k
		}
		fmt.Fprintf(&b, "- %s：%s\n", label, profile[k])
	}
	return b.String()
}

func (a *Assembler) renderHistory(history []domprompt.HistoryEntry) string {
	if a.historyTurns == 0 || len(history) == 0 {
		return ""
	}
	if len(history) > a.historyTurns {
		history = history[len(history)-a.historyTurns:]
	}

	var b strings.Builder
	for _, h := range history {
		fmt.Fprintf(&b, "用户：%s\n助手：%s\n", h.User, clip(h.Assistant, a.historyRunes))
	}
	return b.String()
}

func formatExemplars(examples []domprompt.Exemplar) string {
	var b strings.Builder
	for i, e := range examples {
		fmt.Fprintf(&b, "【示例%d】\n用户问题：%s\n分析过程：%s\n专业回答：\n%s\n", i+1, e.Question, e.Analysis, e.Answer)
	}
	return b.String()
}

// CountTokens measures text with the configured counter.
func (a *Assembler) CountTokens(text string) int {
	if a.counter == nil {
		return 0
	}
	return a.counter.Count(text)
}

// TemplateInfo describes the template registered for an intent.
type TemplateInfo struct {
	Name    string           `json:"template_name"`
	Intent  intent.Intent    `json:"intent"`
	Persona string           `json:"system_role"`
	Steps   []domprompt.Step `json:"cot_steps"`
}

// TemplateInfo returns the description of the template for in.
func (a *Assembler) TemplateInfo(in intent.Intent) (TemplateInfo, error) {
	t, ok := a.lib.Template(in)
	if !ok {
		return TemplateInfo{}, fmt.Errorf("template for %s: %w", in, domain.ErrNotFound)
	}
	return TemplateInfo{
		Name:    t.Name,
		Intent:  t.Intent,
		Persona: t.Persona,
		Steps:   slices.Clone(t.Steps),
	}, nil
}

// Library returns the injected template library.
func (a *Assembler) Library() *Library { return a.lib }

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
