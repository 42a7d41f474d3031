// Package intent holds the closed intent taxonomy and the rule table that
// classifies a query into it.
package intent

import (
	"fmt"
	"regexp"
	"sort"
)

// Intent is a query intent label.
type Intent string

// Intent constants.
const (
	DiseaseNutrition   Intent = "disease_nutrition"
	NutrientDeficiency Intent = "nutrient_deficiency"
	DietPlanning       Intent = "diet_planning"
	FoodSelection      Intent = "food_selection"
	SymptomRelief      Intent = "symptom_relief"
	// General is returned when no rule matches.
	General Intent = "general"
)

// IsValid reports whether i belongs to the built-in taxonomy.
func (i Intent) IsValid() bool {
	switch i {
	case DiseaseNutrition, NutrientDeficiency, DietPlanning, FoodSelection, SymptomRelief, General:
		return true
	}
	return false
}

// Score is an intent with its confidence in [0,1].
type Score struct {
	Intent     Intent
	Confidence float64
}

// Rule maps an intent to the patterns that vote for it.
type Rule struct {
	Intent   Intent
	Patterns []*regexp.Regexp
}

// NewRule compiles patterns into a Rule.
func NewRule(in Intent, patterns ...string) (Rule, error) {
	if len(patterns) == 0 {
		return Rule{}, fmt.Errorf("intent %q: at least one pattern is required", in)
	}
	r := Rule{Intent: in, Patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return Rule{}, fmt.Errorf("intent %q: compile %q: %w", in, p, err)
		}
		r.Patterns = append(r.Patterns, re)
	}
	return r, nil
}

// MustRule is NewRule that panics on a bad pattern. For static tables only.
func MustRule(in Intent, patterns ...string) Rule {
	r, err := NewRule(in, patterns...)
	if err != nil {
		panic(err)
	}
	return r
}

// Table is an ordered, immutable list of rules. Order breaks ties.
type Table struct {
	rules []Rule
}

// NewTable creates a Table. Rules are evaluated in the given order.
func NewTable(rules ...Rule) Table {
	return Table{rules: append([]Rule(nil), rules...)}
}

// DefaultTable returns the built-in Chinese nutrition intent rules.
func DefaultTable() Table {
	return NewTable(
		MustRule(DiseaseNutrition,
			`糖尿病|高血压|心血管|冠心病|脑血管|骨质疏松`,
			`疾病.*饮食|患者.*营养|病人.*吃`,
			`并发症|控制.*饮食|疾病.*管理`,
		),
		MustRule(NutrientDeficiency,
			`缺.*[钙铁锌硒]|维生素|营养素|矿物质`,
			`补充.*[钙铁锌硒]|怎么补|如何补`,
			`营养不良|吸收不好|缺乏`,
		),
		MustRule(DietPlanning,
			`食谱|菜谱|一日.*饮食|膳食.*计划`,
			`如何.*搭配|怎么.*安排|制定.*饮食`,
			`一天.*吃什么|三餐.*安排`,
		),
		MustRule(FoodSelection,
			`能.*吃|可以.*吃|适合.*吃|不能.*吃`,
			`[能否可]以.*食用|是否.*适宜|有.*禁忌`,
			`什么.*食物|哪些.*食品|选择.*食材`,
		),
		MustRule(SymptomRelief,
			`便秘|失眠|消化不良|食欲不振|恶心`,
			`症状.*缓解|不适.*改善|问题.*解决`,
		),
	)
}

// Rules returns the rules in evaluation order.
func (t Table) Rules() []Rule { return t.rules }

// scores returns the confidence of every rule with at least one match, in table order.
func (t Table) scores(query string) []Score {
	var out []Score
	for _, r := range t.rules {
		matched := 0
		for _, p := range r.Patterns {
			if p.MatchString(query) {
				matched++
			}
		}
		if matched > 0 {
			out = append(out, Score{Intent: r.Intent, Confidence: float64(matched) / float64(len(r.Patterns))})
		}
	}
	return out
}

// Classify returns the best-scoring intent. Ties go to the rule listed first.
// No match yields General with confidence 0.
func (t Table) Classify(query string) Score {
	best := Score{Intent: General}
	for _, s := range t.scores(query) {
		if s.Confidence > best.Confidence {
			best = s
		}
	}
	return best
}

// Candidates returns every intent scoring at least threshold, highest first.
// Equal scores keep table order.
func (t Table) Candidates(query string, threshold float64) []Score {
	all := t.scores(query)
	out := all[:0]
	for _, s := range all {
		if s.Confidence >= threshold {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}
