package classify

import (
	"strings"

	"spendlens/internal/core"
)

// Source names the step that produced a classification.
type Source string

const (
	SourceKeyword  Source = "keyword"
	SourceHistory  Source = "history"
	SourceFallback Source = "fallback"
)

// Result explains a classification.
type Result struct {
	Category string `json:"category"`
	Source   Source `json:"source"`
	// Match is the keyword or history token that decided the result.
	Match string `json:"match,omitempty"`
	// TableVersion identifies the keyword table consulted.
	TableVersion string `json:"table_version"`
}

// Classifier is safe for concurrent use; it holds no mutable state.
type Classifier struct {
	table Table
}

// New returns a Classifier over table.
func New(table Table) *Classifier {
	return &Classifier{table: table.normalized()}
}

// Default returns a Classifier over DefaultTable.
func Default() *Classifier {
	return New(DefaultTable())
}

// TableVersion reports the version of the rules in use.
func (c *Classifier) TableVersion() string {
	return c.table.Version
}

// Classify returns the category for description.
func (c *Classifier) Classify(description string, history []core.Record) string {
	return c.Explain(description, history).Category
}

// Explain classifies description and reports which rule decided.
func (c *Classifier) Explain(description string, history []core.Record) Result {
	res := c.explain(description, history)
	res.TableVersion = c.table.Version
	return res
}

func (c *Classifier) explain(description string, history []core.Record) Result {
	lower := strings.ToLower(description)

	for _, rule := range c.table.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return Result{Category: rule.Category, Source: SourceKeyword, Match: kw}
			}
		}
	}

	if len(history) > 0 {
		for _, token := range strings.Fields(lower) {
			if cat, ok := modeForToken(token, history); ok {
				return Result{Category: cat, Source: SourceHistory, Match: token}
			}
		}
	}

	return Result{Category: core.CategoryOther, Source: SourceFallback}
}

// modeForToken returns the most frequent category among history records whose
// description contains token. Ties go to the category seen first.
func modeForToken(token string, history []core.Record) (string, bool) {
	counts := map[string]int{}
	var order []string
	for _, r := range history {
		if !strings.Contains(strings.ToLower(r.Description), token) {
			continue
		}
		if _, seen := counts[r.Category]; !seen {
			order = append(order, r.Category)
		}
		counts[r.Category]++
	}
	if len(order) == 0 {
		return "", false
	}
	best := order[0]
	for _, cat := range order[1:] {
		if counts[cat] > counts[best] {
			best = cat
		}
	}
	return best, true
}
