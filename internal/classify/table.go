// Package classify assigns categories to descriptions with an ordered keyword
// table and, failing that, the categories of earlier records.
package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"spendlens/internal/core"
)

// DefaultTableVersion identifies the built-in keyword table.
const DefaultTableVersion = "2024.1"

type (
	// Rule maps one category to the keywords that select it.
	Rule struct {
		Category string   `yaml:"category"`
		Keywords []string `yaml:"keywords"`
	}

	// Table is an ordered rule list. Order is significant: the first rule
	// with a keyword contained in the description wins, so reordering rules
	// changes results and must come with a new Version.
	Table struct {
		Version string `yaml:"version"`
		Rules   []Rule `yaml:"rules"`
	}
)

// DefaultTable returns the built-in rule list.
func DefaultTable() Table {
	return Table{
		Version: DefaultTableVersion,
		Rules: []Rule{
			{core.CategoryFood, []string{"restaurant", "cafe", "grocery", "supermarket", "zomato", "swiggy", "dine", "meal", "pizza", "domino", "burger"}},
			{core.CategoryTransport, []string{"uber", "ola", "taxi", "bus", "metro", "petrol", "fuel", "auto", "parking"}},
			{core.CategoryEntertainment, []string{"netflix", "movie", "ticket", "spotify", "concert", "streaming"}},
			{core.CategoryShopping, []string{"flipkart", "amazon", "mall", "shopping", "store", "clothing", "shoes"}},
			{core.CategoryBills, []string{"electricity", "internet", "bill", "water", "subscription", "rent", "emi"}},
			{core.CategoryHealth, []string{"doctor", "hospital", "pharmacy", "clinic", "medicine"}},
			{core.CategoryEducation, []string{"course", "college", "tuition", "books", "class"}},
		},
	}
}

// LoadTable reads a YAML rule table from path. Keywords are lower-cased so the
// file can be written in any case.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read keyword table: %w", err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse keyword table %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, fmt.Errorf("keyword table %s: %w", path, err)
	}
	return t.normalized(), nil
}

// Validate rejects tables that could not classify anything sensibly.
func (t Table) Validate() error {
	if strings.TrimSpace(t.Version) == "" {
		return fmt.Errorf("missing version")
	}
	if len(t.Rules) == 0 {
		return fmt.Errorf("no rules")
	}
	for i, r := range t.Rules {
		if strings.TrimSpace(r.Category) == "" {
			return fmt.Errorf("rule %d has no category", i)
		}
		for _, kw := range r.Keywords {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("rule %d (%s) has an empty keyword", i, r.Category)
			}
		}
	}
	return nil
}

func (t Table) normalized() Table {
	out := Table{Version: t.Version, Rules: make([]Rule, len(t.Rules))}
	for i, r := range t.Rules {
		kws := make([]string, len(r.Keywords))
		for j, kw := range r.Keywords {
			kws[j] = strings.ToLower(strings.TrimSpace(kw))
		}
		out.Rules[i] = Rule{Category: strings.TrimSpace(r.Category), Keywords: kws}
	}
	return out
}
