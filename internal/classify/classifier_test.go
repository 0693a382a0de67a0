package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlens/internal/core"
)

func rec(desc, cat string) core.Record {
	return core.Record{Amount: 1, Category: cat, Date: core.NewDate(2025, 1, 1), Description: desc}
}

func TestClassifyKeywords(t *testing.T) {
	c := Default()
	tests := []struct {
		desc string
		want string
	}{
		{"Dominos pizza delivery", "Food"},
		{"Lunch at a RESTAURANT", "Food"},
		{"Uber to airport", "Transport"},
		{"Netflix monthly", "Entertainment"},
		{"amazon order", "Shopping"},
		{"Electricity bill March", "Bills"},
		{"pharmacy run", "Health"},
		{"Tuition fee", "Education"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.desc, nil), tt.desc)
	}
}

func TestClassifyTableOrderWins(t *testing.T) {
	c := Default()
	// "cafe" (Food) and "uber" (Transport) both match; Food is earlier.
	res := c.Explain("uber ride to cafe", nil)
	assert.Equal(t, "Food", res.Category)
	assert.Equal(t, SourceKeyword, res.Source)
	assert.Equal(t, "cafe", res.Match)
	assert.Equal(t, DefaultTableVersion, res.TableVersion)

	// "movie" (Entertainment) precedes "store" (Shopping).
	assert.Equal(t, "Entertainment", c.Classify("movie store", nil))
}

func TestClassifyHistoryFallback(t *testing.T) {
	c := Default()
	history := []core.Record{rec("xyz123 coffee", "Food")}
	res := c.Explain("xyz123", history)
	assert.Equal(t, "Food", res.Category)
	assert.Equal(t, SourceHistory, res.Source)
	assert.Equal(t, "xyz123", res.Match)
}

func TestClassifyHistoryModeAndTies(t *testing.T) {
	c := Default()
	history := []core.Record{
		rec("gym zeta", "Health"),
		rec("ZETA gym", "Personal"),
		rec("zeta again", "Personal"),
	}
	assert.Equal(t, "Personal", c.Classify("zeta", history))

	tied := []core.Record{
		rec("kappa one", "Gifts"),
		rec("kappa two", "Pets"),
	}
	assert.Equal(t, "Gifts", c.Classify("kappa", tied), "tie goes to first encountered")
}

func TestClassifyHistoryStopsAtFirstMatchingToken(t *testing.T) {
	c := Default()
	history := []core.Record{
		rec("alpha", "Gifts"),
		rec("beta", "Pets"),
		rec("beta again", "Pets"),
	}
	// "alpha" matches first; "beta" counts are not merged in.
	assert.Equal(t, "Gifts", c.Classify("alpha beta", history))
	assert.Equal(t, "Pets", c.Classify("nothing beta", history))
}

func TestClassifyFallback(t *testing.T) {
	c := Default()
	assert.Equal(t, "Other", c.Classify("asdf", []core.Record{}))
	assert.Equal(t, "Other", c.Classify("asdf", nil))
	assert.Equal(t, "Other", c.Classify("", []core.Record{rec("anything", "Food")}))

	res := c.Explain("qwerty", []core.Record{rec("unrelated", "Food")})
	assert.Equal(t, SourceFallback, res.Source)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := Default()
	history := []core.Record{rec("zz top", "Music"), rec("zz plant", "Garden")}
	first := c.Explain("zz", history)
	second := c.Explain("zz", history)
	assert.Equal(t, first, second)
	assert.Equal(t, "zz top", history[0].Description, "history untouched")
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `version: "custom-1"
rules:
  - category: Pets
    keywords: [Vet, "Pet Food"]
  - category: Food
    keywords: [food]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, "custom-1", table.Version)

	c := New(table)
	assert.Equal(t, "custom-1", c.TableVersion())
	assert.Equal(t, "custom-1", c.Explain("nothing known", nil).TableVersion, "fallback results carry the version too")
	assert.Equal(t, "Pets", c.Classify("pet food bag", nil), "first rule wins")
	assert.Equal(t, "Pets", c.Classify("VET visit", nil))
}

func TestLoadTableRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: x\nrules: []\n"), 0o600))
	_, err := LoadTable(path)
	assert.Error(t, err)

	_, err = LoadTable(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
