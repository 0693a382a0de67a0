package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"spendlens/internal/analytics"
	"spendlens/internal/core"
	"spendlens/internal/services"
)

type app struct {
	ledger  *services.Ledger
	reports *services.Reports
	out     io.Writer
	now     func() time.Time
}

type command struct {
	help string
	run  func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"add":          {"add a record", cmdAdd},
	"edit":         {"change fields of a record by id", cmdEdit},
	"delete":       {"delete a record by id or list position", cmdDelete},
	"list":         {"list records matching a filter", cmdList},
	"summary":      {"totals per period", cmdSummary},
	"breakdown":    {"totals per category", cmdBreakdown},
	"top":          {"largest categories", cmdTop},
	"distribution": {"records grouped by amount quantile", cmdDistribution},
	"overall":      {"headline totals", cmdOverall},
	"classify":     {"suggest a category for a description", cmdClassify},
	"ingest":       {"draft a record from receipt text or an image", cmdIngest},
	"insights":     {"spending signals and budget projection", cmdInsights},
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) today() core.Date {
	if a.now == nil {
		return core.DateOf(time.Now())
	}
	return core.DateOf(a.now())
}

// filterFlags registers the shared record filter on fs.
func filterFlags(fs *flag.FlagSet) func() (analytics.Filter, error) {
	categories := fs.String("category", "", "comma-separated categories")
	from := fs.String("from", "", "first date, YYYY-MM-DD")
	to := fs.String("to", "", "last date, YYYY-MM-DD")
	minAmount := fs.String("min", "", "minimum amount")
	maxAmount := fs.String("max", "", "maximum amount")

	return func() (analytics.Filter, error) {
		var f analytics.Filter
		for _, c := range strings.Split(*categories, ",") {
			if c = strings.TrimSpace(c); c != "" {
				f.Categories = append(f.Categories, c)
			}
		}
		var err error
		if f.From, err = optionalDate("from", *from); err != nil {
			return f, err
		}
		if f.To, err = optionalDate("to", *to); err != nil {
			return f, err
		}
		if f.MinAmount, err = optionalFloat("min", *minAmount); err != nil {
			return f, err
		}
		if f.MaxAmount, err = optionalFloat("max", *maxAmount); err != nil {
			return f, err
		}
		return f, nil
	}
}

func optionalDate(name, s string) (*core.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("-%s: %w", name, err)
	}
	return &d, nil
}

func optionalFloat(name, s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("-%s: invalid number %q", name, s)
	}
	return &v, nil
}

// setFlags returns the names of flags given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func cmdAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("add")
	amount := fs.String("amount", "", "amount, e.g. 12.50")
	category := fs.String("category", "", "category, e.g. "+strings.Join(core.DefaultCategories(), ", "))
	date := fs.String("date", "", "date, YYYY-MM-DD (default today)")
	desc := fs.String("desc", "", "description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	v, err := core.ParseAmount(*amount)
	if err != nil {
		return err
	}
	if *date == "" {
		*date = a.today().String()
	}
	r, err := a.ledger.Add(ctx, core.RecordInput{Amount: v, Category: *category, Date: *date, Description: *desc})
	if err != nil {
		return err
	}
	return a.print(r)
}

func cmdEdit(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("edit")
	id := fs.String("id", "", "record id")
	amount := fs.String("amount", "", "new amount")
	category := fs.String("category", "", "new category")
	date := fs.String("date", "", "new date, YYYY-MM-DD")
	desc := fs.String("desc", "", "new description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}

	set := setFlags(fs)
	var patch core.RecordPatch
	if set["amount"] {
		v, err := core.ParseAmount(*amount)
		if err != nil {
			return err
		}
		patch.Amount = &v
	}
	if set["category"] {
		patch.Category = category
	}
	if set["date"] {
		patch.Date = date
	}
	if set["desc"] {
		patch.Description = desc
	}
	if patch.IsEmpty() {
		return errors.New("nothing to change")
	}

	r, err := a.ledger.Edit(ctx, *id, patch)
	if err != nil {
		return err
	}
	return a.print(r)
}

func cmdDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("delete")
	id := fs.String("id", "", "record id")
	index := fs.Int("index", -1, "position in the list, starting at 0")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		r   core.Record
		err error
	)
	switch {
	case *id != "":
		r, err = a.ledger.Delete(ctx, *id)
	case *index >= 0:
		r, err = a.ledger.DeleteAt(ctx, *index)
	default:
		return errors.New("one of -id or -index is required")
	}
	if err != nil {
		return err
	}
	return a.print(r)
}

func cmdList(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("list")
	filter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := filter()
	if err != nil {
		return err
	}
	return a.print(a.reports.List(f))
}

type periodRow struct {
	Key   string          `json:"key"`
	Stats analytics.Stats `json:"stats"`
}

func cmdSummary(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("summary")
	granularity := fs.String("granularity", string(analytics.Monthly), "daily|weekly|monthly|quarterly|yearly")
	stddev := fs.Bool("stddev", false, "include standard deviation")
	filter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	g, err := analytics.ParseGranularity(*granularity)
	if err != nil {
		return err
	}
	f, err := filter()
	if err != nil {
		return err
	}

	buckets := a.reports.Summary(g, *stddev, f)
	rows := make([]periodRow, len(buckets))
	for i, b := range buckets {
		rows[i] = periodRow{Key: b.Key, Stats: b.Stats}
	}
	return a.print(rows)
}

func cmdBreakdown(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("breakdown")
	filter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := filter()
	if err != nil {
		return err
	}
	return a.print(a.reports.Breakdown(f))
}

func cmdTop(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("top")
	n := fs.Int("n", 5, "number of categories")
	filter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := filter()
	if err != nil {
		return err
	}
	return a.print(a.reports.TopCategories(*n, f))
}

type quantileRow struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
}

func cmdDistribution(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("distribution")
	filter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := filter()
	if err != nil {
		return err
	}
	buckets, err := a.reports.Distribution(nil, f)
	if err != nil {
		return err
	}
	rows := make([]quantileRow, len(buckets))
	for i, b := range buckets {
		rows[i] = quantileRow{Label: b.Label, Count: b.Count, Sum: core.Round2(b.Sum)}
	}
	return a.print(rows)
}

func cmdOverall(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("overall")
	filter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := filter()
	if err != nil {
		return err
	}
	return a.print(a.reports.Overall(f))
}

func cmdClassify(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("classify")
	history := fs.Bool("history", true, "fall back to categories of earlier records")
	if err := fs.Parse(args); err != nil {
		return err
	}
	desc := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(desc) == "" {
		return errors.New("a description is required")
	}
	return a.print(a.reports.Classify(desc, *history))
}

func cmdIngest(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("ingest")
	text := fs.String("text", "", "receipt text")
	image := fs.String("image", "", "path to a receipt image")
	save := fs.Bool("save", false, "store the draft as a record")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		draft core.ExtractionDraft
		err   error
	)
	switch {
	case *image != "":
		draft, err = a.reports.IngestImage(ctx, *image)
	case strings.TrimSpace(*text) != "":
		draft = a.reports.IngestText(*text)
	default:
		return errors.New("one of -text or -image is required")
	}
	if err != nil {
		return err
	}
	if !*save {
		return a.print(draft)
	}

	r, err := a.ledger.AddFromDraft(ctx, draft, core.DraftEdits{})
	if err != nil {
		return err
	}
	return a.print(r)
}

func cmdInsights(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("insights")
	ref := fs.String("reference", "", "reference date, YYYY-MM-DD (default today)")
	target := fs.String("target", "", "monthly budget target")
	if err := fs.Parse(args); err != nil {
		return err
	}

	day := a.today()
	if *ref != "" {
		d, err := core.ParseDate(*ref)
		if err != nil {
			return fmt.Errorf("-reference: %w", err)
		}
		day = d
	}
	t, err := optionalFloat("target", *target)
	if err != nil {
		return err
	}

	report, err := a.reports.Insights(day, t)
	if err != nil {
		return err
	}
	return a.print(report)
}
