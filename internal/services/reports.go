package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"spendlens/internal/analytics"
	"spendlens/internal/cache"
	"spendlens/internal/classify"
	"spendlens/internal/core"
	"spendlens/internal/extract"
	"spendlens/internal/insights"
	"spendlens/internal/log"
)

const (
	DefaultViewCacheSize = 128
	DefaultViewCacheTTL  = 5 * time.Minute
)

// Observer receives counters about read-side activity.
type Observer interface {
	ViewLookup(view string, hit bool)
	Classified(source classify.Source)
	DraftProduced(origin string, d core.ExtractionDraft)
}

type noopObserver struct{}

func (noopObserver) ViewLookup(string, bool)                    {}
func (noopObserver) Classified(classify.Source)                 {}
func (noopObserver) DraftProduced(string, core.ExtractionDraft) {}

// ReportsConfig wires the read side.
type ReportsConfig struct {
	Classifier *classify.Classifier
	Extractor  *extract.Extractor
	Recognizer extract.TextRecognizer
	// BudgetTarget is used by Insights when the caller passes no target.
	BudgetTarget float64
	CacheSize    int
	CacheTTL     time.Duration
	Observer     Observer
}

// Reports answers aggregate queries over the ledger. Views are cached per
// ledger revision and dropped on every write.
type Reports struct {
	ledger     *Ledger
	classifier *classify.Classifier
	extractor  *extract.Extractor
	recognizer extract.TextRecognizer
	budget     float64
	views      *cache.LRUCache[any]
	observer   Observer
	logger     *log.Logger
}

func NewReports(ledger *Ledger, cfg ReportsConfig, logger *log.Logger) *Reports {
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.Classifier == nil {
		cfg.Classifier = classify.Default()
	}
	if cfg.Extractor == nil {
		cfg.Extractor = extract.NewExtractor(nil, cfg.Classifier)
	}
	if cfg.Recognizer == nil {
		cfg.Recognizer = extract.NoRecognizer{}
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultViewCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultViewCacheTTL
	}
	if cfg.Observer == nil {
		cfg.Observer = noopObserver{}
	}

	r := &Reports{
		ledger:     ledger,
		classifier: cfg.Classifier,
		extractor:  cfg.Extractor,
		recognizer: cfg.Recognizer,
		budget:     cfg.BudgetTarget,
		views:      cache.NewLRUCache[any](cfg.CacheSize, cfg.CacheTTL),
		observer:   cfg.Observer,
		logger:     logger.WithComponent(log.ComponentReports),
	}
	ledger.Subscribe(r.onChange)
	return r
}

// Views exposes the view cache so a cache.Manager can sweep it.
func (r *Reports) Views() *cache.LRUCache[any] {
	return r.views
}

func (r *Reports) onChange(ctx context.Context, c Change) {
	if n := r.views.Purge(); n > 0 {
		r.logger.DebugContext(ctx, "Views purged", log.FieldCount, n, log.FieldRevision, c.Revision)
	}
}

// cached returns the view stored under key for the current revision, or
// builds it from a snapshot of the ledger.
func cached[T any](r *Reports, view, key string, build func([]core.Record) (T, error)) (T, error) {
	records, rev := r.ledger.Snapshot()
	k := fmt.Sprintf("%d|%s|%s", rev, view, key)
	if v, ok := r.views.Get(k); ok {
		if t, ok := v.(T); ok {
			r.observer.ViewLookup(view, true)
			return t, nil
		}
	}
	r.observer.ViewLookup(view, false)

	out, err := build(records)
	if err != nil {
		var zero T
		return zero, err
	}
	r.views.Set(k, out)
	return out, nil
}

// List returns the records passing f, in collection order.
func (r *Reports) List(f analytics.Filter) []core.Record {
	out, _ := cached(r, "list", filterKey(f), func(records []core.Record) ([]core.Record, error) {
		return f.Apply(records), nil
	})
	return append([]core.Record(nil), out...)
}

// Summary groups the filtered records by period.
func (r *Reports) Summary(g analytics.Granularity, withStdDev bool, f analytics.Filter) []analytics.Bucket {
	key := fmt.Sprintf("%s|%t|%s", g, withStdDev, filterKey(f))
	out, _ := cached(r, "summary", key, func(records []core.Record) ([]analytics.Bucket, error) {
		return analytics.GroupByPeriod(f.Apply(records), g, withStdDev), nil
	})
	return out
}

func (r *Reports) Breakdown(f analytics.Filter) []analytics.CategoryTotal {
	out, _ := cached(r, "breakdown", filterKey(f), func(records []core.Record) ([]analytics.CategoryTotal, error) {
		return analytics.CategoryBreakdown(f.Apply(records)), nil
	})
	return out
}

func (r *Reports) TopCategories(n int, f analytics.Filter) []analytics.CategoryTotal {
	key := strconv.Itoa(n) + "|" + filterKey(f)
	out, _ := cached(r, "top", key, func(records []core.Record) ([]analytics.CategoryTotal, error) {
		return analytics.TopNCategories(f.Apply(records), n), nil
	})
	return out
}

// Distribution splits the filtered records into quantile bands. Nil edges
// select the default bands.
func (r *Reports) Distribution(edges []float64, f analytics.Filter) ([]analytics.DistributionBucket, error) {
	key := floatsKey(edges) + "|" + filterKey(f)
	return cached(r, "distribution", key, func(records []core.Record) ([]analytics.DistributionBucket, error) {
		return analytics.QuantileDistribution(f.Apply(records), edges)
	})
}

func (r *Reports) Overall(f analytics.Filter) analytics.OverallSummary {
	out, _ := cached(r, "overall", filterKey(f), func(records []core.Record) (analytics.OverallSummary, error) {
		return analytics.Overall(f.Apply(records)), nil
	})
	return out
}

// Classify suggests a category for description. With useHistory the current
// records back up the keyword table.
func (r *Reports) Classify(description string, useHistory bool) classify.Result {
	var history []core.Record
	if useHistory {
		history = r.ledger.Records()
	}
	res := r.classifier.Explain(description, history)
	r.observer.Classified(res.Source)
	return res
}

// IngestText builds a draft from receipt text, using the current records as
// classification history.
func (r *Reports) IngestText(text string) core.ExtractionDraft {
	d := r.extractor.Draft(text, r.ledger.Records())
	r.observer.DraftProduced("text", d)
	return d
}

// IngestImage recognizes the text in an image and drafts from it.
func (r *Reports) IngestImage(ctx context.Context, imagePath string) (core.ExtractionDraft, error) {
	if !r.recognizer.Supported() {
		return core.ExtractionDraft{}, extract.ErrCapabilityUnavailable
	}
	text, err := r.recognizer.Recognize(ctx, imagePath)
	if err != nil {
		return core.ExtractionDraft{}, fmt.Errorf("recognize receipt: %w", err)
	}
	d := r.extractor.Draft(text, r.ledger.Records())
	r.observer.DraftProduced("image", d)
	r.logger.InfoContext(ctx, "Receipt recognized", log.FieldOperation, log.OpIngest,
		"amount_found", d.CandidateAmount != nil, "date_found", d.CandidateDate != nil)
	return d, nil
}

// OCRSupported reports whether IngestImage can work.
func (r *Reports) OCRSupported() bool {
	return r.recognizer.Supported()
}

// DatesSupported reports whether drafts can carry a candidate date.
func (r *Reports) DatesSupported() bool {
	return r.extractor.DatesSupported()
}

// Insights runs every insight as of ref. A nil target falls back to the
// configured budget.
func (r *Reports) Insights(ref core.Date, target *float64) (insights.Report, error) {
	t := r.budget
	if target != nil {
		t = *target
	}
	key := ref.String() + "|" + strconv.FormatFloat(t, 'f', -1, 64)
	return cached(r, "insights", key, func(records []core.Record) (insights.Report, error) {
		return insights.Generate(records, ref, t)
	})
}

func filterKey(f analytics.Filter) string {
	if f.IsZero() {
		return "*"
	}
	var b strings.Builder
	cats := make([]string, len(f.Categories))
	for i, c := range f.Categories {
		cats[i] = strconv.Quote(strings.ToLower(c))
	}
	b.WriteString(strings.Join(cats, ","))
	for _, d := range []*core.Date{f.From, f.To} {
		b.WriteByte('|')
		if d != nil {
			b.WriteString(d.String())
		}
	}
	for _, v := range []*float64{f.MinAmount, f.MaxAmount} {
		b.WriteByte('|')
		if v != nil {
			b.WriteString(strconv.FormatFloat(*v, 'f', -1, 64))
		}
	}
	return b.String()
}

func floatsKey(vs []float64) string {
	if vs == nil {
		return "default"
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}
