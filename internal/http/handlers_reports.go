package http

import (
	"net/http"
	"strings"

	"spendlens/internal/analytics"
	"spendlens/internal/core"
	"spendlens/internal/log"
)

type summaryRow struct {
	Period  string          `json:"period"`
	Stats   analytics.Stats `json:"stats"`
	Records []core.Record   `json:"records,omitempty"`
}

type summaryResponse struct {
	Granularity analytics.Granularity `json:"granularity"`
	Periods     []summaryRow          `json:"periods"`
}

type distributionRow struct {
	Label   string        `json:"label"`
	Lower   *float64      `json:"lower"`
	Upper   *float64      `json:"upper"`
	Count   int           `json:"count"`
	Sum     float64       `json:"sum"`
	Records []core.Record `json:"records,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	g := analytics.Monthly
	if v := strings.TrimSpace(q.Get("granularity")); v != "" {
		var err error
		if g, err = analytics.ParseGranularity(v); err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
	}
	f, err := ParseFilter(q)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	withRecords := QueryBool(q, "records")

	buckets := s.reports.Summary(g, QueryBool(q, "stddev"), f)
	rows := make([]summaryRow, len(buckets))
	for i, b := range buckets {
		rows[i] = summaryRow{Period: b.Key, Stats: b.Stats.Rounded()}
		if withRecords {
			rows[i].Records = b.Records
		}
	}
	NewJSONResponse().Body(summaryResponse{Granularity: g, Periods: rows}).Write(w)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().Body(map[string]any{"categories": roundTotals(s.reports.Breakdown(f))}).Write(w)
}

func (s *Server) handleTopCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	n, err := QueryInt(q, "n", 5)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	f, err := ParseFilter(q)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().Body(map[string]any{"categories": roundTotals(s.reports.TopCategories(n, f))}).Write(w)
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	edges, err := QueryFloats(q, "edges")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	f, err := ParseFilter(q)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	buckets, err := s.reports.Distribution(edges, f)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	withRecords := QueryBool(q, "records")
	rows := make([]distributionRow, len(buckets))
	for i, b := range buckets {
		rows[i] = distributionRow{Label: b.Label, Lower: b.Lower, Upper: b.Upper, Count: b.Count, Sum: core.Round2(b.Sum)}
		if withRecords {
			rows[i].Records = b.Records
		}
	}
	NewJSONResponse().Body(map[string]any{"buckets": rows}).Write(w)
}

func (s *Server) handleOverall(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	o := s.reports.Overall(f)
	o.Total = core.Round2(o.Total)
	o.Mean = core.Round2(o.Mean)
	NewJSONResponse().Body(o).Write(w)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := core.DateOf(s.now())
	d, err := optionalDate(q, "reference")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if d != nil {
		ref = *d
	}
	target, err := optionalFloat(q, "target")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	report, err := s.reports.Insights(ref, target)
	if err != nil {
		s.fail(w, r, log.OpInsights, err)
		return
	}
	NewJSONResponse().Body(report).Write(w)
}

func roundTotals(in []analytics.CategoryTotal) []analytics.CategoryTotal {
	out := make([]analytics.CategoryTotal, len(in))
	for i, ct := range in {
		ct.Sum = core.Round2(ct.Sum)
		ct.Mean = core.Round2(ct.Mean)
		ct.Share = core.Round2(ct.Share)
		if ct.StdDev != nil {
			sd := core.Round2(*ct.StdDev)
			ct.StdDev = &sd
		}
		out[i] = ct
	}
	return out
}
