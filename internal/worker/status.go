package worker

import (
	"encoding/json"
	"net/http"

	"spendlens/internal/insights"
	"spendlens/internal/log"
)

// LastReporter exposes the most recent insight report.
// *services.InsightProcessor satisfies it.
type LastReporter interface {
	Last() (insights.Report, bool)
}

// StatusHandler serves the latest report as JSON. It answers 204 until the
// first report has been produced.
func StatusHandler(src LastReporter, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Discard()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report, ok := src.Last()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(report); err != nil {
			logger.WarnContext(r.Context(), "Failed to write insight report", log.FieldError, err)
		}
	})
}
