package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveReport(t *testing.T) {
	lowBefore := testutil.ToFloat64(WalletsScored.WithLabelValues("low"))
	normalBefore := testutil.ToFloat64(WalletsScored.WithLabelValues("normal"))

	ObserveReport(120, true)
	ObserveReport(640, false)
	ObserveReport(10, false)

	if got := testutil.ToFloat64(WalletsScored.WithLabelValues("low")) - lowBefore; got != 1 {
		t.Fatalf("low confidence count mismatch: %v", got)
	}
	if got := testutil.ToFloat64(WalletsScored.WithLabelValues("normal")) - normalBefore; got != 2 {
		t.Fatalf("normal confidence count mismatch: %v", got)
	}
}

func TestFetchTotalLabels(t *testing.T) {
	before := testutil.ToFloat64(FetchTotal.WithLabelValues(FetchFailed))
	FetchTotal.WithLabelValues(FetchFailed).Inc()
	if got := testutil.ToFloat64(FetchTotal.WithLabelValues(FetchFailed)) - before; got != 1 {
		t.Fatalf("fetch failed count mismatch: %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	SkippedRecords.Add(0)
	ObserveReport(500, false)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status mismatch: %d", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{"riskscore_skipped_records_total", "riskscore_score_bucket", "riskscore_wallets_scored_total"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s in scrape output", name)
		}
	}
}
