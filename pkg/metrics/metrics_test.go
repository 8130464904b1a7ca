package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDomainCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SubmissionWritten("draft")
	m.SubmissionWritten("submitted")
	m.SubmissionWritten("submitted")
	m.ApplicationTransitioned("approved")
	m.ProgressCache(true)
	m.ProgressCache(false)
	m.ProgressCache(false)

	if got := testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("submitted")); got != 2 {
		t.Errorf("期望 submitted=2，实际 %v", got)
	}
	if got := testutil.ToFloat64(m.ApplicationTransitions.WithLabelValues("approved")); got != 1 {
		t.Errorf("期望 approved=1，实际 %v", got)
	}
	if got := testutil.ToFloat64(m.ProgressCacheTotal.WithLabelValues("miss")); got != 2 {
		t.Errorf("期望 miss=2，实际 %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SubmissionWritten("draft")
	m.ApplicationTransitioned("approved")
	m.ProgressCache(true)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(nil)
	m.ProgressCache(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `portal_progress_cache_total{result="hit"} 1`) {
		t.Error("输出中缺少 portal_progress_cache_total")
	}
}
