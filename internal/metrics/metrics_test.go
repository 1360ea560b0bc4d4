package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshTimer(t *testing.T) {
	m := NewRegistry()

	timer := m.StartRefresh("fetch")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveRefreshes))

	timer.Stop("success")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveRefreshes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues("fetch", "success")))
}

func TestRecorders(t *testing.T) {
	m := NewRegistry()
	m.RecordAlert("score_change", "high")
	m.RecordAlert("score_change", "high")
	m.RecordSuppressedAlert("news_event")
	m.RecordJobRun("data_refresh", "completed")
	m.SetLatestScore("ACME", 61.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AlertsEmitted.WithLabelValues("score_change", "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsSuppressed.WithLabelValues("news_event")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("data_refresh", "completed")))
	assert.Equal(t, 61.5, testutil.ToFloat64(m.LatestScore.WithLabelValues("ACME")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewRegistry()
	m.RecordRefreshRequest("coalesced")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `credit_monitor_refresh_requests_total{outcome="coalesced"} 1`)
}
