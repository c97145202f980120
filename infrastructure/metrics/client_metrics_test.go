package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClientMetrics(reg)

	m.ObserveRequest("GET", 200, 10*time.Millisecond)
	m.ObserveRequest("GET", 200, 20*time.Millisecond)
	m.ObserveRequest("POST", 0, time.Millisecond)
	m.ObserveRefresh(RefreshOK)
	m.ObserveExpired()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "network_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues(RefreshOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsExpired))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
}

func TestClientMetrics_NilIsNoop(t *testing.T) {
	var m *ClientMetrics

	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", 200, time.Millisecond)
		m.ObserveRefresh(RefreshFailed)
		m.ObserveExpired()
	})
}

func TestWriteSummary(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClientMetrics(reg)
	m.ObserveRequest("GET", 401, time.Second)
	m.ObserveRefresh(RefreshOK)

	var buf strings.Builder
	require.NoError(t, WriteSummary(&buf, reg))

	out := buf.String()
	assert.Contains(t, out, `myblog_client_requests_total{method="GET",status="401"} 1`)
	assert.Contains(t, out, `myblog_client_token_refresh_total{result="ok"} 1`)
	assert.Contains(t, out, `myblog_client_request_duration_seconds_count{method="GET"} 1`)
	assert.NotContains(t, out, "sessions_expired_total", "zero counters are skipped")
}
