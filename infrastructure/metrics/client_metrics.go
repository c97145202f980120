// Package metrics holds the Prometheus collectors of the API client.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "myblog_client"

// Refresh results.
const (
	RefreshOK     = "ok"
	RefreshFailed = "failed"
	// RefreshSkipped counts renewals satisfied by another caller's refresh.
	RefreshSkipped = "skipped"
)

// ClientMetrics is safe to use through a nil pointer, which records nothing.
type ClientMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RefreshTotal    *prometheus.CounterVec
	SessionsExpired prometheus.Counter
}

// NewClientMetrics creates and registers the collectors with reg.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	return &ClientMetrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "HTTP attempts sent to the blog API",
			},
			[]string{"method", "status"}, // status=HTTP code or network_error
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "HTTP attempt duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		RefreshTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refresh_total",
				Help:      "Access token renewals after a 401",
			},
			[]string{"result"},
		),
		SessionsExpired: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_expired_total",
				Help:      "Sessions ended because the tokens could not be renewed",
			},
		),
	}
}

// ObserveRequest records one attempt. status 0 means no response was received.
func (m *ClientMetrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "network_error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(method, label).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *ClientMetrics) ObserveRefresh(result string) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(result).Inc()
}

func (m *ClientMetrics) ObserveExpired() {
	if m == nil {
		return
	}
	m.SessionsExpired.Inc()
}
