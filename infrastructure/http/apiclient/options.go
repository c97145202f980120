package apiclient

import (
	"net/http"
	"time"

	"github.com/myblog/myblog/application/port/inbound"
	"github.com/myblog/myblog/infrastructure/metrics"
	"github.com/myblog/myblog/infrastructure/service/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets a per-attempt timeout on the default HTTP client.
// Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCorrelationHeader sets the header carrying the per-request id.
func WithCorrelationHeader(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.correlationHeader = name
		}
	}
}

// WithObserver registers the receiver of refresh and expiry events.
func WithObserver(o inbound.SessionObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithMetrics records request and refresh counters into m.
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}
