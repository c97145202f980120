// Package app wires configuration, token storage, the API client and the use
// cases into one object the command line front end drives.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/myblog/myblog/application/port/outbound"
	"github.com/myblog/myblog/application/usecase"
	"github.com/myblog/myblog/application/usecase/admin"
	domainerror "github.com/myblog/myblog/domain/error"
	"github.com/myblog/myblog/infrastructure/config"
	"github.com/myblog/myblog/infrastructure/http/apiclient"
	"github.com/myblog/myblog/infrastructure/http/blogapi"
	"github.com/myblog/myblog/infrastructure/metrics"
	"github.com/myblog/myblog/infrastructure/service/logger"
	"github.com/myblog/myblog/infrastructure/tokenstore"
)

const serviceName = "blogctl"

type App struct {
	Config     *config.Config
	Logger     logger.Logger
	Store      outbound.TokenStore
	Client     *apiclient.Client
	API        *blogapi.API
	Lists      *usecase.ListCacheUseCase
	Session    *usecase.SessionUseCase
	BackOffice *admin.BackOfficeUseCase

	// Metrics are registered on Registry, which is private to the App.
	Metrics  *metrics.ClientMetrics
	Registry *prometheus.Registry

	closers []io.Closer
}

// Option adjusts the App before it is assembled.
type Option func(*options)

type options struct {
	logOutput io.Writer
	store     outbound.TokenStore
}

// WithLogOutput redirects log lines, stderr by default.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		o.logOutput = w
	}
}

// WithTokenStore bypasses the configured token store backend.
func WithTokenStore(s outbound.TokenStore) Option {
	return func(o *options) {
		o.store = s
	}
}

func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: serviceName,
		Output:      o.logOutput,
	})

	a := &App{Config: cfg, Logger: log}

	store := o.store
	if store == nil {
		s, closer, err := openTokenStore(ctx, cfg, log)
		if err != nil {
			return nil, domainerror.NewAppError(domainerror.ErrCodeConfiguration, "Failed to open token store", err.Error(), err)
		}
		store = s
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
	}
	a.Store = store

	a.Registry = prometheus.NewRegistry()
	a.Metrics = metrics.NewClientMetrics(a.Registry)

	a.Client = apiclient.New(cfg.APIURL, store,
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithLogger(log),
		apiclient.WithCorrelationHeader(cfg.CorrelationIDHeader),
		apiclient.WithMetrics(a.Metrics),
	)
	a.API = blogapi.New(a.Client)
	a.Lists = usecase.NewListCacheUseCase(a.API, log)
	a.Session = usecase.NewSessionUseCase(a.API, store, a.Lists, log)
	a.BackOffice = admin.NewBackOfficeUseCase(a.API, a.API, a.Lists, log)

	// the session manager hears about renewals done on its behalf
	a.Client.SetObserver(a.Session)

	log.Debug(ctx, "Application wired", map[string]interface{}{
		"api_url":     cfg.APIURL,
		"token_store": cfg.TokenStore,
	})
	return a, nil
}

func openTokenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (outbound.TokenStore, io.Closer, error) {
	switch cfg.TokenStore {
	case config.TokenStoreMemory:
		return tokenstore.NewMemoryStore(), nil, nil
	case config.TokenStoreRedis:
		s, err := tokenstore.NewRedisStore(ctx, cfg.RedisURL, cfg.TokenKey, log)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.TokenStoreFile:
		s, err := tokenstore.NewFileStore(cfg.TokenFile, log)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrInvalidTokenStore, cfg.TokenStore)
	}
}

// Close releases backend connections.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
