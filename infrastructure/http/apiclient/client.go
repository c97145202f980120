package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/myblog/myblog/application/port/inbound"
	"github.com/myblog/myblog/application/port/outbound"
	domainerror "github.com/myblog/myblog/domain/error"
	"github.com/myblog/myblog/domain/valueobject"
	"github.com/myblog/myblog/infrastructure/metrics"
	"github.com/myblog/myblog/infrastructure/service/logger"
	apperror "github.com/myblog/myblog/pkg/error"
)

const (
	RefreshPath = "/api/token/refresh/"

	defaultCorrelationHeader = "X-Correlation-ID"
)

// Request is one logical API call. A logical call is sent at most twice: the
// original attempt and a single retry after a token refresh.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Anonymous requests never carry a bearer token and never trigger a refresh.
	Anonymous bool
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into out. An empty body leaves out untouched.
func (r *Response) Decode(out any) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return domainerror.NewAppError(domainerror.ErrCodeDecode, "Failed to decode response", err.Error(), err)
	}
	return nil
}

// Client sends requests to the blog API with the stored bearer token and
// renews the access token once when a request is rejected with 401.
type Client struct {
	baseURL           string
	httpClient        *http.Client
	timeout           time.Duration
	store             outbound.TokenStore
	logger            logger.Logger
	correlationHeader string
	metrics           *metrics.ClientMetrics

	// one pending refresh per access token generation
	refreshGroup singleflight.Group

	mu       sync.RWMutex
	observer inbound.SessionObserver
}

func New(baseURL string, store outbound.TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		store:             store,
		logger:            logger.NewNopLogger(),
		correlationHeader: defaultCorrelationHeader,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	c.logger = c.logger.WithFields(map[string]interface{}{"component": "api_client"})

	return c
}

// SetObserver replaces the observer. It exists because the session manager
// is built on top of the client and can only subscribe afterwards.
func (c *Client) SetObserver(o inbound.SessionObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = o
}

func (c *Client) currentObserver() inbound.SessionObserver {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.observer
}

// JSON sends an authorized request and decodes a 2xx body into out.
func (c *Client) JSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.Do(ctx, Request{Method: method, Path: path, Body: body})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Do sends the request. Non-2xx responses come back as *apperror.APIError,
// transport failures as *apperror.NetworkError, and a session that could not be
// renewed as apperror.ErrAuthExpired.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	cid := logger.CorrelationID(ctx)
	if cid == "" {
		cid = uuid.NewString()
		ctx = logger.WithCorrelationID(ctx, cid)
	}

	access := ""
	if !req.Anonymous {
		pair, err := c.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		if pair != nil {
			access = pair.Access
		}
	}

	resp, err := c.send(ctx, req, access)
	if err != nil {
		return nil, err
	}

	if resp.Status == http.StatusUnauthorized && !req.Anonymous {
		retryAccess, err := c.renew(ctx, access)
		if err != nil {
			return nil, err
		}

		// the retry is final: a second 401 is returned as an APIError
		resp, err = c.send(ctx, req, retryAccess)
		if err != nil {
			return nil, err
		}
	}

	if resp.Status < 200 || resp.Status >= 300 {
		return nil, &apperror.APIError{Status: resp.Status, Payload: resp.Body}
	}
	return resp, nil
}

// renew returns the access token to retry with after a 401 on a request that
// was sent with used.
func (c *Client) renew(ctx context.Context, used string) (string, error) {
	pair, err := c.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if !pair.CanRefresh() {
		c.logger.Warn(ctx, "No refresh token stored, session expired", nil)
		c.expire(ctx)
		return "", apperror.ErrAuthExpired
	}

	// Another request already renewed this generation.
	if pair.Access != used && pair.Access != "" {
		c.metrics.ObserveRefresh(metrics.RefreshSkipped)
		return pair.Access, nil
	}

	expired := *pair
	v, err, shared := c.refreshGroup.Do(expired.Access, func() (interface{}, error) {
		// detached so one caller giving up does not fail every waiter
		return c.refresh(context.WithoutCancel(ctx), expired)
	})
	if shared {
		c.logger.Debug(ctx, "Joined in-flight token refresh", nil)
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) refresh(ctx context.Context, expired valueobject.TokenPair) (string, error) {
	// An earlier flight for this generation may have finished between the
	// caller's store read and joining the group.
	current, err := c.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if current == nil {
		return "", apperror.ErrAuthExpired
	}
	if current.Refresh != expired.Refresh {
		return c.replaced(ctx, current)
	}
	if current.Access != expired.Access && current.Access != "" {
		c.metrics.ObserveRefresh(metrics.RefreshSkipped)
		return current.Access, nil
	}

	start := time.Now()
	resp, err := c.send(ctx, Request{
		Method:    http.MethodPost,
		Path:      RefreshPath,
		Body:      map[string]string{"refresh": expired.Refresh},
		Anonymous: true,
	}, "")
	logger.LogPerformance(ctx, c.logger, "token_refresh", time.Since(start), nil)

	// Unreachable and rejected are handled the same way: the session ends.
	if err == nil && (resp.Status < 200 || resp.Status >= 300) {
		err = &apperror.APIError{Status: resp.Status, Payload: resp.Body}
	}
	var out struct {
		Access string `json:"access"`
	}
	if err == nil {
		err = resp.Decode(&out)
	}
	if err == nil && out.Access == "" {
		err = fmt.Errorf("refresh response has no access token")
	}
	if err != nil {
		logger.LogAuthEvent(ctx, c.logger, "token_refresh", 0, false, map[string]interface{}{
			"error": err.Error(),
		})
		c.metrics.ObserveRefresh(metrics.RefreshFailed)
		c.expire(ctx)
		return "", apperror.AuthExpired(err)
	}

	// A logout or a new login may have happened while the refresh was in flight.
	current, err = c.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if current == nil {
		return "", apperror.ErrAuthExpired
	}
	if current.Refresh != expired.Refresh {
		return c.replaced(ctx, current)
	}

	renewed := expired.WithAccess(out.Access)
	if err := c.store.Save(ctx, renewed); err != nil {
		return "", domainerror.NewAppError(domainerror.ErrCodeTokenStore, "Failed to store refreshed token", err.Error(), err)
	}
	logger.LogAuthEvent(ctx, c.logger, "token_refresh", 0, true, nil)
	c.metrics.ObserveRefresh(metrics.RefreshOK)

	if o := c.currentObserver(); o != nil {
		o.TokensRefreshed(ctx, renewed)
	}
	return out.Access, nil
}

// replaced returns the access token of a pair stored by a login that finished
// while the old pair was being renewed.
func (c *Client) replaced(ctx context.Context, current *valueobject.TokenPair) (string, error) {
	if current.Access == "" {
		return "", apperror.ErrAuthExpired
	}
	c.logger.Debug(ctx, "Token pair replaced during refresh, retrying with the new access token", nil)
	c.metrics.ObserveRefresh(metrics.RefreshSkipped)
	return current.Access, nil
}

// expire clears stored credentials and tells the observer the session is over.
func (c *Client) expire(ctx context.Context) {
	c.metrics.ObserveExpired()
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error(ctx, "Failed to clear stored tokens", err, nil)
	}
	if o := c.currentObserver(); o != nil {
		o.AuthExpired(ctx)
	}
}

func (c *Client) send(ctx context.Context, req Request, access string) (*Response, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if cid := logger.CorrelationID(ctx); cid != "" {
		httpReq.Header.Set(c.correlationHeader, cid)
	}
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(req.Method, 0, time.Since(start))
		c.logger.Warn(ctx, "Request failed", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
			"error":  err.Error(),
		})
		return nil, &apperror.NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	c.metrics.ObserveRequest(req.Method, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &apperror.NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}

	logger.LogPerformance(ctx, c.logger, "http_request", time.Since(start), map[string]interface{}{
		"method": req.Method,
		"path":   req.Path,
		"status": httpResp.StatusCode,
	})

	return &Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header,
		Body:   body,
	}, nil
}
