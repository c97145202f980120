package app

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myblog/myblog/application/port/inbound"
	"github.com/myblog/myblog/domain/entity"
	"github.com/myblog/myblog/domain/valueobject"
	"github.com/myblog/myblog/infrastructure/config"
	"github.com/myblog/myblog/infrastructure/metrics"
	"github.com/myblog/myblog/internal/fakeapi"
	apperror "github.com/myblog/myblog/pkg/error"
)

func testConfig(url string) *config.Config {
	return &config.Config{
		APIURL:              url,
		TokenStore:          config.TokenStoreMemory,
		TokenKey:            config.DefaultTokenKey,
		LogLevel:            "panic",
		LogFormat:           "json",
		CorrelationIDHeader: "X-Correlation-ID",
	}
}

func newServer(t *testing.T) (*fakeapi.Server, entity.UserProfile) {
	t.Helper()
	srv := fakeapi.New()
	t.Cleanup(srv.Close)

	user := srv.AddUser(entity.UserProfile{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}, "password123")
	srv.AddPost(entity.Post{Title: "Hello"})
	srv.AddCategory(entity.Category{Name: "Go"})
	return srv, user
}

func newApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func stored(t *testing.T, a *App) *valueobject.TokenPair {
	t.Helper()
	pair, err := a.Store.Load(context.Background())
	require.NoError(t, err)
	return pair
}

func TestLoginPersistsTokensAndLoadsListsOnce(t *testing.T) {
	srv, _ := newServer(t)
	srv.QueueAccess("A1")
	srv.QueueRefresh("R1")
	a := newApp(t, testConfig(srv.URL))
	ctx := context.Background()

	a.Session.Bootstrap(ctx)
	require.Equal(t, 1, srv.Calls(fakeapi.RoutePosts))

	_, err := a.Session.Login(ctx, "ada@example.com", "password123", "")
	require.NoError(t, err)

	assert.Equal(t, &valueobject.TokenPair{Access: "A1", Refresh: "R1"}, stored(t, a))
	s := a.Session.Session()
	require.True(t, s.IsAuthenticated())
	assert.Equal(t, int64(1), s.User.ID)

	assert.Equal(t, 2, srv.Calls(fakeapi.RoutePosts), "one load for bootstrap, one for login")
	assert.Equal(t, 2, srv.Calls(fakeapi.RouteCategories))
	assert.True(t, a.Lists.State().IsDataFetched)
}

func TestBootstrapRenewsExpiredAccessToken(t *testing.T) {
	srv, user := newServer(t)
	srv.Grant(user.ID, valueobject.TokenPair{Refresh: "R1"})
	srv.QueueAccess("A2")
	a := newApp(t, testConfig(srv.URL))
	ctx := context.Background()
	require.NoError(t, a.Store.Save(ctx, valueobject.TokenPair{Access: "expiredA", Refresh: "R1"}))

	a.Session.Bootstrap(ctx)

	s := a.Session.Session()
	require.True(t, s.IsAuthenticated())
	assert.Equal(t, user.ID, s.User.ID)
	assert.Equal(t, &valueobject.TokenPair{Access: "A2", Refresh: "R1"}, s.Tokens)
	assert.Equal(t, &valueobject.TokenPair{Access: "A2", Refresh: "R1"}, stored(t, a))
	assert.Equal(t, 1, srv.Calls(fakeapi.RouteRefresh))
	assert.Equal(t, 2, srv.Calls(fakeapi.RouteCurrentUser))
	assert.Equal(t, 1, srv.Calls(fakeapi.RoutePosts))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.RefreshTotal.WithLabelValues(metrics.RefreshOK)))
}

func TestBootstrapWithRejectedRefreshEndsAnonymous(t *testing.T) {
	srv, _ := newServer(t)
	a := newApp(t, testConfig(srv.URL))
	ctx := context.Background()
	require.NoError(t, a.Store.Save(ctx, valueobject.TokenPair{Access: "expiredA", Refresh: "R1"}))

	a.Session.Bootstrap(ctx)

	s := a.Session.Session()
	assert.Equal(t, inbound.StateAnonymous, s.State)
	assert.False(t, s.Loading)
	assert.Nil(t, s.User)
	assert.Nil(t, stored(t, a))
	assert.Equal(t, 1, srv.Calls(fakeapi.RouteRefresh))
	assert.Equal(t, 0, srv.Calls(fakeapi.RoutePosts))
}

func TestLoginThenLogoutLeavesStoreEmpty(t *testing.T) {
	srv, _ := newServer(t)
	a := newApp(t, testConfig(srv.URL))
	ctx := context.Background()

	a.Session.Bootstrap(ctx)
	_, err := a.Session.Login(ctx, "ada@example.com", "password123", "")
	require.NoError(t, err)

	a.Session.Logout(ctx)

	assert.Nil(t, stored(t, a))
	assert.Equal(t, inbound.StateAnonymous, a.Session.Session().State)
	assert.Equal(t, 1, srv.Calls(fakeapi.RouteLogout))
	assert.False(t, a.Lists.State().IsDataFetched)
}

func TestExpiredSessionMidUseDropsToAnonymous(t *testing.T) {
	srv, _ := newServer(t)
	srv.QueueAccess("A1")
	a := newApp(t, testConfig(srv.URL))
	ctx := context.Background()

	a.Session.Bootstrap(ctx)
	_, err := a.Session.Login(ctx, "ada@example.com", "password123", "")
	require.NoError(t, err)
	pair := stored(t, a)
	require.NotNil(t, pair)

	// access expires and the refresh endpoint is down
	srv.Revoke(pair.Access)
	srv.SetRefreshUnreachable(true)

	_, err = a.API.CurrentUser(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrAuthExpired))

	assert.Nil(t, stored(t, a))
	assert.Equal(t, inbound.StateAnonymous, a.Session.Session().State)
	assert.True(t, a.Lists.State().IsDataFetched, "list cache survives an expired session")
}

func TestInvalidLoginKeepsSession(t *testing.T) {
	srv, _ := newServer(t)
	a := newApp(t, testConfig(srv.URL))
	ctx := context.Background()
	a.Session.Bootstrap(ctx)

	_, err := a.Session.Login(ctx, "ada@example.com", "wrong-password", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInvalidCredentials))
	assert.Equal(t, http.StatusUnauthorized, apperror.StatusOf(err))
	assert.Equal(t, inbound.StateAnonymous, a.Session.Session().State)
	assert.Nil(t, stored(t, a))
}

func TestFileStoreCarriesSessionAcrossRuns(t *testing.T) {
	srv, user := newServer(t)
	cfg := testConfig(srv.URL)
	cfg.TokenStore = config.TokenStoreFile
	cfg.TokenFile = filepath.Join(t.TempDir(), "tokens.json")
	ctx := context.Background()

	first := newApp(t, cfg)
	first.Session.Bootstrap(ctx)
	_, err := first.Session.Login(ctx, "ada@example.com", "password123", "")
	require.NoError(t, err)

	second := newApp(t, cfg)
	second.Session.Bootstrap(ctx)
	s := second.Session.Session()
	require.True(t, s.IsAuthenticated())
	assert.Equal(t, user.ID, s.User.ID)
}

func TestNewRejectsUnreachableRedis(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.TokenStore = config.TokenStoreRedis
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}
