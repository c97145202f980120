package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/myblog/myblog/application/port/inbound"
	"github.com/myblog/myblog/application/port/outbound"
	"github.com/myblog/myblog/application/usecase"
	"github.com/myblog/myblog/domain/entity"
	"github.com/myblog/myblog/domain/valueobject"
	"github.com/myblog/myblog/infrastructure/service/logger"
	"github.com/myblog/myblog/infrastructure/tokenstore"
	apperror "github.com/myblog/myblog/pkg/error"
)

type sessionFixture struct {
	auth    *MockAuthAPI
	lists   *MockListCache
	store   *tokenstore.MemoryStore
	manager *usecase.SessionUseCase
}

func newSessionFixture() *sessionFixture {
	auth := new(MockAuthAPI)
	lists := new(MockListCache)
	store := tokenstore.NewMemoryStore()
	return &sessionFixture{
		auth:    auth,
		lists:   lists,
		store:   store,
		manager: usecase.NewSessionUseCase(auth, store, lists, logger.NewNopLogger()),
	}
}

func (f *sessionFixture) stored(t *testing.T) *valueobject.TokenPair {
	t.Helper()
	pair, err := f.store.Load(context.Background())
	require.NoError(t, err)
	return pair
}

func (f *sessionFixture) expectLoad() *mock.Call {
	return f.lists.On("Load", mock.Anything).Return(inbound.ListResult{}, nil)
}

func validCreds() valueobject.Credentials {
	return valueobject.Credentials{Email: "ada@example.com", Password: "password123"}
}

func loginResult(redirect string) *outbound.LoginResult {
	return &outbound.LoginResult{
		Tokens:   valueobject.TokenPair{Access: "A1", Refresh: "R1"},
		User:     entity.UserProfile{ID: 1, FirstName: "Ada", Email: "ada@example.com"},
		Redirect: redirect,
	}
}

func TestSessionUseCase_InitialStateIsBooting(t *testing.T) {
	f := newSessionFixture()

	s := f.manager.Session()
	assert.Equal(t, inbound.StateBooting, s.State)
	assert.True(t, s.Loading)
	assert.Nil(t, s.User)
	assert.Nil(t, s.Tokens)
}

func TestSessionUseCase_Login(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.auth.On("Login", mock.Anything, validCreds()).Return(loginResult(""), nil).Once()
	f.expectLoad().Once()

	redirect, err := f.manager.Login(ctx, "ada@example.com", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, "/", redirect)

	assert.Equal(t, &valueobject.TokenPair{Access: "A1", Refresh: "R1"}, f.stored(t))

	s := f.manager.Session()
	assert.True(t, s.IsAuthenticated())
	assert.False(t, s.Loading)
	require.NotNil(t, s.User)
	assert.Equal(t, int64(1), s.User.ID)
	assert.Equal(t, "A1", s.Tokens.Access)

	f.auth.AssertExpectations(t)
	f.lists.AssertNumberOfCalls(t, "Load", 1)
}

func TestSessionUseCase_LoginRedirect(t *testing.T) {
	tests := []struct {
		name     string
		server   string
		caller   string
		expected string
	}{
		{name: "server wins", server: "/admin/dashboard", caller: "/posts/1", expected: "/admin/dashboard"},
		{name: "caller fallback", caller: "/posts/1", expected: "/posts/1"},
		{name: "default", expected: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture()
			f.auth.On("Login", mock.Anything, validCreds()).Return(loginResult(tt.server), nil)
			f.expectLoad()

			redirect, err := f.manager.Login(context.Background(), "ada@example.com", "password123", tt.caller)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, redirect)
		})
	}
}

func TestSessionUseCase_LoginInvalidCredentialsLeavesSession(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.expectLoad()
	f.manager.Bootstrap(ctx)
	before := f.manager.Session()

	rejection := apperror.InvalidCredentials(&apperror.APIError{Status: 401, Payload: []byte(`{"error":"Invalid credentials"}`)})
	f.auth.On("Login", mock.Anything, validCreds()).Return(nil, rejection)

	_, err := f.manager.Login(ctx, "ada@example.com", "password123", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInvalidCredentials))

	assert.Equal(t, before, f.manager.Session())
	assert.Nil(t, f.stored(t))
	f.lists.AssertNumberOfCalls(t, "Load", 1)
}

func TestSessionUseCase_LoginValidatesLocally(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "bad email", email: "not-an-email", password: "password123"},
		{name: "short password", email: "ada@example.com", password: "short"},
		{name: "empty", email: "", password: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture()

			_, err := f.manager.Login(context.Background(), tt.email, tt.password, "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
			f.auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
		})
	}
}

func TestSessionUseCase_BootstrapWithoutTokens(t *testing.T) {
	f := newSessionFixture()
	f.expectLoad().Once()

	f.manager.Bootstrap(context.Background())

	s := f.manager.Session()
	assert.Equal(t, inbound.StateAnonymous, s.State)
	assert.False(t, s.Loading)
	assert.Nil(t, s.User)
	f.auth.AssertNotCalled(t, "CurrentUser", mock.Anything)
	f.lists.AssertNumberOfCalls(t, "Load", 1)
}

func TestSessionUseCase_BootstrapPicksUpRefreshedToken(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	require.NoError(t, f.store.Save(ctx, valueobject.TokenPair{Access: "expiredA", Refresh: "R1"}))

	// the API client renews the access token while fetching the user
	f.auth.On("CurrentUser", mock.Anything).Run(func(mock.Arguments) {
		_ = f.store.Save(ctx, valueobject.TokenPair{Access: "A2", Refresh: "R1"})
	}).Return(&entity.UserProfile{ID: 1}, nil).Once()
	f.expectLoad().Once()

	f.manager.Bootstrap(ctx)

	s := f.manager.Session()
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, &valueobject.TokenPair{Access: "A2", Refresh: "R1"}, s.Tokens)
	assert.Equal(t, int64(1), s.User.ID)
	f.lists.AssertNumberOfCalls(t, "Load", 1)
}

func TestSessionUseCase_BootstrapFailureClearsTokens(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "auth expired", err: apperror.ErrAuthExpired},
		{name: "network", err: &apperror.NetworkError{Method: "GET", Path: "/api/current-user/", Err: errors.New("connection refused")}},
		{name: "server error", err: &apperror.APIError{Status: 500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newSessionFixture()
			require.NoError(t, f.store.Save(ctx, valueobject.TokenPair{Access: "expiredA", Refresh: "R1"}))
			f.auth.On("CurrentUser", mock.Anything).Return(nil, tt.err)

			f.manager.Bootstrap(ctx)

			s := f.manager.Session()
			assert.Equal(t, inbound.StateAnonymous, s.State)
			assert.Nil(t, s.User)
			assert.Nil(t, s.Tokens)
			assert.Nil(t, f.stored(t))
			f.lists.AssertNotCalled(t, "Load", mock.Anything)
		})
	}
}

func TestSessionUseCase_LoginThenLogout(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.auth.On("Login", mock.Anything, validCreds()).Return(loginResult(""), nil)
	f.auth.On("Logout", mock.Anything, "R1").Return(nil).Once()
	f.expectLoad()
	f.lists.On("Reset").Return().Once()

	_, err := f.manager.Login(ctx, "ada@example.com", "password123", "")
	require.NoError(t, err)

	f.manager.Logout(ctx)

	assert.Nil(t, f.stored(t))
	s := f.manager.Session()
	assert.Equal(t, inbound.StateAnonymous, s.State)
	assert.Nil(t, s.User)
	assert.Nil(t, s.Tokens)
	f.auth.AssertExpectations(t)
	f.lists.AssertNumberOfCalls(t, "Reset", 1)
}

func TestSessionUseCase_LogoutIgnoresServerFailure(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.auth.On("Login", mock.Anything, validCreds()).Return(loginResult(""), nil)
	f.auth.On("Logout", mock.Anything, "R1").Return(&apperror.NetworkError{Method: "POST", Path: "/api/logout/", Err: errors.New("timeout")})
	f.expectLoad()
	f.lists.On("Reset").Return()

	_, err := f.manager.Login(ctx, "ada@example.com", "password123", "")
	require.NoError(t, err)
	f.manager.Logout(ctx)

	assert.Nil(t, f.stored(t))
	assert.Equal(t, inbound.StateAnonymous, f.manager.Session().State)
	f.lists.AssertNumberOfCalls(t, "Reset", 1)
}

func TestSessionUseCase_LogoutWithoutTokensSkipsServer(t *testing.T) {
	f := newSessionFixture()
	f.lists.On("Reset").Return()

	f.manager.Logout(context.Background())

	f.auth.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	assert.Equal(t, inbound.StateAnonymous, f.manager.Session().State)
	f.lists.AssertNumberOfCalls(t, "Reset", 1)
}

// unreadableStore fails every Load.
type unreadableStore struct {
	*tokenstore.MemoryStore
	err error
}

func (s unreadableStore) Load(context.Context) (*valueobject.TokenPair, error) {
	return nil, s.err
}

func TestSessionUseCase_LogoutLogsUnreadableStore(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewStructuredLogger(logger.LoggerConfig{Level: "error", Format: "json", Output: buf})
	auth := new(MockAuthAPI)
	lists := new(MockListCache)
	lists.On("Reset").Return()
	store := unreadableStore{MemoryStore: tokenstore.NewMemoryStore(), err: errors.New("disk gone")}
	manager := usecase.NewSessionUseCase(auth, store, lists, log)

	manager.Logout(context.Background())

	auth.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	assert.Equal(t, inbound.StateAnonymous, manager.Session().State)
	assert.Contains(t, buf.String(), "Failed to read stored tokens")
	assert.Contains(t, buf.String(), "disk gone")
}

func TestSessionUseCase_LogoutDiscardsPendingBootstrap(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := newSessionFixture()
	require.NoError(t, f.store.Save(ctx, valueobject.TokenPair{Access: "A1", Refresh: "R1"}))

	entered := make(chan struct{})
	release := make(chan struct{})
	f.auth.On("CurrentUser", mock.Anything).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(&entity.UserProfile{ID: 1}, nil)
	f.auth.On("Logout", mock.Anything, "R1").Return(nil)
	f.lists.On("Reset").Return()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.manager.Bootstrap(ctx)
	}()

	<-entered
	f.manager.Logout(ctx)
	close(release)
	wg.Wait()

	s := f.manager.Session()
	assert.Equal(t, inbound.StateAnonymous, s.State)
	assert.Nil(t, s.User)
	assert.Nil(t, f.stored(t))
	f.lists.AssertNotCalled(t, "Load", mock.Anything)
}

func TestSessionUseCase_LoginSupersededByLogout(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := newSessionFixture()

	entered := make(chan struct{})
	release := make(chan struct{})
	f.auth.On("Login", mock.Anything, validCreds()).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(loginResult(""), nil)
	f.lists.On("Reset").Return()

	var (
		wg  sync.WaitGroup
		err error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err = f.manager.Login(ctx, "ada@example.com", "password123", "")
	}()

	<-entered
	f.manager.Logout(ctx)
	close(release)
	wg.Wait()

	assert.ErrorIs(t, err, usecase.ErrSuperseded)
	assert.Nil(t, f.stored(t))
	assert.Equal(t, inbound.StateAnonymous, f.manager.Session().State)
	f.lists.AssertNotCalled(t, "Load", mock.Anything)
}

func TestSessionUseCase_Observer(t *testing.T) {
	ctx := context.Background()

	t.Run("TokensRefreshed", func(t *testing.T) {
		f := newSessionFixture()
		f.auth.On("Login", mock.Anything, validCreds()).Return(loginResult(""), nil)
		f.expectLoad()
		_, err := f.manager.Login(ctx, "ada@example.com", "password123", "")
		require.NoError(t, err)

		f.manager.TokensRefreshed(ctx, valueobject.TokenPair{Access: "A2", Refresh: "R1"})
		assert.Equal(t, "A2", f.manager.Session().Tokens.Access)
	})

	t.Run("AuthExpiredKeepsListCache", func(t *testing.T) {
		f := newSessionFixture()
		f.auth.On("Login", mock.Anything, validCreds()).Return(loginResult(""), nil)
		f.expectLoad()
		_, err := f.manager.Login(ctx, "ada@example.com", "password123", "")
		require.NoError(t, err)

		f.manager.AuthExpired(ctx)

		s := f.manager.Session()
		assert.Equal(t, inbound.StateAnonymous, s.State)
		assert.Nil(t, s.User)
		assert.Nil(t, s.Tokens)
		f.lists.AssertNotCalled(t, "Reset")
	})

	t.Run("IgnoredWhileBooting", func(t *testing.T) {
		f := newSessionFixture()

		f.manager.TokensRefreshed(ctx, valueobject.TokenPair{Access: "A2", Refresh: "R1"})
		f.manager.AuthExpired(ctx)

		s := f.manager.Session()
		assert.Equal(t, inbound.StateBooting, s.State)
		assert.Nil(t, s.Tokens)
	})
}

func TestSessionUseCase_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.auth.On("Login", mock.Anything, validCreds()).Return(loginResult(""), nil)
	f.expectLoad()
	_, err := f.manager.Login(ctx, "ada@example.com", "password123", "")
	require.NoError(t, err)

	s := f.manager.Session()
	s.User.ID = 99
	s.Tokens.Access = "tampered"

	again := f.manager.Session()
	assert.Equal(t, int64(1), again.User.ID)
	assert.Equal(t, "A1", again.Tokens.Access)
}

func TestSessionUseCase_Signup(t *testing.T) {
	ctx := context.Background()
	reg := valueobject.Registration{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "password123"}

	t.Run("RegistersThenLogsIn", func(t *testing.T) {
		f := newSessionFixture()
		f.auth.On("Register", mock.Anything, reg).Return(&entity.UserProfile{ID: 1, Email: reg.Email}, nil).Once()
		f.auth.On("Login", mock.Anything, validCreds()).Return(loginResult(""), nil).Once()
		f.expectLoad()

		redirect, err := f.manager.Signup(ctx, reg, "/welcome")
		require.NoError(t, err)
		assert.Equal(t, "/welcome", redirect)
		assert.True(t, f.manager.Session().IsAuthenticated())
		f.auth.AssertExpectations(t)
	})

	t.Run("RegistrationFailureSkipsLogin", func(t *testing.T) {
		f := newSessionFixture()
		f.auth.On("Register", mock.Anything, reg).Return(nil, &apperror.APIError{Status: 400, Payload: []byte(`{"email":["user with this email already exists."]}`)})

		_, err := f.manager.Signup(ctx, reg, "")
		assert.Equal(t, 400, apperror.StatusOf(err))
		f.auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})

	t.Run("InvalidForm", func(t *testing.T) {
		f := newSessionFixture()
		bad := reg
		bad.FirstName = ""

		_, err := f.manager.Register(ctx, bad)
		assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
		assert.True(t, errors.Is(err, valueobject.ErrMissingName))
		f.auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})
}
