package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/myblog/myblog/application/port/inbound"
	"github.com/myblog/myblog/application/port/outbound"
	"github.com/myblog/myblog/domain/entity"
	domainerror "github.com/myblog/myblog/domain/error"
	"github.com/myblog/myblog/domain/valueobject"
	"github.com/myblog/myblog/infrastructure/service/logger"
	apperror "github.com/myblog/myblog/pkg/error"
)

// ErrSuperseded is returned by Login when a newer transition (a logout or
// another login) completed while its request was in flight.
var ErrSuperseded = errors.New("session changed while login was in flight")

const defaultRedirect = "/"

// SessionUseCase owns the Session. It is the only writer of the session and,
// apart from the API client renewing access tokens, of the token store.
//
// Every transition commits only if no other transition completed since it
// started, so a slow bootstrap or login cannot overwrite a later logout.
type SessionUseCase struct {
	auth   outbound.AuthAPI
	store  outbound.TokenStore
	lists  inbound.ListCache
	logger logger.Logger

	mu      sync.RWMutex
	epoch   uint64
	session inbound.Session
}

var (
	_ inbound.SessionManager  = (*SessionUseCase)(nil)
	_ inbound.SessionObserver = (*SessionUseCase)(nil)
)

func NewSessionUseCase(
	auth outbound.AuthAPI,
	store outbound.TokenStore,
	lists inbound.ListCache,
	log logger.Logger,
) *SessionUseCase {
	return &SessionUseCase{
		auth:   auth,
		store:  store,
		lists:  lists,
		logger: log,
		session: inbound.Session{
			Loading: true,
			State:   inbound.StateBooting,
		},
	}
}

// Bootstrap restores the session from stored tokens. It never fails: any
// problem leaves the session anonymous.
func (uc *SessionUseCase) Bootstrap(ctx context.Context) {
	start := uc.currentEpoch()

	pair, err := uc.store.Load(ctx)
	if err != nil {
		uc.logger.Error(ctx, "Failed to read stored tokens", err, nil)
	}

	if pair == nil {
		if uc.becomeAnonymous(ctx, start, false) {
			uc.loadLists(ctx)
		}
		return
	}

	user, err := uc.auth.CurrentUser(ctx)
	if err != nil {
		logger.LogAuthEvent(ctx, uc.logger, "session_restore", 0, false, map[string]interface{}{
			"error": err.Error(),
		})
		uc.becomeAnonymous(ctx, start, true)
		return
	}

	uc.mu.Lock()
	if uc.epoch != start {
		uc.mu.Unlock()
		uc.logger.Debug(ctx, "Discarding stale bootstrap result", nil)
		return
	}
	// reread: the access token may have been renewed to fetch the user
	tokens, err := uc.store.Load(ctx)
	if err != nil || tokens == nil {
		uc.epoch++
		uc.session = inbound.Session{State: inbound.StateAnonymous}
		uc.mu.Unlock()
		return
	}
	uc.epoch++
	uc.session = inbound.Session{
		User:   user,
		Tokens: tokens,
		State:  inbound.StateAuthenticated,
	}
	uc.mu.Unlock()

	logger.LogAuthEvent(ctx, uc.logger, "session_restore", user.ID, true, nil)
	uc.loadLists(ctx)
}

// becomeAnonymous commits the anonymous state if no transition happened since
// start. clear also wipes the stored tokens.
func (uc *SessionUseCase) becomeAnonymous(ctx context.Context, start uint64, clear bool) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.epoch != start {
		return false
	}
	if clear {
		if err := uc.store.Clear(ctx); err != nil {
			uc.logger.Error(ctx, "Failed to clear stored tokens", err, nil)
		}
	}
	uc.epoch++
	uc.session = inbound.Session{State: inbound.StateAnonymous}
	return true
}

// Login authenticates and returns where to go next: the server's redirect,
// else redirect, else "/". On failure the session is unchanged.
func (uc *SessionUseCase) Login(ctx context.Context, email, password, redirect string) (string, error) {
	creds, err := valueobject.NewCredentials(email, password)
	if err != nil {
		return "", apperror.Invalid(err)
	}

	start := uc.currentEpoch()

	res, err := uc.auth.Login(ctx, *creds)
	if err != nil {
		logger.LogAuthEvent(ctx, uc.logger, "login", 0, false, map[string]interface{}{
			"email": creds.Email,
			"error": err.Error(),
		})
		return "", err
	}

	uc.mu.Lock()
	if uc.epoch != start {
		uc.mu.Unlock()
		return "", ErrSuperseded
	}
	if err := uc.store.Save(ctx, res.Tokens); err != nil {
		uc.mu.Unlock()
		return "", domainerror.NewAppError(domainerror.ErrCodeTokenStore, "Failed to store tokens", err.Error(), err)
	}
	user := res.User
	tokens := res.Tokens
	uc.epoch++
	uc.session = inbound.Session{
		User:   &user,
		Tokens: &tokens,
		State:  inbound.StateAuthenticated,
	}
	uc.mu.Unlock()

	logger.LogAuthEvent(ctx, uc.logger, "login", user.ID, true, map[string]interface{}{
		"email": creds.Email,
	})
	uc.loadLists(ctx)

	switch {
	case res.Redirect != "":
		return res.Redirect, nil
	case redirect != "":
		return redirect, nil
	default:
		return defaultRedirect, nil
	}
}

// Logout ends the session. The server call is best effort; local state is
// always cleared.
func (uc *SessionUseCase) Logout(ctx context.Context) {
	uc.mu.RLock()
	var pair *valueobject.TokenPair
	if uc.session.Tokens != nil {
		p := *uc.session.Tokens
		pair = &p
	}
	var userID int64
	if uc.session.User != nil {
		userID = uc.session.User.ID
	}
	uc.mu.RUnlock()

	if pair == nil {
		stored, err := uc.store.Load(ctx)
		if err != nil {
			uc.logger.Error(ctx, "Failed to read stored tokens", err, nil)
		}
		pair = stored
	}
	if pair.CanRefresh() {
		if err := uc.auth.Logout(ctx, pair.Refresh); err != nil {
			uc.logger.Warn(ctx, "Logout request failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	uc.mu.Lock()
	uc.epoch++
	uc.session = inbound.Session{State: inbound.StateAnonymous}
	if err := uc.store.Clear(ctx); err != nil {
		uc.logger.Error(ctx, "Failed to clear stored tokens", err, nil)
	}
	uc.mu.Unlock()

	uc.lists.Reset()
	logger.LogAuthEvent(ctx, uc.logger, "logout", userID, true, nil)
}

// Register creates an account. The session is not changed.
func (uc *SessionUseCase) Register(ctx context.Context, reg valueobject.Registration) (*entity.UserProfile, error) {
	if err := reg.Validate(); err != nil {
		return nil, apperror.Invalid(err)
	}

	created, err := uc.auth.Register(ctx, reg)
	if err != nil {
		uc.logger.Warn(ctx, "Registration failed", map[string]interface{}{
			"email": reg.Email,
			"error": err.Error(),
		})
		return nil, err
	}
	logger.LogAuthEvent(ctx, uc.logger, "register", created.ID, true, nil)
	return created, nil
}

// Signup registers and then logs in with the same credentials.
func (uc *SessionUseCase) Signup(ctx context.Context, reg valueobject.Registration, redirect string) (string, error) {
	if _, err := uc.Register(ctx, reg); err != nil {
		return "", err
	}
	return uc.Login(ctx, reg.Email, reg.Password, redirect)
}

// Session returns a snapshot. Mutating it has no effect on the manager.
func (uc *SessionUseCase) Session() inbound.Session {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	s := uc.session
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	if s.Tokens != nil {
		t := *s.Tokens
		s.Tokens = &t
	}
	return s
}

// TokensRefreshed keeps the session tokens in step with the store.
func (uc *SessionUseCase) TokensRefreshed(_ context.Context, pair valueobject.TokenPair) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.session.State != inbound.StateAuthenticated {
		return
	}
	uc.session.Tokens = &pair
}

// AuthExpired drops an authenticated session whose tokens could not be
// renewed. The list cache is kept.
func (uc *SessionUseCase) AuthExpired(ctx context.Context) {
	uc.mu.Lock()
	if uc.session.State != inbound.StateAuthenticated {
		uc.mu.Unlock()
		return
	}
	var userID int64
	if uc.session.User != nil {
		userID = uc.session.User.ID
	}
	uc.epoch++
	uc.session = inbound.Session{State: inbound.StateAnonymous}
	uc.mu.Unlock()

	logger.LogAuthEvent(ctx, uc.logger, "session_expired", userID, false, nil)
}

func (uc *SessionUseCase) currentEpoch() uint64 {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.epoch
}

func (uc *SessionUseCase) loadLists(ctx context.Context) {
	if _, err := uc.lists.Load(ctx); err != nil {
		uc.logger.Warn(ctx, "List load after session change failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
