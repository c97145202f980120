package inbound

import (
	"context"

	"github.com/myblog/myblog/domain/entity"
	"github.com/myblog/myblog/domain/valueobject"
)

type SessionState string

const (
	StateBooting       SessionState = "booting"
	StateAuthenticated SessionState = "authenticated"
	StateAnonymous     SessionState = "anonymous"
)

// Session is a read-only snapshot of the authentication state. User and
// Tokens are either both nil or both set once Loading is false.
type Session struct {
	User    *entity.UserProfile
	Tokens  *valueobject.TokenPair
	Loading bool
	State   SessionState
}

func (s Session) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.User != nil
}

type SessionManager interface {
	Bootstrap(ctx context.Context)
	Login(ctx context.Context, email, password, redirect string) (string, error)
	Logout(ctx context.Context)
	Register(ctx context.Context, reg valueobject.Registration) (*entity.UserProfile, error)
	Signup(ctx context.Context, reg valueobject.Registration, redirect string) (string, error)
	Session() Session
}

// SessionObserver receives token lifecycle events raised by the API client
// while it renews credentials on behalf of a request.
type SessionObserver interface {
	TokensRefreshed(ctx context.Context, pair valueobject.TokenPair)
	AuthExpired(ctx context.Context)
}
