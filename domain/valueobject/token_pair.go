package valueobject

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned by AccessExpiry when the access token carries no
// readable exp claim (opaque token or malformed JWT).
var ErrNoExpiry = errors.New("access token has no readable expiry")

// TokenPair is the credential pair issued by the login endpoint.
// The JSON shape matches what the API returns and what is persisted.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func NewTokenPair(access, refresh string) *TokenPair {
	return &TokenPair{
		Access:  access,
		Refresh: refresh,
	}
}

// CanRefresh reports whether the pair holds a refresh token.
func (p *TokenPair) CanRefresh() bool {
	return p != nil && p.Refresh != ""
}

// WithAccess returns a copy with the access token replaced. The refresh
// token is kept unchanged.
func (p TokenPair) WithAccess(access string) TokenPair {
	p.Access = access
	return p
}

// AccessExpiry decodes the exp claim of the access token. The signature is
// not verified: the client only uses this for display.
func (p *TokenPair) AccessExpiry() (time.Time, error) {
	if p == nil || p.Access == "" {
		return time.Time{}, ErrNoExpiry
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(p.Access, claims); err != nil {
		return time.Time{}, ErrNoExpiry
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}
