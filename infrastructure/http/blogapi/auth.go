package blogapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/myblog/myblog/application/port/outbound"
	"github.com/myblog/myblog/domain/entity"
	domainerror "github.com/myblog/myblog/domain/error"
	"github.com/myblog/myblog/domain/valueobject"
	"github.com/myblog/myblog/infrastructure/http/apiclient"
	apperror "github.com/myblog/myblog/pkg/error"
)

const (
	LoginPath       = "/api/login/"
	LogoutPath      = "/api/logout/"
	RegisterPath    = "/api/register/"
	CurrentUserPath = "/api/current-user/"
)

// Login exchanges credentials for a token pair. A 400, 401 or 403 answer is
// reported as ErrInvalidCredentials.
func (a *API) Login(ctx context.Context, creds valueobject.Credentials) (*outbound.LoginResult, error) {
	var out outbound.LoginResult
	err := a.call(ctx, apiclient.Request{
		Method:    http.MethodPost,
		Path:      LoginPath,
		Body:      creds,
		Anonymous: true,
	}, &out)
	if err != nil {
		var apiErr *apperror.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Status {
			case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
				return nil, apperror.InvalidCredentials(apiErr)
			}
		}
		return nil, err
	}
	if out.Tokens.Access == "" || out.Tokens.Refresh == "" {
		return nil, domainerror.NewAppError(domainerror.ErrCodeDecode, "Login response has no tokens", "", nil)
	}
	return &out, nil
}

func (a *API) CurrentUser(ctx context.Context) (*entity.UserProfile, error) {
	var u entity.UserProfile
	if err := a.get(ctx, CurrentUserPath, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) Logout(ctx context.Context, refresh string) error {
	return a.send(ctx, http.MethodPost, LogoutPath, map[string]string{"refresh": refresh}, nil)
}

func (a *API) Register(ctx context.Context, reg valueobject.Registration) (*entity.UserProfile, error) {
	var u entity.UserProfile
	err := a.call(ctx, apiclient.Request{
		Method:    http.MethodPost,
		Path:      RegisterPath,
		Body:      reg,
		Anonymous: true,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
