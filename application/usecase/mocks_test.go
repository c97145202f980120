package usecase_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/myblog/myblog/application/port/inbound"
	"github.com/myblog/myblog/application/port/outbound"
	"github.com/myblog/myblog/domain/entity"
	"github.com/myblog/myblog/domain/valueobject"
)

type MockAuthAPI struct {
	mock.Mock
}

func (m *MockAuthAPI) Login(ctx context.Context, creds valueobject.Credentials) (*outbound.LoginResult, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbound.LoginResult), args.Error(1)
}

func (m *MockAuthAPI) CurrentUser(ctx context.Context) (*entity.UserProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserProfile), args.Error(1)
}

func (m *MockAuthAPI) Logout(ctx context.Context, refresh string) error {
	args := m.Called(ctx, refresh)
	return args.Error(0)
}

func (m *MockAuthAPI) Register(ctx context.Context, reg valueobject.Registration) (*entity.UserProfile, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserProfile), args.Error(1)
}

type MockListCache struct {
	mock.Mock
}

func (m *MockListCache) Load(ctx context.Context) (inbound.ListResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(inbound.ListResult), args.Error(1)
}

func (m *MockListCache) Reset() {
	m.Called()
}

func (m *MockListCache) ResetError() {
	m.Called()
}

func (m *MockListCache) State() inbound.ListCacheState {
	args := m.Called()
	return args.Get(0).(inbound.ListCacheState)
}

type MockContentAPI struct {
	mock.Mock
}

func (m *MockContentAPI) Posts(ctx context.Context) ([]entity.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Post), args.Error(1)
}

func (m *MockContentAPI) Categories(ctx context.Context) ([]entity.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Category), args.Error(1)
}

func (m *MockContentAPI) SubmitContact(ctx context.Context, msg entity.ContactMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockContentAPI) Subscribe(ctx context.Context, email string, userID int64) error {
	args := m.Called(ctx, email, userID)
	return args.Error(0)
}
