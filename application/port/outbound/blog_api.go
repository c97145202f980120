package outbound

import (
	"context"

	"github.com/myblog/myblog/domain/entity"
	"github.com/myblog/myblog/domain/valueobject"
)

type LoginResult struct {
	Tokens   valueobject.TokenPair `json:"tokens"`
	User     entity.UserProfile    `json:"user"`
	Redirect string                `json:"redirect,omitempty"`
}

// AuthAPI covers the authentication endpoints used by the session manager.
type AuthAPI interface {
	Login(ctx context.Context, creds valueobject.Credentials) (*LoginResult, error)
	CurrentUser(ctx context.Context) (*entity.UserProfile, error)
	Logout(ctx context.Context, refresh string) error
	Register(ctx context.Context, reg valueobject.Registration) (*entity.UserProfile, error)
}

// ContentAPI covers the public endpoints: the lists backing the list cache
// and the reader-facing forms.
type ContentAPI interface {
	Posts(ctx context.Context) ([]entity.Post, error)
	Categories(ctx context.Context) ([]entity.Category, error)
	SubmitContact(ctx context.Context, msg entity.ContactMessage) error
	Subscribe(ctx context.Context, email string, userID int64) error
}

// AdminAPI covers the back office endpoints.
type AdminAPI interface {
	Users(ctx context.Context) ([]entity.UserProfile, error)
	User(ctx context.Context, id int64) (*entity.UserProfile, error)
	UpdateUser(ctx context.Context, id int64, update entity.UserUpdate) (*entity.UserProfile, error)
	DeleteUser(ctx context.Context, id int64) error

	DeletePost(ctx context.Context, id int64) error

	// Comments and PostStats list everything when postID is 0.
	Comments(ctx context.Context, postID int64) ([]entity.Comment, error)
	Replies(ctx context.Context, commentID int64) ([]entity.Reply, error)
	DeleteComment(ctx context.Context, id int64) error
	DeleteReply(ctx context.Context, id int64) error

	Contacts(ctx context.Context) ([]entity.Contact, error)
	Subscribers(ctx context.Context) ([]entity.Subscriber, error)

	PostStats(ctx context.Context, postID int64) ([]entity.PostStats, error)
	PostOfTheWeek(ctx context.Context) (*entity.PostStats, error)
	CreatePostStats(ctx context.Context, postID int64) (*entity.PostStats, error)
	SetPostViews(ctx context.Context, statsID int64, views int) (*entity.PostStats, error)
	ToggleLike(ctx context.Context, statsID int64) (*entity.PostStats, error)
}
