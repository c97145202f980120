package inbound

import (
	"context"

	"github.com/myblog/myblog/domain/entity"
)

// PostWithViews is a post joined with its view counter.
type PostWithViews struct {
	entity.Post
	Views int `json:"views"`
}

type Dashboard struct {
	Users       int             `json:"users"`
	Posts       int             `json:"posts"`
	Comments    int             `json:"comments"`
	TotalViews  int             `json:"total_views"`
	RecentPosts []PostWithViews `json:"recent_posts"`
}

// BackOffice groups the admin workflows that span more than one endpoint.
type BackOffice interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	CommentsWithReplies(ctx context.Context, postID int64) ([]entity.Comment, error)
	DeletePost(ctx context.Context, id int64) error
	UpdateUser(ctx context.Context, id int64, edit func(*entity.UserProfile), password string) (*entity.UserProfile, error)
	RecordView(ctx context.Context, postID int64) (*entity.PostStats, error)
	ToggleLike(ctx context.Context, postID int64) (*entity.PostStats, error)
}
