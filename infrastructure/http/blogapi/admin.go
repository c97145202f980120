package blogapi

import (
	"context"
	"net/http"

	"github.com/myblog/myblog/domain/entity"
)

const (
	UsersPath      = "/api/users/"
	CommentsPath   = "/api/comments/"
	RepliesPath    = "/api/replies/"
	ContactsPath   = "/api/contacts/"
	PostStatsPath  = "/api/post-stats/"
	PostOfWeekPath = "/api/post-stats/post_of_the_week/"
)

func (a *API) Users(ctx context.Context) ([]entity.UserProfile, error) {
	var users []entity.UserProfile
	if err := a.get(ctx, UsersPath, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (a *API) User(ctx context.Context, id int64) (*entity.UserProfile, error) {
	var u entity.UserProfile
	if err := a.get(ctx, idPath(UsersPath+"%d/", id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) UpdateUser(ctx context.Context, id int64, update entity.UserUpdate) (*entity.UserProfile, error) {
	var u entity.UserProfile
	if err := a.send(ctx, http.MethodPut, idPath(UsersPath+"%d/", id), update, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) DeleteUser(ctx context.Context, id int64) error {
	return a.send(ctx, http.MethodDelete, idPath(UsersPath+"%d/", id), nil, nil)
}

func (a *API) DeletePost(ctx context.Context, id int64) error {
	return a.send(ctx, http.MethodDelete, idPath(PostsPath+"%d/", id), nil, nil)
}

func (a *API) Comments(ctx context.Context, postID int64) ([]entity.Comment, error) {
	var comments []entity.Comment
	if err := a.get(ctx, CommentsPath, idQuery("post", postID), &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (a *API) Replies(ctx context.Context, commentID int64) ([]entity.Reply, error) {
	var replies []entity.Reply
	if err := a.get(ctx, RepliesPath, idQuery("comment", commentID), &replies); err != nil {
		return nil, err
	}
	return replies, nil
}

func (a *API) DeleteComment(ctx context.Context, id int64) error {
	return a.send(ctx, http.MethodDelete, idPath(CommentsPath+"%d/", id), nil, nil)
}

func (a *API) DeleteReply(ctx context.Context, id int64) error {
	return a.send(ctx, http.MethodDelete, idPath(RepliesPath+"%d/", id), nil, nil)
}

func (a *API) Contacts(ctx context.Context) ([]entity.Contact, error) {
	var contacts []entity.Contact
	if err := a.get(ctx, ContactsPath, nil, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (a *API) Subscribers(ctx context.Context) ([]entity.Subscriber, error) {
	var subs []entity.Subscriber
	if err := a.get(ctx, NewsletterPath, nil, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (a *API) PostStats(ctx context.Context, postID int64) ([]entity.PostStats, error) {
	var stats []entity.PostStats
	if err := a.get(ctx, PostStatsPath, idQuery("post", postID), &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (a *API) PostOfTheWeek(ctx context.Context) (*entity.PostStats, error) {
	var st entity.PostStats
	if err := a.get(ctx, PostOfWeekPath, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// CreatePostStats creates the counters of a post seen for the first time,
// with its first view already recorded.
func (a *API) CreatePostStats(ctx context.Context, postID int64) (*entity.PostStats, error) {
	body := entity.PostStats{Post: postID, Views: 1, Likes: 0, LikedBy: []int64{}}
	var st entity.PostStats
	if err := a.send(ctx, http.MethodPost, PostStatsPath, body, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (a *API) SetPostViews(ctx context.Context, statsID int64, views int) (*entity.PostStats, error) {
	var st entity.PostStats
	if err := a.send(ctx, http.MethodPatch, idPath(PostStatsPath+"%d/", statsID), map[string]int{"views": views}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (a *API) ToggleLike(ctx context.Context, statsID int64) (*entity.PostStats, error) {
	var st entity.PostStats
	if err := a.send(ctx, http.MethodPost, idPath(PostStatsPath+"%d/toggle_like/", statsID), nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
