package admin

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/myblog/myblog/application/port/inbound"
	"github.com/myblog/myblog/application/port/outbound"
	"github.com/myblog/myblog/domain/entity"
	"github.com/myblog/myblog/infrastructure/service/logger"
)

const (
	recentPostsLimit = 5
	replyFetchLimit  = 4
)

type BackOfficeUseCase struct {
	admin   outbound.AdminAPI
	content outbound.ContentAPI
	lists   inbound.ListCache
	logger  logger.Logger
}

var _ inbound.BackOffice = (*BackOfficeUseCase)(nil)

func NewBackOfficeUseCase(
	admin outbound.AdminAPI,
	content outbound.ContentAPI,
	lists inbound.ListCache,
	log logger.Logger,
) *BackOfficeUseCase {
	return &BackOfficeUseCase{
		admin:   admin,
		content: content,
		lists:   lists,
		logger:  log,
	}
}

// Dashboard counts users, posts and comments, sums views and lists the most
// recent posts with their views.
func (uc *BackOfficeUseCase) Dashboard(ctx context.Context) (*inbound.Dashboard, error) {
	start := time.Now()

	var (
		users    []entity.UserProfile
		posts    []entity.Post
		comments []entity.Comment
		stats    []entity.PostStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = uc.admin.Users(gctx)
		return err
	})
	g.Go(func() (err error) {
		posts, err = uc.content.Posts(gctx)
		return err
	})
	g.Go(func() (err error) {
		comments, err = uc.admin.Comments(gctx, 0)
		return err
	})
	g.Go(func() (err error) {
		stats, err = uc.admin.PostStats(gctx, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}

	views := make(map[int64]int, len(stats))
	total := 0
	for _, st := range stats {
		total += st.Views
		if _, seen := views[st.Post]; !seen {
			views[st.Post] = st.Views
		}
	}

	recent := slices.Clone(posts)
	slices.SortStableFunc(recent, func(a, b entity.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(recent) > recentPostsLimit {
		recent = recent[:recentPostsLimit]
	}

	withViews := make([]inbound.PostWithViews, len(recent))
	for i, p := range recent {
		withViews[i] = inbound.PostWithViews{Post: p, Views: views[p.ID]}
	}

	logger.LogPerformance(ctx, uc.logger, "dashboard", time.Since(start), nil)

	return &inbound.Dashboard{
		Users:       len(users),
		Posts:       len(posts),
		Comments:    len(comments),
		TotalViews:  total,
		RecentPosts: withViews,
	}, nil
}

// CommentsWithReplies lists comments, all of them when postID is 0, each with
// its replies attached.
func (uc *BackOfficeUseCase) CommentsWithReplies(ctx context.Context, postID int64) ([]entity.Comment, error) {
	comments, err := uc.admin.Comments(ctx, postID)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(replyFetchLimit)
	for i := range comments {
		g.Go(func() error {
			replies, err := uc.admin.Replies(gctx, comments[i].ID)
			if err != nil {
				return fmt.Errorf("failed to load replies of comment %d: %w", comments[i].ID, err)
			}
			comments[i].Replies = replies
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return comments, nil
}

// DeletePost removes a post and reloads the list cache so list screens stop
// showing it.
func (uc *BackOfficeUseCase) DeletePost(ctx context.Context, id int64) error {
	if err := uc.admin.DeletePost(ctx, id); err != nil {
		return err
	}
	uc.logger.Info(ctx, "Post deleted", map[string]interface{}{"post_id": id})

	if _, err := uc.lists.Load(ctx); err != nil {
		uc.logger.Warn(ctx, "List reload after delete failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return nil
}

// UpdateUser fetches the user, lets edit change it and saves the result. An
// empty password keeps the current one.
func (uc *BackOfficeUseCase) UpdateUser(ctx context.Context, id int64, edit func(*entity.UserProfile), password string) (*entity.UserProfile, error) {
	u, err := uc.admin.User(ctx, id)
	if err != nil {
		return nil, err
	}
	if edit != nil {
		edit(u)
	}
	return uc.admin.UpdateUser(ctx, id, entity.NewUserUpdate(*u, password))
}

// RecordView counts one view of postID, creating its counters on first view.
func (uc *BackOfficeUseCase) RecordView(ctx context.Context, postID int64) (*entity.PostStats, error) {
	st, err := uc.statsOf(ctx, postID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return uc.admin.CreatePostStats(ctx, postID)
	}
	return uc.admin.SetPostViews(ctx, st.ID, st.Views+1)
}

// ToggleLike likes or unlikes postID for the logged in user.
func (uc *BackOfficeUseCase) ToggleLike(ctx context.Context, postID int64) (*entity.PostStats, error) {
	st, err := uc.statsOf(ctx, postID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		if st, err = uc.admin.CreatePostStats(ctx, postID); err != nil {
			return nil, err
		}
	}
	return uc.admin.ToggleLike(ctx, st.ID)
}

func (uc *BackOfficeUseCase) statsOf(ctx context.Context, postID int64) (*entity.PostStats, error) {
	stats, err := uc.admin.PostStats(ctx, postID)
	if err != nil {
		return nil, err
	}
	for i := range stats {
		if stats[i].Post == postID {
			return &stats[i], nil
		}
	}
	return nil, nil
}
