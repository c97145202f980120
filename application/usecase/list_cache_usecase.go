package usecase

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/myblog/myblog/application/port/inbound"
	"github.com/myblog/myblog/application/port/outbound"
	"github.com/myblog/myblog/domain/entity"
	"github.com/myblog/myblog/infrastructure/service/logger"
)

// ListCacheUseCase holds the posts and categories shared by list screens.
// Concurrent loads share one fetch. A Reset discards the result of any load
// that started before it.
type ListCacheUseCase struct {
	content outbound.ContentAPI
	logger  logger.Logger
	group   singleflight.Group

	mu         sync.Mutex
	generation uint64
	state      inbound.ListCacheState
}

var _ inbound.ListCache = (*ListCacheUseCase)(nil)

func NewListCacheUseCase(content outbound.ContentAPI, log logger.Logger) *ListCacheUseCase {
	return &ListCacheUseCase{
		content: content,
		logger:  log,
	}
}

// Load fetches posts and categories. A failure of either keeps the previous
// values and records the error in the state.
func (uc *ListCacheUseCase) Load(ctx context.Context) (inbound.ListResult, error) {
	uc.mu.Lock()
	gen := uc.generation
	uc.mu.Unlock()

	v, err, shared := uc.group.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		return uc.fetch(context.WithoutCancel(ctx), gen)
	})
	if shared {
		uc.logger.Debug(ctx, "Joined in-flight list load", nil)
	}
	if err != nil {
		return inbound.ListResult{}, err
	}
	return v.(inbound.ListResult), nil
}

func (uc *ListCacheUseCase) fetch(ctx context.Context, gen uint64) (inbound.ListResult, error) {
	uc.mu.Lock()
	if gen == uc.generation {
		uc.state.Loading = true
		uc.state.Error = nil
	}
	uc.mu.Unlock()

	start := time.Now()
	var (
		posts      []entity.Post
		categories []entity.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := uc.content.Posts(gctx)
		if err != nil {
			return fmt.Errorf("failed to load posts: %w", err)
		}
		posts = p
		return nil
	})
	g.Go(func() error {
		c, err := uc.content.Categories(gctx)
		if err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}
		categories = c
		return nil
	})
	err := g.Wait()

	logger.LogPerformance(ctx, uc.logger, "list_load", time.Since(start), map[string]interface{}{
		"success": err == nil,
	})

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if gen != uc.generation {
		uc.logger.Debug(ctx, "Discarding list load started before reset", nil)
		if err != nil {
			return inbound.ListResult{}, err
		}
		return inbound.ListResult{Posts: posts, Categories: categories}, nil
	}

	uc.state.Loading = false
	if err != nil {
		uc.state.Error = err
		uc.logger.Warn(ctx, "List load failed", map[string]interface{}{
			"error": err.Error(),
		})
		return inbound.ListResult{}, err
	}

	if posts == nil {
		posts = []entity.Post{}
	}
	if categories == nil {
		categories = []entity.Category{}
	}
	uc.state = inbound.ListCacheState{
		Posts:         posts,
		Categories:    categories,
		IsDataFetched: true,
	}
	return inbound.ListResult{
		Posts:      slices.Clone(posts),
		Categories: slices.Clone(categories),
	}, nil
}

// Reset empties the cache. It does not wait for an in-flight load.
func (uc *ListCacheUseCase) Reset() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.generation++
	uc.state = inbound.ListCacheState{}
}

func (uc *ListCacheUseCase) ResetError() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.state.Error = nil
}

func (uc *ListCacheUseCase) State() inbound.ListCacheState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	s := uc.state
	s.Posts = slices.Clone(s.Posts)
	s.Categories = slices.Clone(s.Categories)
	return s
}
