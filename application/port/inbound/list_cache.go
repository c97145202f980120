package inbound

import (
	"context"

	"github.com/myblog/myblog/domain/entity"
)

type ListResult struct {
	Posts      []entity.Post
	Categories []entity.Category
}

// ListCacheState mirrors what list screens render from.
type ListCacheState struct {
	Posts         []entity.Post
	Categories    []entity.Category
	Loading       bool
	Error         error
	IsDataFetched bool
}

type ListCache interface {
	Load(ctx context.Context) (ListResult, error)
	Reset()
	ResetError()
	State() ListCacheState
}
