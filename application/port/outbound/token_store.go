package outbound

import (
	"context"

	"github.com/myblog/myblog/domain/valueobject"
)

// TokenStore is the only component allowed to touch persisted credentials.
type TokenStore interface {
	// Save replaces the stored pair.
	Save(ctx context.Context, pair valueobject.TokenPair) error
	// Load returns nil, nil when nothing usable is stored, including when the
	// stored value is malformed.
	Load(ctx context.Context) (*valueobject.TokenPair, error)
	Clear(ctx context.Context) error
}
