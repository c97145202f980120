package tokenstore

import (
	"context"
	"encoding/json"

	"github.com/myblog/myblog/domain/valueobject"
	"github.com/myblog/myblog/infrastructure/service/logger"
)

// decodePair turns a stored value into a pair. Anything unusable is reported
// as "no session" so callers never have to handle a parse error.
func decodePair(ctx context.Context, log logger.Logger, source string, raw []byte) *valueobject.TokenPair {
	if len(raw) == 0 {
		return nil
	}

	var pair valueobject.TokenPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		log.Warn(ctx, "Stored tokens are malformed, ignoring", map[string]interface{}{
			"source": source,
			"error":  err.Error(),
		})
		return nil
	}
	if pair.Access == "" && pair.Refresh == "" {
		return nil
	}
	return &pair
}
