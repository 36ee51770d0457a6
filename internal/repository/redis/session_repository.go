package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionViewsTTL = 2 * time.Hour
	sessionViewsCap = 50
)

// SessionRepository tracks the products recently viewed in a storefront
// session. It is a fast-path read for the resolver's session tier; the
// events table remains the source of truth.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{
		client: client,
	}
}

// key format: "session:views:{shop_id}:{session_id}"
func sessionViewsKey(shopID, sessionID string) string {
	return fmt.Sprintf("session:views:%s:%s", shopID, sessionID)
}

// RecordView prepends a viewed product to the session's list and
// refreshes the TTL.
func (r *SessionRepository) RecordView(ctx context.Context, shopID, sessionID, productID string) error {
	key := sessionViewsKey(shopID, sessionID)

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, productID)
	pipe.LTrim(ctx, key, 0, sessionViewsCap-1)
	pipe.Expire(ctx, key, sessionViewsTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record session view: %w", err)
	}

	return nil
}

// RecentViews returns the session's distinct viewed products, newest
// first, capped at limit.
func (r *SessionRepository) RecentViews(ctx context.Context, shopID, sessionID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}

	key := sessionViewsKey(shopID, sessionID)

	values, err := r.client.LRange(ctx, key, 0, sessionViewsCap-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session views: %w", err)
	}

	seen := make(map[string]struct{}, limit)
	out := make([]string, 0, limit)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) >= limit {
			break
		}
	}

	return out, nil
}
