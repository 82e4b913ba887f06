// Package ratelimit implements fixed-window request counters keyed by
// (subject, bucket). Counters live either in process memory or in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/celebiasallll/coffychess/internal/obslog"
)

// Rule caps one bucket: at most Limit requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Bucket names used by the gateway.
const (
	BucketMove     = "move"
	BucketChat     = "chat"
	BucketUsername = "username"
	BucketGeneral  = "general"
)

// DefaultRules returns the production limits.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		BucketMove:     {Limit: 30, Window: 10 * time.Second},
		BucketChat:     {Limit: 20, Window: 60 * time.Second},
		BucketUsername: {Limit: 5, Window: 60 * time.Second},
		BucketGeneral:  {Limit: 30, Window: 60 * time.Second},
	}
}

// Store increments a window-scoped counter and returns the new count. The
// ttl bounds how long the counter may live after its window closes.
type Store interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type Limiter struct {
	store Store
	rules map[string]Rule
	now   func() time.Time
}

func New(store Store, rules map[string]Rule) *Limiter {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Limiter{store: store, rules: rules, now: time.Now}
}

// Allow reports whether one more request from subject fits in the bucket's
// current window. Unknown buckets fall back to the general rule. Store
// failures fail open: dropping traffic because Redis blinked would be worse
// than briefly not limiting.
func (l *Limiter) Allow(ctx context.Context, subject, bucket string) bool {
	rule, ok := l.rules[bucket]
	if !ok {
		rule = l.rules[BucketGeneral]
		bucket = BucketGeneral
	}
	if rule.Limit <= 0 || rule.Window <= 0 {
		return true
	}

	slot := l.now().UnixNano() / int64(rule.Window)
	key := fmt.Sprintf("rl:%s:%s:%d", bucket, subject, slot)
	count, err := l.store.Incr(ctx, key, rule.Window*2)
	if err != nil {
		obslog.L().Warn("ratelimit_store_error", zap.String("bucket", bucket), zap.Error(err))
		return true
	}
	if count > int64(rule.Limit) {
		obslog.L().Debug("ratelimit_reject",
			zap.String("bucket", bucket),
			zap.String("subject", subject),
			zap.Int64("count", count),
		)
		return false
	}
	return true
}
