package ratelimit

import (
	"context"
	"time"

	limiter "github.com/ulule/limiter/v3"
)

// StoreLimiter adapts a ulule/limiter store to the Limiter interface. It uses
// the library's fixed-window accounting, which is cheaper than the sorted-set
// sliding window at the cost of burstiness at window edges.
type StoreLimiter struct {
	Store  limiter.Store
	Prefix string
}

// Allow consumes one token for the key.
func (s StoreLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if s.Store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	lim := limiter.New(s.Store, limiter.Rate{Period: window, Limit: int64(max)})
	lctx, err := lim.Get(ctx, s.Prefix+key)
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}
