// Package lock keeps two processes sharing one database from both running the
// same day's overdue sweep.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"taskify/internal/timeutil"
)

// SweepGuard grants the sweep for a calendar day to a single caller.
type SweepGuard interface {
	AcquireDay(ctx context.Context, day timeutil.Date) (bool, error)
}

// NopGuard always grants the sweep.
type NopGuard struct{}

func (NopGuard) AcquireDay(context.Context, timeutil.Date) (bool, error) { return true, nil }

// RedisGuard claims a per-day key with SET NX.
type RedisGuard struct {
	client rueidis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisGuard(client rueidis.Client, prefix string) *RedisGuard {
	return &RedisGuard{client: client, prefix: prefix, ttl: 36 * time.Hour}
}

func (g *RedisGuard) AcquireDay(ctx context.Context, day timeutil.Date) (bool, error) {
	cmd := g.client.B().Set().
		Key(g.key(day)).
		Value(fmt.Sprintf("%d", time.Now().Unix())).
		Nx().
		ExSeconds(int64(g.ttl/time.Second)).
		Build()

	if err := g.client.Do(ctx, cmd).Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("acquire sweep key: %w", err)
	}
	return true, nil
}

func (g *RedisGuard) key(day timeutil.Date) string {
	return g.prefix + ":" + day.String()
}

// NewRedisClient connects to addr.
func NewRedisClient(addr string) (rueidis.Client, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("create redis client: %w", err)
	}
	return client, nil
}
