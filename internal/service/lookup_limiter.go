package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"health-record-vault/internal/infrastructure/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrLookupRateLimited is returned once a caller exhausts its lookups for
// the current window.
var ErrLookupRateLimited = errors.New("too many patient lookups, try again later")

const RedisLookupKeyPrefix = "lookup:patient_code:"

// fixedWindowScript counts hits in KEYS[1]. The expiry is set on the first
// hit only, so the window does not slide.
//
// ARGV[1] window in milliseconds, ARGV[2] limit. Returns 1 allowed, 0 refused.
var fixedWindowScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	if current > tonumber(ARGV[2]) then
		return 0
	end
	return 1
`)

type LookupLimiter interface {
	Allow(ctx context.Context, caller string) error
}

type redisLookupLimiter struct {
	client  redis.Scripter
	log     *logrus.Logger
	metrics metrics.Recorder
	limit   int
	window  time.Duration
}

func NewRedisLookupLimiter(client redis.Scripter, log *logrus.Logger, recorder metrics.Recorder, limit int, window time.Duration) LookupLimiter {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &redisLookupLimiter{
		client:  client,
		log:     log,
		metrics: recorder,
		limit:   limit,
		window:  window,
	}
}

// Allow fails closed: a Redis error refuses the lookup with that error.
func (l *redisLookupLimiter) Allow(ctx context.Context, caller string) error {
	if l.limit <= 0 {
		return nil
	}

	key := RedisLookupKeyPrefix + caller
	allowed, err := fixedWindowScript.Run(ctx, l.client, []string{key}, l.window.Milliseconds(), l.limit).Int()
	if err != nil {
		l.log.Warnf("Failed lookup limiter script for %s: %+v", caller, err)
		return fmt.Errorf("lookup limiter for %s: %w", caller, err)
	}

	if allowed == 0 {
		l.metrics.LookupRejected()
		return ErrLookupRateLimited
	}
	return nil
}
