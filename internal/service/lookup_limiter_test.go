package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"health-record-vault/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScripter evaluates the fixed-window script against an in-memory
// counter. Only EvalSha is exercised by redis.Script.Run.
type fakeScripter struct {
	redis.Scripter
	counts map[string]int64
	keys   []string
	err    error
}

func (s *fakeScripter) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	if s.err != nil {
		cmd.SetErr(s.err)
		return cmd
	}

	s.keys = append(s.keys, keys[0])
	s.counts[keys[0]]++
	limit := int64(args[1].(int))
	if s.counts[keys[0]] > limit {
		cmd.SetVal(int64(0))
	} else {
		cmd.SetVal(int64(1))
	}
	return cmd
}

func TestLookupLimiterFixedWindow(t *testing.T) {
	scripter := &fakeScripter{counts: map[string]int64{}}
	recorder := &countingRecorder{}
	limiter := service.NewRedisLookupLimiter(scripter, quietLogger(), recorder, 2, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.Allow(ctx, "drsmith"))
	require.NoError(t, limiter.Allow(ctx, "drsmith"))
	assert.ErrorIs(t, limiter.Allow(ctx, "drsmith"), service.ErrLookupRateLimited)
	assert.Equal(t, 1, recorder.rejected)

	// Callers are counted separately.
	assert.NoError(t, limiter.Allow(ctx, "drjones"))
	assert.Equal(t, service.RedisLookupKeyPrefix+"drsmith", scripter.keys[0])
	assert.Equal(t, service.RedisLookupKeyPrefix+"drjones", scripter.keys[3])
}

func TestLookupLimiterFailsClosed(t *testing.T) {
	scripter := &fakeScripter{counts: map[string]int64{}, err: errors.New("connection refused")}
	limiter := service.NewRedisLookupLimiter(scripter, quietLogger(), nil, 2, time.Minute)

	err := limiter.Allow(context.Background(), "drsmith")
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrLookupRateLimited)
}

func TestLookupLimiterDisabled(t *testing.T) {
	limiter := service.NewRedisLookupLimiter(&fakeScripter{}, quietLogger(), nil, 0, time.Minute)
	assert.NoError(t, limiter.Allow(context.Background(), "drsmith"))
}
