// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/storefront/internal/platform/constants"
)

// RedisAttemptCounter implements [AttemptCounter] with INCR and EXPIRE NX.
type RedisAttemptCounter struct {
	client redis.Cmdable
}

// NewAttemptCounter creates a Redis-backed AttemptCounter.
func NewAttemptCounter(client redis.Cmdable) *RedisAttemptCounter {
	return &RedisAttemptCounter{client: client}
}

func attemptKey(key string) string {
	return constants.RedisPrefixLoginAttempts + key
}

/*
Count returns the number of failures recorded for key in the current window.
*/
func (counter *RedisAttemptCounter) Count(context context.Context, key string) (int64, error) {
	value, err := counter.client.Get(context, attemptKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis_attempt_counter_get_failed: %w", err)
	}
	return value, nil
}

/*
Increment records one failure. The first failure starts the window; later
ones do not extend it.
*/
func (counter *RedisAttemptCounter) Increment(context context.Context, key string, window time.Duration) (int64, error) {
	redisKey := attemptKey(key)

	pipe := counter.client.TxPipeline()
	incr := pipe.Incr(context, redisKey)
	pipe.ExpireNX(context, redisKey, window)

	if _, err := pipe.Exec(context); err != nil {
		return 0, fmt.Errorf("redis_attempt_counter_incr_failed: %w", err)
	}
	return incr.Val(), nil
}

/*
Reset clears the failures for key after a successful login.
*/
func (counter *RedisAttemptCounter) Reset(context context.Context, key string) error {
	if err := counter.client.Del(context, attemptKey(key)).Err(); err != nil {
		return fmt.Errorf("redis_attempt_counter_reset_failed: %w", err)
	}
	return nil
}
