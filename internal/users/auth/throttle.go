// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/ctxutil"
)

// LoginThrottle blocks a client after too many failed logins within a window.
//
// Counter failures never block a login: the throttle logs and lets the attempt
// through. A nil *LoginThrottle is valid and allows everything.
type LoginThrottle struct {
	counter     AttemptCounter
	maxAttempts int64
	window      time.Duration
}

// NewLoginThrottle creates a throttle allowing maxAttempts failures per window.
func NewLoginThrottle(counter AttemptCounter, maxAttempts int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{
		counter:     counter,
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

// Allow returns a RATE_LIMITED error once clientKey has used up its failures.
func (throttle *LoginThrottle) Allow(ctx context.Context, clientKey string) error {
	if throttle == nil {
		return nil
	}

	failures, err := throttle.counter.Count(ctx, clientKey)
	if err != nil {
		throttle.unavailable(ctx, "count", err)
		return nil
	}

	if failures >= throttle.maxAttempts {
		return apperr.RateLimited(int(math.Ceil(throttle.window.Seconds())))
	}
	return nil
}

// RecordFailure counts one failed login for clientKey.
func (throttle *LoginThrottle) RecordFailure(ctx context.Context, clientKey string) {
	if throttle == nil {
		return
	}

	failures, err := throttle.counter.Increment(ctx, clientKey, throttle.window)
	if err != nil {
		throttle.unavailable(ctx, "increment", err)
		return
	}

	if failures == throttle.maxAttempts {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "login_throttle_engaged",
			slog.String("client", clientKey),
			slog.Duration("window", throttle.window),
		)
	}
}

// RecordSuccess clears the failures of clientKey.
func (throttle *LoginThrottle) RecordSuccess(ctx context.Context, clientKey string) {
	if throttle == nil {
		return
	}

	if err := throttle.counter.Reset(ctx, clientKey); err != nil {
		throttle.unavailable(ctx, "reset", err)
	}
}

func (throttle *LoginThrottle) unavailable(ctx context.Context, op string, err error) {
	ctxutil.GetLogger(ctx).WarnContext(ctx, "login_throttle_unavailable",
		slog.String("op", op),
		slog.Any("error", err),
	)
}
