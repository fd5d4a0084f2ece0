// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/ctxutil"
	"github.com/taibuivan/storefront/internal/platform/middleware"
)

type devConfig bool

func (d devConfig) IsDevelopment() bool { return bool(d) }

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

/*
TestRequestID verifies generation and propagation of the correlation ID.
*/
func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxutil.GetRequestID(r.Context())
	}))

	// 1. Generated when absent
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	// 2. Reused when provided
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "client-id", seen)
}

/*
TestRateLimit verifies the per-IP bucket and the 429 envelope.
*/
func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.RateLimit(ctx, middleware.RateLimitOptions{RPS: 0.001, Burst: 2, TTL: time.Minute})(okHandler)

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	limited := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), apperr.CodeRateLimited)

	// Another client has its own bucket.
	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
}

/*
TestPanicRecovery verifies that a panicking handler yields a generic 500.
*/
func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), apperr.CodeInternal)
	assert.NotContains(t, rec.Body.String(), "boom")
}

/*
TestCORS verifies origin allow-listing outside development.
*/
func TestCORS(t *testing.T) {
	handler := middleware.CORS(devConfig(false), []string{"https://shop.example"})(okHandler)

	// 1. Listed origin
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	// 2. Unlisted origin
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	// 3. Pre-flight short-circuits
	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

/*
TestRealIP verifies that forwarding headers are ignored without a trusted proxy.
*/
func TestRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", middleware.RealIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "192.0.2.1", middleware.RealIP(req))
}

/*
TestTrustProxies verifies forwarded addresses are honoured only from trusted peers.
*/
func TestTrustProxies(t *testing.T) {
	trusted, err := middleware.ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	var seen string
	handler := middleware.TrustProxies(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RealIP(r)
	}))

	serve := func(remote string, headers map[string]string) string {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
		return seen
	}

	// 1. Untrusted peer: headers ignored
	assert.Equal(t, "203.0.113.50", serve("203.0.113.50:5000", map[string]string{
		"X-Forwarded-For": "198.51.100.7", "X-Real-IP": "198.51.100.8",
	}))

	// 2. Trusted peer: rightmost untrusted hop wins over spoofed left entries
	assert.Equal(t, "198.51.100.7", serve("10.1.2.3:5000", map[string]string{
		"X-Forwarded-For": "1.1.1.1, 198.51.100.7, 10.9.9.9",
	}))

	// 3. Trusted peer with only X-Real-IP
	assert.Equal(t, "198.51.100.8", serve("10.1.2.3:5000", map[string]string{
		"X-Real-IP": "198.51.100.8",
	}))

	// 4. Trusted peer without headers keeps its own address
	assert.Equal(t, "10.1.2.3", serve("10.1.2.3:5000", nil))
}

/*
TestParseTrustedProxies verifies accepted and rejected forms.
*/
func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := middleware.ParseTrustedProxies([]string{"10.0.0.0/8", " 192.0.2.1 ", "", "2001:db8::/32"})
	require.NoError(t, err)
	require.Len(t, prefixes, 3)
	assert.Equal(t, "192.0.2.1/32", prefixes[1].String())

	_, err = middleware.ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
	_, err = middleware.ParseTrustedProxies([]string{"proxy.local"})
	assert.Error(t, err)
}
