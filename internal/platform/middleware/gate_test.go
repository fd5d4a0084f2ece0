// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/ctxutil"
	"github.com/taibuivan/storefront/internal/platform/metrics"
	"github.com/taibuivan/storefront/internal/platform/middleware"
	"github.com/taibuivan/storefront/internal/platform/sec"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type gateFixture struct {
	clock   *fakeClock
	service *sec.TokenService
	handler http.Handler
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	service, err := sec.NewTokenService([]byte("gate-test-secret-gate-test-secret"), "storefront.test", sec.WithClock(clock.Now))
	require.NoError(t, err)

	downstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Subject", ctxutil.GetUserID(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})

	return &gateFixture{
		clock:   clock,
		service: service,
		handler: middleware.RequireToken(service)(downstream),
	}
}

func (f *gateFixture) issue(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()
	token, err := f.service.IssueToken(subject, ttl)
	require.NoError(t, err)
	return token.Value
}

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Expired bool   `json:"expired"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

/*
TestExtractBearer verifies the strict two-part header parser.
*/
func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header string
		token  string
		err    error
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"", "", middleware.ErrNoToken},
		{"Bearer", "", middleware.ErrMalformedHeader},
		{"Bearer ", "", middleware.ErrMalformedHeader},
		{"bearer abc", "", middleware.ErrMalformedHeader},
		{"BEARER abc", "", middleware.ErrMalformedHeader},
		{"Basic dXNlcjpwYXNz", "", middleware.ErrMalformedHeader},
		{"Bearer  abc", "", middleware.ErrMalformedHeader},
		{"Bearer abc def", "", middleware.ErrMalformedHeader},
		{"abc.def.ghi", "", middleware.ErrMalformedHeader},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, err := middleware.ExtractBearer(tt.header)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.token, token)
		})
	}
}

/*
TestRequireToken_Verified verifies that a valid bearer token reaches the handler
with its subject in context.
*/
func TestRequireToken_Verified(t *testing.T) {
	f := newGateFixture(t)
	before := testutil.ToFloat64(metrics.GateDecisions.WithLabelValues(metrics.GateVerified))

	req := httptest.NewRequest(http.MethodGet, "/api/showme", nil)
	req.Header.Set("Authorization", "Bearer "+f.issue(t, "user-7", time.Hour))
	rec := httptest.NewRecorder()

	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-7", rec.Header().Get("X-Subject"))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.GateDecisions.WithLabelValues(metrics.GateVerified)))
}

/*
TestRequireToken_Rejections verifies each gate state has its own stable code.
*/
func TestRequireToken_Rejections(t *testing.T) {
	f := newGateFixture(t)
	expiring := f.issue(t, "user-1", time.Second)
	foreignService, err := sec.NewTokenService([]byte("some-other-secret-some-other-secret"), "storefront.test")
	require.NoError(t, err)
	foreign, err := foreignService.IssueToken("user-1", 24*time.Hour)
	require.NoError(t, err)

	// Move past the short token's expiry.
	f.clock.now = f.clock.now.Add(5 * time.Second)

	tests := []struct {
		name    string
		header  string
		code    string
		message string
		expired bool
	}{
		{"missing", "", apperr.CodeTokenMissing, "Unauthorized: no token provided", false},
		{"wrong scheme", "Token " + expiring, apperr.CodeTokenFormatInvalid, "Unauthorized: invalid token format", false},
		{"lowercase scheme", "bearer " + expiring, apperr.CodeTokenFormatInvalid, "Unauthorized: invalid token format", false},
		{"expired", "Bearer " + expiring, apperr.CodeTokenExpired, "Unauthorized: token expired", true},
		{"foreign secret", "Bearer " + foreign.Value, apperr.CodeTokenInvalid, "Unauthorized: invalid token", false},
		{"garbage", "Bearer not.a.token", apperr.CodeTokenInvalid, "Unauthorized: invalid token", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/showme", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			f.handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, rec.Header().Get("X-Subject"))

			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.message, body.Error)
			assert.Equal(t, tt.expired, body.Expired)
		})
	}
}

/*
TestRequireToken_EmptyHeaderValue verifies a sent-but-empty header is malformed, not missing.
*/
func TestRequireToken_EmptyHeaderValue(t *testing.T) {
	f := newGateFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/showme", nil)
	req.Header["Authorization"] = []string{""}
	rec := httptest.NewRecorder()

	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperr.CodeTokenFormatInvalid, decodeError(t, rec).Code)
}

/*
TestRequireToken_CookieFallback verifies the session cookie is honoured only
when no Authorization header is sent.
*/
func TestRequireToken_CookieFallback(t *testing.T) {
	f := newGateFixture(t)
	token := f.issue(t, "user-9", time.Hour)

	// 1. Cookie alone is accepted
	req := httptest.NewRequest(http.MethodGet, "/api/showme", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-9", rec.Header().Get("X-Subject"))

	// 2. A malformed header wins over a valid cookie
	req = httptest.NewRequest(http.MethodGet, "/api/showme", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	req.Header.Set("Authorization", "Token "+token)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperr.CodeTokenFormatInvalid, decodeError(t, rec).Code)

	// 3. An empty cookie counts as no token
	req = httptest.NewRequest(http.MethodGet, "/api/showme", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: ""})
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, apperr.CodeTokenMissing, decodeError(t, rec).Code)
}
