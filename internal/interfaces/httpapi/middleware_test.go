package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Awes0314/gcm-arena/internal/domain/user"
	"github.com/Awes0314/gcm-arena/internal/platform/ratelimit"
	"github.com/Awes0314/gcm-arena/internal/usecase"
)

type stubVerifier struct {
	principals map[string]user.Principal
}

func (s stubVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	p, ok := s.principals[token]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: access token rejected", usecase.ErrUnauthorized)
	}
	return p, nil
}

func TestRequireAuth(t *testing.T) {
	verifier := stubVerifier{principals: map[string]user.Principal{
		"valid-token": {UserID: "player-1", DisplayName: "Player One"},
	}}

	var seen user.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = principalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(verifier, next)

	tests := []struct {
		name       string
		authHeader string
		wantCode   int
	}{
		{name: "missing header", authHeader: "", wantCode: http.StatusUnauthorized},
		{name: "not a bearer token", authHeader: "Basic abc", wantCode: http.StatusUnauthorized},
		{name: "empty bearer token", authHeader: "Bearer ", wantCode: http.StatusUnauthorized},
		{name: "rejected token", authHeader: "Bearer bad-token", wantCode: http.StatusUnauthorized},
		{name: "valid token", authHeader: "Bearer valid-token", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/tournaments", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}

	if seen.UserID != "player-1" {
		t.Fatalf("expected principal player-1 in request context, got %q", seen.UserID)
	}
}

func TestOptionalAuth(t *testing.T) {
	verifier := stubVerifier{principals: map[string]user.Principal{
		"valid-token": {UserID: "player-1"},
	}}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := principalFromContext(r.Context()); ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	handler := OptionalAuth(verifier, next)

	t.Run("anonymous passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/tournaments/trn-001", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected anonymous pass-through, got %d", rec.Code)
		}
	})

	t.Run("valid token attaches principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/tournaments/trn-001", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected principal to be attached, got %d", rec.Code)
		}
	})

	t.Run("invalid token still rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/tournaments/trn-001", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
		}
	})
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewFixedWindow(1, time.Minute)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimit(limiter, next)

	req := httptest.NewRequest(http.MethodPost, "/v1/tournaments/trn-001/scores", nil)
	req.RemoteAddr = "198.51.100.7:61234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request should be admitted, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the window is exhausted, got %d", rec.Code)
	}

	// A different client address has its own budget.
	other := httptest.NewRequest(http.MethodPost, "/v1/tournaments/trn-001/scores", nil)
	other.RemoteAddr = "203.0.113.9:40001"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("a different address must not share the exhausted budget, got %d", rec.Code)
	}
}

func TestRateLimitKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/tournaments", nil)
	req.RemoteAddr = "198.51.100.7:61234"

	if got := rateLimitKey(req.Context(), req); got != "addr:198.51.100.7" {
		t.Fatalf("unexpected anonymous key: %q", got)
	}

	ctx := withPrincipal(req.Context(), user.Principal{UserID: "player-1"})
	if got := rateLimitKey(ctx, req); got != "user:player-1" {
		t.Fatalf("unexpected authenticated key: %q", got)
	}
}
