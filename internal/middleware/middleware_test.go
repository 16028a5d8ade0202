package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestJWTAuth_Middleware_AttachesUserID(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	token, err := auth.GenerateAccessToken("user_2abc", time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	var seen string
	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/chat/get", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if seen != "user_2abc" {
		t.Fatalf("expected user id in context, got %q", seen)
	}
}

func TestJWTAuth_Middleware_RejectsMissingOrBadToken(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	other := NewJWTAuth("other-secret")
	foreign, _ := other.GenerateAccessToken("user_2abc", time.Hour)
	expired, _ := auth.GenerateAccessToken("user_2abc", -time.Minute)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "User not authenticated"},
		{"not bearer", "Basic abc", "User not authenticated"},
		{"wrong secret", "Bearer " + foreign, "User not authenticated"},
		{"expired", "Bearer " + expired, "Token has expired"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/chat/ai", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if called {
				t.Fatal("handler should not run without a valid token")
			}
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
			}

			var body map[string]interface{}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body["success"] != false || body["message"] != tc.message {
				t.Fatalf("unexpected body: %v", body)
			}
		})
	}
}

func TestParseToken_RequiresUserID(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	token, _ := auth.GenerateAccessToken("  ", time.Hour)

	if _, err := auth.ParseToken(token); err == nil {
		t.Fatal("expected blank user_id to be rejected")
	}
	if _, err := auth.ParseToken(""); err != ErrMissingToken {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/chat/ai", nil)
		req = req.WithContext(WithUserID(req.Context(), "user_1"))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence: %v", codes)
	}

	// A different user has its own window.
	req := httptest.NewRequest(http.MethodPost, "/api/chat/ai", nil)
	req = req.WithContext(WithUserID(req.Context(), "user_2"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected other user to pass, got %d", rr.Code)
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("k") {
		t.Fatal("first request should pass")
	}
	if rl.allow("k") {
		t.Fatal("second request in window should be blocked")
	}

	now = now.Add(2 * time.Minute)
	if !rl.allow("k") {
		t.Fatal("request after window should pass")
	}
}

func TestRateLimiter_NonPositiveLimitDisables(t *testing.T) {
	for _, limit := range []int{0, -1} {
		rl := NewRateLimiter(limit, time.Minute)

		for i := 0; i < 5; i++ {
			if !rl.allow("k") {
				t.Fatalf("limit %d: request %d should pass", limit, i+1)
			}
		}
		rl.Stop()
	}
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if seen == "" {
		t.Fatal("expected generated request id")
	}
	if rr.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("expected response header %q, got %q", seen, rr.Header().Get(RequestIDHeader))
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS("http://localhost:3000")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight should not reach handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/chat/ai", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("missing allow-origin header")
	}
}
