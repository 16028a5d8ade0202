package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatproxy-backend/internal/handlers"
	"chatproxy-backend/internal/middleware"
	"chatproxy-backend/internal/models"
)

type fakeChats struct {
	appendCalls int
}

func (f *fakeChats) CreateChat(ctx context.Context, userID string) (*models.Chat, error) {
	return &models.Chat{ID: uuid.New(), UserID: userID, Name: models.DefaultChatName}, nil
}

func (f *fakeChats) ListChats(ctx context.Context, userID string) ([]models.Chat, error) {
	return []models.Chat{}, nil
}

func (f *fakeChats) AppendExchange(ctx context.Context, userID, chatID, prompt string) (*models.Message, error) {
	f.appendCalls++
	return &models.Message{Role: models.RoleAssistant, Content: "ok", Timestamp: 1}, nil
}

func (f *fakeChats) RenameChat(ctx context.Context, userID, chatID, name string) (*models.Chat, error) {
	return &models.Chat{}, nil
}

func (f *fakeChats) DeleteChat(ctx context.Context, userID, chatID string) error { return nil }

func newTestRouter(t *testing.T, chats *fakeChats, aiLimit int) (http.Handler, *middleware.JWTAuth) {
	t.Helper()
	auth := middleware.NewJWTAuth("router-secret")
	limiter := middleware.NewRateLimiter(aiLimit, time.Minute)
	t.Cleanup(limiter.Stop)

	ws := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }
	return New(zerolog.Nop(), auth, limiter, handlers.NewChatHandler(chats), ws, Options{FrontendURL: "*"}), auth
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t, &fakeChats{}, 10)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != `{"status":"ok"}` {
		t.Fatalf("unexpected health response: %d %s", rr.Code, rr.Body.String())
	}
}

func TestRouter_ChatRoutesRequireAuth(t *testing.T) {
	chats := &fakeChats{}
	r, _ := newTestRouter(t, chats, 10)

	body, _ := json.Marshal(map[string]string{"chatId": uuid.NewString(), "prompt": "Hello"})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/chat/ai", bytes.NewReader(body)))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var payload map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&payload)
	if payload["success"] != false || payload["message"] != "User not authenticated" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if chats.appendCalls != 0 {
		t.Fatalf("append must not run for unauthenticated callers")
	}
}

func TestRouter_AIRouteIsRateLimited(t *testing.T) {
	chats := &fakeChats{}
	r, auth := newTestRouter(t, chats, 1)
	token, _ := auth.GenerateAccessToken("user_1", time.Hour)

	codes := []int{}
	for i := 0; i < 2; i++ {
		body, _ := json.Marshal(map[string]string{"chatId": uuid.NewString(), "prompt": "Hello"})
		req := httptest.NewRequest(http.MethodPost, "/api/chat/ai", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence: %v", codes)
	}
	if chats.appendCalls != 1 {
		t.Fatalf("expected one append call, got %d", chats.appendCalls)
	}

	// Listing is not limited.
	req := httptest.NewRequest(http.MethodGet, "/api/chat/get", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected list to pass, got %d", rr.Code)
	}
}
