package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatproxy-backend/internal/models"
)

// APIError is a response the server marked success=false. Message is the envelope's
// user-facing `message`; Detail is its `error` field.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Detail != "":
		return e.Detail
	default:
		return http.StatusText(e.Status)
	}
}

// API talks to the chat backend on behalf of one signed-in user.
type API struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewAPI(baseURL, token string, timeout time.Duration) *API {
	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// HasToken reports whether a signed-in identity is available.
func (a *API) HasToken() bool {
	return a.token != ""
}

func (a *API) CreateChat(ctx context.Context) error {
	_, err := a.do(ctx, http.MethodPost, "/api/chat/create", struct{}{})
	return err
}

func (a *API) ListChats(ctx context.Context) ([]models.Chat, error) {
	data, err := a.do(ctx, http.MethodGet, "/api/chat/get", nil)
	if err != nil {
		return nil, err
	}

	chats := []models.Chat{}
	if len(data) == 0 || string(data) == "null" {
		return chats, nil
	}
	if err := json.Unmarshal(data, &chats); err != nil {
		return nil, fmt.Errorf("failed to decode chats: %w", err)
	}
	return chats, nil
}

func (a *API) SendMessage(ctx context.Context, chatID, prompt string) (*models.Message, error) {
	data, err := a.do(ctx, http.MethodPost, "/api/chat/ai", models.AIRequest{ChatID: chatID, Prompt: prompt})
	if err != nil {
		return nil, err
	}

	var msg models.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode reply: %w", err)
	}
	return &msg, nil
}

// do sends one request and unwraps the {success, data, message, error} envelope.
func (a *API) do(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env models.RawAPIResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unexpected response (status %d)", resp.StatusCode)
	}
	if !env.Success {
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message, Detail: env.Error}
	}
	return env.Data, nil
}

// IsUnauthenticated reports whether err is the server rejecting the caller's identity.
func IsUnauthenticated(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
