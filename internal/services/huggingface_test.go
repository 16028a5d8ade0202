package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestHuggingFaceGenerate_ReturnsFirstGeneration(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]string{
			{"generated_text": "Hello there"},
			{"generated_text": "ignored"},
		})
	}))
	defer server.Close()

	client := NewHuggingFaceClient(server.URL, "hf_test", 5*time.Second)
	got, err := client.Generate(context.Background(), "Hello")
	if err != nil {
		t.Fatal(err)
	}

	if got != "Hello there" {
		t.Errorf("expected 'Hello there', got %q", got)
	}
	if gotAuth != "Bearer hf_test" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotBody["inputs"] != "Hello" {
		t.Errorf("expected inputs 'Hello', got %q", gotBody["inputs"])
	}
}

func TestHuggingFaceGenerate_EmptyArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewHuggingFaceClient(server.URL, "hf_test", 5*time.Second)
	if _, err := client.Generate(context.Background(), "Hello"); !errors.Is(err, ErrEmptyGeneration) {
		t.Fatalf("expected ErrEmptyGeneration, got %v", err)
	}
}

func TestHuggingFaceGenerate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"model loading", http.StatusServiceUnavailable, `{"error":"Model facebook/opt-125m is currently loading"}`, "currently loading"},
		{"error payload with 200", http.StatusOK, `{"error":"rate limited"}`, "rate limited"},
		{"malformed body", http.StatusOK, `<html>oops</html>`, "failed to parse"},
		{"unauthorized", http.StatusUnauthorized, `Invalid credentials`, "status=401"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewHuggingFaceClient(server.URL, "hf_test", 5*time.Second)
			_, err := client.Generate(context.Background(), "Hello")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncate("abc", 3); got != "abc" {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func TestHuggingFaceGenerate_NoKeyOmitsAuthHeader(t *testing.T) {
	var hadAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.Write([]byte(`[{"generated_text":"ok"}]`))
	}))
	defer server.Close()

	client := NewHuggingFaceClient(server.URL, "", 5*time.Second)
	if _, err := client.Generate(context.Background(), "Hello"); err != nil {
		t.Fatal(err)
	}
	if hadAuth {
		t.Fatal("expected no Authorization header without an API key")
	}
}

func TestHuggingFaceGenerate_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewHuggingFaceClient(server.URL, "hf_test", 50*time.Millisecond)
	if _, err := client.Generate(context.Background(), "Hello"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	// "é" is two bytes; cutting at 2 would split it.
	got := truncate("héllo", 2)
	if got != "h..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}

	got = truncate("⚠️ model overloaded", 4)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
}

func TestHuggingFaceGenerate_OversizedBodyIsBounded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(strings.Repeat("x", 2*maxResponseBytes)))
	}))
	defer server.Close()

	client := NewHuggingFaceClient(server.URL, "hf_test", 5*time.Second)
	_, err := client.Generate(context.Background(), "Hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(err.Error()) > 1000 {
		t.Fatalf("error text should be truncated, got %d bytes", len(err.Error()))
	}
}
