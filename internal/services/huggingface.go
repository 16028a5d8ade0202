package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

// maxResponseBytes caps how much of an inference response is read.
const maxResponseBytes = 1 << 20

// HuggingFaceClient calls the hosted Inference API text-generation endpoint of one model.
type HuggingFaceClient struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewHuggingFaceClient(url, apiKey string, timeout time.Duration) *HuggingFaceClient {
	return &HuggingFaceClient{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type hfRequest struct {
	Inputs string `json:"inputs"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type hfError struct {
	Error string `json:"error"`
}

func (c *HuggingFaceClient) Provider() string { return "huggingface" }

// Generate sends {"inputs": prompt} and returns generated_text of the first result.
func (c *HuggingFaceClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(hfRequest{Inputs: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal huggingface request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create huggingface request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("huggingface request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed reading huggingface response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("huggingface non-success status=%d: %s", resp.StatusCode, errorDetail(body))
	}

	var generations []hfGeneration
	if err := json.Unmarshal(body, &generations); err != nil {
		// Some failures come back as 200 with an {"error": ...} object
		var apiErr hfError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("huggingface error: %s", apiErr.Error)
		}
		return "", fmt.Errorf("failed to parse huggingface response: %s", truncate(string(body), 400))
	}

	if len(generations) == 0 {
		return "", ErrEmptyGeneration
	}
	return generations[0].GeneratedText, nil
}

func errorDetail(body []byte) string {
	var apiErr hfError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	return truncate(string(body), 400)
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
