package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient answers prompts through Google's Generative AI SDK.
type GeminiClient struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
	timeout  time.Duration
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string, concurrentReqs int, timeout time.Duration) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)
	model.SetTopP(0.95)

	if concurrentReqs < 1 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiClient{
		client:   client,
		model:    model,
		rateChan: rateChan,
		timeout:  timeout,
	}, nil
}

func (g *GeminiClient) Provider() string { return "gemini" }

func (g *GeminiClient) Close() {
	g.client.Close()
}

// acquireRate blocks until a rate slot is available
func (g *GeminiClient) acquireRate(ctx context.Context) error {
	select {
	case <-g.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (g *GeminiClient) releaseRate() {
	g.rateChan <- struct{}{}
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if err := g.acquireRate(ctx); err != nil {
		return "", err
	}
	defer g.releaseRate()

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	text := extractText(resp)
	if text == "" {
		return "", ErrEmptyGeneration
	}
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
