// Package gemini wraps the Gemini API with round-robin API key rotation.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/SYH0213/genminute-ai/internal/logger"
)

// ErrRateLimited marks a 429 / quota response. The next call uses the next key.
var ErrRateLimited = errors.New("gemini rate limited")

// Client sends generate requests with the current key.
type Client struct {
	mu         sync.Mutex
	apiKeys    []string
	currentKey int
	logger     logger.Logger
}

// New creates a Client. At least one key is required.
func New(apiKeys []string, log logger.Logger) (*Client, error) {
	var keys []string
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one Gemini API key is required")
	}
	return &Client{apiKeys: keys, logger: log}, nil
}

// Generate sends one request and returns the concatenated text parts of the
// first candidate. A rate-limit response rotates the key and returns
// ErrRateLimited; the request is not retried.
func (c *Client) Generate(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	key, idx := c.key()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		if isRateLimit(err) {
			c.logger.Warn(ctx, "Key %d rate limited, rotating...", idx+1)
			c.rotateFrom(idx)
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return "", fmt.Errorf("generate content: %w", err)
	}

	if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		var text strings.Builder
		for _, part := range result.Candidates[0].Content.Parts {
			if part.Text != "" {
				text.WriteString(part.Text)
			}
		}
		return text.String(), nil
	}

	return "", fmt.Errorf("empty response from Gemini")
}

func (c *Client) key() (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apiKeys[c.currentKey], c.currentKey
}

// rotateFrom advances past idx unless another caller already rotated.
func (c *Client) rotateFrom(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentKey == idx {
		c.currentKey = (c.currentKey + 1) % len(c.apiKeys)
	}
}

func isRateLimit(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
