package llm

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
)

const (
	PerplexityAPIURL = "https://api.perplexity.ai/chat/completions"
)

const defaultPerplexitySystem = "You are a helpful developer assistant. Always respond with valid JSON only."

type PerplexityClient struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewPerplexityClient returns nil when no API key is configured.
func NewPerplexityClient(apiKey, model string, timeout time.Duration) *PerplexityClient {
	if apiKey == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = RequestTimeout
	}

	return &PerplexityClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: PerplexityAPIURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityRequest struct {
	Model    string              `json:"model"`
	Messages []perplexityMessage `json:"messages"`
}

type perplexityChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

type perplexityResponse struct {
	Choices []perplexityChoice `json:"choices"`
}

func (c *PerplexityClient) Name() string { return "perplexity/" + c.model }

func (c *PerplexityClient) Complete(ctx context.Context, r Request) (string, error) {
	if len(r.Images) > 0 {
		return "", errors.New("perplexity does not accept images")
	}

	system := r.System
	if system == "" {
		system = defaultPerplexitySystem
	}

	reqBody, err := json.Marshal(perplexityRequest{
		Model: c.model,
		Messages: []perplexityMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: r.Prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call Perplexity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("perplexity status %d: %s", resp.StatusCode, string(body))
	}

	var pResp perplexityResponse
	if err := json.NewDecoder(resp.Body).Decode(&pResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(pResp.Choices) == 0 {
		return "", fmt.Errorf("no response from Perplexity")
	}

	content := strings.TrimSpace(pResp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
