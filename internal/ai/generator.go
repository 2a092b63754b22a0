// Package ai adapts an external text-generation API into message candidates
// for campaigns. It is the only component allowed to absorb failure: any
// provider problem collapses into a fixed fallback set.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	appErrors "github.com/brightsend/campaign-engine/internal/errors"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 10 * time.Second

	// FallbackCount messages are always returned when the provider fails.
	FallbackCount = 3
)

// fallbackMessages v1. Keep exactly FallbackCount entries.
var fallbackMessages = []string{
	"Hi {name}, we picked something special for you. Come take a look!",
	"{name}, your next visit just got better. Don't miss out!",
	"We miss you, {name}! Here's a reason to come back today.",
}

// Generator calls the text-generation collaborator. Credentials and client
// are injected; there is no package-level singleton.
type Generator struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGenerator builds a Generator. An empty apiKey is allowed: every call
// will then fall back immediately.
func NewGenerator(apiKey string) *Generator {
	return &Generator{
		apiKey:     apiKey,
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewGeneratorWithClient is for tests and custom endpoints.
func NewGeneratorWithClient(apiKey, baseURL string, client *http.Client) *Generator {
	g := NewGenerator(apiKey)
	if baseURL != "" {
		g.baseURL = baseURL
	}
	if client != nil {
		g.httpClient = client
	}
	return g
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	N           int           `json:"n,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateMessages returns candidate campaign messages for the given intent.
// It never fails outward: on any provider error (missing credential, network
// failure, timeout, empty or malformed result) it returns the fixed
// FallbackCount-message fallback set. The error is logged, never returned.
func (g *Generator) GenerateMessages(ctx context.Context, intent string) []string {
	messages, err := g.generate(ctx, intent, FallbackCount)
	if err != nil {
		log.Printf("ai generator falling back: %v", appErrors.NewProvider("%v", err))
		return Fallback()
	}
	return messages
}

// Fallback returns a copy of the fixed fallback set.
func Fallback() []string {
	out := make([]string, FallbackCount)
	copy(out, fallbackMessages)
	return out
}

func (g *Generator) generate(ctx context.Context, intent string, count int) ([]string, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("no API key configured")
	}

	prompt := fmt.Sprintf(
		"Write %d short marketing messages for this campaign intent: %q. "+
			"Use {name} as the customer name placeholder. Return one message per line, no numbering.",
		count, intent,
	)
	reqBody := chatRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.8,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("provider returned no choices")
	}

	lines := splitMessages(parsed.Choices[0].Message.Content, count)
	if len(lines) == 0 {
		return nil, fmt.Errorf("provider returned empty output")
	}
	return lines, nil
}

func splitMessages(content string, max int) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == max {
			break
		}
	}
	return out
}
