// Package openai provides a streaming backend for OpenAI-compatible chat
// completion APIs.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ambient-assistant/internal/service/llm"
)

// Name is the backend name used in configuration and answers.
const Name = "openai"

// Backend implements llm.Backend over server-sent events.
type Backend struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// New creates an OpenAI-compatible backend.
func New(baseURL, apiKey, model string) *Backend {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{},
	}
}

func (b *Backend) Name() string { return Name }

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Stream      bool          `json:"stream"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate streams a chat completion.
func (b *Backend) Generate(ctx context.Context, req llm.Request, cb llm.Callback) (llm.Result, error) {
	if b.apiKey == "" {
		return llm.Result{}, fmt.Errorf("%w: no API key configured", llm.ErrBackendUnavailable)
	}

	body, err := json.Marshal(completionRequest{
		Model:       b.model,
		Messages:    req.Messages,
		Stream:      true,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return llm.Result{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return llm.Result{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return llm.Result{}, llm.Classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return llm.Result{}, llm.StatusError(Name, resp.StatusCode, string(msg))
	}

	var (
		text      strings.Builder
		truncated bool
		finished  bool
	)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			finished = true
			break
		}

		var chunk completionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if chunk.Error != nil {
			return llm.Result{}, fmt.Errorf("%w: %s", llm.ErrBackendUnavailable, chunk.Error.Message)
		}
		for _, c := range chunk.Choices {
			if c.Delta.Content != "" {
				text.WriteString(c.Delta.Content)
				cb.OnDelta(c.Delta.Content)
			}
			if c.FinishReason != nil {
				finished = true
				truncated = *c.FinishReason == "length"
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return llm.Result{}, llm.Classify(ctx, err)
	}
	if !finished {
		if err := ctx.Err(); err != nil {
			return llm.Result{}, llm.Classify(ctx, err)
		}
		return llm.Result{}, fmt.Errorf("%w: stream ended without completion", llm.ErrBackendUnavailable)
	}
	return llm.Result{Text: text.String(), Truncated: truncated}, nil
}
