// Package ollama provides a streaming chat backend for a local Ollama server.
package ollama

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
const Name = "ollama"

// Backend implements llm.Backend using Ollama's /api/chat endpoint.
type Backend struct {
	baseURL string
	model   string
	client  *http.Client
}

// New creates an Ollama backend. Per-attempt deadlines come from the caller's
// context, so the client itself has no timeout.
func New(baseURL, model string) *Backend {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	return &Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
	}
}

func (b *Backend) Name() string { return Name }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type chatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason"`
	Error      string `json:"error"`
}

// Generate streams a chat completion.
func (b *Backend) Generate(ctx context.Context, req llm.Request, cb llm.Callback) (llm.Result, error) {
	body, err := json.Marshal(chatRequest{
		Model:    b.model,
		Messages: req.Messages,
		Stream:   true,
		Options: chatOptions{
			NumPredict:  req.MaxTokens,
			Temperature: req.Temperature,
		},
	})
	if err != nil {
		return llm.Result{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return llm.Result{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return llm.Result{}, llm.Classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return llm.Result{}, llm.StatusError(Name, resp.StatusCode, string(msg))
	}

	var text strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk chatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return llm.Result{}, fmt.Errorf("%w: %s", llm.ErrBackendUnavailable, chunk.Error)
		}
		if chunk.Message.Content != "" {
			text.WriteString(chunk.Message.Content)
			cb.OnDelta(chunk.Message.Content)
		}
		if chunk.Done {
			return llm.Result{
				Text:      text.String(),
				Truncated: chunk.DoneReason == "length",
			}, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return llm.Result{}, llm.Classify(ctx, err)
	}
	if err := ctx.Err(); err != nil {
		return llm.Result{}, llm.Classify(ctx, err)
	}
	return llm.Result{}, fmt.Errorf("%w: stream ended without completion", llm.ErrBackendUnavailable)
}
