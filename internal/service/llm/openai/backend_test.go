package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambient-assistant/internal/service/llm"
)

func sseServer(t *testing.T, events ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, e := range events {
			fmt.Fprintf(w, "data: %s\n\n", e)
			w.(http.Flusher).Flush()
		}
	}))
}

type deltas struct{ got []string }

func (d *deltas) OnDelta(s string) { d.got = append(d.got, s) }

func TestGenerate_StreamsDeltas(t *testing.T) {
	srv := sseServer(t,
		`{"choices":[{"delta":{"role":"assistant"},"finish_reason":null}]}`,
		`{"choices":[{"delta":{"content":"Hello"},"finish_reason":null}]}`,
		`{"choices":[{"delta":{"content":" world"},"finish_reason":null}]}`,
		`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`[DONE]`,
	)
	defer srv.Close()

	cb := &deltas{}
	res, err := New(srv.URL, "sk-test", "m").Generate(context.Background(), llm.Request{}, cb)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", res.Text)
	assert.False(t, res.Truncated)
	assert.Equal(t, []string{"Hello", " world"}, cb.got)
}

func TestGenerate_FinishReasonLength(t *testing.T) {
	srv := sseServer(t,
		`{"choices":[{"delta":{"content":"cut"},"finish_reason":null}]}`,
		`{"choices":[{"delta":{},"finish_reason":"length"}]}`,
		`[DONE]`,
	)
	defer srv.Close()

	res, err := New(srv.URL, "sk-test", "m").Generate(context.Background(), llm.Request{}, &deltas{})
	require.NoError(t, err)
	assert.True(t, res.Truncated)
}

func TestGenerate_MissingKey(t *testing.T) {
	_, err := New("http://127.0.0.1:1", "", "m").Generate(context.Background(), llm.Request{}, &deltas{})
	assert.ErrorIs(t, err, llm.ErrBackendUnavailable)
}

func TestGenerate_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, llm.ErrBackendUnavailable},
		{http.StatusInternalServerError, llm.ErrBackendUnavailable},
		{http.StatusGatewayTimeout, llm.ErrBackendTimeout},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := New(srv.URL, "sk-test", "m").Generate(context.Background(), llm.Request{}, &deltas{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGenerate_ErrorEvent(t *testing.T) {
	srv := sseServer(t, `{"error":{"message":"rate limited"}}`)
	defer srv.Close()

	_, err := New(srv.URL, "sk-test", "m").Generate(context.Background(), llm.Request{}, &deltas{})
	require.ErrorIs(t, err, llm.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestGenerate_StreamEndsWithoutDone(t *testing.T) {
	srv := sseServer(t, `{"choices":[{"delta":{"content":"half"},"finish_reason":null}]}`)
	defer srv.Close()

	_, err := New(srv.URL, "sk-test", "m").Generate(context.Background(), llm.Request{}, &deltas{})
	assert.ErrorIs(t, err, llm.ErrBackendUnavailable)
}
