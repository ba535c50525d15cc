package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ambient-assistant/internal/api"
	"ambient-assistant/internal/schema"
)

// RouterDeps are the collaborators the HTTP surface needs.
type RouterDeps struct {
	Control *api.Control
	Hub     *Hub
	// Ready reports nil once the pipeline can answer. Nil means always ready.
	Ready func() error
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, deps.Control.Status())
		})
		r.Post("/ask", decodeAndApply(deps.Control.Ask))
		r.Post("/feedback", decodeAndApply(deps.Control.Feedback))
		r.Post("/pause", decodeAndApply(deps.Control.Pause))
		r.Post("/typed", decodeAndApply(deps.Control.Typed))
		r.Post("/hotkey", func(w http.ResponseWriter, _ *http.Request) {
			if err := deps.Control.Hotkey(); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusAccepted)
		})
		if deps.Hub != nil {
			r.Get("/ws", deps.Hub.ServeWS)
		}
	})

	return r
}

// decodeAndApply decodes a JSON body into T and hands it to apply.
func decodeAndApply[T any](apply func(T) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v T
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024))
		if err := dec.Decode(&v); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if err := apply(v); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if errors.Is(err, schema.ErrInvalidEvent) {
		code = http.StatusBadRequest
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
