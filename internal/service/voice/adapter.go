// Package voice turns spoken questions into manual queries. A speech-to-text
// adapter streams transcripts into a Session, which publishes each final
// transcript on user.manual_query.
package voice

import "context"

// Callback receives transcripts from a speech-to-text adapter.
type Callback interface {
	// OnPartial is called with interim transcripts.
	OnPartial(text string)

	// OnFinal is called once per utterance with the final transcript.
	OnFinal(text string, confidence float64)

	// OnError is called when recognition fails.
	OnError(err error)
}

// Adapter is a streaming speech-to-text provider.
type Adapter interface {
	Start(ctx context.Context, cb Callback) error
	SendAudio(ctx context.Context, audio []byte) error
	Close() error
}

// Factory creates an adapter for one voice session.
type Factory func(ctx context.Context) (Adapter, error)
