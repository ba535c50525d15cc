// Package google provides a Google Cloud Speech-to-Text adapter for spoken
// queries.
package google

import (
	"context"
	"errors"
	"io"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ambient-assistant/internal/service/voice"
)

// Config holds recognition settings.
type Config struct {
	LanguageCode   string
	SampleRateHz   int32
	InterimResults bool
	AudioEncoding  string
}

func DefaultConfig() Config {
	return Config{
		LanguageCode:   "en-US",
		SampleRateHz:   16000,
		InterimResults: false,
		AudioEncoding:  "LINEAR16",
	}
}

// parseAudioEncoding maps an encoding name to the API enum, defaulting to
// LINEAR16.
func parseAudioEncoding(name string) speechpb.RecognitionConfig_AudioEncoding {
	switch name {
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}

func (c Config) recognition() *speechpb.StreamingRecognitionConfig {
	return &speechpb.StreamingRecognitionConfig{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   parseAudioEncoding(c.AudioEncoding),
			SampleRateHertz:            c.SampleRateHz,
			LanguageCode:               c.LanguageCode,
			EnableAutomaticPunctuation: true,
		},
		InterimResults:  c.InterimResults,
		SingleUtterance: true,
	}
}

// Adapter implements voice.Adapter using Google Cloud Speech-to-Text.
// Requires GOOGLE_APPLICATION_CREDENTIALS.
type Adapter struct {
	cfg    Config
	client *speech.Client

	mu     sync.Mutex
	stream speechpb.Speech_StreamingRecognizeClient
	done   chan struct{}
}

func New(ctx context.Context, cfg Config) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, client: c}, nil
}

// Factory returns a voice.Factory that opens one client per session.
func Factory(cfg Config) voice.Factory {
	return func(ctx context.Context) (voice.Adapter, error) {
		return New(ctx, cfg)
	}
}

// Start opens the recognition stream, sends the config and begins receiving
// results in the background.
func (a *Adapter) Start(ctx context.Context, cb voice.Callback) error {
	stream, err := a.client.StreamingRecognize(ctx)
	if err != nil {
		return err
	}
	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: a.cfg.recognition(),
		},
	}); err != nil {
		return err
	}

	done := make(chan struct{})
	a.mu.Lock()
	a.stream, a.done = stream, done
	a.mu.Unlock()

	go listen(stream, cb, done)
	return nil
}

func (a *Adapter) SendAudio(_ context.Context, audio []byte) error {
	a.mu.Lock()
	stream := a.stream
	a.mu.Unlock()
	if stream == nil {
		return errors.New("speech stream not started")
	}
	return stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	})
}

// Close half-closes the stream and waits for the remaining results.
func (a *Adapter) Close() error {
	a.mu.Lock()
	stream, done := a.stream, a.done
	a.stream = nil
	a.mu.Unlock()

	var err error
	if stream != nil {
		err = stream.CloseSend()
		<-done
	}
	return errors.Join(err, a.client.Close())
}

func listen(stream speechpb.Speech_StreamingRecognizeClient, cb voice.Callback, done chan<- struct{}) {
	defer close(done)
	for {
		resp, err := stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) && status.Code(err) != codes.Canceled {
				cb.OnError(err)
			}
			return
		}
		if resp.Error != nil {
			cb.OnError(status.ErrorProto(resp.Error))
			return
		}
		for _, r := range resp.Results {
			if len(r.Alternatives) == 0 {
				continue
			}
			alt := r.Alternatives[0]
			if r.IsFinal {
				cb.OnFinal(alt.Transcript, float64(alt.Confidence))
			} else {
				cb.OnPartial(alt.Transcript)
			}
		}
	}
}
