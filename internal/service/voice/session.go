package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ambient-assistant/internal/bus"
	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability/logging"
)

// ErrLimitExceeded is returned by SendAudio when the current utterance
// outgrew its limits and was dropped.
var ErrLimitExceeded = errors.New("utterance limit exceeded")

// Limits bound one utterance.
type Limits struct {
	MaxAudioBytes int64
	MaxDuration   time.Duration
	MaxPartials   int
}

func DefaultLimits() Limits {
	return Limits{
		MaxAudioBytes: 5 * 1024 * 1024,
		MaxDuration:   2 * time.Minute,
		MaxPartials:   500,
	}
}

// Session receives transcripts for one audio stream and asks every final
// transcript as a manual query on the bus.
type Session struct {
	adapter   Adapter
	publisher bus.Publisher
	threadID  string
	limits    Limits
	logger    zerolog.Logger

	utterance *Utterance

	mu         sync.Mutex
	seq        int
	started    time.Time
	audioBytes int64
	partials   int
	lastText   string
	asked      int
}

// NewSession creates a session whose queries run on threadID.
func NewSession(adapter Adapter, publisher bus.Publisher, threadID string, limits Limits) *Session {
	s := &Session{
		adapter:   adapter,
		publisher: publisher,
		threadID:  threadID,
		limits:    limits,
		logger:    logging.WithThread(threadID).With().Str("component", "voice").Logger(),
		started:   time.Now(),
	}
	s.utterance = NewUtterance(s.nextID())
	return s
}

func (s *Session) nextID() string {
	s.seq++
	return fmt.Sprintf("%s-utt-%d", s.threadID, s.seq)
}

func (s *Session) Start(ctx context.Context) error {
	return s.adapter.Start(ctx, s)
}

// SendAudio forwards audio to the adapter after checking the utterance limits.
func (s *Session) SendAudio(ctx context.Context, audio []byte) error {
	if s.utterance.State().IsTerminal() {
		return ErrUtteranceClosed
	}

	s.mu.Lock()
	s.audioBytes += int64(len(audio))
	bytes := s.audioBytes
	elapsed := time.Since(s.started)
	s.mu.Unlock()

	if s.limits.MaxAudioBytes > 0 && bytes > s.limits.MaxAudioBytes {
		s.Drop(fmt.Sprintf("audio bytes %d > %d", bytes, s.limits.MaxAudioBytes))
		return ErrLimitExceeded
	}
	if s.limits.MaxDuration > 0 && elapsed > s.limits.MaxDuration {
		s.Drop(fmt.Sprintf("duration %v > %v", elapsed.Round(time.Millisecond), s.limits.MaxDuration))
		return ErrLimitExceeded
	}
	return s.adapter.SendAudio(ctx, audio)
}

// Close ends the session. A trailing final from the adapter is still asked.
func (s *Session) Close() error {
	err := s.adapter.Close()
	s.utterance.Close()
	return err
}

// Drop abandons the current utterance without asking anything.
func (s *Session) Drop(reason string) bool {
	id, prev := s.utterance.ID(), s.utterance.State()
	dropped := s.utterance.Drop()
	s.logger.Warn().
		Str("utterance_id", id).
		Str("previous_state", prev.String()).
		Str("reason", reason).
		Bool("dropped", dropped).
		Msg("utterance dropped")
	return dropped
}

// Utterance returns the current utterance.
func (s *Session) Utterance() *Utterance {
	return s.utterance
}

// Asked returns how many queries the session published.
func (s *Session) Asked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asked
}

// LastPartial returns the most recent interim transcript.
func (s *Session) LastPartial() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastText
}

func (s *Session) OnPartial(text string) {
	if err := s.utterance.Hear(); err != nil {
		s.logger.Debug().Err(err).Str("utterance_id", s.utterance.ID()).Msg("partial ignored")
		return
	}

	s.mu.Lock()
	s.partials++
	n := s.partials
	s.lastText = text
	s.mu.Unlock()

	if s.limits.MaxPartials > 0 && n > s.limits.MaxPartials {
		s.Drop(fmt.Sprintf("partials %d > %d", n, s.limits.MaxPartials))
	}
}

// OnFinal asks the transcript and starts listening for the next utterance.
func (s *Session) OnFinal(text string, confidence float64) {
	id := s.utterance.ID()
	if err := s.utterance.Finalize(); err != nil {
		if !errors.Is(err, ErrUtteranceClosed) || s.utterance.State() != StateClosed {
			s.logger.Debug().Err(err).Str("utterance_id", id).Msg("final ignored")
			return
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.logger.Debug().Str("utterance_id", id).Msg("empty final transcript")
	} else {
		q := models.UserQuery{Text: text, ThreadID: s.threadID, Voice: true}
		if err := s.publisher.Publish(models.TopicUserManualQuery, q); err != nil {
			s.logger.Error().Err(err).Str("utterance_id", id).Msg("failed to publish spoken query")
		} else {
			s.mu.Lock()
			s.asked++
			s.mu.Unlock()
			s.logger.Info().
				Str("utterance_id", id).
				Float64("confidence", confidence).
				Int("chars", len(text)).
				Msg("spoken query asked")
		}
	}

	s.mu.Lock()
	next := s.nextID()
	s.audioBytes, s.partials, s.lastText = 0, 0, ""
	s.started = time.Now()
	s.mu.Unlock()
	s.utterance.Reset(next)
}

// OnError drops the current utterance. A partial transcript is never asked.
func (s *Session) OnError(err error) {
	s.Drop(err.Error())
}
