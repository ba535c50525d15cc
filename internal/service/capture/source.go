// Package capture produces screen frames on demand.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability/logging"
	"ambient-assistant/internal/observability/metrics"
	"ambient-assistant/internal/platform"
)

// ErrTransientCapture is returned when a capture attempt failed or timed out.
// The caller skips the cycle.
var ErrTransientCapture = errors.New("transient capture failure")

// DefaultTimeout bounds a single capture.
const DefaultTimeout = 400 * time.Millisecond

// Trigger describes why a capture was requested.
type Trigger struct {
	Reason models.TriggerReason
	At     time.Time
	App    string
}

// Source captures the screen.
type Source interface {
	Capture(ctx context.Context, trigger Trigger) (*models.Frame, error)
}

// Config configures a CommandSource.
type Config struct {
	OS           platform.OS
	Timeout      time.Duration
	TempDir      string
	ActiveWindow bool
}

// CommandSource captures the screen by running the platform screenshot tool
// into a temporary PNG. The frame's Release deletes the file.
type CommandSource struct {
	cfg    Config
	runner platform.Runner
	probe  *platform.ForegroundProbe
	seq    atomic.Uint64
	now    func() time.Time

	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewCommandSource creates a screenshot-command source.
func NewCommandSource(cfg Config, runner platform.Runner) *CommandSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.OS == "" {
		cfg.OS = platform.Current()
	}
	if runner == nil {
		runner = platform.ExecRunner{}
	}
	return &CommandSource{
		cfg:     cfg,
		runner:  runner,
		probe:   platform.NewForegroundProbe(cfg.OS, runner),
		now:     time.Now,
		logger:  logging.WithComponent("capture"),
		metrics: metrics.DefaultMetrics,
	}
}

// Capture takes one screenshot. On timeout or command failure it returns nil
// and an error wrapping ErrTransientCapture.
func (s *CommandSource) Capture(ctx context.Context, trigger Trigger) (*models.Frame, error) {
	start := time.Now()
	frame, err := s.capture(ctx, trigger)
	s.metrics.RecordCapture(string(trigger.Reason), err, time.Since(start).Seconds())
	if err != nil {
		s.logger.Debug().Err(err).Str("trigger", string(trigger.Reason)).Msg("Capture skipped")
	}
	return frame, err
}

func (s *CommandSource) capture(ctx context.Context, trigger Trigger) (*models.Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	f, err := os.CreateTemp(s.cfg.TempDir, "ambient-capture-*.png")
	if err != nil {
		return nil, fmt.Errorf("%w: temp file: %v", ErrTransientCapture, err)
	}
	path := f.Name()
	_ = f.Close()

	name, args, err := s.command(ctx, path)
	if err == nil {
		_, err = s.runner.Run(ctx, name, args...)
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", ErrTransientCapture, s.cfg.Timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransientCapture, err)
	}

	if info, statErr := os.Stat(path); statErr != nil || info.Size() == 0 {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: screenshot produced no image", ErrTransientCapture)
	}

	at := trigger.At
	if at.IsZero() {
		at = s.now()
	}
	id := "frame-" + strconv.FormatUint(s.seq.Add(1), 10)
	frame := models.NewFrame(id, at, models.Region{}, path, func() error {
		return os.Remove(path)
	})
	frame.App = trigger.App
	return frame, nil
}

func (s *CommandSource) command(ctx context.Context, path string) (string, []string, error) {
	switch s.cfg.OS {
	case platform.Darwin:
		if s.cfg.ActiveWindow {
			// Main display only; macOS offers no non-interactive active window capture.
			return "screencapture", []string{"-x", "-m", path}, nil
		}
		return "screencapture", []string{"-x", path}, nil
	case platform.Linux:
		window := "root"
		if s.cfg.ActiveWindow {
			id, err := s.probe.ActiveWindowID(ctx)
			if err == nil && id != "" {
				window = id
			}
		}
		return "import", []string{"-silent", "-window", window, path}, nil
	default:
		return "", nil, fmt.Errorf("no screenshot command for %s", s.cfg.OS)
	}
}
