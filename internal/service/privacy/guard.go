// Package privacy decides when the assistant may look at the screen.
package privacy

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ambient-assistant/internal/bus"
	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability/logging"
	"ambient-assistant/internal/observability/metrics"
)

// Suspension reasons.
const (
	ReasonScreenSharing = "screen_sharing"
	ReasonExcludedApp   = "excluded_app"
	ReasonUserPaused    = "user_paused"
)

// Config configures the guard.
type Config struct {
	// AutoDetect enables the screen-sharing probe and the settling delay
	// before resuming.
	AutoDetect       bool
	SettlingDelay    time.Duration
	PollInterval     time.Duration
	ExcludedApps     []string
	SharingProcesses []string
}

// DefaultConfig returns the default guard configuration.
func DefaultConfig() Config {
	return Config{AutoDetect: true, SettlingDelay: 3 * time.Second, PollInterval: time.Second}
}

// ProcessLister lists running process names.
type ProcessLister interface {
	Processes(ctx context.Context) ([]string, error)
}

// ForegroundSource reports the focused application.
type ForegroundSource interface {
	Foreground(ctx context.Context) (string, error)
}

// Guard gates capture and dispatch. It is Active until any suspension
// condition holds and becomes Active again only once every condition has
// cleared and, with auto-detect on, the settling delay has passed.
type Guard struct {
	procs     ProcessLister
	fg        ForegroundSource
	publisher bus.Publisher
	state     *models.PipelineState
	now       func() time.Time

	mu         sync.Mutex
	cfg        Config
	suspended  bool
	reasons    []string
	clearSince time.Time
	sharing    bool
	app        string
	userPaused bool
	onSuspend  []func(reasons []string)

	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewGuard creates a guard. procs and fg may be nil to disable the
// corresponding probe.
func NewGuard(cfg Config, procs ProcessLister, fg ForegroundSource, publisher bus.Publisher, state *models.PipelineState) *Guard {
	if state == nil {
		state = models.NewPipelineState("")
	}
	return &Guard{
		cfg:       cfg,
		procs:     procs,
		fg:        fg,
		publisher: publisher,
		state:     state,
		now:       time.Now,
		logger:    logging.WithComponent("privacy"),
		metrics:   metrics.DefaultMetrics,
	}
}

// OnSuspend registers fn to run on every Active to Suspended transition.
// The orchestrator uses it to cancel in-flight requests.
func (g *Guard) OnSuspend(fn func(reasons []string)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onSuspend = append(g.onSuspend, fn)
}

// Allow reports whether capture and dispatch may proceed.
func (g *Guard) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.suspended
}

// Reasons returns the current suspension reasons.
func (g *Guard) Reasons() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.reasons)
}

// SetUserPaused applies the explicit user pause and re-evaluates.
func (g *Guard) SetUserPaused(paused bool) bool {
	g.mu.Lock()
	g.userPaused = paused
	fire := g.transitionLocked()
	allowed := !g.suspended
	g.mu.Unlock()
	fire()
	return allowed
}

// Reconfigure replaces the configuration and re-evaluates.
func (g *Guard) Reconfigure(cfg Config) {
	g.mu.Lock()
	g.cfg = cfg
	if !cfg.AutoDetect {
		g.sharing = false
	}
	fire := g.transitionLocked()
	g.mu.Unlock()
	fire()
}

// Evaluate probes the environment and updates the guard. It returns Allow().
func (g *Guard) Evaluate(ctx context.Context) bool {
	g.mu.Lock()
	cfg := g.cfg
	g.mu.Unlock()

	sharing, sharingKnown := false, false
	if cfg.AutoDetect && g.procs != nil {
		names, err := g.procs.Processes(ctx)
		if err != nil {
			g.logger.Debug().Err(err).Msg("Process probe failed; keeping last result")
		} else {
			sharing, sharingKnown = matchesAny(names, cfg.SharingProcesses), true
		}
	}
	app, appKnown := "", false
	if g.fg != nil && len(cfg.ExcludedApps) > 0 {
		name, err := g.fg.Foreground(ctx)
		if err != nil {
			g.logger.Debug().Err(err).Msg("Foreground probe failed; keeping last result")
		} else {
			app, appKnown = name, true
		}
	}

	g.mu.Lock()
	if sharingKnown {
		g.sharing = sharing
	}
	if appKnown {
		g.app = app
	}
	fire := g.transitionLocked()
	allowed := !g.suspended
	g.mu.Unlock()
	fire()
	return allowed
}

// Run evaluates every poll interval until ctx ends.
func (g *Guard) Run(ctx context.Context) error {
	g.Evaluate(ctx)
	for {
		g.mu.Lock()
		interval := g.cfg.PollInterval
		g.mu.Unlock()
		if interval <= 0 {
			interval = time.Second
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
			g.Evaluate(ctx)
		}
	}
}

func (g *Guard) conditionsLocked() []string {
	var reasons []string
	if g.sharing {
		reasons = append(reasons, ReasonScreenSharing)
	}
	if g.app != "" && containsFold(g.cfg.ExcludedApps, g.app) {
		reasons = append(reasons, ReasonExcludedApp+":"+g.app)
	}
	if g.userPaused {
		reasons = append(reasons, ReasonUserPaused)
	}
	return reasons
}

// transitionLocked applies the state machine. Status events are enqueued
// under the lock so paused and resumed are published in transition order;
// suspend hooks are returned to run after the lock is released.
func (g *Guard) transitionLocked() func() {
	reasons := g.conditionsLocked()
	now := g.now()

	if len(reasons) > 0 {
		g.clearSince = time.Time{}
		if g.suspended {
			g.reasons = reasons
			g.state.SetPaused(true, reasons)
			return func() {}
		}
		g.suspended = true
		g.reasons = reasons
		g.state.SetPaused(true, reasons)
		g.logger.Info().Strs("reasons", reasons).Msg("Pipeline suspended")
		g.metrics.RecordGuardTransition(true)
		g.publish(models.TopicPipelinePaused, models.PipelineStatusEvent{Paused: true, Reasons: reasons, Timestamp: now})
		hooks := slices.Clone(g.onSuspend)
		return func() {
			for _, fn := range hooks {
				fn(reasons)
			}
		}
	}

	if !g.suspended {
		return func() {}
	}
	if g.cfg.AutoDetect {
		if g.clearSince.IsZero() {
			g.clearSince = now
		}
		if now.Sub(g.clearSince) < g.cfg.SettlingDelay {
			return func() {}
		}
	}
	g.suspended = false
	g.reasons = nil
	g.clearSince = time.Time{}
	g.state.SetPaused(false, nil)
	g.logger.Info().Msg("Pipeline resumed")
	g.metrics.RecordGuardTransition(false)
	g.publish(models.TopicPipelineResumed, models.PipelineStatusEvent{Paused: false, Timestamp: now})
	return func() {}
}

func (g *Guard) publish(topic string, ev models.PipelineStatusEvent) {
	if g.publisher == nil {
		return
	}
	if err := g.publisher.Publish(topic, ev); err != nil {
		g.logger.Warn().Err(err).Str("topic", topic).Msg("Failed to publish pipeline status")
	}
}

func matchesAny(processes, patterns []string) bool {
	for _, p := range processes {
		for _, pat := range patterns {
			if pat != "" && strings.EqualFold(p, pat) {
				return true
			}
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
