package capture

import (
	"context"
	"time"

	"ambient-assistant/internal/models"
)

// ForegroundSource reports the focused application.
type ForegroundSource interface {
	Foreground(ctx context.Context) (string, error)
}

// WatchForeground polls probe every interval and sends a foreground_change
// trigger whenever the focused application changes. It returns when ctx ends.
// Sends never block: a trigger is dropped when out is full.
func WatchForeground(ctx context.Context, probe ForegroundSource, interval time.Duration, out chan<- Trigger) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := ""
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		app, err := probe.Foreground(ctx)
		if err != nil || app == "" {
			continue
		}
		if last != "" && app != last {
			select {
			case out <- Trigger{Reason: models.TriggerForeground, At: time.Now(), App: app}:
			default:
			}
		}
		last = app
	}
}
