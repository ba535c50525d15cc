package capture

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"ambient-assistant/internal/models"
	"ambient-assistant/internal/platform"
)

// writingRunner imitates a screenshot tool by writing bytes to the last argument.
func writingRunner(calls *[]string) platform.RunnerFunc {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, name)
		if name == "xdotool" {
			return []byte("12345\n"), nil
		}
		path := args[len(args)-1]
		return nil, os.WriteFile(path, []byte("png"), 0o600)
	}
}

func TestCommandSource_Capture(t *testing.T) {
	var calls []string
	src := NewCommandSource(Config{OS: platform.Linux, TempDir: t.TempDir(), ActiveWindow: true}, writingRunner(&calls))

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	frame, err := src.Capture(context.Background(), Trigger{Reason: models.TriggerTimer, At: at, App: "Code"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if frame.ID != "frame-1" {
		t.Errorf("expected frame-1, got %s", frame.ID)
	}
	if !frame.Timestamp.Equal(at) || frame.App != "Code" {
		t.Errorf("expected trigger metadata on frame, got %+v", frame)
	}
	if len(calls) != 2 || calls[0] != "xdotool" || calls[1] != "import" {
		t.Errorf("expected xdotool then import, got %v", calls)
	}
	if _, err := os.Stat(frame.RawImageRef); err != nil {
		t.Fatalf("expected image on disk, got %v", err)
	}

	if err := frame.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(frame.RawImageRef); !os.IsNotExist(err) {
		t.Errorf("expected image removed after release, got %v", err)
	}
}

func TestCommandSource_Timeout(t *testing.T) {
	dir := t.TempDir()
	blocking := platform.RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	src := NewCommandSource(Config{OS: platform.Darwin, TempDir: dir, Timeout: 20 * time.Millisecond}, blocking)

	start := time.Now()
	frame, err := src.Capture(context.Background(), Trigger{Reason: models.TriggerTimer})
	if !errors.Is(err, ErrTransientCapture) {
		t.Fatalf("expected ErrTransientCapture, got %v", err)
	}
	if frame != nil {
		t.Error("expected nil frame on timeout")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("expected capture bounded by timeout, took %s", elapsed)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected temp file cleaned up, found %d entries", len(entries))
	}
}

func TestCommandSource_Failures(t *testing.T) {
	failing := platform.RunnerFunc(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})
	src := NewCommandSource(Config{OS: platform.Darwin, TempDir: t.TempDir()}, failing)
	if _, err := src.Capture(context.Background(), Trigger{}); !errors.Is(err, ErrTransientCapture) {
		t.Errorf("expected ErrTransientCapture, got %v", err)
	}

	noop := platform.RunnerFunc(func(context.Context, string, ...string) ([]byte, error) { return nil, nil })
	src = NewCommandSource(Config{OS: platform.Darwin, TempDir: t.TempDir()}, noop)
	if _, err := src.Capture(context.Background(), Trigger{}); !errors.Is(err, ErrTransientCapture) {
		t.Errorf("expected ErrTransientCapture for empty image, got %v", err)
	}

	src = NewCommandSource(Config{OS: "plan9", TempDir: t.TempDir()}, noop)
	if _, err := src.Capture(context.Background(), Trigger{}); !errors.Is(err, ErrTransientCapture) {
		t.Errorf("expected ErrTransientCapture for unsupported OS, got %v", err)
	}
}

type scriptedProbe struct {
	apps []string
	i    atomic.Int32
}

func (p *scriptedProbe) Foreground(context.Context) (string, error) {
	i := int(p.i.Add(1)) - 1
	if i >= len(p.apps) {
		return p.apps[len(p.apps)-1], nil
	}
	return p.apps[i], nil
}

func TestWatchForeground(t *testing.T) {
	probe := &scriptedProbe{apps: []string{"Code", "Code", "Safari", "Safari"}}
	out := make(chan Trigger, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go WatchForeground(ctx, probe, 5*time.Millisecond, out)

	select {
	case tr := <-out:
		if tr.Reason != models.TriggerForeground || tr.App != "Safari" {
			t.Errorf("expected foreground change to Safari, got %+v", tr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a foreground trigger")
	}

	select {
	case tr := <-out:
		t.Errorf("expected a single trigger, got another %+v", tr)
	case <-time.After(50 * time.Millisecond):
	}
}
