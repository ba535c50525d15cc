package platform

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// ForegroundProbe reports the application that currently has focus.
type ForegroundProbe struct {
	os     OS
	runner Runner
}

// NewForegroundProbe creates a probe for the given OS.
func NewForegroundProbe(target OS, runner Runner) *ForegroundProbe {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &ForegroundProbe{os: target, runner: runner}
}

// Foreground returns the focused application's name.
func (p *ForegroundProbe) Foreground(ctx context.Context) (string, error) {
	var out []byte
	var err error
	switch p.os {
	case Darwin:
		out, err = p.runner.Run(ctx, "osascript", "-e",
			`tell application "System Events" to get name of first application process whose frontmost is true`)
	case Linux:
		out, err = p.runner.Run(ctx, "xdotool", "getactivewindow", "getwindowclassname")
	default:
		return "", fmt.Errorf("%w: no foreground probe for %s", ErrCommandNotFound, p.os)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// ActiveWindowID returns the X11 id of the focused window. Only Linux is
// supported.
func (p *ForegroundProbe) ActiveWindowID(ctx context.Context) (string, error) {
	if p.os != Linux {
		return "", fmt.Errorf("%w: active window id on %s", ErrCommandNotFound, p.os)
	}
	out, err := p.runner.Run(ctx, "xdotool", "getactivewindow")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// ProcessProbe lists running process names.
type ProcessProbe struct {
	runner Runner
}

// NewProcessProbe creates a process probe.
func NewProcessProbe(runner Runner) *ProcessProbe {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &ProcessProbe{runner: runner}
}

// Processes returns the base names of running processes, lower-cased.
func (p *ProcessProbe) Processes(ctx context.Context) ([]string, error) {
	out, err := p.runner.Run(ctx, "ps", "-axo", "comm=")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		names = append(names, strings.ToLower(filepath.Base(line)))
	}
	return names, nil
}
