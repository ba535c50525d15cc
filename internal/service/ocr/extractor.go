// Package ocr extracts text blocks from captured frames.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"ambient-assistant/internal/models"
	"ambient-assistant/internal/platform"
)

// ErrExtractionUnavailable is returned when the OCR engine cannot run. The
// pipeline treats it as "no text this cycle".
var ErrExtractionUnavailable = errors.New("text extraction unavailable")

// DefaultTimeout bounds a single extraction.
const DefaultTimeout = 5 * time.Second

// Engine names.
const (
	EngineTesseract = "tesseract"
	EngineVision    = "vision"
)

// Extractor turns a frame into text blocks in top-to-bottom reading order.
// The returned sequence can be ranged over once; later iterations yield
// nothing.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, frame *models.Frame) (iter.Seq[models.TextBlock], error)
}

// Config selects and configures an engine.
type Config struct {
	Engine        string
	TesseractPath string
	Language      string
	Timeout       time.Duration
	VisionURL     string
	VisionModel   string
}

// New resolves the configured engine. When the engine cannot be used the
// returned extractor fails every call with ErrExtractionUnavailable and the
// resolution error is returned alongside it.
func New(cfg Config, runner platform.Runner) (Extractor, error) {
	switch cfg.Engine {
	case EngineVision:
		return NewVision(cfg.VisionURL, cfg.VisionModel, cfg.Timeout), nil
	case EngineTesseract, "":
		path, err := platform.Resolve(cfg.TesseractPath, "tesseract", tesseractFallbacks...)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrExtractionUnavailable, err)
			return Unavailable{Engine: EngineTesseract, Err: err}, err
		}
		return NewTesseract(path, cfg.Language, cfg.Timeout, runner), nil
	default:
		err := fmt.Errorf("%w: unknown engine %q", ErrExtractionUnavailable, cfg.Engine)
		return Unavailable{Engine: cfg.Engine, Err: err}, err
	}
}

// Unavailable is an extractor for an engine that could not be set up.
type Unavailable struct {
	Engine string
	Err    error
}

func (u Unavailable) Name() string { return u.Engine }

func (u Unavailable) Extract(context.Context, *models.Frame) (iter.Seq[models.TextBlock], error) {
	if u.Err != nil {
		return nil, u.Err
	}
	return nil, ErrExtractionUnavailable
}

// once wraps blocks in a sequence that yields them on the first range only.
func once(blocks []models.TextBlock) iter.Seq[models.TextBlock] {
	var used atomic.Bool
	return func(yield func(models.TextBlock) bool) {
		if used.Swap(true) {
			return
		}
		for _, b := range blocks {
			if !yield(b) {
				return
			}
		}
	}
}

// Text joins the blocks' text with newlines.
func Text(blocks []models.TextBlock) string {
	n := 0
	for _, b := range blocks {
		n += len(b.Text) + 1
	}
	buf := make([]byte, 0, n)
	for i, b := range blocks {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, b.Text...)
	}
	return string(buf)
}
