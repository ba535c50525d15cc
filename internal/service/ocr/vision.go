package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability/metrics"
)

const visionPrompt = "Transcribe all text visible in this screenshot exactly, one line of text per output line, top to bottom. Output only the text."

// Vision has no per-line geometry or confidence, so lines get a nominal
// height and confidence.
const (
	visionLineHeight = 20
	visionCharWidth  = 8
	visionConfidence = 0.8
)

// Vision recognizes text with a local Ollama vision model.
type Vision struct {
	baseURL string
	model   string
	client  *http.Client
	metrics *metrics.Metrics
}

// NewVision creates a vision extractor.
func NewVision(baseURL, model string, timeout time.Duration) *Vision {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llava"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Vision{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
		metrics: metrics.DefaultMetrics,
	}
}

func (v *Vision) Name() string { return EngineVision }

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Extract sends the frame's image to the model and splits the transcription
// into line blocks.
func (v *Vision) Extract(ctx context.Context, frame *models.Frame) (iter.Seq[models.TextBlock], error) {
	start := time.Now()
	blocks, err := v.extract(ctx, frame)
	v.metrics.RecordExtraction(EngineVision, err, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	v.metrics.RecordTextBlocks(len(blocks))
	return once(blocks), nil
}

func (v *Vision) extract(ctx context.Context, frame *models.Frame) ([]models.TextBlock, error) {
	if frame == nil || frame.RawImageRef == "" {
		return nil, errors.New("frame has no image")
	}
	img, err := os.ReadFile(frame.RawImageRef)
	if err != nil {
		return nil, fmt.Errorf("read frame image: %w", err)
	}

	body, err := json.Marshal(generateRequest{
		Model:  v.model,
		Prompt: visionPrompt,
		Images: []string{base64.StdEncoding.EncodeToString(img)},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: calling vision model: %v", ErrExtractionUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: vision model status %d: %s", ErrExtractionUnavailable, resp.StatusCode, msg)
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decoding vision response: %v", ErrExtractionUnavailable, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrExtractionUnavailable, out.Error)
	}
	return splitLines(out.Response, frame.Region), nil
}

func splitLines(text string, origin models.Region) []models.TextBlock {
	var blocks []models.TextBlock
	row := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		blocks = append(blocks, models.TextBlock{
			Text: line,
			Region: models.Region{
				X:      origin.X,
				Y:      origin.Y + row*visionLineHeight,
				Width:  utf8.RuneCountInString(line) * visionCharWidth,
				Height: visionLineHeight,
			},
			Confidence: visionConfidence,
		})
		row++
	}
	return blocks
}
