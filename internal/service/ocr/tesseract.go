package ocr

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"
	"time"

	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability/metrics"
	"ambient-assistant/internal/platform"
)

var tesseractFallbacks = []string{"/usr/local/bin/tesseract", "/opt/homebrew/bin/tesseract"}

// Tesseract runs the tesseract binary and parses its TSV output.
type Tesseract struct {
	path     string
	language string
	timeout  time.Duration
	runner   platform.Runner
	metrics  *metrics.Metrics
}

// NewTesseract creates an extractor for the binary at path.
func NewTesseract(path, language string, timeout time.Duration, runner platform.Runner) *Tesseract {
	if language == "" {
		language = "eng"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if runner == nil {
		runner = platform.ExecRunner{}
	}
	return &Tesseract{path: path, language: language, timeout: timeout, runner: runner, metrics: metrics.DefaultMetrics}
}

func (t *Tesseract) Name() string { return EngineTesseract }

// Extract recognizes the frame's image. Words are grouped into lines, one
// TextBlock per line, with the line's mean word confidence.
func (t *Tesseract) Extract(ctx context.Context, frame *models.Frame) (iter.Seq[models.TextBlock], error) {
	start := time.Now()
	blocks, err := t.extract(ctx, frame)
	t.metrics.RecordExtraction(EngineTesseract, err, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	t.metrics.RecordTextBlocks(len(blocks))
	return once(blocks), nil
}

func (t *Tesseract) extract(ctx context.Context, frame *models.Frame) ([]models.TextBlock, error) {
	if frame == nil || frame.RawImageRef == "" {
		return nil, errors.New("frame has no image")
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out, err := t.runner.Run(ctx, t.path, frame.RawImageRef, "stdout", "-l", t.language, "tsv")
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: tesseract: %v", ErrExtractionUnavailable, err)
	}
	blocks, err := ParseTSV(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionUnavailable, err)
	}
	for i := range blocks {
		blocks[i].Region.X += frame.Region.X
		blocks[i].Region.Y += frame.Region.Y
	}
	return blocks, nil
}

type lineKey struct{ page, block, par, line int }

type lineAcc struct {
	words  []string
	region models.Region
	conf   float64
}

// ParseTSV converts tesseract TSV output into line blocks sorted top to
// bottom, then left to right.
func ParseTSV(data []byte) ([]models.TextBlock, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := map[lineKey]*lineAcc{}
	var order []lineKey
	header := true
	for sc.Scan() {
		row := sc.Text()
		if header {
			header = false
			if strings.HasPrefix(row, "level") {
				continue
			}
		}
		cols := strings.Split(row, "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}
		text := strings.TrimSpace(strings.Join(cols[11:], "\t"))
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 || text == "" {
			continue
		}
		nums, err := atois(cols[1:10])
		if err != nil {
			return nil, fmt.Errorf("parse tsv row %q: %w", row, err)
		}
		key := lineKey{page: nums[0], block: nums[1], par: nums[2], line: nums[3]}
		region := models.Region{X: nums[5], Y: nums[6], Width: nums[7], Height: nums[8]}

		acc, ok := lines[key]
		if !ok {
			acc = &lineAcc{}
			lines[key] = acc
			order = append(order, key)
		}
		acc.words = append(acc.words, text)
		acc.region = acc.region.Union(region)
		acc.conf += conf
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tsv: %w", err)
	}

	blocks := make([]models.TextBlock, 0, len(order))
	for _, key := range order {
		acc := lines[key]
		blocks = append(blocks, models.TextBlock{
			Text:       strings.Join(acc.words, " "),
			Region:     acc.region,
			Confidence: min(acc.conf/float64(len(acc.words))/100, 1),
		})
	}
	slices.SortStableFunc(blocks, func(a, b models.TextBlock) int {
		if a.Region.Y != b.Region.Y {
			return a.Region.Y - b.Region.Y
		}
		return a.Region.X - b.Region.X
	})
	return blocks, nil
}

func atois(cols []string) ([]int, error) {
	out := make([]int, len(cols))
	for i, c := range cols {
		n, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
