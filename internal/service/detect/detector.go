package detect

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability/logging"
	"ambient-assistant/internal/observability/metrics"
)

// Config configures a Detector.
type Config struct {
	// Threshold is the minimum score for a candidate.
	Threshold float64
	// WindowLines is how many of the newest changed lines are searched.
	WindowLines int
	// ChangeThreshold is the fraction of words that must differ from the
	// page baseline before the screen counts as a new page.
	ChangeThreshold float64
	Mode            models.Mode
}

// DefaultConfig returns the default detector configuration.
func DefaultConfig() Config {
	return Config{Threshold: 0.5, WindowLines: 8, ChangeThreshold: 0.3, Mode: models.ModeNormal}
}

type line struct {
	text   string
	region models.Region
}

// Detector finds the best question in each capture cycle. It keeps the
// previous cycle's lines to tell new content from old.
type Detector struct {
	mu        sync.Mutex
	cfg       Config
	scorer    Scorer
	prevLines []string
	prevWords map[string]struct{}
	now       func() time.Time

	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a detector. A nil scorer selects HeuristicScorer.
func New(cfg Config, scorer Scorer) *Detector {
	if scorer == nil {
		scorer = HeuristicScorer{}
	}
	return &Detector{
		cfg:     normalize(cfg),
		scorer:  scorer,
		now:     time.Now,
		logger:  logging.WithComponent("detector"),
		metrics: metrics.DefaultMetrics,
	}
}

func normalize(cfg Config) Config {
	def := DefaultConfig()
	if cfg.WindowLines <= 0 {
		cfg.WindowLines = def.WindowLines
	}
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	return cfg
}

// Reconfigure swaps the configuration; the line history is kept.
func (d *Detector) Reconfigure(cfg Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = normalize(cfg)
}

// Reset forgets the previous cycle.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prevLines, d.prevWords = nil, nil
}

// Detect returns the highest scoring question among the newest changed
// screen lines and recentKeystrokes, or nil. Typed text always counts as new
// and sits after the screen lines in reading order. Equal scores go to the
// later sentence.
func (d *Detector) Detect(blocks []models.TextBlock, recentKeystrokes string) *models.Candidate {
	d.mu.Lock()
	defer d.mu.Unlock()

	lines := make([]line, 0, len(blocks))
	texts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		t := strings.TrimSpace(b.Text)
		if t == "" {
			continue
		}
		lines = append(lines, line{text: t, region: b.Region})
		texts = append(texts, t)
	}
	screen := strings.Join(texts, "\n")
	words := wordSet(screen)

	// Lines are diffed every cycle so an edit on a static screen still
	// counts. The word gate only marks a new page and moves its baseline.
	window := newLines(d.prevLines, lines)
	if len(window) > d.cfg.WindowLines {
		window = window[len(window)-d.cfg.WindowLines:]
	}
	d.prevLines = texts
	if d.changed(words) {
		d.logger.Debug().Int("lines", len(lines)).Msg("Screen changed")
		d.prevWords = words
	}
	for _, typed := range strings.Split(recentKeystrokes, "\n") {
		if typed = strings.TrimSpace(typed); typed != "" {
			window = append(window, line{text: typed})
		}
	}
	if len(window) == 0 {
		return nil
	}

	var best *line
	bestText, bestScore := "", -1.0
	for i := range window {
		for _, s := range sentences(window[i].text) {
			if !isQuestionLike(s) {
				continue
			}
			if score := d.scorer.Score(s); score >= bestScore {
				best, bestText, bestScore = &window[i], s, score
			}
		}
	}
	if best == nil {
		return nil
	}
	if bestScore < d.cfg.Threshold {
		d.metrics.RecordCandidateRejected("below_threshold")
		d.logger.Debug().Str("text", bestText).Float64("score", bestScore).Msg("Question below threshold")
		return nil
	}

	classified := screen
	if classified == "" {
		classified = recentKeystrokes
	}
	contentType, language := Classify(classified)
	return &models.Candidate{
		SourceText:  bestText,
		Timestamp:   d.now(),
		Score:       bestScore,
		Region:      best.region,
		Mode:        d.cfg.Mode,
		ContentType: contentType,
		Language:    language,
	}
}

// changed applies the word-change gate against the page baseline.
func (d *Detector) changed(words map[string]struct{}) bool {
	if len(words) == 0 {
		return false
	}
	if len(d.prevWords) == 0 {
		return true
	}
	diff := 0
	for w := range words {
		if _, ok := d.prevWords[w]; !ok {
			diff++
		}
	}
	for w := range d.prevWords {
		if _, ok := words[w]; !ok {
			diff++
		}
	}
	return float64(diff)/float64(len(d.prevWords)) > d.cfg.ChangeThreshold
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(text) {
		set[w] = struct{}{}
	}
	return set
}

// newLines returns the lines of cur not present in prev, counting duplicates.
func newLines(prev []string, cur []line) []line {
	seen := make(map[string]int, len(prev))
	for _, p := range prev {
		seen[p]++
	}
	var out []line
	for _, l := range cur {
		if seen[l.text] > 0 {
			seen[l.text]--
			continue
		}
		out = append(out, l)
	}
	return out
}
