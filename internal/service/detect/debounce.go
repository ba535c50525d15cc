package detect

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability/metrics"
)

// DefaultCooldown is the debounce window per screen region.
const DefaultCooldown = 2 * time.Second

type recentCandidate struct {
	text       string
	generation uint64
}

// Debouncer coalesces candidates per screen region. Within the cool-down a
// repeat of the same text is dropped and a different text supersedes the
// earlier one. Every accepted candidate gets a new generation; the region's
// current generation tells in-flight work whether it is still wanted.
type Debouncer struct {
	grid     int
	cooldown time.Duration

	mu          sync.Mutex
	recent      *cache.Cache
	generations map[string]uint64
	generation  atomic.Uint64

	metrics *metrics.Metrics
}

// NewDebouncer creates a debouncer quantizing regions onto grid pixels.
func NewDebouncer(grid int, cooldown time.Duration) *Debouncer {
	if grid <= 0 {
		grid = 64
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Debouncer{
		grid:        grid,
		cooldown:    cooldown,
		recent:      cache.New(cooldown, 2*cooldown),
		generations: make(map[string]uint64),
		metrics:     metrics.DefaultMetrics,
	}
}

// ThreadKey returns the thread id for a region.
func (d *Debouncer) ThreadKey(r models.Region) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return r.Key(d.grid)
}

// Accept stamps c with its thread and generation and reports whether it
// should be answered. A false result means c duplicates the region's most
// recent candidate within the cool-down.
func (d *Debouncer) Accept(c *models.Candidate) bool {
	if c.ThreadID == "" {
		c.ThreadID = d.ThreadKey(c.Region)
	}
	text := normalizeText(c.SourceText)

	d.mu.Lock()
	defer d.mu.Unlock()

	if v, ok := d.recent.Get(c.ThreadID); ok {
		if prev := v.(recentCandidate); prev.text == text {
			d.metrics.RecordCandidateRejected("duplicate")
			return false
		}
		d.metrics.RecordCandidateRejected("superseded")
	}
	d.stampLocked(c)
	d.recent.Set(c.ThreadID, recentCandidate{text: text, generation: c.Generation}, d.cooldown)
	return true
}

// Stamp assigns a new generation without duplicate suppression. Manual
// queries use it.
func (d *Debouncer) Stamp(c *models.Candidate) {
	if c.ThreadID == "" {
		c.ThreadID = d.ThreadKey(c.Region)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stampLocked(c)
}

func (d *Debouncer) stampLocked(c *models.Candidate) {
	c.Generation = d.generation.Add(1)
	d.generations[c.ThreadID] = c.Generation
}

// Current returns the newest generation accepted for a thread.
func (d *Debouncer) Current(threadID string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.generations[threadID]
}

// IsCurrent reports whether c is still the newest candidate of its thread.
func (d *Debouncer) IsCurrent(c models.Candidate) bool {
	return d.Current(c.ThreadID) == c.Generation
}

// Reconfigure changes grid and cool-down for future candidates.
func (d *Debouncer) Reconfigure(grid int, cooldown time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if grid > 0 {
		d.grid = grid
	}
	if cooldown > 0 {
		d.cooldown = cooldown
	}
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
