// Package contextbuilder assembles the budget-constrained context handed to a
// model backend.
package contextbuilder

import (
	"slices"

	"ambient-assistant/internal/models"
)

// DefaultTokenBudget is used when no budget is configured.
const DefaultTokenBudget = 2048

// Inputs are the raw materials for one context packet.
type Inputs struct {
	Candidate models.Candidate

	// Retrieved turns, most relevant first.
	Retrieved []models.ConversationTurn

	// Screen is the extracted screen text of the current cycle.
	Screen string

	// Thread holds earlier turns of the candidate's thread, oldest first.
	Thread []models.ConversationTurn
}

// Builder builds context packets within a token budget.
type Builder struct {
	budget int
}

// New creates a builder. A non-positive budget selects DefaultTokenBudget.
func New(budget int) *Builder {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	return &Builder{budget: budget}
}

// Budget returns the builder's token budget.
func (b *Builder) Budget() int { return b.budget }

// EstimateTokens approximates the token count of s as ceil(runes/4).
func EstimateTokens(s string) int {
	n := len([]rune(s))
	return (n + 3) / 4
}

func turnTokens(t models.ConversationTurn) int {
	return EstimateTokens(t.Question) + EstimateTokens(t.Answer)
}

func turnsTokens(turns []models.ConversationTurn) int {
	total := 0
	for _, t := range turns {
		total += turnTokens(t)
	}
	return total
}

// Build fits the inputs into the budget. Shrinking happens in a fixed order:
// the screen excerpt is truncated first, then the oldest retrieved turns are
// dropped, then the oldest thread turns, and finally the tail of the query is
// cut. The same inputs always produce the same packet.
func (b *Builder) Build(in Inputs) models.ContextPacket {
	query := in.Candidate.SourceText
	screen := in.Screen
	retrieved := slices.Clone(in.Retrieved)
	thread := slices.Clone(in.Thread)

	used := func() int {
		return EstimateTokens(query) + EstimateTokens(screen) + turnsTokens(retrieved) + turnsTokens(thread)
	}

	if over := used() - b.budget; over > 0 {
		keep := max(EstimateTokens(screen)-over, 0)
		screen = tailRunes(screen, keep*4)
	}

	for used() > b.budget && len(retrieved) > 0 {
		i := oldestIndex(retrieved)
		retrieved = slices.Delete(retrieved, i, i+1)
	}

	for used() > b.budget && len(thread) > 0 {
		thread = thread[1:]
	}

	if over := used() - b.budget; over > 0 {
		keep := max(EstimateTokens(query)-over, 0)
		query = headRunes(query, keep*4)
	}

	if len(retrieved) == 0 {
		retrieved = nil
	}
	if len(thread) == 0 {
		thread = nil
	}

	return models.ContextPacket{
		Query:           query,
		ScreenExcerpt:   screen,
		RetrievedTurns:  retrieved,
		ThreadTurns:     thread,
		TokenBudgetUsed: used(),
		ThreadID:        in.Candidate.ThreadID,
		Mode:            in.Candidate.Mode,
		ContentType:     in.Candidate.ContentType,
		Language:        in.Candidate.Language,
		Generation:      in.Candidate.Generation,
	}
}

// oldestIndex returns the position of the oldest turn. Among equally old
// turns the least relevant (latest position) goes first.
func oldestIndex(turns []models.ConversationTurn) int {
	idx := 0
	for i := 1; i < len(turns); i++ {
		if !turns[i].CreatedAt.After(turns[idx].CreatedAt) {
			idx = i
		}
	}
	return idx
}

// tailRunes keeps the last n runes of s. Recent screen content sits at the
// bottom.
func tailRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func headRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
