// Package assembler selects context fragments for a prompt under a token
// budget. Selection is deterministic for a given input.
package assembler

import (
	"sort"
)

// Item is one candidate fragment. Items sharing a Key are duplicates and
// only the first occurrence is considered.
type Item struct {
	Key      string
	Priority int // lower is more important
	Pinned   bool
	Text     string
}

// Log summarizes the assembly decision.
type Log struct {
	IncludedTokens int
	DroppedCount   int // excluded for budget; duplicates are not counted
}

// TokenEstimator estimates token usage of text content.
type TokenEstimator func(text string) int

// ApproxTokens is the fallback estimator: roughly four bytes per token.
func ApproxTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(text)/4 + 1
}

// Assembler deterministically assembles context respecting pins, dedup, and token budget.
type Assembler struct {
	estimate  TokenEstimator
	maxTokens int
}

type Option func(*Assembler)

// WithTokenEstimator sets the token estimator. Defaults to ApproxTokens.
func WithTokenEstimator(est TokenEstimator) Option {
	return func(a *Assembler) {
		if est != nil {
			a.estimate = est
		}
	}
}

// WithMaxTokens sets the token budget. Non-positive values mean unlimited.
func WithMaxTokens(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

func New(opts ...Option) *Assembler {
	a := &Assembler{estimate: ApproxTokens, maxTokens: 1_000_000_000}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Estimate exposes the configured estimator.
func (a *Assembler) Estimate(text string) int { return a.estimate(text) }

// Assemble returns the selected items, pinned first, then by ascending
// priority with Key as tie-breaker. An item that does not fit is skipped and
// smaller later items may still be taken.
func (a *Assembler) Assemble(items []Item) ([]Item, Log) {
	seen := make(map[string]bool, len(items))
	uniq := make([]Item, 0, len(items))
	for _, it := range items {
		if seen[it.Key] {
			continue
		}
		seen[it.Key] = true
		uniq = append(uniq, it)
	}
	sort.SliceStable(uniq, func(i, j int) bool {
		x, y := uniq[i], uniq[j]
		if x.Pinned != y.Pinned {
			return x.Pinned
		}
		if x.Priority != y.Priority {
			return x.Priority < y.Priority
		}
		return x.Key < y.Key
	})

	var log Log
	budget := a.maxTokens
	out := make([]Item, 0, len(uniq))
	for _, it := range uniq {
		cost := a.estimate(it.Text)
		if cost > budget {
			log.DroppedCount++
			continue
		}
		budget -= cost
		log.IncludedTokens += cost
		out = append(out, it)
	}
	return out, log
}
