package gateway

import (
	"sync"
	"time"
)

// BudgetTracker enforces a per-call ceiling and a rolling 24-hour spend cap.
type BudgetTracker struct {
	mu               sync.Mutex
	perCallLimitUSD  float64
	dailyLimitUSD    float64
	entries          []spendEntry
	now              func() time.Time
}

type spendEntry struct {
	at      time.Time
	costUSD float64
}

// NewBudgetTracker creates a tracker with the given limits. A limit of zero
// or less disables that check.
func NewBudgetTracker(perCallLimitUSD, dailyLimitUSD float64) *BudgetTracker {
	return &BudgetTracker{
		perCallLimitUSD: perCallLimitUSD,
		dailyLimitUSD:   dailyLimitUSD,
		now:             time.Now,
	}
}

// Allow reports whether a call with the given estimated cost may proceed.
// The second return names the limit that was hit ("per_call" or "daily").
func (b *BudgetTracker) Allow(estimatedCostUSD float64) (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.perCallLimitUSD > 0 && estimatedCostUSD > b.perCallLimitUSD {
		return false, "per_call"
	}
	if b.dailyLimitUSD > 0 {
		b.pruneLocked()
		if b.spentLocked()+estimatedCostUSD > b.dailyLimitUSD {
			return false, "daily"
		}
	}
	return true, ""
}

// Record charges the actual cost of a completed call against the daily window.
func (b *BudgetTracker) Record(costUSD float64) {
	if costUSD <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, spendEntry{at: b.now(), costUSD: costUSD})
}

// SpentUSD returns the total spend within the rolling 24-hour window.
func (b *BudgetTracker) SpentUSD() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked()
	return b.spentLocked()
}

func (b *BudgetTracker) spentLocked() float64 {
	var total float64
	for _, entry := range b.entries {
		total += entry.costUSD
	}
	return total
}

func (b *BudgetTracker) pruneLocked() {
	cutoff := b.now().Add(-24 * time.Hour)
	kept := b.entries[:0]
	for _, entry := range b.entries {
		if entry.at.After(cutoff) {
			kept = append(kept, entry)
		}
	}
	b.entries = kept
}
