package gateway

import (
	"testing"
	"time"
)

func TestBudgetTracker_PerCallLimit(t *testing.T) {
	tracker := NewBudgetTracker(0.50, 25)

	if ok, _ := tracker.Allow(0.49); !ok {
		t.Fatal("expected call under per-call limit to be allowed")
	}
	ok, limit := tracker.Allow(0.51)
	if ok {
		t.Fatal("expected call over per-call limit to be rejected")
	}
	if limit != "per_call" {
		t.Fatalf("expected per_call limit name, got %q", limit)
	}
}

func TestBudgetTracker_DailyWindow(t *testing.T) {
	tracker := NewBudgetTracker(10, 1.00)

	tracker.Record(0.60)
	if ok, _ := tracker.Allow(0.30); !ok {
		t.Fatal("expected call within daily budget to be allowed")
	}
	ok, limit := tracker.Allow(0.50)
	if ok {
		t.Fatal("expected call exceeding daily budget to be rejected")
	}
	if limit != "daily" {
		t.Fatalf("expected daily limit name, got %q", limit)
	}
}

func TestBudgetTracker_WindowRollsOver(t *testing.T) {
	tracker := NewBudgetTracker(10, 1.00)

	current := time.Now()
	tracker.now = func() time.Time { return current }

	tracker.Record(0.90)
	if ok, _ := tracker.Allow(0.50); ok {
		t.Fatal("expected rejection while spend is in window")
	}

	// Advance past the 24-hour window; old spend should be pruned.
	current = current.Add(25 * time.Hour)
	if ok, _ := tracker.Allow(0.50); !ok {
		t.Fatal("expected old spend to fall out of the rolling window")
	}
	if tracker.SpentUSD() != 0 {
		t.Fatalf("expected zero spend after rollover, got %f", tracker.SpentUSD())
	}
}

func TestBudgetTracker_ZeroLimitsDisableChecks(t *testing.T) {
	tracker := NewBudgetTracker(0, 0)
	tracker.Record(1000)
	if ok, _ := tracker.Allow(999); !ok {
		t.Fatal("expected zero limits to disable budget checks")
	}
}

func TestLedger_RingEviction(t *testing.T) {
	ledger := NewLedger()
	for i := 0; i < ledgerSize+10; i++ {
		ledger.Append(InvocationRecord{InputTokens: i})
	}

	records := ledger.Snapshot()
	if len(records) != ledgerSize {
		t.Fatalf("expected %d records, got %d", ledgerSize, len(records))
	}
	// Newest first.
	if records[0].InputTokens != ledgerSize+9 {
		t.Fatalf("expected newest record first, got %d", records[0].InputTokens)
	}
	if records[len(records)-1].InputTokens != 10 {
		t.Fatalf("expected oldest retained record last, got %d", records[len(records)-1].InputTokens)
	}
}
