package gateway

import (
	"sync"
	"time"
)

// ledgerSize bounds the in-memory invocation history.
const ledgerSize = 256

// InvocationRecord captures the outcome of a single gateway call.
type InvocationRecord struct {
	At           time.Time `json:"at"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	Attempts     int       `json:"attempts"`
	LatencyMs    int64     `json:"latency_ms"`
	Streamed     bool      `json:"streamed"`
	Error        string    `json:"error,omitempty"`
}

// Ledger is a fixed-size ring of recent invocation records, newest first in
// snapshots. It backs the gateway's ops endpoint.
type Ledger struct {
	mu      sync.Mutex
	records [ledgerSize]InvocationRecord
	next    int
	filled  bool
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append records an invocation, evicting the oldest entry when full.
func (l *Ledger) Append(record InvocationRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[l.next] = record
	l.next++
	if l.next == ledgerSize {
		l.next = 0
		l.filled = true
	}
}

// Snapshot returns the retained records ordered newest first.
func (l *Ledger) Snapshot() []InvocationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := l.next
	if l.filled {
		count = ledgerSize
	}

	out := make([]InvocationRecord, 0, count)
	for i := 1; i <= count; i++ {
		idx := (l.next - i + ledgerSize) % ledgerSize
		out = append(out, l.records[idx])
	}
	return out
}
