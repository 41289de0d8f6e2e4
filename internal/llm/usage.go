package llm

import (
	"sync/atomic"

	"github.com/soyeahso/llmbridge/internal/catalog"
)

// SessionUsage accumulates tokens for the life of a process. One instance
// is shared by every orchestrator that should report the same session.
type SessionUsage struct {
	input  atomic.Int64
	output atomic.Int64
}

// NewSessionUsage creates an empty accumulator.
func NewSessionUsage() *SessionUsage {
	return &SessionUsage{}
}

// Add increments both counters and returns the totals after the increment.
func (s *SessionUsage) Add(in, out int) TokenUsage {
	return TokenUsage{
		Input:  int(s.input.Add(int64(in))),
		Output: int(s.output.Add(int64(out))),
	}
}

// Snapshot returns the current totals.
func (s *SessionUsage) Snapshot() TokenUsage {
	return TokenUsage{Input: int(s.input.Load()), Output: int(s.output.Load())}
}

// UsageSnapshot is what Track reports for one request.
type UsageSnapshot struct {
	Request  TokenUsage       `json:"request"`
	Instance TokenUsage       `json:"instance"`
	Session  TokenUsage       `json:"session"`
	Cost     catalog.CostInfo `json:"cost"`
}

// UsageTracker counts tokens per request, per orchestrator and per session
// and prices each request from the catalog.
type UsageTracker struct {
	enabled  bool
	catalog  *catalog.Catalog
	session  *SessionUsage
	instance SessionUsage
}

// NewUsageTracker creates a tracker. A nil session gets a private one.
func NewUsageTracker(cat *catalog.Catalog, session *SessionUsage, enabled bool) *UsageTracker {
	if session == nil {
		session = NewSessionUsage()
	}
	return &UsageTracker{enabled: enabled, catalog: cat, session: session}
}

// Enabled reports whether tracking is on.
func (t *UsageTracker) Enabled() bool { return t.enabled }

// Track records one request. When tracking is disabled every counter and
// cost in the snapshot is zero.
func (t *UsageTracker) Track(model string, in, out int) UsageSnapshot {
	if !t.enabled {
		return UsageSnapshot{Cost: catalog.ZeroCost()}
	}
	in, out = max(in, 0), max(out, 0)
	snap := UsageSnapshot{
		Request:  TokenUsage{Input: in, Output: out},
		Instance: t.instance.Add(in, out),
		Session:  t.session.Add(in, out),
		Cost:     catalog.ZeroCost(),
	}
	if t.catalog != nil {
		snap.Cost = t.catalog.Cost(model, in, out)
	}
	return snap
}

// Instance returns the tokens tracked by this tracker.
func (t *UsageTracker) Instance() TokenUsage { return t.instance.Snapshot() }

// Session returns the process-wide totals.
func (t *UsageTracker) Session() TokenUsage { return t.session.Snapshot() }
