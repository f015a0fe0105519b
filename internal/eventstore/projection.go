// Package eventstore records audit runs as events in SQLite and projects
// them into a run history.
package eventstore

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"
)

const (
	runStatusRunning   = "running"
	runStatusCompleted = "completed"
)

// RunSummary is a read model of one audit run.
type RunSummary struct {
	RunID       string         `json:"run_id"`
	Domain      string         `json:"domain,omitempty"`
	Status      string         `json:"status"` // "running", "completed"
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Duration    time.Duration  `json:"duration,omitempty"`
	Pages       int            `json:"pages"`
	Score       int            `json:"score"`
	Findings    map[string]int `json:"findings,omitempty"` // kind -> count
	Broken      int            `json:"broken_external"`
	Orphans     int            `json:"orphans"`
}

// RunHistoryProjection maintains an in-memory view of audit history,
// reconstructed from the events in a Store.
type RunHistoryProjection struct {
	mu       sync.RWMutex
	store    Store
	runs     map[string]*RunSummary
	history  []*RunSummary // completed runs, newest first
	maxSize  int
	lastSync time.Time
}

// NewRunHistoryProjection creates a projection backed by store.
func NewRunHistoryProjection(store Store, maxHistorySize int) *RunHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &RunHistoryProjection{
		store:   store,
		runs:    make(map[string]*RunSummary),
		history: make([]*RunSummary, 0, maxHistorySize),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from every stored event.
func (p *RunHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.runs = make(map[string]*RunSummary)
	p.history = make([]*RunSummary, 0, p.maxSize)
	for _, event := range events {
		p.applyEventLocked(event)
	}
	slices.SortStableFunc(p.history, func(a, b *RunSummary) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneRunsLocked()
	p.lastSync = time.Now()
	return nil
}

// Apply processes a single event as it is emitted.
func (p *RunHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *RunHistoryProjection) applyEventLocked(event Event) {
	runID := event.RunID()
	if runID == "" {
		return
	}

	summary, exists := p.runs[runID]
	if !exists {
		summary = &RunSummary{
			RunID:     runID,
			Status:    runStatusRunning,
			StartedAt: event.Timestamp(),
			Findings:  make(map[string]int),
		}
		p.runs[runID] = summary
	}

	switch event.Type() {
	case TypeAuditStarted:
		summary.StartedAt = event.Timestamp()
		var payload struct {
			Domain string `json:"domain"`
			Pages  int    `json:"pages"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Domain = payload.Domain
			summary.Pages = payload.Pages
		}

	case TypeFindingRecorded:
		var f FindingData
		if err := json.Unmarshal(event.Payload(), &f); err == nil {
			summary.Findings[f.Kind]++
		}

	case TypeAuditCompleted:
		now := event.Timestamp()
		summary.CompletedAt = &now
		summary.Duration = now.Sub(summary.StartedAt)
		summary.Status = runStatusCompleted
		var payload struct {
			Score   int `json:"score"`
			Broken  int `json:"broken_external"`
			Orphans int `json:"orphans"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Score = payload.Score
			summary.Broken = payload.Broken
			summary.Orphans = payload.Orphans
		}
		p.addToHistoryLocked(summary)
	}
}

func (p *RunHistoryProjection) addToHistoryLocked(summary *RunSummary) {
	for _, h := range p.history {
		if h.RunID == summary.RunID {
			return
		}
	}
	p.history = append([]*RunSummary{summary}, p.history...)
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneRunsLocked()
}

// pruneRunsLocked drops completed runs that fell out of the bounded history.
func (p *RunHistoryProjection) pruneRunsLocked() {
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		keep[h.RunID] = struct{}{}
	}
	for id, summary := range p.runs {
		if summary.Status == runStatusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.runs, id)
		}
	}
}

// History returns completed runs, newest first.
func (p *RunHistoryProjection) History() []*RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.history)
}

// Run returns a copy of the summary for runID.
func (p *RunHistoryProjection) Run(runID string) (*RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	summary, ok := p.runs[runID]
	if !ok {
		return nil, false
	}
	cp := *summary
	return &cp, true
}

// Last returns the most recently completed run, or nil.
func (p *RunHistoryProjection) Last() *RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.history) == 0 {
		return nil
	}
	cp := *p.history[0]
	return &cp
}

// Previous returns the completed run before runID, or nil. Used to report
// score deltas.
func (p *RunHistoryProjection) Previous(runID string) *RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for i, h := range p.history {
		if h.RunID == runID && i+1 < len(p.history) {
			cp := *p.history[i+1]
			return &cp
		}
	}
	return nil
}

// LastSyncTime returns when the projection was last rebuilt.
func (p *RunHistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}
