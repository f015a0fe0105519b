package eventstore

import (
	"encoding/json"
	"time"

	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// Event type names.
const (
	TypeAuditStarted    = "AuditStarted"
	TypeFindingRecorded = "FindingRecorded"
	TypeAuditCompleted  = "AuditCompleted"
)

// AuditStarted is emitted when an audit run begins.
type AuditStarted struct {
	Record
	Root   string `json:"root"`
	Domain string `json:"domain"`
	Pages  int    `json:"pages"`
}

// NewAuditStarted creates an AuditStarted event.
func NewAuditStarted(runID, root, domain string, pages int) (*AuditStarted, error) {
	payload, err := marshalPayload(runID, TypeAuditStarted, map[string]any{
		"root":   root,
		"domain": domain,
		"pages":  pages,
	})
	if err != nil {
		return nil, err
	}
	return &AuditStarted{
		Record: newBase(runID, TypeAuditStarted, payload),
		Root:   root,
		Domain: domain,
		Pages:  pages,
	}, nil
}

// FindingData is the stored form of a single audit finding.
type FindingData struct {
	Kind    string `json:"kind"`
	File    string `json:"file,omitempty"`
	URL     string `json:"url,omitempty"`
	Target  string `json:"target,omitempty"`
	Penalty int    `json:"penalty"`
	Message string `json:"message"`
}

// FindingRecorded is emitted for every finding of a run.
type FindingRecorded struct {
	Record
	Finding FindingData `json:"finding"`
}

// NewFindingRecorded creates a FindingRecorded event.
func NewFindingRecorded(runID string, f FindingData) (*FindingRecorded, error) {
	payload, err := marshalPayload(runID, TypeFindingRecorded, f)
	if err != nil {
		return nil, err
	}
	return &FindingRecorded{Record: newBase(runID, TypeFindingRecorded, payload), Finding: f}, nil
}

// AuditCompleted is emitted with the final score.
type AuditCompleted struct {
	Record
	Score    int           `json:"score"`
	Findings int           `json:"findings"`
	Broken   int           `json:"broken_external"`
	Orphans  int           `json:"orphans"`
	Duration time.Duration `json:"duration_ms"`
}

// NewAuditCompleted creates an AuditCompleted event.
func NewAuditCompleted(runID string, score, findings, broken, orphans int, duration time.Duration) (*AuditCompleted, error) {
	payload, err := marshalPayload(runID, TypeAuditCompleted, map[string]any{
		"score":           score,
		"findings":        findings,
		"broken_external": broken,
		"orphans":         orphans,
		"duration_ms":     duration.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	return &AuditCompleted{
		Record:   newBase(runID, TypeAuditCompleted, payload),
		Score:    score,
		Findings: findings,
		Broken:   broken,
		Orphans:  orphans,
		Duration: duration,
	}, nil
}

func newBase(runID, eventType string, payload []byte) Record {
	return Record{
		Run:  runID,
		Kind: eventType,
		At:   time.Now().UTC(),
		Data: payload,
	}
}

func marshalPayload(runID, eventType string, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryHistory, "failed to marshal event payload").
			WithContext("run_id", runID).
			WithContext("event_type", eventType).
			Build()
	}
	return payload, nil
}
