package linkverify

import (
	"time"

	"github.com/google/uuid"
)

// BrokenLinkEvent represents a broken link discovered during an audit.
// It is published to NATS for downstream processing (e.g. opening issues).
type BrokenLinkEvent struct {
	ID    string `json:"id"`
	RunID string `json:"run_id"`

	// Link information
	URL        string `json:"url"`
	Status     int    `json:"status"` // 0 for non-HTTP errors
	Error      string `json:"error,omitempty"`
	IsInternal bool   `json:"is_internal"`

	// Source page
	SourceFile string `json:"source_file"` // root-relative
	SourceURL  string `json:"source_url"`  // clean URL

	Timestamp time.Time `json:"timestamp"`
}

// NewBrokenLinkEvent stamps a new event with a fresh id.
func NewBrokenLinkEvent(runID, sourceFile, sourceURL, link string, status int, reason string, internal bool) *BrokenLinkEvent {
	return &BrokenLinkEvent{
		ID:         uuid.NewString(),
		RunID:      runID,
		URL:        link,
		Status:     status,
		Error:      reason,
		IsInternal: internal,
		SourceFile: sourceFile,
		SourceURL:  sourceURL,
		Timestamp:  time.Now().UTC(),
	}
}
