package core

import (
	"fmt"
	"time"
)

// OutlineStatus is the lifecycle state of an Outline.
type OutlineStatus string

const (
	OutlineDraft            OutlineStatus = "Draft"
	OutlineFeedbackReceived OutlineStatus = "FeedbackReceived"
	OutlineConfirmed        OutlineStatus = "Confirmed"
	OutlineError            OutlineStatus = "Error"
)

// Valid reports whether s is a known outline status.
func (s OutlineStatus) Valid() bool {
	switch s {
	case OutlineDraft, OutlineFeedbackReceived, OutlineConfirmed, OutlineError:
		return true
	default:
		return false
	}
}

// Outline is the proposal skeleton produced from structured requirements.
// The ID is stable across revisions of the same lineage; Version starts at 1
// and only grows when feedback is recorded.
type Outline struct {
	ID           string        `json:"outlineId"`
	ProjectID    string        `json:"projectId"`
	Content      string        `json:"outlineContent"`
	Version      int           `json:"version"`
	Status       OutlineStatus `json:"status"`
	UserFeedback string        `json:"userFeedback"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Validate checks the outline invariants.
func (o *Outline) Validate() error {
	if o == nil {
		return fmt.Errorf("outline is nil")
	}
	if o.ID == "" {
		return fmt.Errorf("outline id is required")
	}
	if o.Version < 1 {
		return fmt.Errorf("outline version must be >= 1, got %d", o.Version)
	}
	if !o.Status.Valid() {
		return fmt.Errorf("unknown outline status %q", o.Status)
	}
	if o.Status == OutlineConfirmed && o.UserFeedback != "" {
		return fmt.Errorf("confirmed outline must not carry feedback")
	}
	return nil
}

// Actionable reports whether the outline may be presented to a user. Error
// outlines carry a diagnostic instead of usable content.
func (o *Outline) Actionable() bool { return o != nil && o.Status != OutlineError }

// ApplyFeedback records feedback and starts a new version.
func (o *Outline) ApplyFeedback(feedback string, now time.Time) {
	o.UserFeedback = feedback
	o.Status = OutlineFeedbackReceived
	o.Version++
	o.UpdatedAt = now
}

// Confirm marks the outline as accepted. The version is left untouched and
// any pending feedback is cleared; confirming twice is a no-op.
func (o *Outline) Confirm(now time.Time) {
	if o.Status == OutlineConfirmed {
		return
	}
	o.Status = OutlineConfirmed
	o.UserFeedback = ""
	o.UpdatedAt = now
}

// Clone returns a copy of the outline.
func (o *Outline) Clone() *Outline {
	if o == nil {
		return nil
	}
	cp := *o
	return &cp
}
