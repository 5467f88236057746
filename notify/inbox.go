package notify

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/tendermesh/core"
)

var _ core.Notifier = (*Inbox)(nil)

// Notification is a delivered notification as recorded by an Inbox.
type Notification struct {
	Type      string        `json:"type"`
	ProjectID string        `json:"projectId"`
	Outline   *core.Outline `json:"outline,omitempty"`
	Section   *core.Section `json:"section,omitempty"`
	At        time.Time     `json:"at"`
}

// Inbox records notifications per project and queues reviewer feedback
// until the workflow asks for it. It is safe for concurrent use.
type Inbox struct {
	mu       sync.Mutex
	messages map[string][]Notification
	feedback map[string][]string
	now      func() time.Time
}

// NewInbox creates an empty Inbox.
func NewInbox() *Inbox {
	return &Inbox{
		messages: make(map[string][]Notification),
		feedback: make(map[string][]string),
		now:      time.Now,
	}
}

// NotifyOutlineReady implements core.Notifier.
func (i *Inbox) NotifyOutlineReady(_ context.Context, projectID string, outline *core.Outline) error {
	i.record(Notification{Type: EventOutlineReady, ProjectID: projectID, Outline: outline.Clone()})
	return nil
}

// NotifySectionReady implements core.Notifier.
func (i *Inbox) NotifySectionReady(_ context.Context, projectID string, section core.Section) error {
	s := section
	i.record(Notification{Type: EventSectionReady, ProjectID: projectID, Section: &s})
	return nil
}

func (i *Inbox) record(n Notification) {
	i.mu.Lock()
	defer i.mu.Unlock()
	n.At = i.now()
	i.messages[n.ProjectID] = append(i.messages[n.ProjectID], n)
}

// Messages returns a snapshot of the notifications recorded for a project.
func (i *Inbox) Messages(projectID string) []Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]Notification, len(i.messages[projectID]))
	copy(out, i.messages[projectID])
	return out
}

// PushFeedback queues reviewer feedback for a project.
func (i *Inbox) PushFeedback(projectID, feedback string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.feedback[projectID] = append(i.feedback[projectID], feedback)
}

// GetFeedback pops the oldest queued feedback; "" when none is pending.
func (i *Inbox) GetFeedback(_ context.Context, projectID string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	q := i.feedback[projectID]
	if len(q) == 0 {
		return "", nil
	}
	fb := q[0]
	if len(q) == 1 {
		delete(i.feedback, projectID)
	} else {
		i.feedback[projectID] = q[1:]
	}
	return fb, nil
}
