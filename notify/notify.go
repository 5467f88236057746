// Package notify contains core.Notifier implementations: a logging notifier,
// an in-process inbox that also supplies pending feedback, an asynchronous
// webhook notifier and a fan-out combinator.
package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/hupe1980/tendermesh/core"
)

// Event types carried by notifications.
const (
	EventOutlineReady = "outline.ready"
	EventSectionReady = "section.ready"
)

var _ core.Notifier = (*Multi)(nil)

// Multi fans notifications out to several notifiers.
type Multi struct {
	notifiers []core.Notifier
}

// NewMulti combines notifiers; nil entries are skipped.
func NewMulti(notifiers ...core.Notifier) *Multi {
	m := &Multi{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// NotifyOutlineReady calls every notifier and joins their errors.
func (m *Multi) NotifyOutlineReady(ctx context.Context, projectID string, outline *core.Outline) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.NotifyOutlineReady(ctx, projectID, outline); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifySectionReady calls every notifier and joins their errors.
func (m *Multi) NotifySectionReady(ctx context.Context, projectID string, section core.Section) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.NotifySectionReady(ctx, projectID, section); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetFeedback returns the first non-blank feedback any notifier supplies.
func (m *Multi) GetFeedback(ctx context.Context, projectID string) (string, error) {
	var errs []error
	for _, n := range m.notifiers {
		fb, err := n.GetFeedback(ctx, projectID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if strings.TrimSpace(fb) != "" {
			return fb, nil
		}
	}
	return "", errors.Join(errs...)
}
