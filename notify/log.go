package notify

import (
	"context"

	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/logging"
)

var _ core.Notifier = (*LogNotifier)(nil)

// LogNotifier writes notifications to a logger. It never has feedback.
type LogNotifier struct {
	logger logging.Logger
}

// NewLogNotifier creates a LogNotifier; a nil logger discards output.
func NewLogNotifier(logger logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &LogNotifier{logger: logger}
}

// NotifyOutlineReady implements core.Notifier.
func (n *LogNotifier) NotifyOutlineReady(_ context.Context, projectID string, outline *core.Outline) error {
	n.logger.Info("Outline ready for review",
		"project_id", projectID,
		"outline_id", outline.ID,
		"version", outline.Version,
		"status", string(outline.Status))
	return nil
}

// NotifySectionReady implements core.Notifier.
func (n *LogNotifier) NotifySectionReady(_ context.Context, projectID string, section core.Section) error {
	n.logger.Info("Section drafted",
		"project_id", projectID,
		"section_id", section.ID,
		"title", section.Title)
	return nil
}

// GetFeedback implements core.Notifier.
func (n *LogNotifier) GetFeedback(context.Context, string) (string, error) { return "", nil }
