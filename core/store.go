package core

import "context"

// ProjectStore persists Project records. Implementations must be safe for
// concurrent use and enforce no business rules beyond existence: Get,
// UpdateStatus and UpdateWhole return ErrProjectNotFound for unknown ids.
// Returned projects are copies; mutating them has no effect until written
// back with UpdateWhole.
type ProjectStore interface {
	Create(ctx context.Context, name, createdBy string) (*Project, error)
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]*Project, error)
	UpdateStatus(ctx context.Context, id string, stage Stage) error
	UpdateWhole(ctx context.Context, project *Project) error
}

// DocumentStore keeps uploaded source documents. Save returns an opaque
// reference that Get resolves.
type DocumentStore interface {
	Save(ctx context.Context, projectID string, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
}

// TextExtractor pulls plain text out of an uploaded document. It fails soft:
// undecodable input yields an empty string rather than an error.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) string
}

// Notifier delivers user-facing notifications and supplies pending feedback.
// Notifications are best effort; callers log failures and carry on.
type Notifier interface {
	NotifyOutlineReady(ctx context.Context, projectID string, outline *Outline) error
	NotifySectionReady(ctx context.Context, projectID string, section Section) error
	GetFeedback(ctx context.Context, projectID string) (string, error)
}
