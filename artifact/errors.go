package artifact

import "fmt"

var (
	// ErrNotFound is returned when no document exists for a reference.
	ErrNotFound = fmt.Errorf("document not found")

	// ErrInvalidRef is returned when a reference is not of the form
	// "<projectID>/<documentID>".
	ErrInvalidRef = fmt.Errorf("invalid document reference")
)
