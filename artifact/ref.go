package artifact

import (
	"fmt"
	"strings"
)

// Ref builds a document reference.
func Ref(projectID, documentID string) string { return projectID + "/" + documentID }

// SplitRef parses a reference produced by Ref.
func SplitRef(ref string) (projectID, documentID string, err error) {
	projectID, documentID, ok := strings.Cut(ref, "/")
	if !ok || projectID == "" || documentID == "" || strings.Contains(documentID, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return projectID, documentID, nil
}
