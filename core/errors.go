package core

import "errors"

var (
	// ErrProjectNotFound is returned when no project exists for an id.
	ErrProjectNotFound = errors.New("project not found")

	// ErrNoOutline indicates the project has no current outline.
	ErrNoOutline = errors.New("project has no current outline")

	// ErrOutlineDecode indicates the stored outline payload is corrupt or
	// violates outline invariants.
	ErrOutlineDecode = errors.New("outline could not be decoded")

	// ErrOutlineMismatch indicates the caller referenced an outline that is
	// not the project's current outline.
	ErrOutlineMismatch = errors.New("outline id does not match current outline")

	// ErrEmptyDocument indicates no text could be extracted from the upload.
	ErrEmptyDocument = errors.New("document contains no extractable text")

	// ErrRequirementAnalysis indicates requirement extraction failed.
	ErrRequirementAnalysis = errors.New("requirement analysis failed")

	// ErrOutlineGeneration indicates the outline agent produced no usable outline.
	ErrOutlineGeneration = errors.New("outline generation failed")

	// ErrContentGeneration indicates structuring, writing or integration failed.
	ErrContentGeneration = errors.New("content generation failed")

	// ErrPersistence indicates a project store write failed.
	ErrPersistence = errors.New("project could not be persisted")

	// ErrInvalidTransition indicates the operation is not allowed in the
	// project's current state.
	ErrInvalidTransition = errors.New("operation not allowed in current state")

	// ErrSectionNotFound is returned when a section id is unknown.
	ErrSectionNotFound = errors.New("section not found")

	// ErrUnknownAgentType is returned by the agent factory for unregistered types.
	ErrUnknownAgentType = errors.New("unknown agent type")

	// ErrCapabilityMismatch indicates an agent does not implement the
	// capability requested by the caller.
	ErrCapabilityMismatch = errors.New("agent does not provide requested capability")
)
