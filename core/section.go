package core

// SectionStatus tracks authoring progress of a Section.
type SectionStatus string

const (
	SectionPending SectionStatus = "Pending"
	SectionDrafted SectionStatus = "Drafted"
	SectionEdited  SectionStatus = "Edited"
)

// Section is one authored unit of the tender document, derived from the
// confirmed outline.
type Section struct {
	ID            string        `json:"sectionId"`
	ProjectID     string        `json:"projectId"`
	ParentID      string        `json:"parentSectionId,omitempty"`
	Title         string        `json:"sectionTitle"`
	Summary       string        `json:"summary,omitempty"`
	Content       string        `json:"sectionContent"`
	Order         int           `json:"order"`
	Status        SectionStatus `json:"status"`
	AssignedAgent string        `json:"assignedAgent,omitempty"`
}
