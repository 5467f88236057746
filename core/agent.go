package core

import "context"

// AgentType tags one of the closed set of agent kinds known to the factory.
type AgentType string

const (
	AgentDocumentAnalysis   AgentType = "DocumentAnalysis"
	AgentOutlineGeneration  AgentType = "OutlineGeneration"
	AgentContentStructure   AgentType = "ContentStructure"
	AgentSectionWriting     AgentType = "SectionWriting"
	AgentContentIntegration AgentType = "ContentIntegration"
)

// Agent defines the identity every agent exposes. Agents hold no mutable
// state across invocations beyond their construction-time configuration and
// additionally implement exactly one of the capability interfaces below.
type Agent interface {
	ID() string
	Name() string
	Type() AgentType
	Description() string
}

// AgentInfo carries identifying details about an agent for logs and records.
type AgentInfo struct {
	ID   string
	Name string
	Type AgentType
}

// DocumentAnalyzer turns raw document text into structured requirements.
// Empty input yields a sentinel error-shaped result instead of an error; an
// error is returned only when the underlying model call fails.
type DocumentAnalyzer interface {
	Agent
	Analyze(ctx context.Context, text string) (string, error)
}

// OutlineGenerator produces and revises tender outlines. Unusable results are
// reported as outlines with status Error; an error is returned only when the
// context is done.
type OutlineGenerator interface {
	Agent
	GenerateOutline(ctx context.Context, projectID, requirements string) (*Outline, error)
	ReviseOutline(ctx context.Context, outline *Outline, requirements string) (*Outline, error)
}

// ContentStructurer derives the section tree from a confirmed outline.
type ContentStructurer interface {
	Agent
	StructureContent(ctx context.Context, outline *Outline) ([]Section, error)
}

// SectionWriter drafts the body of a single section.
type SectionWriter interface {
	Agent
	WriteSection(ctx context.Context, section Section, requirements string) (string, error)
}

// ContentIntegrator assembles written sections into the final document.
type ContentIntegrator interface {
	Agent
	Integrate(ctx context.Context, title string, sections []Section) (string, error)
}
