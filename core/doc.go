// Package core provides the foundational domain types and contracts used by
// TenderMesh. It defines:
//
//   - Projects, Outlines and Sections (the tender data model) together with
//     the invariants enforced before every write
//   - Stage, the position of a project inside the workflow state machine
//   - Agent capability interfaces (document analysis, outline generation,
//     content structuring, section writing, content integration)
//   - Narrow contracts for external collaborators: project and document
//     stores, text extraction and user notification
//
// Concrete implementations (stores, agents, model adapters, transports) live
// in sibling packages so that the orchestrator depends only on these
// interfaces.
package core
