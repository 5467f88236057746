// Package agent contains the tender agents and the factory that builds them.
// The package focuses on three concerns:
//
//  1. Shared identity + model plumbing (BaseAgent, Instruction)
//  2. Concrete agents, one capability each (DocumentAnalysisAgent,
//     OutlineGenerationAgent, ContentStructureAgent, SectionWritingAgent,
//     ContentIntegrationAgent)
//  3. A closed, type-keyed registry (Factory) with a typed Resolve helper
//
// Design principles:
//   - Stateless agents – configuration is fixed at construction, so agents
//     may be created per call
//   - Soft failures where the orchestrator branches on content (sentinel
//     analysis result, Error outlines) rather than on Go errors
//   - Models are consumed through model.Complete; retries belong to the
//     model adapters, never to agents
package agent
