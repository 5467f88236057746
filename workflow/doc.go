// Package workflow drives tender projects through their stages.
//
// The Orchestrator sequences document ingestion, requirement analysis,
// outline generation, the human review loop (feedback, regeneration,
// confirmation) and content authoring (structuring, section writing,
// assembly). Every operation:
//
//   - records the stage on the project before returning, so the stored
//     stage alone tells where a run stopped
//   - holds a per-project lock for its whole duration
//   - aborts without writing when its context ends
//   - returns a Result plus an error wrapping one of the core sentinels
//
// Failure stages are terminal; recovery is an external retry of the
// operation that failed.
package workflow
