// Package model defines the provider‑agnostic abstractions and concrete
// helpers for interacting with language models inside TenderMesh.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Offer Complete for callers that only need the final text
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI and OpenAI-compatible endpoints, Anthropic, Ollama)
// implement the Model interface in sub-packages so higher layers (agents,
// orchestrator) remain decoupled from vendor SDKs. Retries and timeouts are
// the adapters' concern; NewRateLimited adds client-side throttling.
package model
