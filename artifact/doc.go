// Package artifact contains implementations of core.DocumentStore, the store
// for uploaded tender documents.
//
// The canonical DocumentStore interface lives in the core package to avoid
// dependency cycles and keep domain contracts central. Implementation packages
// like this one (in‑memory, local directory) provide storage backends that can
// be swapped without touching calling code.
//
// References have the form "<projectID>/<documentID>" and are opaque to
// callers; only the store that produced a reference can resolve it.
package artifact
