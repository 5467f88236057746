// Package project contains implementations of core.ProjectStore.
//
// InMemoryStore is the volatile reference implementation used by tests,
// examples and the default server configuration. The sqlite subpackage
// provides a durable store with the same semantics. Both return copies from
// every read so callers never share state with the store.
package project
