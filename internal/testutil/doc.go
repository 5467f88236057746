// Package testutil contains builders shared by tests across packages.
// It is internal to avoid exposing test-only helpers as public API.
package testutil
