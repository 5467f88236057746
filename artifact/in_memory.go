package artifact

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/tendermesh/core"
)

var _ core.DocumentStore = (*InMemoryStore)(nil)

// InMemoryStore is a trivial in‑process DocumentStore useful for tests,
// examples and single‑process prototypes. Data is copied on save / retrieval
// to avoid accidental external mutation of internal buffers.
//
// Layout: projectID -> documentID -> raw bytes
type InMemoryStore struct {
	mu        sync.RWMutex
	documents map[string]map[string][]byte
}

// NewInMemoryStore returns an empty in‑memory document store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{documents: make(map[string]map[string][]byte)}
}

// Save stores a copy of data under a fresh document id and returns its reference.
func (s *InMemoryStore) Save(ctx context.Context, projectID string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if projectID == "" {
		return "", fmt.Errorf("project id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[projectID]; !exists {
		s.documents[projectID] = make(map[string][]byte)
	}
	id := uuid.NewString()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.documents[projectID][id] = cp
	return Ref(projectID, id), nil
}

// Get returns a copy of the stored document or ErrNotFound.
func (s *InMemoryStore) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	projectID, id, err := SplitRef(ref)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.documents[projectID][id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the sorted references stored for the project. The slice is a
// snapshot and safe for caller mutation.
func (s *InMemoryStore) List(ctx context.Context, projectID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := make([]string, 0, len(s.documents[projectID]))
	for id := range s.documents[projectID] {
		refs = append(refs, Ref(projectID, id))
	}
	sort.Strings(refs)
	return refs, nil
}

// Delete removes the document if present or returns ErrNotFound.
func (s *InMemoryStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	projectID, id, err := SplitRef(ref)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.documents[projectID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m[id]; !ok {
		return ErrNotFound
	}
	delete(m, id)
	return nil
}
