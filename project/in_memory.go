package project

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/tendermesh/core"
)

var _ core.ProjectStore = (*InMemoryStore)(nil)

// Options configures an InMemoryStore.
type Options struct {
	// Now stamps CreatedAt / UpdatedAt; defaults to time.Now.
	Now func() time.Time
	// NewID generates project ids; defaults to uuid.NewString.
	NewID func() string
}

// InMemoryStore is a volatile ProjectStore storing projects in a process
// local map. It is safe for concurrent access. Each returned project is
// cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	projects map[string]*core.Project
	opts     Options
}

// NewInMemoryStore constructs an empty in‑memory project store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{Now: time.Now, NewID: uuid.NewString}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryStore{projects: make(map[string]*core.Project), opts: opts}
}

// Create stores a new project in stage Initial.
func (s *InMemoryStore) Create(ctx context.Context, name, createdBy string) (*core.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	now := s.opts.Now().UTC()
	p := &core.Project{
		ID:        s.opts.NewID(),
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
		Stage:     core.StageInitial,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.projects[p.ID]; exists {
		return nil, fmt.Errorf("project %s already exists", p.ID)
	}
	s.projects[p.ID] = p
	return p.Clone(), nil
}

// Put inserts or replaces a project as is. It is meant for seeding tests
// and imports.
func (s *InMemoryStore) Put(p *core.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p.Clone()
}

// Get returns a clone of the project or core.ErrProjectNotFound.
func (s *InMemoryStore) Get(ctx context.Context, id string) (*core.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, core.ErrProjectNotFound
	}
	return p.Clone(), nil
}

// List returns clones of all projects, newest first.
func (s *InMemoryStore) List(ctx context.Context) ([]*core.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]*core.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateStatus sets only the stage of a project.
func (s *InMemoryStore) UpdateStatus(ctx context.Context, id string, stage core.Stage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return core.ErrProjectNotFound
	}
	p.Stage = stage
	p.UpdatedAt = s.opts.Now().UTC()
	return nil
}

// UpdateWhole replaces the stored project with a clone of project.
func (s *InMemoryStore) UpdateWhole(ctx context.Context, project *core.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if project == nil {
		return fmt.Errorf("project is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.ID]; !ok {
		return core.ErrProjectNotFound
	}
	cp := project.Clone()
	cp.UpdatedAt = s.opts.Now().UTC()
	s.projects[project.ID] = cp
	return nil
}
