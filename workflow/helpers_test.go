package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/tendermesh/agent"
	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/model"
	"github.com/hupe1980/tendermesh/notify"
	"github.com/hupe1980/tendermesh/project"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// countingStore wraps a ProjectStore, counts writes and injects failures.
type countingStore struct {
	core.ProjectStore
	mu           sync.Mutex
	updateWhole  int
	updateStatus int
	stages       []core.Stage
	failWhole    error
	failFrom     int // first UpdateWhole call that fails; 0 fails every call
	failGet      error
}

func (s *countingStore) Get(ctx context.Context, id string) (*core.Project, error) {
	s.mu.Lock()
	err := s.failGet
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.ProjectStore.Get(ctx, id)
}

func (s *countingStore) UpdateStatus(ctx context.Context, id string, stage core.Stage) error {
	s.mu.Lock()
	s.updateStatus++
	s.stages = append(s.stages, stage)
	s.mu.Unlock()
	return s.ProjectStore.UpdateStatus(ctx, id, stage)
}

func (s *countingStore) UpdateWhole(ctx context.Context, p *core.Project) error {
	s.mu.Lock()
	s.updateWhole++
	var err error
	if s.updateWhole >= s.failFrom {
		err = s.failWhole
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.ProjectStore.UpdateWhole(ctx, p)
}

func (s *countingStore) writes() (whole, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateWhole, s.updateStatus
}

func (s *countingStore) setFailWhole(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWhole = err
	s.failFrom = 0
}

func (s *countingStore) setFailWholeFrom(call int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWhole = err
	s.failFrom = call
}

// textExtractor returns fixed text regardless of input.
type textExtractor string

func (t textExtractor) ExtractText(context.Context, []byte) string { return string(t) }

// blockingModel blocks until the request context ends. started is closed on
// the first call.
type blockingModel struct {
	started chan struct{}
	once    sync.Once
}

func newBlockingModel() *blockingModel { return &blockingModel{started: make(chan struct{})} }

func (b *blockingModel) Generate(ctx context.Context, _ model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response)
	errCh := make(chan error, 1)
	b.once.Do(func() { close(b.started) })
	go func() {
		defer close(out)
		defer close(errCh)
		<-ctx.Done()
		errCh <- ctx.Err()
	}()
	return out, errCh
}

func (b *blockingModel) Info() model.Info { return model.Info{Name: "blocking", Provider: "test"} }

// failAfterModel delegates the first n calls and fails afterwards.
type failAfterModel struct {
	model.Model
	n     int32
	calls atomic.Int32
}

func (f *failAfterModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	if f.calls.Add(1) > f.n {
		out := make(chan model.Response)
		errCh := make(chan error, 1)
		errCh <- errors.New("model unavailable")
		close(out)
		close(errCh)
		return out, errCh
	}
	return f.Model.Generate(ctx, req)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) NotifyOutlineReady(ctx context.Context, projectID string, o *core.Outline) error {
	return m.Called(ctx, projectID, o).Error(0)
}

func (m *mockNotifier) NotifySectionReady(ctx context.Context, projectID string, s core.Section) error {
	return m.Called(ctx, projectID, s).Error(0)
}

func (m *mockNotifier) GetFeedback(ctx context.Context, projectID string) (string, error) {
	args := m.Called(ctx, projectID)
	return args.String(0), args.Error(1)
}

type harness struct {
	store *countingStore
	mem   *project.InMemoryStore
	model *model.MockModel
	inbox *notify.Inbox
	orch  *Orchestrator
}

func fixedClock() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }

func newHarness(t *testing.T, optFns ...func(o *Options)) *harness {
	t.Helper()
	mem := project.NewInMemoryStore()
	h := &harness{
		store: &countingStore{ProjectStore: mem},
		mem:   mem,
		model: model.NewMockModel("mock-llm", "mock"),
		inbox: notify.NewInbox(),
	}
	fns := append([]func(o *Options){func(o *Options) {
		o.Notifier = h.inbox
		o.Now = fixedClock
	}}, optFns...)
	h.orch = New(h.store, agent.NewFactory(), h.model, fns...)
	return h
}

func (h *harness) newProject(t *testing.T, name string) string {
	t.Helper()
	p, err := h.mem.Create(context.Background(), name, "tester")
	require.NoError(t, err)
	return p.ID
}

func (h *harness) get(t *testing.T, id string) *core.Project {
	t.Helper()
	p, err := h.mem.Get(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (h *harness) outline(t *testing.T, id string) *core.Outline {
	t.Helper()
	o, err := h.get(t, id).DecodeOutline()
	require.NoError(t, err)
	return o
}

// started runs StartWorkflow on a fresh project and returns its id and outline.
func (h *harness) started(t *testing.T) (string, *core.Outline) {
	t.Helper()
	id := h.newProject(t, "Acme RFP")
	res, err := h.orch.StartWorkflow(context.Background(), id, []byte("The city requires cloud hosting for 5 years."))
	require.NoError(t, err)
	require.Equal(t, core.StageOutlineGenerated, res.Stage)
	return id, res.Outline
}
