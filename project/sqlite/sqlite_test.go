package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "tender.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p, err := s.Create(ctx, "Bridge", "alice")
	require.NoError(t, err)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "Bridge", got.Name)
	assert.Equal(t, "alice", got.CreatedBy)
	assert.Equal(t, core.StageInitial, got.Stage)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
	assert.Empty(t, got.Sections)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrProjectNotFound)
}

func TestStore_UpdateWholeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	p, err := s.Create(ctx, "Bridge", "alice")
	require.NoError(t, err)

	outline := testutil.DraftOutline(p.ID)
	require.NoError(t, p.EncodeOutline(outline))
	p.Stage = core.StageOutlineGenerated
	p.StructuredRequirements = "1. Steel bridge"
	p.RequirementDocumentRef = p.ID + "/doc"
	p.Sections = []core.Section{{ID: "s1", ProjectID: p.ID, Title: "Intro", Order: 1, Status: core.SectionPending}}
	require.NoError(t, s.UpdateWhole(ctx, p))

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StageOutlineGenerated, got.Stage)
	assert.Equal(t, "1. Steel bridge", got.StructuredRequirements)
	assert.Equal(t, p.RequirementDocumentRef, got.RequirementDocumentRef)
	assert.Equal(t, p.Sections, got.Sections)

	decoded, err := got.DecodeOutline()
	require.NoError(t, err)
	assert.Equal(t, outline.ID, decoded.ID)
	assert.Equal(t, outline.Content, decoded.Content)

	assert.ErrorIs(t, s.UpdateWhole(ctx, &core.Project{ID: "missing", Stage: core.StageInitial}), core.ErrProjectNotFound)
}

func TestStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	p, err := s.Create(ctx, "Bridge", "")
	require.NoError(t, err)

	require.NoError(t, s.UpdateStatus(ctx, p.ID, core.StageDocumentProcessingFailed))
	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StageDocumentProcessingFailed, got.Stage)

	assert.ErrorIs(t, s.UpdateStatus(ctx, "missing", core.StageInitial), core.ErrProjectNotFound)
}

func TestStore_CorruptOutlineSurvivesStorage(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	p, err := s.Create(ctx, "Bridge", "")
	require.NoError(t, err)

	p.CurrentOutline = "{not json"
	require.NoError(t, s.UpdateWhole(ctx, p))

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	_, err = got.DecodeOutline()
	assert.ErrorIs(t, err, core.ErrOutlineDecode)
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := Open(ctx, filepath.Join(t.TempDir(), "t.db"), func(o *Options) {
		o.Now = func() time.Time {
			tick = tick.Add(time.Second)
			return tick
		}
	})
	require.NoError(t, err)
	defer s.Close()

	first, _ := s.Create(ctx, "first", "")
	second, _ := s.Create(ctx, "second", "")

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "t.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	p, err := s.Create(ctx, "keep", "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	version, err := migrate(ctx, s.db)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	_, err = s.Get(ctx, p.ID)
	assert.NoError(t, err)
}
