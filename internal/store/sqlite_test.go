package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b4b-group/leadrank/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.Nil(t, run.FinishedAt)

	counts := model.RunCounts{Contacts: 120, Leads: 45, Deals: 9}
	require.NoError(t, s.CompleteRun(ctx, run.ID, counts))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
	assert.Equal(t, counts, got.Counts)
	require.NotNil(t, got.FinishedAt)
}

func TestSQLiteStore_FailRun(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)
	require.NoError(t, s.FailRun(ctx, run.ID, "ghl token refresh failed"))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "ghl token refresh failed", got.Error)
}

func TestSQLiteStore_CompleteRun_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)

	err := s.CompleteRun(context.Background(), "no-such-run", model.RunCounts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := s.CreateRun(ctx)
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, len(ids))
}

func TestSQLiteStore_Snapshots(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)

	first := []byte(`[{"id":"c1"}]`)
	require.NoError(t, s.SaveSnapshot(ctx, run.ID, SourceContacts, KindRaw, 1, first))

	got, err := s.GetSnapshot(ctx, run.ID, SourceContacts, KindRaw)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	// Re-saving the same run/source/kind replaces the payload.
	second := []byte(`[{"id":"c1"},{"id":"c2"}]`)
	require.NoError(t, s.SaveSnapshot(ctx, run.ID, SourceContacts, KindRaw, 2, second))

	got, err = s.GetSnapshot(ctx, run.ID, SourceContacts, KindRaw)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	// Missing snapshots come back nil without an error.
	got, err = s.GetSnapshot(ctx, run.ID, SourceDeals, KindClean)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpen_SQLiteDefault(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), Config{
		Driver:      "",
		DatabaseURL: filepath.Join(t.TempDir(), "open.db"),
	})
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	run, err := s.CreateRun(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
}
