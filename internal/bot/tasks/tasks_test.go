package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/zanbot/internal/config"
	"github.com/edgard/zanbot/internal/database"
)

type failingStore struct {
	database.Store
	err error
}

func (s failingStore) RunSQLMaintenance(context.Context) error { return s.err }

func (s failingStore) DeleteLikesBefore(context.Context, time.Time) (int64, error) { return 0, s.err }

func testDeps(t *testing.T, store database.Store, retention time.Duration) TaskDeps {
	t.Helper()
	return TaskDeps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:  store,
		Config: &config.Config{Database: config.DatabaseConfig{HistoryRetention: retention}},
	}
}

func newSQLiteStore(t *testing.T) database.Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "zanbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	return database.NewStore(db, nil)
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	tasks := RegisterAllTasks(testDeps(t, failingStore{}, time.Hour))
	assert.Len(t, tasks, 2)
	assert.Contains(t, tasks, TaskSQLMaintenance)
	assert.Contains(t, tasks, TaskHistoryPrune)
}

func TestHistoryPruneTask(t *testing.T) {
	t.Parallel()

	store := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, age := range []time.Duration{72 * time.Hour, 49 * time.Hour, time.Hour} {
		require.NoError(t, store.SaveLike(ctx, &database.LikeRecord{
			CreatedAt: now.Add(-age), Command: database.CommandLikeSelf,
			SenderID: "1", TargetID: "1", Times: 10, Success: true,
		}))
	}

	task := newHistoryPruneTask(testDeps(t, store, 48*time.Hour))
	require.NoError(t, task(ctx))

	records, err := store.GetRecentLikes(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.WithinDuration(t, now.Add(-time.Hour), records[0].CreatedAt, time.Second)
}

func TestHistoryPruneSkipsWithoutRetention(t *testing.T) {
	t.Parallel()

	task := newHistoryPruneTask(testDeps(t, failingStore{err: errors.New("must not be called")}, 0))
	require.NoError(t, task(context.Background()))
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	require.NoError(t, newSQLMaintenanceTask(testDeps(t, newSQLiteStore(t), time.Hour))(context.Background()))
}

func TestTasksWrapStoreErrors(t *testing.T) {
	t.Parallel()

	cause := errors.New("locked")
	deps := testDeps(t, failingStore{err: cause}, time.Hour)

	require.ErrorIs(t, newSQLMaintenanceTask(deps)(context.Background()), cause)
	require.ErrorIs(t, newHistoryPruneTask(deps)(context.Background()), cause)
}
