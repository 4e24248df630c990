package tasks

import (
	"context"
	"fmt"
	"time"
)

const pruneTimeout = time.Minute

// newHistoryPruneTask creates the task that deletes like history older than
// database.history_retention.
func newHistoryPruneTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", TaskHistoryPrune)

	return func(ctx context.Context) error {
		retention := deps.Config.Database.HistoryRetention
		if retention <= 0 {
			log.WarnContext(ctx, "History retention not set, skipping prune")
			return nil
		}

		cutoff := time.Now().Add(-retention)
		pruneCtx, cancel := context.WithTimeout(ctx, pruneTimeout)
		defer cancel()

		deleted, err := deps.Store.DeleteLikesBefore(pruneCtx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "History prune task failed", "error", err, "cutoff", cutoff)
			return fmt.Errorf("history prune failed: %w", err)
		}

		log.InfoContext(ctx, "History prune task completed", "deleted", deleted, "cutoff", cutoff)
		return nil
	}
}
