package tasks

import (
	"context"
)

// Task names, matching the keys of scheduler.tasks in the config.
const (
	TaskSQLMaintenance = "sql_maintenance"
	TaskHistoryPrune   = "history_prune"
)

// ScheduledTaskFunc is the signature of every scheduled task.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns all scheduled tasks keyed by name.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	tasks[TaskSQLMaintenance] = newSQLMaintenanceTask(deps)
	tasks[TaskHistoryPrune] = newHistoryPruneTask(deps)

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
