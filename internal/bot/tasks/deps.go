// Package tasks implements the scheduled maintenance tasks of the like
// history database.
package tasks

import (
	"log/slog"

	"github.com/edgard/zanbot/internal/config"
	"github.com/edgard/zanbot/internal/database"
)

// TaskDeps contains the dependencies of scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
