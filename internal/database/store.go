package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// Store defines the like history operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveLike inserts a like attempt and sets its ID and CreatedAt.
	SaveLike(ctx context.Context, record *LikeRecord) error

	// GetRecentLikes returns the newest attempts first.
	GetRecentLikes(ctx context.Context, limit int) ([]LikeRecord, error)

	// CountLikesSince counts successful attempts requested by senderID since t.
	CountLikesSince(ctx context.Context, senderID string, since time.Time) (int, error)

	// DeleteLikesBefore removes attempts older than t and returns how many were removed.
	DeleteLikesBefore(ctx context.Context, t time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveLike(ctx context.Context, record *LikeRecord) error {
	if record == nil {
		return errors.New("cannot save nil like record")
	}
	if record.TargetID == "" {
		return errors.New("like record must have a target_id")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	} else {
		record.CreatedAt = record.CreatedAt.UTC()
	}

	query := `
        INSERT INTO like_history (created_at, command, sender_id, group_id, target_id, times, success, error)
        VALUES (:created_at, :command, :sender_id, :group_id, :target_id, :times, :success, :error);
    `
	result, err := s.db.NamedExecContext(ctx, query, record)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving like record",
			"sender_id", record.SenderID, "target_id", record.TargetID, "error", err)
		return fmt.Errorf("failed to save like record (target %s): %w", record.TargetID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted like record id: %w", err)
	}
	record.ID = id
	return nil
}

func (s *sqlxStore) GetRecentLikes(ctx context.Context, limit int) ([]LikeRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	} else if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records := []LikeRecord{}
	query := `
        SELECT id, created_at, command, sender_id, group_id, target_id, times, success, error
        FROM like_history
        ORDER BY created_at DESC, id DESC
        LIMIT ?;
    `
	if err := s.db.SelectContext(ctx, &records, query, limit); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Error getting recent likes", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get recent likes: %w", err)
	}
	return records, nil
}

func (s *sqlxStore) CountLikesSince(ctx context.Context, senderID string, since time.Time) (int, error) {
	var count int
	query := `
        SELECT COUNT(*) FROM like_history
        WHERE sender_id = ? AND success = 1 AND created_at >= ?;
    `
	if err := s.db.GetContext(ctx, &count, query, senderID, since.UTC()); err != nil {
		return 0, fmt.Errorf("failed to count likes for %s: %w", senderID, err)
	}
	return count, nil
}

func (s *sqlxStore) DeleteLikesBefore(ctx context.Context, t time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM like_history WHERE created_at < ?;`, t.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting old likes", "before", t, "error", err)
		return 0, fmt.Errorf("failed to delete likes before %s: %w", t.Format(time.RFC3339), err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted row count: %w", err)
	}
	s.logger.InfoContext(ctx, "Deleted old like records", "count", n, "before", t)
	return n, nil
}

// RunSQLMaintenance runs VACUUM, which SQLite only allows outside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context done before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")
	start := time.Now()
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance failed", "error", err)
		return fmt.Errorf("failed to run VACUUM: %w", err)
	}
	s.logger.InfoContext(ctx, "Database maintenance completed", "duration", time.Since(start))
	return nil
}
