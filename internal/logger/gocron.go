package logger

import (
	"errors"
	"log/slog"

	"github.com/go-co-op/gocron/v2"

	apperrors "github.com/edgard/zanbot/internal/errors"
)

type gocronLogger struct {
	log *slog.Logger
}

// NewGocronLogger adapts log to the gocron.Logger interface.
//
//nolint:ireturn // gocron's API takes the interface
func NewGocronLogger(log *slog.Logger) gocron.Logger {
	if log == nil {
		log = slog.Default()
	}
	return &gocronLogger{log: log.With("source", "gocron")}
}

func (l *gocronLogger) Debug(msg string, args ...any) {
	l.log.Debug(msg, schedulerArgs(args)...)
}

func (l *gocronLogger) Info(msg string, args ...any) {
	l.log.Info(msg, schedulerArgs(args)...)
}

func (l *gocronLogger) Warn(msg string, args ...any) {
	l.log.Warn(msg, schedulerArgs(args)...)
}

func (l *gocronLogger) Error(msg string, args ...any) {
	l.log.Error(msg, schedulerArgs(args)...)
}

// schedulerArgs wraps error values so they carry an application error code.
func schedulerArgs(args []any) []any {
	out := make([]any, 0, len(args))
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			out = append(out, args[i])
			break
		}

		key, val := args[i], args[i+1]
		if err, ok := val.(error); ok && apperrors.Code(err) == apperrors.CodeUnknown {
			if errors.Is(err, gocron.ErrJobNotFound) {
				val = apperrors.NewValidationError("scheduled job not found", err)
			} else {
				val = apperrors.NewConfigError("scheduler error", err)
			}
		}
		out = append(out, key, val)
	}
	return out
}
