// Package logger provides structured logging for zanbot.
// It uses Go's slog package with configurable levels and formats.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/edgard/zanbot/internal/onebot"
)

// NewLogger creates a new slog Logger with the specified level and format.
// If jsonOutput is true, logs will be formatted as JSON, otherwise as text.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	return newLogger(os.Stdout, levelStr, jsonOutput)
}

func newLogger(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Middleware creates a logging middleware for OneBot events.
// Message events are logged at info level, everything else at debug.
func Middleware(log *slog.Logger) onebot.Middleware {
	return func(next onebot.HandlerFunc) onebot.HandlerFunc {
		return func(ctx context.Context, ev *onebot.Event) {
			startTime := time.Now()

			logEntry := log.With(
				"post_type", ev.PostType,
				"self_id", ev.SelfID,
			)

			level := slog.LevelDebug
			if ev.PostType == onebot.PostTypeMessage {
				level = slog.LevelInfo
				logEntry = logEntry.With(
					"message_type", ev.MessageType,
					"message_id", ev.MessageID,
					"user_id", ev.UserID,
					"text_preview", truncateString(previewText(ev), 50),
				)
				if ev.GroupID != "" {
					logEntry = logEntry.With("group_id", ev.GroupID)
				}
			} else if ev.NoticeType != "" {
				logEntry = logEntry.With("notice_type", ev.NoticeType)
			}

			logEntry.Log(ctx, level, "Processing event")

			next(ctx, ev)

			logEntry.Log(ctx, level, "Finished processing event", "duration", time.Since(startTime))
		}
	}
}

func previewText(ev *onebot.Event) string {
	if ev.RawMessage != "" {
		return ev.RawMessage
	}
	var b strings.Builder
	for _, seg := range ev.Message {
		if seg.Type == onebot.SegmentText {
			b.WriteString(seg.Data.Text)
		}
	}
	return b.String()
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
