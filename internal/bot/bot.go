// Package bot wires the OneBot client, the HTTP server and the scheduler
// together and manages their lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// EventSource is a long-running event listener such as *onebot.Client.
// Start blocks until ctx is cancelled.
type EventSource interface {
	Start(ctx context.Context)
}

// HTTPServer serves until ctx is cancelled.
type HTTPServer interface {
	Start(ctx context.Context) error
}

// Bot represents the running service and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	source    EventSource
	server    HTTPServer
	scheduler *Scheduler
}

// NewBot creates a Bot. server and scheduler may be nil when disabled.
func NewBot(logger *slog.Logger, source EventSource, server HTTPServer, scheduler *Scheduler) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		source:    source,
		server:    server,
		scheduler: scheduler,
	}
}

// Run starts all components and blocks until ctx is cancelled or one of them
// fails. A listener stopping while ctx is still live is an error.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting OneBot listener")
		b.source.Start(gCtx)
		b.logger.Info("OneBot listener stopped")

		if gCtx.Err() == nil {
			return fmt.Errorf("onebot listener stopped unexpectedly")
		}
		return nil
	})

	if b.server != nil {
		g.Go(func() error {
			if err := b.server.Start(gCtx); err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			if gCtx.Err() == nil {
				return fmt.Errorf("http server stopped unexpectedly")
			}
			return nil
		})
	}

	if b.scheduler != nil {
		g.Go(func() error {
			if err := b.scheduler.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully")
	return nil
}
