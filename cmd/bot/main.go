// Package main contains the entrypoint of the zanbot service.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/edgard/zanbot/internal/blacklist"
	"github.com/edgard/zanbot/internal/bot"
	"github.com/edgard/zanbot/internal/bot/handlers"
	"github.com/edgard/zanbot/internal/bot/tasks"
	"github.com/edgard/zanbot/internal/config"
	"github.com/edgard/zanbot/internal/database"
	"github.com/edgard/zanbot/internal/logger"
	"github.com/edgard/zanbot/internal/onebot"
	"github.com/edgard/zanbot/internal/session"
	"github.com/edgard/zanbot/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all components (config, logger, db, blacklist, OneBot
// client, web server, scheduler), runs them until ctx is cancelled and
// returns an exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to open database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	blocked := blacklist.NewStore(cfg.Blacklist.Path, log)
	if err := blocked.Load(); err != nil {
		log.Warn("Failed to load blacklist, starting empty", "path", cfg.Blacklist.Path, "error", err)
	}

	identity := &session.Identity{}

	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Session:   identity,
		Blacklist: blocked,
		Store:     store,
	}

	middlewares := append([]onebot.Middleware{logger.Middleware(log)}, handlers.EventMiddlewares(hDeps)...)
	client, err := onebot.New(cfg.OneBot.WSURL,
		onebot.WithAccessToken(cfg.OneBot.AccessToken),
		onebot.WithLogger(log),
		onebot.WithCallTimeout(cfg.OneBot.CallTimeout),
		onebot.WithReconnectInterval(cfg.OneBot.ReconnectInterval),
		onebot.WithMiddlewares(middlewares...),
		onebot.WithOnConnect(func(ctx context.Context, c *onebot.Client) {
			selfID, err := identity.Bootstrap(ctx, c)
			if err != nil {
				log.Warn("Failed to fetch login info, self mentions are not filtered", "error", err)
				return
			}
			log.Info("Retrieved login info", "self_id", selfID)
		}),
	)
	if err != nil {
		log.Error("Failed to create OneBot client", "error", err)
		return 1
	}
	hDeps.Actions = client
	client.SetDefaultHandler(handlers.NewCommandHandler(hDeps))

	var server bot.HTTPServer
	if cfg.HTTP.Enabled {
		srv, err := web.NewServer(cfg.HTTP.Addr, web.Deps{
			Blacklist: blocked,
			Store:     store,
			Session:   identity,
			Status:    client,
		}, log)
		if err != nil {
			log.Error("Failed to create HTTP server", "error", err)
			return 1
		}
		server = srv
	}

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, client, server, sched)

	log.Info("Starting zanbot", "onebot_url", cfg.OneBot.WSURL, "http_enabled", cfg.HTTP.Enabled,
		"reply_policy", cfg.Policy.Reply, "blacklist_policy", cfg.Policy.Blacklist)
	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Bot stopped due to error", "error", err)
		return 1
	}

	log.Info("Bot stopped gracefully")
	return 0
}
