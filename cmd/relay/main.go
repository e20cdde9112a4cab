package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syncmeet/realtime/internal/api"
	"github.com/syncmeet/realtime/internal/archive"
	"github.com/syncmeet/realtime/internal/auth"
	"github.com/syncmeet/realtime/internal/config"
	"github.com/syncmeet/realtime/internal/connection"
	"github.com/syncmeet/realtime/internal/database"
	"github.com/syncmeet/realtime/internal/meetings"
	"github.com/syncmeet/realtime/internal/router"
	"github.com/syncmeet/realtime/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/relay.local.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("starting relay",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = logger.With("instance_id", cfg.Instance.ID)
	logger.Info("configuration loaded", "base_url", cfg.API.BaseURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// REST client and session
	session := auth.NewSession(cfg.API.Token)
	apiClient := api.NewClient(
		cfg.API.BaseURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, api.DefaultRetryBackoff),
		api.WithSession(session),
	)

	if !session.Authenticated() && cfg.API.Email != "" {
		creds := auth.Credentials{Email: cfg.API.Email, Password: cfg.API.Password}
		if err := apiClient.Login(ctx, creds); err != nil {
			logger.Error("login failed", "error", err)
			os.Exit(1)
		}
	}

	if session.Authenticated() {
		if profile, err := apiClient.GetUserProfile(ctx); err != nil {
			logger.Warn("failed to fetch user profile", "error", err)
		} else {
			logger.Info("authenticated", "user_id", profile.ID, "email", profile.Email)
		}
	}

	// Realtime
	registry := connection.NewRegistry(cfg.RegistryConfig(), logger, connection.WithHeaderSource(session))
	channels := connection.NewChannels(registry)

	rt := router.NewRouter(router.RouterConfig{BufferSize: cfg.Archive.BufferSize}, logger)

	// Archive
	var (
		pool *pgxpool.Pool
		arc  *archive.Archive
	)
	if cfg.Archive.Enabled {
		logger.Info("connecting to archive database",
			"host", cfg.Archive.Database.Host,
			"port", cfg.Archive.Database.Port,
			"database", cfg.Archive.Database.Name,
		)

		pool, err = database.Connect(ctx, cfg.Archive.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := archive.EnsureSchema(ctx, pool); err != nil {
			logger.Error("failed to prepare archive schema", "error", err)
			os.Exit(1)
		}

		arc = archive.New(archive.WriterConfig{
			BatchSize:     cfg.Archive.BatchSize,
			FlushInterval: cfg.Archive.FlushInterval,
		}, rt.Buffers(), pool, logger)
		arc.Start(ctx)
	} else {
		go discard(ctx, rt.Buffers())
	}

	if cfg.Realtime.Notifications {
		channels.ConnectToNotifications(rt.Handlers(connection.NotificationsEndpoint, channelLogger(logger, connection.NotificationsEndpoint)))
	}

	watcher := meetings.New(meetings.Config{
		Interval:    cfg.Watcher.Interval,
		Concurrency: cfg.Watcher.Concurrency,
		Timeout:     cfg.API.Timeout,
	}, apiClient, registry, meetings.Hooks{
		Handlers: func(endpoint string) connection.Handlers {
			return rt.Handlers(endpoint, channelLogger(logger, endpoint))
		},
		OnRoster: func(m api.Meeting, roster []api.Participant) {
			logger.Info("watching meeting", "meeting_id", m.ID, "title", m.Title, "participants", len(roster))
		},
		OnEnded: func(id string) {
			rt.Forget(connection.MeetingEndpoint(id))
			rt.Forget(connection.ChatEndpoint(id))
		},
	}, logger)

	if err := watcher.Start(ctx); err != nil {
		logger.Error("failed to start meeting watcher", "error", err)
		os.Exit(1)
	}

	var db pinger
	if pool != nil {
		db = pool
	}
	healthServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: newHealthHandler(healthDeps{
			registry: registry,
			router:   rt,
			watcher:  watcher,
			archive:  arc,
			db:       db,
		}),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("relay running",
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Health.Port),
	)

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	watcher.Stop(shutdownCtx)
	registry.Shutdown(shutdownCtx)
	rt.Close()
	if arc != nil {
		if err := arc.Stop(shutdownCtx); err != nil {
			logger.Warn("archive stop", "error", err)
		}
	}
	healthServer.Shutdown(shutdownCtx)

	logger.Info("relay stopped", "router", rt.Stats())
}

// channelLogger logs connection transitions and errors of one channel.
func channelLogger(logger *slog.Logger, endpoint string) connection.Handlers {
	logger = logger.With("endpoint", endpoint)
	return connection.Handlers{
		OnConnectionChange: func(connected bool) {
			logger.Info("channel state", "connected", connected)
		},
		OnChatMessage: func(msg connection.ChatMessage) {
			logger.Debug("chat", "meeting_id", msg.MeetingID, "sender", msg.SenderName)
		},
		OnError: func(err *connection.Error) {
			if err.Terminal() {
				logger.Error("channel failed", "error", err)
				return
			}
			logger.Warn("channel error", "kind", err.Kind, "error", err.Err)
		},
	}
}

// discard drains router buffers when no archive is configured.
func discard(ctx context.Context, bufs router.RouterBuffers) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-bufs.Chat.Ready():
			bufs.Chat.DrainTo(0)
		case <-bufs.Participant.Ready():
			bufs.Participant.DrainTo(0)
		case <-bufs.Notification.Ready():
			bufs.Notification.DrainTo(0)
		}
	}
}
