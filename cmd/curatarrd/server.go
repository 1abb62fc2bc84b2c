package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/vmunix/curatarr/internal/actions"
	v1 "github.com/vmunix/curatarr/internal/api/v1"
	"github.com/vmunix/curatarr/internal/arr"
	"github.com/vmunix/curatarr/internal/attributes"
	"github.com/vmunix/curatarr/internal/collection"
	"github.com/vmunix/curatarr/internal/config"
	"github.com/vmunix/curatarr/internal/enforcer"
	"github.com/vmunix/curatarr/internal/mediaserver"
	"github.com/vmunix/curatarr/internal/migrations"
	"github.com/vmunix/curatarr/internal/rules"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 { // Only capture first WriteHeader call
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func runServer(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return &config.ConfigError{Path: configPath, Errors: errs}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Database.Path+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// === Stores ===
	ruleStore := rules.NewStore(db)
	collectionStore := collection.NewStore(db)

	// === Media server ===
	var server mediaserver.Client
	switch cfg.MediaServer.Type {
	case "jellyfin":
		server = mediaserver.NewJellyfin(cfg.MediaServer.URL, cfg.MediaServer.Token,
			logger.With("component", "jellyfin"))
	default:
		server = mediaserver.NewPlex(cfg.MediaServer.URL, cfg.MediaServer.Token,
			logger.With("component", "plex"))
	}

	// === Clients (optional - nil if not configured) ===
	var radarr *arr.Radarr
	if cfg.Radarr != nil {
		radarr = arr.NewRadarr(cfg.Radarr.URL, cfg.Radarr.APIKey,
			logger.With("component", "radarr"))
	}
	var sonarr *arr.Sonarr
	if cfg.Sonarr != nil {
		sonarr = arr.NewSonarr(cfg.Sonarr.URL, cfg.Sonarr.APIKey,
			logger.With("component", "sonarr"))
	}
	var tautulli *attributes.Tautulli
	if cfg.Tautulli != nil {
		tautulli = attributes.NewTautulli(cfg.Tautulli.URL, cfg.Tautulli.APIKey,
			logger.With("component", "tautulli"))
	}

	// === Attribute resolution ===
	var history attributes.HistorySource
	if tautulli != nil {
		history = tautulli
	}
	resolver := attributes.NewResolver(logger.With("component", "attributes"))
	resolver.Register(rules.AppPlex, attributes.NewLibraryProvider(server, history))
	if radarr != nil {
		resolver.Register(rules.AppRadarr, attributes.NewRadarrProvider(radarr))
	}
	if sonarr != nil {
		resolver.Register(rules.AppSonarr, attributes.NewSonarrProvider(sonarr))
	}
	if tautulli != nil {
		resolver.Register(rules.AppTautulli, attributes.NewTautulliProvider(tautulli))
	}
	if cfg.Overseerr != nil {
		overseerr := attributes.NewOverseerr(cfg.Overseerr.URL, cfg.Overseerr.APIKey,
			logger.With("component", "overseerr"))
		resolver.Register(rules.AppOverseerr, attributes.NewOverseerrProvider(overseerr))
	}

	// === Services ===
	syncer := collection.NewSyncer(collectionStore, server, logger.With("component", "collections"))

	var movies arr.Manager
	if radarr != nil {
		movies = radarr
	}
	var shows arr.EpisodicManager
	if sonarr != nil {
		shows = sonarr
	}
	dispatcher := actions.NewDispatcher(movies, shows, server, collectionStore, syncer,
		logger.With("component", "actions"))

	catalog := rules.DefaultCatalog()
	coordinator := enforcer.New(enforcer.Deps{
		Rules:       ruleStore,
		Collections: collectionStore,
		Catalog:     catalog,
		Source:      resolver,
		Dispatcher:  dispatcher,
		Syncer:      syncer,
		Server:      server,
		PageSize:    cfg.Enforcement.PageSize,
	}, logger)

	scheduler := enforcer.NewScheduler(coordinator, ruleStore, cfg.Enforcement.Schedule,
		logger.With("component", "scheduler"))

	// === HTTP Setup ===
	mux := http.NewServeMux()
	api := v1.New(db, catalog, coordinator, logger)
	api.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting",
		"addr", addr,
		"database", cfg.Database.Path,
		"media_server", cfg.MediaServer.Type,
		"radarr", radarr != nil,
		"sonarr", sonarr != nil,
		"tautulli", tautulli != nil,
		"overseerr", cfg.Overseerr != nil,
		"schedule", cfg.Enforcement.Schedule,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	srv := &http.Server{Addr: addr, Handler: logRequests(mux, logger)}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
