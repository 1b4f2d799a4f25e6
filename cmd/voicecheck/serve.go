package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Vovarama1992/voicecheck/internal/audio"
	"github.com/Vovarama1992/voicecheck/internal/classifier"
	"github.com/Vovarama1992/voicecheck/internal/config"
	"github.com/Vovarama1992/voicecheck/internal/delivery"
	ws "github.com/Vovarama1992/voicecheck/internal/delivery/ws"
	"github.com/Vovarama1992/voicecheck/internal/domain"
	"github.com/Vovarama1992/voicecheck/internal/domain/stations"
	"github.com/Vovarama1992/voicecheck/internal/features"
	"github.com/Vovarama1992/voicecheck/internal/ports"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// LOGGER
	zcore, zl, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = zcore.Sync() }()

	// STORAGE
	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	if err := repos.migrator.Migrate(ctx); err != nil {
		return err
	}

	files, err := openFileStore(cfg)
	if err != nil {
		return err
	}

	// MODEL
	var clf ports.Classifier
	loaded, err := classifier.Load(cfg.Model.Path, cfg.Model.ScalerPath)
	if err != nil {
		zl.Log(logger.LogEntry{
			Level:   "error",
			Message: "model not loaded; /analyze will fail until artifacts are fixed",
			Fields:  map[string]any{"model": cfg.Model.Path, "scaler": cfg.Model.ScalerPath},
			Error:   err,
		})
	} else {
		clf = loaded
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "model and scaler loaded",
			Fields:  map[string]any{"features": loaded.Features()},
		})
	}

	// STATIONS
	decoder := audio.NewDecoder(cfg.Audio.FFmpegBinary, cfg.Audio.FFprobeBinary, cfg.Audio.FFmpegFallback)
	extractor := features.NewExtractor(features.DefaultConfig())

	s1 := stations.NewS1StoreUpload(files, zl)
	s2 := stations.NewS2DecodeAudio(decoder, zl)
	s3 := stations.NewS3ExtractFeatures(extractor, zl)
	s4 := stations.NewS4Classify(clf, zl)

	// SERVICES
	authService := domain.NewAuthService(repos.users, cfg.Auth.Secret, cfg.TokenTTL())
	analysisService := domain.NewAnalysisService(
		repos.analyses,
		files,
		s1, s2, s3, s4,
		cfg.Upload.AllowedExtensions,
		zl,
	)

	// HANDLERS
	authHandler := delivery.NewAuthHandler(authService, delivery.CookieConfig{
		Name:   cfg.Auth.CookieName,
		Secure: cfg.Auth.SecureCookie,
		TTL:    cfg.TokenTTL(),
	}, zl)
	analysisHandler := delivery.NewAnalysisHandler(analysisService, cfg.Upload.MaxBytes, cfg.Upload.DashboardLimit, zl)
	hub := ws.NewHub(zl)

	// ROUTER
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Auth"},
		AllowCredentials: true,
	}))
	r.Use(delivery.LoadUser(authService, cfg.Auth.CookieName, zl))

	delivery.RegisterRoutes(r, authHandler, analysisHandler)
	r.Get("/ws", ws.WSHandler(hub, delivery.CurrentUser, zl))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ws.Broadcast(gctx, hub, analysisService.Events(), zl)
	})

	g.Go(func() error {
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "server started",
			Fields: map[string]any{
				"port":    cfg.Server.Port,
				"db":      cfg.Database.Driver,
				"storage": cfg.Storage.Backend,
			},
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()

		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "shutting down",
		})
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zl.Log(logger.LogEntry{
			Level:   "error",
			Message: "server crashed",
			Error:   err,
		})
		return err
	}
	return nil
}
