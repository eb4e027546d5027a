// Health coach API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ashureev/healthcoach/internal/answer"
	"github.com/ashureev/healthcoach/internal/api"
	"github.com/ashureev/healthcoach/internal/coach"
	"github.com/ashureev/healthcoach/internal/completion"
	"github.com/ashureev/healthcoach/internal/config"
	"github.com/ashureev/healthcoach/internal/dashboard"
	"github.com/ashureev/healthcoach/internal/identity"
	"github.com/ashureev/healthcoach/internal/middleware"
	"github.com/ashureev/healthcoach/internal/observe"
	"github.com/ashureev/healthcoach/internal/profile"
	"github.com/ashureev/healthcoach/internal/speech"
	"github.com/ashureev/healthcoach/internal/store"
	"github.com/ashureev/healthcoach/internal/translate"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(),
		"profile_backend", cfg.Profile.Backend, "progress_backend", cfg.Progress.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize stores.
	profiles, progress, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize stores", "error", err)
		os.Exit(1)
	}
	defer closeStores()

	lookup := profile.NewService(profiles, progress, logger)
	if err := lookup.Ping(ctx); err != nil {
		slog.Error("Store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Stores connected")

	if err := os.MkdirAll(cfg.AudioDir, 0755); err != nil {
		slog.Error("Failed to create audio directory", "error", err, "dir", cfg.AudioDir)
		os.Exit(1)
	}

	// Initialize metrics.
	metrics := observe.Noop()
	if cfg.MetricsEnabled {
		mp, err := observe.InitProvider()
		if err != nil {
			slog.Error("Failed to initialize metrics", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := mp.Shutdown(context.Background()); err != nil {
				slog.Warn("Failed to shut down meter provider", "error", err)
			}
		}()
		if metrics, err = observe.NewMetrics(mp); err != nil {
			slog.Error("Failed to create metric instruments", "error", err)
			os.Exit(1)
		}
	}

	// Initialize services.
	var completionOpts []completion.Option
	if cfg.Completion.BaseURL != "" {
		completionOpts = append(completionOpts, completion.WithBaseURL(cfg.Completion.BaseURL))
	}
	llm, err := completion.NewOpenAI(cfg.Completion.APIKey, cfg.Completion.Model, completionOpts...)
	if err != nil {
		slog.Error("Failed to initialize completion client", "error", err)
		os.Exit(1)
	}

	synth := answer.NewSynthesizer(llm, answer.Options{
		MaxTokens:   cfg.Completion.MaxTokens,
		Temperature: &cfg.Completion.Temperature,
	}, logger)
	renderer := speech.NewRenderer(cfg.AudioDir, speech.NewGoogleEngine(cfg.TTSBaseURL), logger)
	speech.StartTTLWorker(ctx, cfg.AudioDir, cfg.AudioTTL, logger, func(string) {
		metrics.ExpiredArtifacts.Add(ctx, 1)
	})

	coachSvc := coach.NewService(lookup, synth, renderer,
		coach.WithTranslator(translate.NewClient(cfg.TranslateBaseURL)),
		coach.WithMetrics(metrics),
		coach.WithDefaultLanguage(cfg.DefaultLanguage),
		coach.WithLogger(logger),
	)

	sm := dashboard.NewSessionManager(logger)
	defer sm.CloseAll()

	// Initialize handlers.
	baseHandler := api.NewHandler(coachSvc, cfg.AudioDir, cfg.AudioFileMode, logger)
	coachHandler := api.NewCoachHandler(baseHandler)
	healthHandler := api.NewHealthHandler(baseHandler)
	wsHandler := dashboard.NewWebSocketHandler(coachSvc, sm, metrics, cfg.AudioFileMode,
		cfg.AllowedOrigins, cfg.IsDevelopment(), logger)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(observe.Middleware(metrics))
	r.Use(identity.Middleware)

	healthHandler.RegisterRoutes(r)
	coachHandler.RegisterRoutes(r)
	r.Get("/ws/dashboard", wsHandler.ServeHTTP)
	if cfg.MetricsEnabled {
		r.Handle("/metrics", observe.Handler())
	}

	// Create server.
	// Answers wait on remote completion and TTS, so writes get a long timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout; the dashboard WebSocket is long-lived
		IdleTimeout:  120 * time.Second,
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// openStores builds the configured profile and progress stores. The
// returned close function releases every opened backend.
func openStores(ctx context.Context, cfg *config.Config) (store.ProfileStore, store.ProgressStore, func(), error) {
	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				slog.Error("Failed to close store", "error", err)
			}
		}
	}

	var sqlite *store.SQLiteStore
	if cfg.NeedsSQLite() {
		s, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlite = s
		closers = append(closers, s.Close)
	}

	var profiles store.ProfileStore = sqlite
	if cfg.Profile.Backend == config.BackendFirestore {
		fs, err := store.NewFirestore(ctx, cfg.Profile.ProjectID, cfg.Profile.CredentialsFile, cfg.Profile.Collection)
		if err != nil {
			closeAll()
			return nil, nil, nil, fmt.Errorf("open firestore: %w", err)
		}
		profiles = fs
		closers = append(closers, fs.Close)
	}

	var progress store.ProgressStore = sqlite
	if cfg.Progress.Backend == config.BackendRedis {
		rs, err := store.NewRedisProgress(ctx, cfg.Progress.RedisAddr, cfg.Progress.KeyPrefix)
		if err != nil {
			closeAll()
			return nil, nil, nil, fmt.Errorf("open redis: %w", err)
		}
		progress = rs
		closers = append(closers, rs.Close)
	}

	return profiles, progress, closeAll, nil
}
