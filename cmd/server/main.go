package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"peerprep/interview/internal/config"
	"peerprep/interview/internal/feedback"
	"peerprep/interview/internal/handlers"
	"peerprep/interview/internal/history"
	"peerprep/interview/internal/interviewer"
	"peerprep/interview/internal/jobs"
	"peerprep/interview/internal/judge"
	"peerprep/interview/internal/llm"
	_ "peerprep/interview/internal/llm/gemini"
	"peerprep/interview/internal/llm/offline"
	"peerprep/interview/internal/metrics"
	"peerprep/interview/internal/problems"
	"peerprep/interview/internal/prompts"
	"peerprep/interview/internal/routers"
	"peerprep/interview/internal/session"
	"peerprep/interview/internal/storage"
	"peerprep/interview/internal/stuck"
	"peerprep/interview/internal/utils"
)

func registerRoutes(router *chi.Mux, cfg *config.Config, sessionHandler *handlers.SessionHandler, problemHandler *handlers.ProblemHandler,
	feedbackHandler *handlers.FeedbackHandler, historyHandler *handlers.HistoryHandler, healthHandler *handlers.HealthHandler) {
	routers.HealthRoutes(router, healthHandler)
	routers.SessionRoutes(router, sessionHandler, cfg.JWTSecret)
	routers.ProblemRoutes(router, problemHandler)
	routers.FeedbackRoutes(router, feedbackHandler, historyHandler)
}

func newProvider(name string, logger *zap.Logger) llm.Provider {
	provider, err := llm.NewProvider(name)
	if err == nil {
		return provider
	}
	logger.Warn("Failed to initialize AI provider, using offline interviewer",
		zap.String("provider", name), zap.Error(err))
	provider, err = llm.NewProvider(offline.Name)
	if err != nil {
		logger.Fatal("Offline provider unavailable", zap.Error(err))
	}
	return provider
}

func newStore(cfg *config.Config, logger *zap.Logger) (session.Store, func()) {
	if cfg.SessionStore != "redis" {
		return session.NewMemoryStore(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	store, err := session.NewRedisStore(rdb, cfg.SessionTimeout)
	if err != nil {
		logger.Fatal("Failed to initialize Redis session store", zap.Error(err))
	}
	logger.Info("Using Redis session store", zap.String("addr", cfg.RedisAddr))
	return store, func() {
		store.Close()
		_ = rdb.Close()
	}
}

func main() {
	// a missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("provider", cfg.Provider),
		zap.String("session_store", cfg.SessionStore),
		zap.String("db_driver", cfg.Database.Driver))

	catalog, err := problems.Load()
	if err != nil {
		logger.Fatal("Failed to load problem catalog", zap.Error(err))
	}

	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		logger.Fatal("Failed to initialize prompt manager", zap.Error(err))
	}

	provider := newProvider(cfg.Provider, logger)

	// Database backs feedback and history; the interview itself runs without it.
	var db *gorm.DB
	if cfg.DatabaseEnabled {
		db, err = storage.Open(cfg.Database)
		if err != nil {
			logger.Error("Failed to initialize database, feedback and history will be disabled", zap.Error(err))
			db = nil
		}
	}

	var (
		feedbackManager *feedback.Manager
		historyRepo     *history.Repository
		memory          interviewer.Memory
		historyWriter   session.HistoryWriter
		feedbackSink    session.FeedbackSink
	)
	if db != nil {
		feedbackManager = feedback.NewManager(db, cfg.FeedbackCacheTTL, logger)
		historyRepo = history.NewRepository(db)
		memory, feedbackSink, historyWriter = feedbackManager, feedbackManager, historyRepo
		logger.Info("Feedback and history enabled")
	}

	recorder := metrics.Recorder{}
	judgeClient := judge.NewClient(cfg.Judge, catalog, logger, judge.WithRecorder(recorder))
	gateway := interviewer.NewGateway(provider, promptManager, memory, logger)

	store, closeStore := newStore(cfg, logger)
	defer closeStore()

	controller := session.NewController(session.Deps{
		Store:       store,
		Executor:    judgeClient,
		Interviewer: gateway,
		Detector:    stuck.NewDetector(cfg.StuckErrorThreshold, cfg.StuckIdleThreshold),
		Problems:    catalog,
		History:     historyWriter,
		Feedback:    feedbackSink,
		Metrics:     recorder,
	}, cfg.SessionTimeout, logger)

	sweeper := jobs.NewSessionSweeperJob(controller, cfg.SweepSchedule, logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start session sweeper", zap.Error(err))
	}

	var exporter *jobs.FeedbackExporterJob
	if feedbackManager != nil {
		exporter = jobs.NewFeedbackExporterJob(feedbackManager, jobs.ExporterConfig{
			Schedule:  cfg.ExportSchedule,
			ExportDir: cfg.ExportDir,
			Enabled:   cfg.ExportEnabled,
		}, logger)
		if err := exporter.Start(); err != nil {
			logger.Error("Failed to start feedback exporter job", zap.Error(err))
		}
	}

	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	// no middleware.Timeout: it would cut off the websocket
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer, metrics.Middleware)

	registerRoutes(router, cfg,
		handlers.NewSessionHandler(controller, cfg.AllowedOrigins, logger),
		handlers.NewProblemHandler(catalog),
		handlers.NewFeedbackHandler(feedbackManager, logger),
		handlers.NewHistoryHandler(historyRepo, logger),
		handlers.NewHealthHandler(judgeClient, db, gateway.ProviderName()),
	)

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Interview service starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if feedbackManager != nil {
		g.Go(func() error {
			feedbackManager.Cache().Run(gctx, time.Minute)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Interview service shutting down...")

		sweeper.Stop()
		if exporter != nil {
			exporter.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
	logger.Info("Interview service exited")
}
