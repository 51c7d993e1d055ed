package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"linetracker/internal/config"
	cronrunner "linetracker/internal/cron"
	"linetracker/internal/db"
	"linetracker/internal/feed"
	"linetracker/internal/handler"
	"linetracker/internal/logger"
	"linetracker/internal/predictions"
	"linetracker/internal/ratings"
	gormrepository "linetracker/internal/repository/gorm"
	"linetracker/internal/session"
)

func main() {
	cfgPath := os.Getenv("LT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("LT_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The database is optional: a live session can run snapshot-only.
	var store *gormrepository.Store
	var dbConn *db.DB
	if strings.TrimSpace(cfg.DB.DSN) != "" {
		dbConn, err = db.Open(cfg.DB)
		if err != nil {
			logger.Fatal("db open failed", zap.Error(err))
		}
		defer db.Close(dbConn)
		if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
			logger.Warn("failed to set timezone", zap.Error(err))
		}
		if err := db.AutoMigrate(dbConn); err != nil {
			logger.Fatal("auto-migrate failed", zap.Error(err))
		}
		store = gormrepository.New(dbConn.Gorm)
	}

	provider := loadPredictions(ctx, cfg, store, logger)

	feedClient := &feed.Client{
		NegotiateURL:     cfg.Feed.NegotiateURL,
		APIKey:           cfg.Feed.APIKey,
		HTTP:             &http.Client{Timeout: cfg.Feed.HandshakeTimeout},
		HandshakeTimeout: cfg.Feed.HandshakeTimeout,
		ReadTimeout:      cfg.Feed.ReadTimeout,
		Logger:           logger,
	}

	subs := make([]feed.SubscriptionSpec, 0, len(cfg.Feed.Subscriptions))
	for _, s := range cfg.Feed.Subscriptions {
		subs = append(subs, feed.SubscriptionSpec{Hub: s.Hub, Method: s.Method, League: s.League})
	}

	sess := session.New(feedClient, provider, logger, session.Config{
		SteamThreshold:       cfg.Tracker.SteamThreshold,
		ValueEdgeThreshold:   cfg.Tracker.ValueEdgeThreshold,
		ReconnectBackoff:     cfg.Tracker.ReconnectBackoff,
		ReconnectBackoffMax:  cfg.Tracker.ReconnectBackoffMax,
		MaxReconnectAttempts: cfg.Tracker.MaxReconnectAttempts,
		SessionDuration:      cfg.Tracker.SessionDuration,
		Subscriptions:        subs,
	})
	sess.Observe(&session.LogObserver{Logger: logger})

	cronRunner := cronrunner.New(logger, ctx)

	var writer *session.SnapshotWriter
	if store != nil && cfg.Snapshots.Enabled {
		writer = &session.SnapshotWriter{Session: sess, Repo: store, Logger: logger}
		spec := "@every " + cfg.Snapshots.FlushInterval.String()
		if _, err := cronRunner.Add(spec, func(ctx context.Context) {
			if err := writer.Flush(ctx); err != nil {
				logger.Warn("snapshot flush failed", zap.Error(err))
			}
		}); err != nil {
			logger.Warn("cron register snapshot flush failed", zap.Error(err))
		}
		if _, err := cronRunner.Add("@every 6h", func(ctx context.Context) {
			cutoff := time.Now().UTC().Add(-cfg.Snapshots.Retention)
			n, err := store.DeleteLineSnapshotsBefore(ctx, cutoff)
			if err != nil {
				logger.Warn("snapshot retention sweep failed", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Info("old line snapshots deleted", zap.Int64("rows", n))
			}
		}); err != nil {
			logger.Warn("cron register snapshot retention failed", zap.Error(err))
		}
	}

	if store != nil && cfg.Ratings.Enabled {
		syncer := &ratings.Syncer{
			Repo:    store,
			Logger:  logger,
			HTTP:    &http.Client{Timeout: cfg.Ratings.Timeout},
			BaseURL: cfg.Ratings.BaseURL,
			Season:  cfg.Ratings.Season,
			Retries: cfg.Ratings.Retries,
		}
		if _, err := cronRunner.Add(cfg.Ratings.Schedule, func(ctx context.Context) {
			if err := syncer.Sync(ctx); err != nil {
				logger.Warn("ratings sync failed", zap.Error(err))
			}
		}); err != nil {
			logger.Warn("cron register ratings sync failed", zap.Error(err))
		}
	}

	cronRunner.Start()
	defer cronRunner.Stop()

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{}
	if dbConn != nil {
		healthHandler.DB = dbConn.Gorm
	}
	healthHandler.Register(engine)
	sessionHandler := &handler.SessionHandler{
		Session:     sess,
		Predictions: provider,
		Threshold:   cfg.Tracker.ValueEdgeThreshold,
		Logger:      logger,
	}
	sessionHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sessDone := make(chan error, 1)
	go func() {
		sessDone <- sess.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	case err := <-sessDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("tracking session stopped", zap.Error(err))
		} else {
			logger.Info("tracking session finished")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if writer != nil {
		if err := writer.Flush(shutdownCtx); err != nil {
			logger.Warn("final snapshot flush failed", zap.Error(err))
		}
		if err := writer.Summarize(shutdownCtx); err != nil {
			logger.Warn("session summary write failed", zap.Error(err))
		}
	}
	_ = srv.Shutdown(shutdownCtx)
}

func loadPredictions(ctx context.Context, cfg config.Config, store *gormrepository.Store, logger *zap.Logger) predictions.Provider {
	if strings.TrimSpace(cfg.Predictions.Path) != "" {
		table, err := predictions.LoadFile(cfg.Predictions.Path)
		if err != nil {
			logger.Fatal("predictions file load failed", zap.Error(err))
		}
		logger.Info("predictions loaded from file", zap.String("path", cfg.Predictions.Path), zap.Int("rows", table.Len()))
		return table
	}
	if store != nil {
		table, err := predictions.FromStore(ctx, store, time.Now().UTC().Truncate(24*time.Hour))
		if err != nil {
			logger.Fatal("predictions table load failed", zap.Error(err))
		}
		logger.Info("predictions loaded from database", zap.Int("rows", table.Len()))
		return table
	}
	logger.Warn("no predictions source configured; edge assessment disabled")
	return nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
