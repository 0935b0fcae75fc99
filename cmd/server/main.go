package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/blogpulse/internal/cache"
	"github.com/blogpulse/internal/config"
	"github.com/blogpulse/internal/counter"
	"github.com/blogpulse/internal/db"
	"github.com/blogpulse/internal/events"
	"github.com/blogpulse/internal/handler"
	"github.com/blogpulse/internal/logging"
	"github.com/blogpulse/internal/redisconn"
	"github.com/blogpulse/internal/router"
	"github.com/blogpulse/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to load config")
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)
	log := logging.Log

	// 初始化数据库
	if err := db.Init(db.Options{
		Driver:      cfg.DatabaseDriver,
		Path:        cfg.DatabasePath,
		DSN:         cfg.DatabaseDSN,
		ReplicaDSNs: cfg.DatabaseReplicaDSNs,
	}); err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		store     counter.Store
		responses cache.Cache
		closers   []func() error
	)
	if cfg.RedisAddr != "" {
		client, err := redisconn.Connect(ctx, redisconn.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Timeout:  cfg.StoreTimeout,
		})
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		closers = append(closers, client.Close)
		store = counter.NewRedisStore(client)
		responses = cache.NewRedisCache(client)
		log.WithField("addr", cfg.RedisAddr).Info("using redis for counters and response cache")
	} else {
		store = counter.NewMemoryStore()
		responses = cache.NewMemoryCache()
		log.Warn("REDIS_ADDR not set, using in-process counters and response cache")
	}

	analytics := service.NewAnalyticsService(db.DB)

	var (
		views     service.ViewScheduler
		viewQueue *service.ViewQueue
	)
	switch cfg.ViewTransport {
	case "amqp":
		broker, err := events.Dial(cfg.AMQPURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to rabbitmq")
		}
		if err := broker.Consume(ctx, analytics); err != nil {
			log.WithError(err).Fatal("failed to start view consumer")
		}
		closers = append(closers, broker.Close)
		views = broker.Publisher()
		log.Info("view registrations go through rabbitmq")
	default:
		viewQueue = service.NewViewQueue(analytics, cfg.ViewWorkers, cfg.ViewQueueSize)
		views = viewQueue
		log.WithFields(logrus.Fields{
			"workers":  cfg.ViewWorkers,
			"capacity": cfg.ViewQueueSize,
		}).Info("view registrations go through the in-process queue")
	}

	reconciler := service.NewReconciler(store, analytics, cfg.ReconcileInterval)
	var background sync.WaitGroup
	background.Add(1)
	go func() {
		defer background.Done()
		reconciler.Run(ctx)
	}()

	api := handler.NewAPI(handler.Dependencies{
		DB:           db.DB,
		Counter:      store,
		Cache:        responses,
		Views:        views,
		CacheTTL:     cfg.CacheTTL,
		StoreTimeout: cfg.StoreTimeout,
		APIKeys:      cfg.APIKeys,
	})
	if len(cfg.APIKeys) == 0 {
		log.Warn("API_KEYS is empty, every /posts request will be rejected")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(api, cfg.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server error")
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("received shutdown signal")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}

	cancel()
	background.Wait()

	if viewQueue != nil {
		if err := viewQueue.Close(shutdownCtx); err != nil {
			log.WithError(err).Warn("view queue did not drain")
		}
	}

	// Fold what was counted since the last tick before the stores go away.
	if report, err := reconciler.ReconcileOnce(shutdownCtx); err != nil {
		log.WithError(err).Warn("final reconcile failed")
	} else if report.Keys > 0 {
		log.WithField("impressions", report.Impressions).Info("final reconcile finished")
	}

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			log.WithError(err).Warn("close failed")
		}
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("server stopped gracefully")
}
