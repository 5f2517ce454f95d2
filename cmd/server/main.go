package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	identityapp "github.com/comercio/backend/internal/application/identity"
	ledgerapp "github.com/comercio/backend/internal/application/ledger"
	storeapp "github.com/comercio/backend/internal/application/store"
	"github.com/comercio/backend/internal/infrastructure/auth"
	"github.com/comercio/backend/internal/infrastructure/cache"
	"github.com/comercio/backend/internal/infrastructure/config"
	"github.com/comercio/backend/internal/infrastructure/logger"
	"github.com/comercio/backend/internal/infrastructure/persistence"
	"github.com/comercio/backend/internal/infrastructure/rates"
	"github.com/comercio/backend/internal/infrastructure/storage"
	"github.com/comercio/backend/internal/infrastructure/telemetry"
	"github.com/comercio/backend/internal/interfaces/http/handler"
	"github.com/comercio/backend/internal/interfaces/http/middleware"
	"github.com/comercio/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting back office API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled {
		if err := telemetry.InstrumentGorm(db.DB); err != nil {
			log.Warn("failed to instrument database tracing", zap.Error(err))
		}
	}
	log.Info("database connected")

	// Redis, optional. Without it the token blacklist and the rates
	// cache fall back to in-process implementations.
	var redisClient *redis.Client
	var blacklist auth.TokenBlacklist
	var ratesCache cache.Cache
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("error closing redis", zap.Error(err))
			}
		}()
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		ratesCache = cache.NewRedisCache(redisClient)
		log.Info("redis connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
		ratesCache = cache.NewMemoryCache()
		log.Warn("redis disabled, using in-process token blacklist and cache")
	}

	// Attachment storage
	var attachments storage.AttachmentStore
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3AttachmentStore(&cfg.Storage)
		if err != nil {
			log.Fatal("failed to initialize attachment storage", zap.Error(err))
		}
		attachments = s3Store
	} else {
		attachments = storage.NewStubAttachmentStore()
		log.Warn("object storage disabled, attachments are kept in memory")
	}

	// Exchange rates
	var ratesProvider rates.Provider = rates.NewCachedProvider(
		rates.NewBCVClient(cfg.Rates.BCVURL, cfg.Rates.Timeout),
		ratesCache,
		cfg.Rates.CacheTTL,
	)

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	storeRepo := persistence.NewGormStoreRepository(db.DB)
	recordRepo := persistence.NewGormRecordRepository(db.DB)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	storeService := storeapp.NewStoreService(storeRepo, userRepo, log)
	recordService := ledgerapp.NewRecordService(recordRepo)

	// HTTP stack
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORS(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	authenticator := middleware.NewAuthenticator(jwtService, blacklist, log)

	router.New(engine).Register(
		handler.NewSystemHandler(db, redisClient),
		handler.NewAuthHandler(authService, authenticator),
		handler.NewStoreHandler(storeService, authenticator),
		handler.NewLedgerHandler(recordService, attachments, authenticator, storeService),
		handler.NewRatesHandler(ratesProvider),
	).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("forced shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
