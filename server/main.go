package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"visitbadge/pkg/config"
	"visitbadge/pkg/identity"
	"visitbadge/pkg/telemetry"
)

var (
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	configPath = flag.String("config", "visitbadge.yaml", "Config file path")
	dbPath     = flag.String("db", "", "Database path (overrides config)")
	Version    = "dev"
)

type Server struct {
	cfg         *config.Config
	db          *gorm.DB
	store       *VisitStore
	throttle    *Throttle
	coordinator *Coordinator
	identity    identity.Provider
	logger      zerolog.Logger
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		stderrLogger := zerolog.New(os.Stderr)
		stderrLogger.Fatal().Err(err).Msg("failed to load config")
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		stderrLogger := zerolog.New(os.Stderr)
		stderrLogger.Fatal().Err(err).Msg("invalid config")
	}

	logger := newLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("visitbadge server starting")

	if cfg.SecretKey == "" {
		// Tokens derived from a per-process secret do not survive restarts.
		cfg.SecretKey = randomSecret()
		logger.Warn().Msg("no SECRET_KEY configured, generated a temporary one; IP tokens reset on restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracerProvider, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:    "visitbadge",
		ServiceVersion: Version,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
		LogSpans:       cfg.Tracing.LogSpans,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}

	store := NewVisitStore(db)
	if err := store.AutoMigrate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate schema")
	}

	throttle := NewThrottle(cfg.Visits.MaxNewBadgesPerDay, 24*time.Hour)
	coordinator := NewCoordinator(store, throttle, cfg.RateLimitWindow(), logger)

	srv := &Server{
		cfg:         cfg,
		db:          db,
		store:       store,
		throttle:    throttle,
		coordinator: coordinator,
		identity:    newIdentityProvider(cfg),
		logger:      logger,
	}

	sweeper := NewSweeper(store, throttle, cfg.SweepInterval(), cfg.RetentionHorizon(), logger)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweeper.Run(ctx)
	}()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(withRequestContext(logger))
	r.Use(withCORS())
	srv.registerBadgeRoutes(r)
	srv.registerStatsRoutes(r)

	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: r,
	}

	go func() {
		logger.Info().Str("listen", cfg.Listen).Str("identity_mode", cfg.Identity.Mode).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	<-sweepDone
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracer shutdown failed")
	}
	logger.Info().Msg("shutdown complete")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.JSON {
		return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(level).With().Timestamp().Logger()
}

func newIdentityProvider(cfg *config.Config) identity.Provider {
	if cfg.Identity.Mode == config.ModeCookie {
		return identity.Cookie{}
	}
	return identity.NewIPHash(cfg.SecretKey)
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("cannot read random bytes: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
