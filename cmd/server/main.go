package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/youthloop/carboncity/internal/catalog"
	"github.com/youthloop/carboncity/internal/config"
	"github.com/youthloop/carboncity/internal/game"
	"github.com/youthloop/carboncity/internal/repository"
	"github.com/youthloop/carboncity/internal/rules"
	"github.com/youthloop/carboncity/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting carboncity server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	db, err := repository.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	stats := db.Stats()
	logger.Info("database connection pool initialized",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("idle_conns", stats.IdleConns()),
	)

	// The card catalog and rule configuration must load before any session
	// is served; the server fails closed on missing or invalid config.
	cardCatalog := catalog.New(catalog.NewFileSource(cfg.Game.CardCatalogPath), logger)
	if err := cardCatalog.Reload(ctx); err != nil {
		logger.Fatal("failed to load card catalog", zap.Error(err))
	}

	ruleStore := rules.NewStore(repository.NewRuleConfigRepository(db), logger)
	if err := ruleStore.Reload(ctx); err != nil {
		logger.Fatal("failed to load rule configuration", zap.Error(err))
	}

	sessionRepo := repository.NewSessionRepository(db)
	actionRepo := repository.NewActionRepository(db)

	gameSvc := game.NewService(cardCatalog, ruleStore, sessionRepo, actionRepo, logger,
		game.WithGuestTTL(cfg.Game.GuestSessionTTL))
	logger.Info("game service initialized",
		zap.Duration("guest_session_ttl", cfg.Game.GuestSessionTTL),
	)

	go gameSvc.RunGuestEviction(ctx, cfg.Game.GuestSweepInterval)

	srv := server.New(gameSvc, cardCatalog, ruleStore, logger)
	go func() {
		if serveErr := srv.Run(cfg.Server.Address); serveErr != nil {
			logger.Error("gateway server error", zap.Error(serveErr))
		}
	}()

	logger.Info("carboncity server initialized",
		zap.String("version", version),
		zap.String("address", cfg.Server.Address),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("gateway shutdown", zap.Error(err))
	}

	logger.Info("carboncity server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
