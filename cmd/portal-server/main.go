// cmd/portal-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"rental-portal/internal/audit"
	"rental-portal/internal/common/aws"
	"rental-portal/internal/common/config"
	"rental-portal/internal/common/database"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/common/observability"
	healthhandler "rental-portal/internal/handlers/health"
	"rental-portal/internal/search"
	"rental-portal/internal/server"
	"rental-portal/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting rental portal...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, cfg.App.Version)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := registry.LoadRegistry(cfg.Wizards.RegistryPath)
	if err != nil {
		zapLog.Fatal("wizard registry load failed", zap.Error(err))
	}
	zapLog.Info("Wizard registry loaded", zap.String("version", reg.Version), zap.Int("wizards", len(reg.Wizards)))

	deps := server.Deps{
		Registry: reg,
		Obs:      obs,
		Checks:   map[string]healthhandler.Pinger{},
	}

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	deps.Redis = rdb.Client
	deps.Checks["redis"] = rdb
	zapLog.Info("Redis connected successfully")

	// --- Init PostgreSQL with retry (submission audit) ---
	if cfg.Database.Postgres.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		if err := audit.NewRecorder(pg.DB, log).EnsureSchema(ctx); err != nil {
			zapLog.Fatal("audit schema setup failed", zap.Error(err))
		}
		deps.Postgres = pg.DB
		deps.Checks["postgres"] = pg
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Init Elasticsearch (suggestion source) ---
	if cfg.Search.Source == search.SourceElasticsearch {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		deps.Elastic = es.Client
		deps.Checks["elasticsearch"] = es
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init AWS notification senders ---
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config failed", zap.Error(err))
		}
		if cfg.Notifications.Email.Enabled {
			deps.Mailer = aws.NewMailer(awsCfg, cfg.Notifications.Email.FromEmail)
		}
		if cfg.Notifications.SMS.Enabled {
			deps.SMS = aws.NewSMSPublisher(awsCfg, cfg.Notifications.SMS.SenderID)
		}
		zapLog.Info("Notification senders configured",
			zap.Bool("email", cfg.Notifications.Email.Enabled),
			zap.Bool("sms", cfg.Notifications.SMS.Enabled),
		)
	}

	srv, err := server.New(cfg, deps, log)
	if err != nil {
		zapLog.Fatal("server setup failed", zap.Error(err))
	}

	if err := srv.Run(ctx); err != nil {
		zapLog.Error("HTTP server stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("Rental portal stopped")
}
