// Package main - точка входа HTTP API карты отзывов о медицинских и
// городских объектах.
//
// Архитектура следует принципам Clean Architecture и DDD:
//   - Domain: чистая бизнес-логика (скоринг, уровни, достижения, лента)
//   - Application: оркестрация use cases (Commands/Queries/Engine)
//   - Infrastructure: PostgreSQL/SQLite, Redis, файловое хранилище, JWT
//   - Interface: REST API
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ingvionio/fullstack/config"

	// Application layer
	"github.com/ingvionio/fullstack/internal/application/command"
	"github.com/ingvionio/fullstack/internal/application/eventhandler"
	"github.com/ingvionio/fullstack/internal/application/query"
	"github.com/ingvionio/fullstack/internal/application/saga"
	"github.com/ingvionio/fullstack/internal/application/uow"

	// Domain layer
	"github.com/ingvionio/fullstack/internal/domain/shared"

	// Infrastructure layer
	"github.com/ingvionio/fullstack/internal/infrastructure/auth"
	"github.com/ingvionio/fullstack/internal/infrastructure/messaging"
	"github.com/ingvionio/fullstack/internal/infrastructure/persistence/postgres"
	"github.com/ingvionio/fullstack/internal/infrastructure/persistence/redis"
	"github.com/ingvionio/fullstack/internal/infrastructure/persistence/sqlite"
	"github.com/ingvionio/fullstack/internal/infrastructure/scheduler"
	"github.com/ingvionio/fullstack/internal/infrastructure/scheduler/jobs"
	"github.com/ingvionio/fullstack/internal/infrastructure/storage"

	// Interface layer
	httpserver "github.com/ingvionio/fullstack/internal/interface/http"
	"github.com/ingvionio/fullstack/internal/interface/http/handlers"

	// Packages
	"github.com/ingvionio/fullstack/pkg/circuitbreaker"
	"github.com/ingvionio/fullstack/pkg/logger"
	"github.com/ingvionio/fullstack/pkg/retry"
	"github.com/ingvionio/fullstack/pkg/tracing"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// database - реляционное хранилище, выбранное по DATABASE_URL.
type database interface {
	uow.UnitOfWork
	handlers.Pinger
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		Format:    logger.ParseFormat(cfg.Observability.LogFormat),
		AddCaller: cfg.IsDevelopment(),
	})
	log.Info("starting service",
		logger.String("name", cfg.App.Name),
		logger.String("version", cfg.App.Version),
		logger.String("env", string(cfg.App.Environment)),
	)

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:       cfg.Observability.TracingEndpoint,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    string(cfg.App.Environment),
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", logger.Err(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 2. БАЗА ДАННЫХ И МИГРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	db, closeDB, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database connection...")
		closeDB()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. EVENT BUS И ДВИЖОК ДОСТИЖЕНИЙ
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	bus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	engine := saga.NewAchievementEngine(saga.EngineConfig{
		Rewards: saga.Rewards{PointXP: cfg.Gamification.PointXP, MarkXP: cfg.Gamification.MarkXP},
		Logger:  log,
	})

	cmdDeps := command.Deps{UoW: db, Engine: engine, Publisher: bus, Logger: log}
	qryDeps := query.Deps{UoW: db, Engine: engine, Publisher: bus, Logger: log}

	seeded, err := command.SeedAchievements(ctx, cmdDeps)
	if err != nil {
		return fmt.Errorf("failed to seed achievements: %w", err)
	}
	log.Info("achievement catalog ready", logger.Int("inserted", seeded))

	if err := eventhandler.NewAuditLogger(log).Register(bus); err != nil {
		return fmt.Errorf("failed to register audit logger: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("database", handlers.PingCheck(db))

	var (
		ranking query.Ranking
		catalog query.CatalogCache
	)
	if !cfg.Redis.Disabled {
		cache, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, rankings served from database", logger.Err(err))
		} else {
			defer func() { _ = cache.Close() }()
			breaker := circuitbreaker.CacheBreaker(func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit breaker state changed",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()),
				)
			})
			board := redis.NewGuardedRanking(redis.NewLeaderboardCache(cache), breaker)
			catalogCache := redis.NewCatalogCache(cache)
			if err := catalogCache.Invalidate(ctx); err != nil {
				log.Warn("failed to drop cached achievement catalog", logger.Err(err))
			}
			ranking, catalog = board, catalogCache
			health.AddCheck("cache", handlers.PingCheck(cache))

			if err := eventhandler.NewLeaderboardProjector(board, db, log).Register(bus); err != nil {
				return fmt.Errorf("failed to register leaderboard projector: %w", err)
			}
			if ch := cfg.Redis.EventsChannel; ch != "" {
				host, _ := os.Hostname()
				forwarder := messaging.NewRedisForwarder(cache.Client(), ch, host)
				forward := func(event shared.Event) error {
					return breaker.Execute(context.Background(), func(context.Context) error {
						return forwarder.Handle(event)
					})
				}
				if err := bus.SubscribeAll(forward); err != nil {
					return fmt.Errorf("failed to register event forwarder: %w", err)
				}
			}
			log.Info("redis connection established")
		}
	}

	leaderboard := query.NewLeaderboardHandler(qryDeps, ranking)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ФОНОВЫЕ ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{Logger: log})
	if ranking != nil && cfg.Gamification.LeaderboardRebuildInterval > 0 {
		rebuild := jobs.NewRebuildLeaderboardJob(leaderboard, nil, log)
		if err := sched.Register(rebuild, scheduler.Every(cfg.Gamification.LeaderboardRebuildInterval)); err != nil {
			return fmt.Errorf("failed to register rebuild job: %w", err)
		}
		if _, err := sched.RunNow(ctx, rebuild.Name()); err != nil {
			log.Warn("initial leaderboard rebuild failed", logger.Err(err))
		}
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() { _ = sched.Stop() }()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.App.Name)
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}
	blobs := storage.NewLocalStore(cfg.Storage.MediaRoot, cfg.Storage.PublicPrefix, cfg.Storage.MaxUploadBytes)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.AllowedOrigins = cfg.HTTP.CORSOrigins
	httpConfig.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	httpConfig.LoginRatePerMinute = cfg.HTTP.LoginRatePerMinute
	httpConfig.LoginBurst = cfg.HTTP.LoginBurst
	httpConfig.MaxUploadBytes = cfg.Storage.MaxUploadBytes
	httpConfig.RequireAuth = cfg.Auth.RequireAuth
	httpConfig.MediaRoot = cfg.Storage.MediaRoot
	httpConfig.MediaPrefix = cfg.Storage.PublicPrefix
	httpConfig.FeedDefaultLimit = cfg.Gamification.FeedDefaultLimit
	httpConfig.Version = cfg.App.Version

	httpServer, err := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		Auth:          command.NewAuthHandler(cmdDeps, hasher, tokens),
		Users:         command.NewUserHandler(cmdDeps, hasher, blobs),
		Taxonomy:      command.NewTaxonomyHandler(cmdDeps),
		Points:        command.NewPointHandler(cmdDeps),
		Marks:         command.NewMarkHandler(cmdDeps, blobs),
		Content:       query.NewContentHandler(qryDeps),
		Achievements:  query.NewAchievementsHandler(qryDeps, catalog),
		Activity:      query.NewActivityHandler(qryDeps),
		Progress:      query.NewUserProgressHandler(qryDeps),
		Leaderboard:   leaderboard,
		Tokens:        tokens,
		HealthChecker: health,
		Logger:        log,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	}

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}
	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// openDatabase подключается к PostgreSQL или SQLite и применяет миграции.
func openDatabase(ctx context.Context, cfg *config.Config, log *logger.Logger) (database, func(), error) {
	dbCfg := cfg.Database

	if dbCfg.IsPostgres() {
		log.Info("connecting to postgres...")
		conn, err := retry.DoWithData(ctx, retry.DatabaseRetrier(), func(ctx context.Context) (*postgres.Connection, error) {
			return postgres.NewConnection(ctx, postgres.Config{
				URL:               dbCfg.URL,
				MaxConns:          int32(dbCfg.MaxOpenConns),
				MinConns:          int32(dbCfg.MinConns),
				MaxConnLifetime:   dbCfg.ConnMaxLifetime,
				MaxConnIdleTime:   dbCfg.ConnMaxIdleTime,
				HealthCheckPeriod: time.Minute,
			})
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if dbCfg.MigrateOnStart {
			if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
				conn.Close()
				return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		return conn, conn.Close, nil
	}

	log.Info("opening sqlite database...", logger.String("dsn", dbCfg.URL))
	db, err := retry.DoWithData(ctx, retry.DatabaseRetrier(), func(ctx context.Context) (*sqlite.DB, error) {
		return sqlite.Open(ctx, dbCfg.URL)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbCfg.MigrateOnStart {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return db, func() { _ = db.Close() }, nil
}

func connectRedis(ctx context.Context, rc config.RedisConfig) (*redis.Cache, error) {
	return retry.DoWithData(ctx, retry.CacheRetrier(), func(ctx context.Context) (*redis.Cache, error) {
		return redis.NewCache(ctx, redis.Config{
			URL:          rc.URL,
			Host:         rc.Host,
			Port:         rc.Port,
			Password:     rc.Password,
			DB:           rc.DB,
			PoolSize:     rc.PoolSize,
			MinIdleConns: 2,
			MaxRetries:   3,
			DialTimeout:  rc.DialTimeout,
			ReadTimeout:  rc.ReadTimeout,
			WriteTimeout: rc.WriteTimeout,
		})
	})
}
