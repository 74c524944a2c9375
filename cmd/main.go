package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/celestiaorg/trustgig/config"
	"github.com/celestiaorg/trustgig/internal/audit"
	"github.com/celestiaorg/trustgig/internal/db"
	"github.com/celestiaorg/trustgig/internal/db/repos"
	"github.com/celestiaorg/trustgig/internal/events"
	"github.com/celestiaorg/trustgig/internal/lock"
	"github.com/celestiaorg/trustgig/internal/logger"
	"github.com/celestiaorg/trustgig/internal/services"
	"github.com/celestiaorg/trustgig/internal/types"
	"github.com/celestiaorg/trustgig/internal/wallet"
	"github.com/celestiaorg/trustgig/pkg/api/v1/handlers"
	"github.com/celestiaorg/trustgig/pkg/api/v1/middleware"
	"github.com/celestiaorg/trustgig/pkg/api/v1/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load configuration: %v", err)
	}
	logger.InitializeAndConfigure(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(db.Options{
		Host:       cfg.Postgres.Host,
		User:       cfg.Postgres.User,
		Password:   cfg.Postgres.Password,
		DBName:     cfg.Postgres.Name,
		Port:       cfg.Postgres.Port,
		SSLEnabled: &cfg.Postgres.SSLEnabled,
		LogLevel:   gormlogger.Warn,
	})
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		logger.Fatalf("failed to listen on %s: %v", cfg.Server.Addr, err)
	}

	if err := run(ctx, cfg, database, ln); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}

// run wires the escrow on top of database and serves the API on ln until ctx
// is cancelled. It returns once the server, the watcher and the event sinks
// have stopped.
func run(ctx context.Context, cfg *config.Config, database *gorm.DB, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	locker, closeLocker, err := newLocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	book := wallet.NewBook(database)
	ledger := services.NewLedger(repos.NewLedgerRepository(database), book)
	escrow := services.NewEscrow(database, repos.NewJobRepository(database), ledger, locker, services.RealClock{}).
		WithPublisher(events.Publish)

	events.Start(ctx)
	if cfg.Audit.Dir != "" {
		writer := audit.NewWriter(cfg.Audit.Dir)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Errorf("failed to close audit log: %v", err)
			}
		}()
		events.SubscribeAll(writer.Handler())
		logger.Infof("writing audit log to %s", cfg.Audit.Dir)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go services.LaunchDeadlineWatcher(ctx, &wg, escrow, cfg.Watcher.Interval, cfg.Watcher.Batch)

	app := newApp(escrow, book, cfg.WalletFaucet)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
			logger.Errorf("failed to shut down server: %v", err)
		}
	}()

	logger.Infof("listening on %s", ln.Addr())
	err = app.Listener(ln)

	cancel()
	wg.Wait()
	return err
}

// newApp builds the fiber app serving the v1 API
func newApp(escrow *services.Escrow, book *wallet.Book, faucet bool) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(middleware.Logger())
	app.Use(middleware.Caller())

	jobHandlers := handlers.NewJobHandlers(escrow)
	routes.RegisterRoutes(app, jobHandlers, &handlers.RPCHandler{
		JobHandlers:     jobHandlers,
		AccountHandlers: handlers.NewAccountHandlers(book, faucet),
	})
	return app
}

// newLocker builds the lock backend selected by LOCK_BACKEND
func newLocker(ctx context.Context, cfg *config.Config) (lock.Locker, func(), error) {
	if cfg.Lock.Backend != config.LockBackendRedis {
		return lock.NewMemory(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	return lock.NewRedis(client, cfg.Lock.TTL), func() {
		if err := client.Close(); err != nil {
			logger.Errorf("failed to close redis client: %v", err)
		}
	}, nil
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(types.ErrorResponse{
		Error: err.Error(),
	})
}
