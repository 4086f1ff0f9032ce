package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	tasks "github.com/goliatone/go-tasks"
	"github.com/goliatone/go-tasks/migrations"
	sqlstore "github.com/goliatone/go-tasks/store/sql"
	"github.com/goliatone/go-tasks/transport"
)

const defaultSQLiteDSN = "file:tasks.db?cache=shared&_foreign_keys=on"

type persistenceConfig struct {
	driver string
	server string
	debug  bool
}

func (c persistenceConfig) GetDebug() bool                { return c.debug }
func (c persistenceConfig) GetDriver() string             { return c.driver }
func (c persistenceConfig) GetServer() string             { return c.server }
func (c persistenceConfig) GetPingTimeout() time.Duration { return 5 * time.Second }
func (c persistenceConfig) GetOtelIdentifier() string     { return "go-tasks" }

func main() {
	_, logger := glog.Resolve("taskd", nil, nil)
	if err := run(logger); err != nil {
		logger.Error("taskd exited with error", "error", err.Error())
		os.Exit(1)
	}
}

func run(logger glog.Logger) error {
	cfg := tasks.DefaultConfig()
	if addr := strings.TrimSpace(os.Getenv("TASKS_HTTP_ADDR")); addr != "" {
		cfg.HTTPAddr = addr
	}
	if mode := strings.TrimSpace(os.Getenv("TASKS_TOKEN_MODE")); mode != "" {
		cfg.Token.Mode = mode
	}
	if key := strings.TrimSpace(os.Getenv("TASKS_TOKEN_SIGNING_KEY")); key != "" {
		cfg.Token.SigningKey = key
	}
	if raw := strings.TrimSpace(os.Getenv("TASKS_TOKEN_TTL_MINUTES")); raw != "" {
		ttl, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("taskd: parse TASKS_TOKEN_TTL_MINUTES: %w", err)
		}
		cfg.Token.TTLMinutes = ttl
	}

	client, err := openPersistence()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := applyMigrations(ctx, client); err != nil {
		return err
	}

	service, err := tasks.NewService(cfg,
		tasks.WithLogger(logger),
		tasks.WithPersistenceClient(client),
		tasks.WithRepositoryFactory(sqlstore.NewRepositoryFactory()),
	)
	if err != nil {
		return fmt.Errorf("taskd: build service: %w", err)
	}

	server, err := transport.NewServer(service,
		transport.WithServerLogger(logger),
		transport.WithListenAddr(cfg.HTTPAddr),
	)
	if err != nil {
		return fmt.Errorf("taskd: build server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("taskd: shutdown server: %w", err)
	}
	return <-errCh
}

func openPersistence() (*persistence.Client, error) {
	driver := strings.TrimSpace(os.Getenv("TASKS_DB_DRIVER"))
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := strings.TrimSpace(os.Getenv("TASKS_DB_DSN"))

	cfg := persistenceConfig{
		driver: driver,
		server: dsn,
		debug:  strings.TrimSpace(os.Getenv("TASKS_DB_DEBUG")) == "true",
	}

	switch driver {
	case "sqlite3":
		if cfg.server == "" {
			cfg.server = defaultSQLiteDSN
		}
		sqlDB, err := sql.Open("sqlite3", cfg.server)
		if err != nil {
			return nil, fmt.Errorf("taskd: open sqlite db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		return persistence.New(cfg, sqlDB, sqlitedialect.New())
	case "postgres":
		if cfg.server == "" {
			return nil, fmt.Errorf("taskd: TASKS_DB_DSN is required for postgres")
		}
		sqlDB, err := sql.Open("postgres", cfg.server)
		if err != nil {
			return nil, fmt.Errorf("taskd: open postgres db: %w", err)
		}
		return persistence.New(cfg, sqlDB, pgdialect.New())
	default:
		return nil, fmt.Errorf("taskd: unsupported db driver %q", driver)
	}
}

func applyMigrations(ctx context.Context, client *persistence.Client) error {
	driver := strings.TrimSpace(os.Getenv("TASKS_DB_DRIVER"))
	target := migrations.DialectSQLite
	if driver == "postgres" {
		target = migrations.DialectPostgres
	}

	_, err := migrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != target {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, migrations.WithValidationTargets(target))
	if err != nil {
		return fmt.Errorf("taskd: register migrations: %w", err)
	}
	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("taskd: apply migrations: %w", err)
	}
	return nil
}
