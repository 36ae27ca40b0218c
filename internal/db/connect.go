package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskapi/internal/logger"
	"taskapi/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// PoolConfig bounds the connection pool of either driver.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
	MaxConnLifetime time.Duration
}

// Config selects and sizes the task store.
type Config struct {
	URL  string
	Pool PoolConfig
}

// Store is the task store handle shared by all requests.
type Store struct {
	Tasks repository.TaskRepository

	driver string
	ping   func(ctx context.Context) error
	close  func()
}

// Open connects to the store named by cfg.URL, verifies it answers and
// creates the tasks table when it is missing.
func Open(ctx context.Context, cfg Config, opts ...repository.Option) (*Store, error) {
	driver, dsn, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	var (
		store *Store
		tasks repository.TaskRepository
	)
	switch driver {
	case DriverPostgres:
		pool, err := ConnectPostgres(ctx, dsn, cfg.Pool)
		if err != nil {
			return nil, err
		}
		tasks = repository.NewPostgresTaskRepository(pool, opts...)
		store = &Store{driver: driver, ping: pool.Ping, close: pool.Close}
	case DriverSQLite:
		gdb, err := OpenSQLite(ctx, dsn, cfg.Pool)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		tasks = repository.NewSQLiteTaskRepository(gdb, opts...)
		store = &Store{
			driver: driver,
			ping:   sqlDB.PingContext,
			close: func() {
				if err := sqlDB.Close(); err != nil {
					logger.Warn("failed to close sqlite database", "error", err)
				}
			},
		}
	}

	if err := tasks.EnsureSchema(ctx); err != nil {
		store.close()
		return nil, err
	}
	store.Tasks = repository.Instrument(tasks, driver)

	logger.Info("database connected", "driver", driver)
	return store, nil
}

// Driver names the backing database.
func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases every pooled connection.
func (s *Store) Close() {
	s.close()
	logger.Info("database closed", "driver", s.driver)
}

// ParseURL maps a DATABASE_URL to a driver and its DSN.
//
//	postgres://… postgresql://…   pgx
//	sqlite://path                  SQLite file at path
//	file:…  :memory:               SQLite DSN as given
func ParseURL(url string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(url, "sqlite://")
		if path == "" {
			return "", "", errors.New("sqlite url has no path")
		}
		return DriverSQLite, path, nil
	case strings.HasPrefix(url, "file:"), strings.HasPrefix(url, ":memory:"):
		return DriverSQLite, url, nil
	default:
		return "", "", fmt.Errorf("unsupported database url %q", url)
	}
}

func ConnectPostgres(ctx context.Context, dsn string, pc PoolConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if pc.MaxConns > 0 {
		cfg.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 {
		cfg.MinConns = pc.MinConns
	}
	if pc.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = pc.MaxConnIdleTime
	}
	if pc.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = pc.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func OpenSQLite(ctx context.Context, dsn string, pc PoolConfig) (*gorm.DB, error) {
	inMemory := isInMemory(dsn)
	if !inMemory && !strings.Contains(dsn, "_busy_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_busy_timeout=5000"
	}

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}

	// Every connection to :memory: sees its own empty database, so an
	// in-memory store must live on exactly one connection that never expires.
	if inMemory {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxIdleTime(0)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		if pc.MaxConns > 0 {
			sqlDB.SetMaxOpenConns(int(pc.MaxConns))
		}
		if pc.MinConns > 0 {
			sqlDB.SetMaxIdleConns(int(pc.MinConns))
		}
		sqlDB.SetConnMaxIdleTime(pc.MaxConnIdleTime)
		sqlDB.SetConnMaxLifetime(pc.MaxConnLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return gdb, nil
}

func isInMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
