package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"todod/internal/config"
	"todod/internal/logging"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store owns the process-wide connection pool. gorm runs on top of the same
// pgx pool, so there is exactly one set of connections.
type Store struct {
	DB     *gorm.DB
	Pool   *pgxpool.Pool
	sql    io.Closer
	logger *log.Logger
}

// Options carries the service logger. gorm logs through it too unless
// GormLogger is set.
type Options struct {
	Logger     *log.Logger
	GormLogger gormlogger.Interface
}

func NewStore(ctx context.Context, cfg config.Config, opts Options) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dsn, err := config.NormalizeDatabaseURL(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if poolCfg.ConnConfig.TLSConfig == nil {
		return nil, errors.New("database connection must use TLS")
	}
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime()
	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = int32(min(cfg.DBMaxConns, math.MaxInt32))
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout())
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store, err := NewStoreFromPool(pool, opts)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func NewStoreFromPool(pool *pgxpool.Pool, opts Options) (*Store, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	sqlDB := stdlib.OpenDBFromPool(pool)
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	gcfg := &gorm.Config{TranslateError: true, Logger: opts.GormLogger}
	if gcfg.Logger == nil && opts.Logger != nil {
		gcfg.Logger = logging.NewGormLogger(opts.Logger)
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gcfg)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return &Store{DB: gdb, Pool: pool, sql: sqlDB, logger: logger}, nil
}

func (s *Store) Close() {
	if s == nil {
		return
	}
	if s.sql != nil {
		if err := s.sql.Close(); err != nil {
			s.logger.Warn("close sql handle", "err", err)
		}
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
}
