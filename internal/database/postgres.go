package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"coursemart/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// QueueDSN is the connection string for the lib/pq queue connection. Local
// databases run without TLS.
func QueueDSN(cfg *config.Config) string {
	dsn := cfg.DBConnectionString
	if cfg.IsDevelopment() && !strings.Contains(dsn, "sslmode") {
		dsn = appendParam(dsn, isURL(dsn), "sslmode=disable")
	}
	return dsn
}

// DSN is the connection string for the pgx pool. Hosted databases sit behind
// a transaction pooler that cannot serve server-side prepared statements.
func DSN(cfg *config.Config) string {
	dsn := QueueDSN(cfg)
	if !cfg.IsDevelopment() && !strings.Contains(dsn, "default_query_exec_mode") {
		dsn = appendParam(dsn, isURL(dsn), "default_query_exec_mode=simple_protocol")
	}
	return dsn
}

func isURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func appendParam(dsn string, urlStyle bool, param string) string {
	if !urlStyle {
		return dsn + " " + param
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}

// NewPool opens and pings a pgx connection pool.
func NewPool(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB connection string: %w", err)
	}
	poolCfg.MaxConns = 25
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	logger.Info().
		Str("host", poolCfg.ConnConfig.Host).
		Uint16("port", poolCfg.ConnConfig.Port).
		Msg("Database connection successful")
	return pool, nil
}

// OpenQueueDB opens the database/sql connection used by the pgmq workers.
func OpenQueueDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", QueueDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open queue DB: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping queue DB: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}
