package repository

import (
	"context"
	"errors"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"alertpnl/types"
)

// Global error declarations.
var (
	ErrAlertNotFound = errors.New("alert not found in datasource")
	ErrKeyNotFound   = errors.New("secret key not found in datasource")
)

const schema = `
CREATE TABLE IF NOT EXISTS alerts (
	id         TEXT PRIMARY KEY,
	strategy   TEXT NOT NULL,
	contract   TEXT NOT NULL DEFAULT '',
	trade_type TEXT NOT NULL DEFAULT '',
	quantity   NUMERIC NOT NULL DEFAULT 0,
	price      NUMERIC NOT NULL DEFAULT 0,
	secret_key TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS alerts_strategy_idx ON alerts (strategy);

CREATE TABLE IF NOT EXISTS secret_keys (
	id          TEXT PRIMARY KEY,
	secret_key  TEXT NOT NULL UNIQUE,
	strategy    TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS secret_keys_secret_idx ON secret_keys (secret_key);
`

type alertsRepository interface {
	InsertAlert(ctx context.Context, alert types.StoredAlert) error
	GetAlert(ctx context.Context, id string) (types.StoredAlert, error)
	ListAlerts(ctx context.Context) ([]types.StoredAlert, error)
	ListAlertsByStrategy(ctx context.Context, strategy string) ([]types.StoredAlert, error)
	UpdateAlert(ctx context.Context, alert types.StoredAlert) (int64, error)
	DeleteAlert(ctx context.Context, id string) (int64, error)
}

type keysRepository interface {
	InsertKey(ctx context.Context, key types.StrategyKey) error
	GetKeyBySecret(ctx context.Context, secret string) (types.StrategyKey, error)
	ListKeys(ctx context.Context) ([]types.StrategyKey, error)
	DeleteKey(ctx context.Context, id string) (int64, error)
}

// Database struct that holds the database connection and queries.
type Database struct {
	alerts alertsRepository
	keys   keysRepository
	conn   *pgxpool.Pool
}

// NewDatabase creates a new Database instance, verifies connectivity and
// applies the schema.
func NewDatabase(ctx context.Context, dbURL string) (Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return Database{}, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return Database{}, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(ctx); err != nil {
		return Database{}, err
	}
	if _, err := conn.Exec(ctx, schema); err != nil {
		return Database{}, fmt.Errorf("apply schema: %w", err)
	}

	q := &queries{conn: conn}
	return Database{
		alerts: q,
		keys:   q,
		conn:   conn}, nil
}

// Close releases the underlying connection pool.
func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}

type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queries implements the repository interfaces against a live pool.
type queries struct {
	conn pgxConn
}
