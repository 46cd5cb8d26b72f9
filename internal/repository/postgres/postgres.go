// Package postgres implements the primary document store on PostgreSQL.
//
// Each candidate record is one JSONB document keyed by id. The table has
// no other business columns: the document shape is owned by
// model.Developer, and Postgres only orders and deletes by key.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakif/intellicrawl/internal/model"
	"github.com/sakif/intellicrawl/internal/repository"
)

const (
	defaultMaxConns        = 10
	defaultMinConns        = 2
	defaultMaxConnLifetime = time.Hour
	defaultMaxConnIdleTime = 30 * time.Minute
)

// Config configures the connection pool. Zero values take the defaults above.
type Config struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DB wraps a pgx connection pool.
type DB struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ repository.DeveloperRepository = (*DB)(nil)

// New connects, pings, and creates the schema.
func New(ctx context.Context, cfg Config) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing connection string: %w", err)
	}

	poolCfg.MaxConns = orDefault(cfg.MaxConns, defaultMaxConns)
	poolCfg.MinConns = orDefault(cfg.MinConns, defaultMinConns)
	poolCfg.MaxConnLifetime = orDefault(cfg.MaxConnLifetime, defaultMaxConnLifetime)
	poolCfg.MaxConnIdleTime = orDefault(cfg.MaxConnIdleTime, defaultMaxConnIdleTime)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	db := &DB{pool: pool, now: time.Now}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *DB) migrate(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS developers (
			id              TEXT PRIMARY KEY,
			github_username TEXT NOT NULL DEFAULT '',
			document        JSONB NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_developers_created_at ON developers (created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating developers table: %w", err)
	}
	return nil
}

// Create stamps dev and inserts it. The reconciler replays fallback
// writes through here, so an id that already exists is skipped rather
// than overwritten: records are never updated in place.
func (db *DB) Create(ctx context.Context, dev *model.Developer) error {
	repository.Stamp(dev, db.now())

	doc, err := json.Marshal(dev)
	if err != nil {
		return fmt.Errorf("postgres: encoding developer %s: %w", dev.ID, err)
	}

	query := `
		INSERT INTO developers (id, github_username, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := db.pool.Exec(ctx, query,
		dev.ID, dev.GitHubUsername, string(doc), dev.CreatedAt, dev.UpdatedAt,
	); err != nil {
		return fmt.Errorf("postgres: creating developer %s: %w", dev.ID, err)
	}
	return nil
}

// List returns every document, newest first.
func (db *DB) List(ctx context.Context) ([]model.Developer, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT document FROM developers ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing developers: %w", err)
	}
	defer rows.Close()

	developers := []model.Developer{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("postgres: scanning developer row: %w", err)
		}
		var dev model.Developer
		if err := json.Unmarshal(doc, &dev); err != nil {
			return nil, fmt.Errorf("postgres: decoding developer document: %w", err)
		}
		developers = append(developers, dev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating developers: %w", err)
	}

	return developers, nil
}

// Delete removes a document. Zero rows affected is not an error.
func (db *DB) Delete(ctx context.Context, id string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM developers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("postgres: deleting developer %s: %w", id, err)
	}
	return nil
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
