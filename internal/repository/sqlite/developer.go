package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sakif/intellicrawl/internal/model"
	"github.com/sakif/intellicrawl/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// If *DB stops satisfying FallbackRepository, this line fails the build
// instead of a distant call site.
var _ repository.FallbackRepository = (*DB)(nil)

// Create stamps dev (id, timestamps) and stores it as synced.
// Used when SQLite is the only store configured.
func (db *DB) Create(ctx context.Context, dev *model.Developer) error {
	repository.Stamp(dev, db.now())
	return db.Save(ctx, dev, false)
}

// Save inserts dev under its id. Records are never updated in place: if
// the id is already stored, the first write wins and Save is a no-op.
// The pending flag is only ever cleared through MarkSynced.
//
// PARAMETERIZED QUERIES: values always go through ? placeholders, never
// through string building.
func (db *DB) Save(ctx context.Context, dev *model.Developer, pending bool) error {
	if dev.ID == "" {
		return errors.New("sqlite: saving developer: empty id")
	}

	doc, err := json.Marshal(dev)
	if err != nil {
		return fmt.Errorf("sqlite: encoding developer %s: %w", dev.ID, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO developers (id, github_username, document, pending, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		dev.ID,
		dev.GitHubUsername,
		string(doc),
		boolToInt(pending),
		dev.CreatedAt.UTC(),
		dev.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving developer %s: %w", dev.ID, err)
	}
	return nil
}

// List returns every stored record, newest first.
func (db *DB) List(ctx context.Context) ([]model.Developer, error) {
	return db.query(ctx,
		`SELECT document FROM developers ORDER BY created_at DESC, rowid DESC`)
}

// ListPending returns records the primary store never acknowledged,
// oldest first so the reconciler replays them in write order.
func (db *DB) ListPending(ctx context.Context) ([]model.Developer, error) {
	return db.query(ctx,
		`SELECT document FROM developers WHERE pending = 1 ORDER BY created_at ASC, rowid ASC`)
}

// CountPending returns how many records are waiting for the reconciler.
func (db *DB) CountPending(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM developers WHERE pending = 1`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting pending developers: %w", err)
	}
	return n, nil
}

// MarkSynced clears the pending flag. An absent id is a no-op: the record
// may have been deleted between the reconciler's list and its write.
func (db *DB) MarkSynced(ctx context.Context, id string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE developers SET pending = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: marking developer %s synced: %w", id, err)
	}
	return nil
}

// Delete removes a record by id. Deleting an absent id succeeds, so the
// tiered store can always clear its mirror without checking first.
func (db *DB) Delete(ctx context.Context, id string) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM developers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting developer %s: %w", id, err)
	}
	return nil
}

// query runs a SELECT document ... statement and decodes each row.
//
// defer rows.Close() is not optional: an unclosed sql.Rows holds its
// pool connection forever.
func (db *DB) query(ctx context.Context, q string, args ...any) ([]model.Developer, error) {
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing developers: %w", err)
	}
	defer rows.Close()

	developers := []model.Developer{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("sqlite: scanning developer row: %w", err)
		}
		var dev model.Developer
		if err := json.Unmarshal([]byte(doc), &dev); err != nil {
			return nil, fmt.Errorf("sqlite: decoding developer document: %w", err)
		}
		developers = append(developers, dev)
	}

	// rows.Err catches failures that happened during iteration.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating developers: %w", err)
	}

	return developers, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
