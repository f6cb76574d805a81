package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"

	"github.com/joseph-ayodele/rx-intake/internal/common"
)

const (
	tableReviewItem    = "review_item"
	tableReviewPending = "review_pending"
)

const createReviewItem = `CREATE TABLE IF NOT EXISTS review_item (
	id          varchar(64) NOT NULL PRIMARY KEY,
	payload     text        NOT NULL,
	status      varchar(32) NOT NULL,
	corrections text,
	queued_at   varchar(40) NOT NULL,
	approved_at varchar(40)
)`

// review_pending.seq keeps enqueue order; the same item_id may appear more than once.
var createReviewPending = map[string]string{
	dialect.SQLite: `CREATE TABLE IF NOT EXISTS review_pending (
	seq     integer     PRIMARY KEY AUTOINCREMENT,
	item_id varchar(64) NOT NULL
)`,
	dialect.Postgres: `CREATE TABLE IF NOT EXISTS review_pending (
	seq     bigserial   PRIMARY KEY,
	item_id varchar(64) NOT NULL
)`,
}

const createPendingIndex = `CREATE INDEX IF NOT EXISTS review_pending_item_id ON review_pending (item_id)`

// Migrate creates the review tables if they do not exist.
func Migrate(ctx context.Context, db *DB) error {
	stmts, err := schemaStatements(db.Dialect())
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.SQL().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: migrate: %v", common.ErrStorageUnavailable, err)
		}
	}
	db.logger.Info("review store schema ready", "dialect", db.Dialect())
	return nil
}

func schemaStatements(d string) ([]string, error) {
	pending, ok := createReviewPending[d]
	if !ok {
		return nil, common.NewAppError("INVALID_CONFIG", fmt.Sprintf("no schema for dialect %q", d), common.ErrInvalidInput)
	}
	return []string{createReviewItem, pending, createPendingIndex}, nil
}
