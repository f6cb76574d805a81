package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/rx-intake/constants"
	"github.com/joseph-ayodele/rx-intake/internal/common"
	"github.com/joseph-ayodele/rx-intake/internal/entity"
)

// ReviewStore persists review items and their pending order.
type ReviewStore interface {
	Insert(ctx context.Context, item entity.ReviewItem) error
	Get(ctx context.Context, id string) (entity.ReviewItem, error)
	PendingIDs(ctx context.Context) ([]string, error)
	Approve(ctx context.Context, id string, apply func(*entity.ReviewItem)) (entity.ReviewItem, error)
	AppendPending(ctx context.Context, id string) error
}

type reviewStore struct {
	db     *DB
	logger *slog.Logger
}

func NewReviewStore(db *DB, logger *slog.Logger) ReviewStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &reviewStore{db: db, logger: logger}
}

var itemColumns = []string{"id", "payload", "status", "corrections", "queued_at", "approved_at"}

func (s *reviewStore) builder() *entsql.DialectBuilder { return entsql.Dialect(s.db.Dialect()) }

// Insert stores the payload and appends it to the pending order in one transaction.
func (s *reviewStore) Insert(ctx context.Context, item entity.ReviewItem) error {
	payload, corrections, err := encodeItem(item)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		q, args := s.builder().Insert(tableReviewItem).
			Columns(itemColumns...).
			Values(item.ID, payload, string(item.Status), corrections, formatTime(item.QueuedAt), formatTimePtr(item.ApprovedAt)).
			Query()
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert review item: %w", err)
		}
		return s.appendPending(ctx, tx, item.ID)
	})
}

func (s *reviewStore) Get(ctx context.Context, id string) (entity.ReviewItem, error) {
	q, args := s.builder().Select(itemColumns...).
		From(entsql.Table(tableReviewItem)).
		Where(entsql.EQ("id", id)).
		Query()
	item, err := scanItem(s.db.SQL().QueryRowContext(ctx, q, args...))
	if err != nil {
		return entity.ReviewItem{}, s.readError(id, err)
	}
	return item, nil
}

// PendingIDs returns pending ids in enqueue order. An id may repeat.
func (s *reviewStore) PendingIDs(ctx context.Context) ([]string, error) {
	q, args := s.builder().Select("item_id").
		From(entsql.Table(tableReviewPending)).
		OrderBy("seq").
		Query()
	rows, err := s.db.SQL().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list pending: %v", common.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan pending: %v", common.ErrStorageUnavailable, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list pending: %v", common.ErrStorageUnavailable, err)
	}
	return ids, nil
}

// Approve applies the mutation to the stored item and removes one pending
// occurrence of its id, atomically.
func (s *reviewStore) Approve(ctx context.Context, id string, apply func(*entity.ReviewItem)) (entity.ReviewItem, error) {
	var updated entity.ReviewItem
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		sel := s.builder().Select(itemColumns...).
			From(entsql.Table(tableReviewItem)).
			Where(entsql.EQ("id", id))
		if s.db.Dialect() == dialect.Postgres {
			sel = sel.ForUpdate()
		}
		q, args := sel.Query()
		item, err := scanItem(tx.QueryRowContext(ctx, q, args...))
		if err != nil {
			return err
		}

		apply(&item)
		payload, corrections, err := encodeItem(item)
		if err != nil {
			return err
		}

		q, args = s.builder().Update(tableReviewItem).
			Set("payload", payload).
			Set("status", string(item.Status)).
			Set("corrections", corrections).
			Set("approved_at", formatTimePtr(item.ApprovedAt)).
			Where(entsql.EQ("id", id)).
			Query()
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("update review item: %w", err)
		}

		q, args = s.builder().Select(entsql.Min("seq")).
			From(entsql.Table(tableReviewPending)).
			Where(entsql.EQ("item_id", id)).
			Query()
		var seq sql.NullInt64
		if err := tx.QueryRowContext(ctx, q, args...).Scan(&seq); err != nil {
			return fmt.Errorf("find pending entry: %w", err)
		}
		if seq.Valid {
			q, args = s.builder().Delete(tableReviewPending).Where(entsql.EQ("seq", seq.Int64)).Query()
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return fmt.Errorf("remove pending entry: %w", err)
			}
		}

		updated = item
		return nil
	})
	if err != nil {
		return entity.ReviewItem{}, s.readError(id, err)
	}
	return updated, nil
}

// AppendPending adds id to the end of the pending order without touching payloads.
func (s *reviewStore) AppendPending(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.appendPending(ctx, tx, id)
	})
}

func (s *reviewStore) appendPending(ctx context.Context, tx *sql.Tx, id string) error {
	q, args := s.builder().Insert(tableReviewPending).Columns("item_id").Values(id).Query()
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("append pending: %w", err)
	}
	return nil
}

func (s *reviewStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.SQL().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrStorageUnavailable, err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "error", rbErr)
		}
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, common.ErrInvalidInput) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *reviewStore) readError(id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("review item %s: %w", id, common.ErrNotFound)
	}
	if errors.Is(err, common.ErrStorageUnavailable) || errors.Is(err, common.ErrInvalidInput) {
		return err
	}
	s.logger.Error("review store read failed", "review_id", id, "error", err)
	return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (entity.ReviewItem, error) {
	var (
		item        entity.ReviewItem
		payload     string
		status      string
		corrections sql.NullString
		queuedAt    string
		approvedAt  sql.NullString
	)
	if err := row.Scan(&item.ID, &payload, &status, &corrections, &queuedAt, &approvedAt); err != nil {
		return entity.ReviewItem{}, err
	}
	if err := json.Unmarshal([]byte(payload), &item.PrescriptionData); err != nil {
		return entity.ReviewItem{}, fmt.Errorf("decode payload %s: %w", item.ID, err)
	}
	item.Status = constants.ReviewStatus(status)
	if corrections.Valid && corrections.String != "" {
		if err := json.Unmarshal([]byte(corrections.String), &item.Corrections); err != nil {
			return entity.ReviewItem{}, fmt.Errorf("decode corrections %s: %w", item.ID, err)
		}
	}
	t, err := time.Parse(time.RFC3339Nano, queuedAt)
	if err != nil {
		return entity.ReviewItem{}, fmt.Errorf("parse queued_at %s: %w", item.ID, err)
	}
	item.QueuedAt = t
	if approvedAt.Valid && approvedAt.String != "" {
		t, err := time.Parse(time.RFC3339Nano, approvedAt.String)
		if err != nil {
			return entity.ReviewItem{}, fmt.Errorf("parse approved_at %s: %w", item.ID, err)
		}
		item.ApprovedAt = &t
	}
	return item, nil
}

func encodeItem(item entity.ReviewItem) (payload string, corrections any, err error) {
	b, err := json.Marshal(item.PrescriptionData)
	if err != nil {
		return "", nil, fmt.Errorf("%w: encode payload: %v", common.ErrInvalidInput, err)
	}
	if item.Corrections == nil {
		return string(b), nil, nil
	}
	c, err := json.Marshal(item.Corrections)
	if err != nil {
		return "", nil, fmt.Errorf("%w: encode corrections: %v", common.ErrInvalidInput, err)
	}
	return string(b), string(c), nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
