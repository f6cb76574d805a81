// Package review holds prescriptions that need a pharmacist's confirmation
// until they are approved.
package review

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/rx-intake/constants"
	"github.com/joseph-ayodele/rx-intake/internal/common"
	"github.com/joseph-ayodele/rx-intake/internal/entity"
	"github.com/joseph-ayodele/rx-intake/internal/metrics"
	"github.com/joseph-ayodele/rx-intake/internal/repository"
)

const (
	opEnqueue = "enqueue"
	opList    = "list"
	opApprove = "approve"
	opGet     = "get"
)

// Queue is the durable review queue. Payloads and pending order live in the store;
// the Queue itself holds no state, so any number of processes may share one store.
type Queue struct {
	store   repository.ReviewStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

type Option func(*Queue)

func WithMetrics(m *metrics.Metrics) Option { return func(q *Queue) { q.metrics = m } }

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option { return func(q *Queue) { q.now = now } }

func NewQueue(store repository.ReviewStore, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  NewReviewID,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// NewReviewID mints a fresh "val_<uuid>" identifier.
func NewReviewID() string { return common.ReviewIDPrefix + uuid.NewString() }

// Enqueue stores record as pending and returns its new id.
func (q *Queue) Enqueue(ctx context.Context, record entity.ValidatedRecord) (string, error) {
	item := entity.ReviewItem{
		ID:               q.newID(),
		PrescriptionData: record,
		Status:           constants.ReviewStatusPending,
		QueuedAt:         q.now().UTC(),
	}
	if err := q.store.Insert(ctx, item); err != nil {
		q.metrics.RecordReviewOp(opEnqueue, statusOf(err))
		q.logger.Error("failed to enqueue review item", "review_id", item.ID, "error", err)
		return "", common.WrapError(err, "enqueue")
	}
	q.metrics.RecordReviewOp(opEnqueue, statusOf(nil))
	q.logger.Info("queued for review",
		"review_id", item.ID,
		"confidence", record.Confidence,
		"errors", len(record.Validation.Errors),
		"warnings", len(record.Validation.Warnings),
	)
	return item.ID, nil
}

// ListPending returns pending items in enqueue order. Ids without a stored
// payload are skipped, as are items approved while the list was being read.
func (q *Queue) ListPending(ctx context.Context) ([]entity.ReviewItem, error) {
	ids, err := q.store.PendingIDs(ctx)
	if err != nil {
		q.metrics.RecordReviewOp(opList, statusOf(err))
		return nil, common.WrapError(err, "list pending")
	}

	items := make([]entity.ReviewItem, 0, len(ids))
	for _, id := range ids {
		item, err := q.store.Get(ctx, id)
		if errors.Is(err, common.ErrNotFound) {
			q.metrics.RecordPendingDrift()
			q.logger.Warn("pending id has no payload, skipping", "review_id", id)
			continue
		}
		if err != nil {
			q.metrics.RecordReviewOp(opList, statusOf(err))
			return nil, common.WrapError(err, "list pending")
		}
		if item.Status != constants.ReviewStatusPending {
			// approved after the ids were read
			continue
		}
		items = append(items, item)
	}
	q.metrics.RecordReviewOp(opList, statusOf(nil))
	return items, nil
}

// Approve marks id approved with the reviewer's corrections and removes one
// pending occurrence. Approving an approved item replaces its corrections.
func (q *Queue) Approve(ctx context.Context, id string, corrections map[string]string) (entity.ReviewItem, error) {
	v := common.NewValidator().Field("id", id, common.Required)
	if err := v.Error(); err != nil {
		return entity.ReviewItem{}, err
	}
	if err := common.ValidateCorrections(corrections); err != nil {
		return entity.ReviewItem{}, err
	}
	if hasMedicationKeys(corrections) {
		// payloads never change after enqueue, so the line count read here still holds
		current, err := q.store.Get(ctx, id)
		if err != nil {
			q.metrics.RecordReviewOp(opApprove, statusOf(err))
			return entity.ReviewItem{}, common.WrapError(err, "approve")
		}
		if err := common.ValidateMedicationIndices(len(current.PrescriptionData.Draft.Medications), corrections); err != nil {
			return entity.ReviewItem{}, err
		}
	}

	attached := make(map[string]string, len(corrections))
	for k, val := range corrections {
		attached[k] = val
	}
	approvedAt := q.now().UTC()

	item, err := q.store.Approve(ctx, id, func(it *entity.ReviewItem) {
		it.Status = constants.ReviewStatusApproved
		it.Corrections = attached
		it.ApprovedAt = &approvedAt
	})
	if err != nil {
		q.metrics.RecordReviewOp(opApprove, statusOf(err))
		if !errors.Is(err, common.ErrNotFound) {
			q.logger.Error("failed to approve review item", "review_id", id, "error", err)
		}
		return entity.ReviewItem{}, common.WrapError(err, "approve")
	}
	q.metrics.RecordReviewOp(opApprove, statusOf(nil))
	q.logger.Info("review approved", "review_id", id, "corrections", len(attached), "reviewer", common.ReviewerFromContext(ctx))
	return item, nil
}

// Get returns one item regardless of status.
func (q *Queue) Get(ctx context.Context, id string) (entity.ReviewItem, error) {
	item, err := q.store.Get(ctx, id)
	if err != nil {
		q.metrics.RecordReviewOp(opGet, statusOf(err))
		return entity.ReviewItem{}, common.WrapError(err, "get")
	}
	q.metrics.RecordReviewOp(opGet, statusOf(nil))
	return item, nil
}

func hasMedicationKeys(corrections map[string]string) bool {
	for k := range corrections {
		if strings.HasPrefix(k, common.MedicationKeyPrefix) {
			return true
		}
	}
	return false
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
