package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/rx-intake/constants"
	"github.com/joseph-ayodele/rx-intake/internal/common"
	"github.com/joseph-ayodele/rx-intake/internal/entity"
	"github.com/joseph-ayodele/rx-intake/internal/metrics"
)

// Intake outcomes as reported in metrics.
const (
	OutcomeDownstream = "downstream"
	OutcomeReview     = "review"
	OutcomeFailed     = "failed"
)

// ReviewQueue is the part of the review queue the router needs.
type ReviewQueue interface {
	Enqueue(ctx context.Context, record entity.ValidatedRecord) (string, error)
}

// Receipt identifies what the downstream systems created for a record.
type Receipt struct {
	PrescriptionID string
	QuoteID        string
}

// Downstream receives records that passed validation (ERP, quoting, payment, notification).
type Downstream interface {
	Submit(ctx context.Context, record entity.ValidatedRecord) (Receipt, error)
}

// LogDownstream only logs; used when no downstream system is wired.
type LogDownstream struct {
	Logger *slog.Logger
}

func (d LogDownstream) Submit(_ context.Context, record entity.ValidatedRecord) (Receipt, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("record ready for downstream",
		"patient", record.Draft.PatientName,
		"medications", len(record.Draft.Medications),
		"confidence", record.Confidence,
	)
	return Receipt{}, nil
}

// Outcome is where a record went.
type Outcome struct {
	ReviewID           string
	RequiresValidation bool
	Receipt            Receipt
}

// Router sends a validated record either to the review queue or downstream.
type Router struct {
	queue      ReviewQueue
	downstream Downstream
	threshold  float64
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithReleaseThreshold sets the confidence threshold used when approved items are rechecked.
func WithReleaseThreshold(t float64) RouterOption {
	return func(r *Router) {
		if t > 0 {
			r.threshold = t
		}
	}
}

func NewRouter(queue ReviewQueue, downstream Downstream, m *metrics.Metrics, logger *slog.Logger, opts ...RouterOption) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if downstream == nil {
		downstream = LogDownstream{Logger: logger}
	}
	r := &Router{queue: queue, downstream: downstream, threshold: constants.ReviewThreshold, metrics: m, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route enqueues records that need review and submits the rest.
func (r *Router) Route(ctx context.Context, record entity.ValidatedRecord) (Outcome, error) {
	if record.RequiresManualReview {
		id, err := r.queue.Enqueue(ctx, record)
		if err != nil {
			r.metrics.RecordIntake(OutcomeFailed)
			return Outcome{}, fmt.Errorf("route to review: %w", err)
		}
		r.metrics.RecordIntake(OutcomeReview)
		return Outcome{ReviewID: id, RequiresValidation: true}, nil
	}

	receipt, err := r.downstream.Submit(ctx, record)
	if err != nil {
		r.metrics.RecordIntake(OutcomeFailed)
		r.logger.Error("downstream submit failed", "error", err)
		return Outcome{}, fmt.Errorf("submit downstream: %w", err)
	}
	r.metrics.RecordIntake(OutcomeDownstream)
	return Outcome{Receipt: receipt}, nil
}

// Release submits an approved review item downstream with its corrections applied.
// Items whose corrected draft still fails the local rules are not submitted.
func (r *Router) Release(ctx context.Context, item entity.ReviewItem) (Receipt, error) {
	if item.Status != constants.ReviewStatusApproved {
		return Receipt{}, fmt.Errorf("%w: review item %s is %s", common.ErrInvalidInput, item.ID, item.Status)
	}
	record, err := ApplyCorrections(item.PrescriptionData, item.Corrections, r.threshold)
	if err != nil {
		return Receipt{}, fmt.Errorf("apply corrections to %s: %w", item.ID, err)
	}
	if !record.Validation.IsValid {
		r.logger.Warn("approved record still invalid, not released", "review_id", item.ID, "errors", record.Validation.Errors)
		return Receipt{}, fmt.Errorf("%w: review item %s still has errors: %s",
			common.ErrInvalidInput, item.ID, strings.Join(record.Validation.Errors, "; "))
	}
	receipt, err := r.downstream.Submit(ctx, record)
	if err != nil {
		r.logger.Error("downstream submit failed", "review_id", item.ID, "error", err)
		return Receipt{}, fmt.Errorf("submit downstream: %w", err)
	}
	r.logger.Info("approved record released", "review_id", item.ID, "prescription_id", receipt.PrescriptionID)
	return receipt, nil
}
