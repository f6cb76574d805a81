package validate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/rx-intake/constants"
	"github.com/joseph-ayodele/rx-intake/internal/entity"
	"github.com/joseph-ayodele/rx-intake/internal/metrics"
)

// Validator runs the primary strategy and degrades to the fallback on any failure.
// Callers receive a ValidatedRecord either way.
type Validator struct {
	primary   Strategy
	fallback  FallbackStrategy
	threshold float64
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithPrimary sets the strategy tried before the fallback.
func WithPrimary(s Strategy) Option { return func(v *Validator) { v.primary = s } }

// WithReviewThreshold overrides the confidence below which review is required.
func WithReviewThreshold(t float64) Option {
	return func(v *Validator) {
		if t > 0 {
			v.threshold = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option { return func(v *Validator) { v.metrics = m } }

func NewValidator(logger *slog.Logger, opts ...Option) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Validator{threshold: constants.ReviewThreshold, logger: logger}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate produces the validated record for a draft.
func (v *Validator) Validate(ctx context.Context, in Input) entity.ValidatedRecord {
	result, strategy := v.run(ctx, in)
	return merge(in.Draft, result, strategy, v.threshold)
}

func (v *Validator) run(ctx context.Context, in Input) (entity.ValidationResult, string) {
	if v.primary != nil {
		start := time.Now()
		result, err := v.primary.Validate(ctx, in)
		if err == nil {
			v.metrics.RecordValidation(v.primary.Name(), time.Since(start))
			return result, v.primary.Name()
		}

		reason := ReasonExec
		var engErr *EngineError
		if errors.As(err, &engErr) {
			reason = engErr.Reason
		}
		v.logger.Warn("external validation failed, using fallback",
			"strategy", v.primary.Name(),
			"reason", reason,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		v.metrics.RecordFallback(reason)
	}

	start := time.Now()
	result := v.fallback.Check(in)
	v.metrics.RecordValidation(v.fallback.Name(), time.Since(start))
	return result, v.fallback.Name()
}

func merge(draft entity.PrescriptionDraft, result entity.ValidationResult, strategy string, threshold float64) entity.ValidatedRecord {
	if result.Errors == nil {
		result.Errors = []string{}
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}
	return entity.ValidatedRecord{
		Draft:                draft,
		Validation:           result,
		Confidence:           result.Confidence,
		RequiresManualReview: RequiresManualReview(result, threshold),
		Strategy:             strategy,
	}
}

// Recheck re-runs the local rules on a reviewer-corrected draft. The confidence
// is recovered from prior, undoing the fallback penalty when prior had errors.
// The returned record is marked ReviewApproved; RequiresManualReview still
// reflects the rules, and callers must not release a record that is not valid.
func Recheck(draft entity.PrescriptionDraft, prior entity.ValidatedRecord, threshold float64) entity.ValidatedRecord {
	if threshold <= 0 {
		threshold = constants.ReviewThreshold
	}
	reported := prior.Confidence
	if prior.Strategy == constants.StrategyFallback && len(prior.Validation.Errors) > 0 {
		reported = prior.Confidence / constants.FallbackPenalty
	}
	if reported > 1 {
		reported = 1
	}
	var f FallbackStrategy
	out := merge(draft, f.Check(Input{Draft: draft, ReportedConfidence: reported}), f.Name(), threshold)
	out.ReviewApproved = true
	return out
}

// RequiresManualReview is true when the result is invalid or has any messages,
// or when confidence is below threshold. A confidence equal to the threshold passes.
func RequiresManualReview(result entity.ValidationResult, threshold float64) bool {
	return !result.IsValid || len(result.Errors) > 0 || result.Confidence < threshold || len(result.Warnings) > 0
}
