package pipeline

import (
	"context"
	"time"

	"github.com/joseph-ayodele/rx-intake/internal/entity"
)

// Result is a processed intake and where it was routed.
type Result struct {
	Path     string
	Record   entity.ValidatedRecord
	Outcome  Outcome
	Duration time.Duration
}

// Intake runs the processor and routes its record.
type Intake struct {
	processor *Processor
	router    *Router
}

func NewIntake(processor *Processor, router *Router) *Intake {
	return &Intake{processor: processor, router: router}
}

// Handle processes the file at path end to end.
func (i *Intake) Handle(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	record, err := i.processor.ProcessIntake(ctx, path)
	if err != nil {
		i.router.metrics.RecordIntake(OutcomeFailed)
		return Result{Path: path}, err
	}
	outcome, err := i.router.Route(ctx, record)
	if err != nil {
		return Result{Path: path, Record: record}, err
	}
	res := Result{Path: path, Record: record, Outcome: outcome, Duration: time.Since(start)}
	i.router.logger.Info("intake processed",
		"path", path,
		"strategy", record.Strategy,
		"confidence", record.Confidence,
		"requires_manual_review", record.RequiresManualReview,
		"review_id", outcome.ReviewID,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
