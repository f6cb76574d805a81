// Package app wires configuration into the intake pipeline and review queue.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/rx-intake/internal/common"
	"github.com/joseph-ayodele/rx-intake/internal/core/ocr"
	"github.com/joseph-ayodele/rx-intake/internal/core/pipeline"
	"github.com/joseph-ayodele/rx-intake/internal/core/proc"
	"github.com/joseph-ayodele/rx-intake/internal/core/validate"
	"github.com/joseph-ayodele/rx-intake/internal/metrics"
	"github.com/joseph-ayodele/rx-intake/internal/repository"
	"github.com/joseph-ayodele/rx-intake/internal/review"
)

// App holds every long-lived component built from one Config.
type App struct {
	DB        *repository.DB
	Metrics   *metrics.Metrics
	Queue     *review.Queue
	Exporter  *review.Exporter
	Processor *pipeline.Processor
	Router    *pipeline.Router
	Intake    *pipeline.Intake
}

// Options lets callers swap collaborators, mainly in tests.
type Options struct {
	Registry   prometheus.Registerer // nil disables metrics
	Runner     proc.Runner           // nil uses os/exec
	Downstream pipeline.Downstream   // nil uses cfg.Downstream, or logs only
}

// Build opens the store, migrates it and assembles the pipeline.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if opts.Registry != nil {
		var err error
		if m, err = metrics.New(opts.Registry); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	runner := opts.Runner
	if runner == nil {
		runner = proc.NewExecRunner(logger)
	}

	recognizer, err := ocr.NewRecognizer(ocr.Config{
		Kind:                  cfg.OCR.Recognizer,
		Tesseract:             cfg.OCR.Tesseract,
		TesseractLang:         cfg.OCR.TesseractLang,
		TessdataDir:           cfg.OCR.TessdataDir,
		EnableTSVConfidence:   cfg.OCR.EnableTSVConfidence,
		PSM:                   cfg.OCR.PSM,
		OEM:                   cfg.OCR.OEM,
		DefaultTextConfidence: cfg.OCR.DefaultTextConfidence,
	}, runner, logger)
	if err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "recognizer", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}

	validatorOpts := []validate.Option{
		validate.WithReviewThreshold(cfg.Validation.ReviewThreshold),
		validate.WithMetrics(m),
	}
	if cfg.Validation.Command != "" {
		external, err := validate.NewExternalStrategy(validate.ExternalConfig{
			Command:   cfg.Validation.Command,
			Args:      cfg.Validation.Args,
			PassAsArg: cfg.Validation.PassAsArg,
			Timeout:   cfg.Validation.Timeout,
		}, runner, logger)
		if err != nil {
			return nil, err
		}
		validatorOpts = append(validatorOpts, validate.WithPrimary(external))
	} else {
		logger.Info("no validation command configured, using fallback rules only")
	}
	validator := validate.NewValidator(logger, validatorOpts...)

	db, err := repository.Open(ctx, repository.ConfigFrom(cfg.Database), logger)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	queue := review.NewQueue(repository.NewReviewStore(db, logger), logger, review.WithMetrics(m))
	processor := pipeline.NewProcessor(logger, recognizer, nil, nil, validator)
	downstream := opts.Downstream
	if downstream == nil && cfg.Downstream.URL != "" {
		var headers map[string]string
		if cfg.Downstream.Token != "" {
			headers = map[string]string{"Authorization": "Bearer " + cfg.Downstream.Token}
		}
		downstream = pipeline.NewHTTPDownstream(cfg.Downstream.URL, cfg.Downstream.Timeout, headers, logger)
	}
	router := pipeline.NewRouter(queue, downstream, m, logger, pipeline.WithReleaseThreshold(cfg.Validation.ReviewThreshold))

	return &App{
		DB:        db,
		Metrics:   m,
		Queue:     queue,
		Exporter:  review.NewExporter(queue, logger),
		Processor: processor,
		Router:    router,
		Intake:    pipeline.NewIntake(processor, router),
	}, nil
}

// Close releases the store.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
