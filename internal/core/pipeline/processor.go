package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/rx-intake/internal/common"
	"github.com/joseph-ayodele/rx-intake/internal/core/extract"
	"github.com/joseph-ayodele/rx-intake/internal/core/ocr"
	"github.com/joseph-ayodele/rx-intake/internal/core/validate"
	"github.com/joseph-ayodele/rx-intake/internal/entity"
)

// Processor coordinates recognition, field extraction and validation.
type Processor struct {
	logger     *slog.Logger
	recognizer ocr.Recognizer
	extractor  *extract.Extractor
	classifier ocr.HandwritingClassifier
	validator  *validate.Validator
}

// NewProcessor wires the intake stages. A nil extractor or classifier gets the default.
func NewProcessor(
	logger *slog.Logger,
	recognizer ocr.Recognizer,
	extractor *extract.Extractor,
	classifier ocr.HandwritingClassifier,
	validator *validate.Validator,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = extract.NewExtractor(logger)
	}
	if classifier == nil {
		classifier = ocr.DefaultClassifier
	}
	if validator == nil {
		validator = validate.NewValidator(logger)
	}
	return &Processor{
		logger:     logger,
		recognizer: recognizer,
		extractor:  extractor,
		classifier: classifier,
		validator:  validator,
	}
}

// ProcessIntake recognizes the file at path and runs it through the pipeline.
// Recognition failures are fatal; validation failures never are.
func (p *Processor) ProcessIntake(ctx context.Context, path string) (entity.ValidatedRecord, error) {
	if p.recognizer == nil {
		return entity.ValidatedRecord{}, fmt.Errorf("%w: no recognizer configured", common.ErrRecognitionUnavailable)
	}

	rec, err := p.recognizer.Recognize(ctx, path)
	if err != nil {
		p.logger.Error("processor.recognize.failed", "path", path, "recognizer", p.recognizer.Name(), "error", err)
		if !errors.Is(err, common.ErrRecognitionUnavailable) {
			err = fmt.Errorf("%w: %v", common.ErrRecognitionUnavailable, err)
		}
		return entity.ValidatedRecord{}, err
	}

	raw := entity.RawRecognition{
		Text:               ocr.Normalize(rec.Text),
		ReportedConfidence: rec.Confidence,
		IsHandwritten:      p.classifier.IsHandwritten(rec.Confidence),
	}
	p.logger.Debug("processor recognize stage success",
		"path", path,
		"method", rec.Method,
		"confidence", rec.Confidence,
		"is_handwritten", raw.IsHandwritten,
		"duration_ms", rec.Duration.Milliseconds(),
		"warnings", len(rec.Warnings),
	)
	return p.ProcessText(ctx, raw), nil
}

// ProcessText runs extraction and validation over already recognized text.
func (p *Processor) ProcessText(ctx context.Context, raw entity.RawRecognition) entity.ValidatedRecord {
	draft := p.extractor.Extract(raw.Text)
	record := p.validator.Validate(ctx, validate.Input{
		Draft:              draft,
		ReportedConfidence: raw.ReportedConfidence,
		IsHandwritten:      raw.IsHandwritten,
	})
	p.logger.Debug("processor validate stage success",
		"strategy", record.Strategy,
		"confidence", record.Confidence,
		"is_valid", record.Validation.IsValid,
		"requires_manual_review", record.RequiresManualReview,
	)
	return record
}
