package validate

import (
	"context"

	"github.com/joseph-ayodele/rx-intake/internal/entity"
)

// Input is what both strategies see; it mirrors the payload sent to the external engine.
type Input struct {
	Draft              entity.PrescriptionDraft `json:"parsed_data"`
	ReportedConfidence float64                  `json:"confidence"`
	IsHandwritten      bool                     `json:"is_handwritten"`
}

// Strategy produces a ValidationResult for a draft.
type Strategy interface {
	Name() string
	Validate(ctx context.Context, in Input) (entity.ValidationResult, error)
}
