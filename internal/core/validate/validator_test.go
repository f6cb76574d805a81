package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rx-intake/constants"
	"github.com/joseph-ayodele/rx-intake/internal/entity"
	"github.com/joseph-ayodele/rx-intake/internal/metrics"
)

type fixedStrategy struct {
	result entity.ValidationResult
	err    error
	calls  int
}

func (f *fixedStrategy) Name() string { return constants.StrategyExternal }

func (f *fixedStrategy) Validate(context.Context, Input) (entity.ValidationResult, error) {
	f.calls++
	return f.result, f.err
}

func TestValidator_FallbackScenario(t *testing.T) {
	primary := &fixedStrategy{err: &EngineError{Reason: ReasonExec, Err: errors.New("Rscript: not found")}}
	v := NewValidator(nil, WithPrimary(primary))

	rec := v.Validate(context.Background(), Input{Draft: completeDraft(), ReportedConfidence: 0.9})

	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, constants.StrategyFallback, rec.Strategy)
	assert.True(t, rec.Validation.IsValid)
	assert.Equal(t, []string{}, rec.Validation.Errors)
	assert.InDelta(t, 0.9, rec.Confidence, 1e-9)
	assert.False(t, rec.RequiresManualReview)
	assert.Equal(t, completeDraft(), rec.Draft)
}

func TestValidator_MissingDosageNeedsReview(t *testing.T) {
	in := Input{Draft: completeDraft(), ReportedConfidence: 0.9}
	in.Draft.Medications = []entity.MedicationLine{{Name: "Amoxicilina sem dosagem"}}

	rec := NewValidator(nil).Validate(context.Background(), in)

	assert.True(t, rec.Validation.IsValid)
	assert.Len(t, rec.Validation.Warnings, 1)
	assert.True(t, rec.RequiresManualReview)
}

func TestValidator_PrimaryResultUsed(t *testing.T) {
	primary := &fixedStrategy{result: entity.ValidationResult{IsValid: true, Confidence: 0.97}}
	rec := NewValidator(nil, WithPrimary(primary)).Validate(context.Background(), Input{Draft: completeDraft(), ReportedConfidence: 0.5})

	assert.Equal(t, constants.StrategyExternal, rec.Strategy)
	assert.InDelta(t, 0.97, rec.Confidence, 1e-9)
	assert.NotNil(t, rec.Validation.Errors)
	assert.NotNil(t, rec.Validation.Warnings)
	assert.False(t, rec.RequiresManualReview)
}

func TestValidator_EngineErrorsWithValidFlag(t *testing.T) {
	s := newExternal(t, reply(`{"is_valid":true,"errors":["CRM not registered"],"warnings":[],"confidence":0.95}`))
	rec := NewValidator(nil, WithPrimary(s)).Validate(context.Background(), Input{Draft: completeDraft(), ReportedConfidence: 0.9})

	assert.Equal(t, constants.StrategyExternal, rec.Strategy)
	assert.False(t, rec.Validation.IsValid)
	assert.Equal(t, []string{"CRM not registered"}, rec.Validation.Errors)
	assert.True(t, rec.RequiresManualReview)
}

func TestValidator_ConfidenceEqualsValidationConfidence(t *testing.T) {
	v := NewValidator(nil)
	for _, c := range []float64{0, 0.3, 0.85, 1} {
		rec := v.Validate(context.Background(), Input{Draft: entity.PrescriptionDraft{}, ReportedConfidence: c})
		assert.Equal(t, rec.Validation.Confidence, rec.Confidence)
	}
}

func TestRequiresManualReview(t *testing.T) {
	cases := map[string]struct {
		result entity.ValidationResult
		want   bool
	}{
		"clean above threshold": {entity.ValidationResult{IsValid: true, Confidence: 0.9}, false},
		"exactly at threshold":  {entity.ValidationResult{IsValid: true, Confidence: 0.85}, false},
		"just below threshold":  {entity.ValidationResult{IsValid: true, Confidence: 0.8499}, true},
		"invalid":               {entity.ValidationResult{IsValid: false, Confidence: 1}, true},
		"warnings":              {entity.ValidationResult{IsValid: true, Confidence: 1, Warnings: []string{"x"}}, true},
		"errors on valid":       {entity.ValidationResult{IsValid: true, Confidence: 1, Errors: []string{"x"}}, true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, RequiresManualReview(tc.result, constants.ReviewThreshold))
		})
	}
}

func TestValidator_CustomThreshold(t *testing.T) {
	v := NewValidator(nil, WithReviewThreshold(0.95))
	rec := v.Validate(context.Background(), Input{Draft: completeDraft(), ReportedConfidence: 0.9})
	assert.True(t, rec.RequiresManualReview)
}

func TestValidator_FallbackMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	primary := &fixedStrategy{err: &EngineError{Reason: ReasonTimeout}}
	v := NewValidator(nil, WithPrimary(primary), WithMetrics(m))
	v.Validate(context.Background(), Input{Draft: completeDraft(), ReportedConfidence: 0.9})
	v.Validate(context.Background(), Input{Draft: completeDraft(), ReportedConfidence: 0.9})

	count, err := testutil.GatherAndCount(reg, "rxintake_validation_fallback_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(reg, "rxintake_validation_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
