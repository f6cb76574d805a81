package validate

import (
	"context"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/rx-intake/constants"
	"github.com/joseph-ayodele/rx-intake/internal/entity"
)

// Messages produced by the fallback rules.
const (
	ErrMsgPatientMissing   = "Patient name is missing"
	ErrMsgDoctorIncomplete = "Doctor information is incomplete"
	ErrMsgNoMedications    = "No medications found"
	ErrMsgMedicationNoName = "Medication name is missing"
	WarnMsgDosagePrefix    = "Invalid dosage format for "
	genericMedicationLabel = "medication"
)

var reDosage = regexp.MustCompile(`(?i)\d+\s*(?:` + constants.UnitAlternation(constants.ValidationUnits()) + `)`)

// FallbackStrategy is the deterministic local validator. It is pure and never fails.
type FallbackStrategy struct{}

func (FallbackStrategy) Name() string { return constants.StrategyFallback }

func (f FallbackStrategy) Validate(_ context.Context, in Input) (entity.ValidationResult, error) {
	return f.Check(in), nil
}

// Check applies the structural completeness rules.
func (FallbackStrategy) Check(in Input) entity.ValidationResult {
	d := in.Draft
	errs := make([]string, 0)
	warns := make([]string, 0)

	if blank(d.PatientName) {
		errs = append(errs, ErrMsgPatientMissing)
	}
	if blank(d.DoctorName) || blank(d.CRMNumber) {
		errs = append(errs, ErrMsgDoctorIncomplete)
	}
	if len(d.Medications) == 0 {
		errs = append(errs, ErrMsgNoMedications)
	}
	for _, med := range d.Medications {
		if blank(med.Name) {
			errs = append(errs, ErrMsgMedicationNoName)
		}
		if !ValidDosage(med.Dosage) {
			label := med.Name
			if blank(label) {
				label = genericMedicationLabel
			}
			warns = append(warns, WarnMsgDosagePrefix+label)
		}
	}

	// binary penalty: any number of errors costs the same
	factor := 1.0
	if len(errs) > 0 {
		factor = constants.FallbackPenalty
	}
	return entity.ValidationResult{
		IsValid:    len(errs) == 0,
		Errors:     errs,
		Warnings:   warns,
		Confidence: in.ReportedConfidence * factor,
	}
}

// ValidDosage reports whether dosage carries a numeric quantity followed by a unit.
func ValidDosage(dosage string) bool {
	return !blank(dosage) && reDosage.MatchString(dosage)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
