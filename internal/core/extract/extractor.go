package extract

import (
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/rx-intake/internal/entity"
)

// Extractor turns raw recognized text into a PrescriptionDraft. It never fails;
// anything it cannot find is left empty for the validator to flag.
type Extractor struct {
	rules  []Rule
	meds   *MedicationScanner
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{rules: DefaultRules, meds: NewMedicationScanner(), logger: logger}
}

// Extract applies the labeled rules and the medication scan to rawText.
func (e *Extractor) Extract(rawText string) entity.PrescriptionDraft {
	text := strings.ReplaceAll(rawText, "\r\n", "\n")

	var draft entity.PrescriptionDraft
	for _, r := range e.rules {
		m := r.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(m[1])
		if v == "" {
			continue
		}
		switch r.Field {
		case FieldPatientName:
			draft.PatientName = v
		case FieldDoctorName:
			draft.DoctorName = v
		case FieldCRM:
			draft.CRMNumber = v
		case FieldDate:
			draft.RawDate = v
			draft.Date = ParseDate(v)
		}
	}
	draft.Medications = e.meds.Scan(text)

	e.logger.Debug("extracted prescription draft",
		"has_patient", draft.PatientName != "",
		"has_doctor", draft.DoctorName != "",
		"has_crm", draft.CRMNumber != "",
		"has_date", draft.Date != nil,
		"medications", len(draft.Medications),
	)
	return draft
}

var dateLayouts = []string{"2/1/2006", "2/1/06"}

// ParseDate reads day/month/year; nil when the calendar date does not exist.
func ParseDate(s string) *time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
