package pipeline

import (
	"github.com/joseph-ayodele/rx-intake/internal/common"
	"github.com/joseph-ayodele/rx-intake/internal/core/extract"
	"github.com/joseph-ayodele/rx-intake/internal/core/validate"
	"github.com/joseph-ayodele/rx-intake/internal/entity"
)

// correction keys understood by ApplyCorrections; anything else is kept on the
// review item only. Per-line keys are "medications.<i>.name|dosage|frequency".
const (
	CorrectPatientName = "patient_name"
	CorrectDoctorName  = "doctor_name"
	CorrectCRM         = "crm"
	CorrectDate        = "date"
)

// ApplyCorrections returns a copy of record with reviewer corrections written
// into the draft and the local rules re-run over the result. A medication
// index equal to the current line count adds a line; larger gaps are rejected.
func ApplyCorrections(record entity.ValidatedRecord, corrections map[string]string, threshold float64) (entity.ValidatedRecord, error) {
	if err := common.ValidateCorrections(corrections); err != nil {
		return entity.ValidatedRecord{}, err
	}
	if err := common.ValidateMedicationIndices(len(record.Draft.Medications), corrections); err != nil {
		return entity.ValidatedRecord{}, err
	}

	draft := record.Draft
	draft.Medications = append([]entity.MedicationLine{}, record.Draft.Medications...)
	for key, val := range corrections {
		switch key {
		case CorrectPatientName:
			draft.PatientName = val
		case CorrectDoctorName:
			draft.DoctorName = val
		case CorrectCRM:
			draft.CRMNumber = val
		case CorrectDate:
			draft.RawDate = val
			draft.Date = extract.ParseDate(val)
		default:
			i, field, ok := common.MedicationKey(key)
			if !ok {
				continue
			}
			for len(draft.Medications) <= i {
				draft.Medications = append(draft.Medications, entity.MedicationLine{})
			}
			switch field {
			case "name":
				draft.Medications[i].Name = val
			case "dosage":
				draft.Medications[i].Dosage = val
			case "frequency":
				draft.Medications[i].Frequency = val
			}
		}
	}
	return validate.Recheck(draft, record, threshold), nil
}
