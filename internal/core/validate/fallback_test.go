package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rx-intake/internal/entity"
)

func completeDraft() entity.PrescriptionDraft {
	return entity.PrescriptionDraft{
		PatientName: "Maria Silva",
		DoctorName:  "João Costa",
		CRMNumber:   "12345",
		RawDate:     "01/03/2024",
		Medications: []entity.MedicationLine{{Name: "Amoxicilina", Dosage: "500mg", Frequency: "8/8h"}},
	}
}

func TestFallback_CompleteDraft(t *testing.T) {
	r := FallbackStrategy{}.Check(Input{Draft: completeDraft(), ReportedConfidence: 0.9})

	assert.True(t, r.IsValid)
	assert.Empty(t, r.Errors)
	assert.NotNil(t, r.Errors)
	assert.Empty(t, r.Warnings)
	assert.InDelta(t, 0.9, r.Confidence, 1e-9)
}

func TestFallback_Rules(t *testing.T) {
	cases := map[string]struct {
		mutate   func(d *entity.PrescriptionDraft)
		errors   []string
		warnings []string
	}{
		"missing patient": {
			mutate: func(d *entity.PrescriptionDraft) { d.PatientName = "  " },
			errors: []string{ErrMsgPatientMissing},
		},
		"missing doctor": {
			mutate: func(d *entity.PrescriptionDraft) { d.DoctorName = "" },
			errors: []string{ErrMsgDoctorIncomplete},
		},
		"missing crm": {
			mutate: func(d *entity.PrescriptionDraft) { d.CRMNumber = "" },
			errors: []string{ErrMsgDoctorIncomplete},
		},
		"no medications": {
			mutate: func(d *entity.PrescriptionDraft) { d.Medications = nil },
			errors: []string{ErrMsgNoMedications},
		},
		"unnamed medication without dosage": {
			mutate: func(d *entity.PrescriptionDraft) {
				d.Medications = []entity.MedicationLine{{Name: "", Dosage: "duas vezes"}}
			},
			errors:   []string{ErrMsgMedicationNoName},
			warnings: []string{"Invalid dosage format for medication"},
		},
		"everything missing, in rule order": {
			mutate: func(d *entity.PrescriptionDraft) { *d = entity.PrescriptionDraft{} },
			errors: []string{ErrMsgPatientMissing, ErrMsgDoctorIncomplete, ErrMsgNoMedications},
		},
		"grams accepted case-insensitively": {
			mutate: func(d *entity.PrescriptionDraft) { d.Medications[0].Dosage = "1 G" },
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			d := completeDraft()
			tc.mutate(&d)
			r := FallbackStrategy{}.Check(Input{Draft: d, ReportedConfidence: 0.8})

			want := tc.errors
			if want == nil {
				want = []string{}
			}
			wantWarn := tc.warnings
			if wantWarn == nil {
				wantWarn = []string{}
			}
			assert.Equal(t, want, r.Errors)
			assert.Equal(t, wantWarn, r.Warnings)
			assert.Equal(t, len(want) == 0, r.IsValid)
			if len(want) > 0 {
				assert.InDelta(t, 0.4, r.Confidence, 1e-9)
			} else {
				assert.InDelta(t, 0.8, r.Confidence, 1e-9)
			}
		})
	}
}

func TestFallback_MissingDosageWarnsButStaysValid(t *testing.T) {
	d := completeDraft()
	d.Medications = []entity.MedicationLine{{Name: "Amoxicilina sem dosagem"}}

	r := FallbackStrategy{}.Check(Input{Draft: d, ReportedConfidence: 0.9})

	assert.True(t, r.IsValid)
	assert.Equal(t, []string{"Invalid dosage format for Amoxicilina sem dosagem"}, r.Warnings)
	assert.InDelta(t, 0.9, r.Confidence, 1e-9)
}

func TestFallback_Deterministic(t *testing.T) {
	in := Input{Draft: completeDraft(), ReportedConfidence: 0.77, IsHandwritten: true}
	in.Draft.Medications = append(in.Draft.Medications, entity.MedicationLine{Name: "Dipirona"})

	first, err := FallbackStrategy{}.Validate(context.Background(), in)
	require.NoError(t, err)
	for range 5 {
		again, err := FallbackStrategy{}.Validate(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestValidDosage(t *testing.T) {
	valid := []string{"500mg", "500 mg", "5ml", "10 ML", "1g", "dose 250mg/dia"}
	invalid := []string{"", "   ", "mg", "quinhentos mg", "500", "2 comprimidos"}
	for _, s := range valid {
		assert.True(t, ValidDosage(s), s)
	}
	for _, s := range invalid {
		assert.False(t, ValidDosage(s), s)
	}
}
