package extract

import "regexp"

// Field names as they appear in the serialized draft.
const (
	FieldPatientName = "patient_name"
	FieldDoctorName  = "doctor_name"
	FieldCRM         = "crm"
	FieldDate        = "date"
)

// Rule pairs a draft field with the pattern that captures it. Group 1 is the value.
type Rule struct {
	Field   string
	Pattern *regexp.Regexp
}

// DefaultRules are evaluated independently against the full text; the first
// match wins per field and matched spans may overlap.
var DefaultRules = []Rule{
	{FieldPatientName, regexp.MustCompile(`(?i)(?:Paciente|Nome):\s*(.+?)(?:\n|$)`)},
	// "Dra" is tried before "Dr" so the title's "a" is not captured as part of the name.
	{FieldDoctorName, regexp.MustCompile(`(?i)\b(?:Dra|Dr)\.?\s*(.+?)(?:\n|CRM)`)},
	{FieldCRM, regexp.MustCompile(`(?i)CRM[:\s]*(\d+)`)},
	{FieldDate, regexp.MustCompile(`(?i)Data:\s*(\d{1,2}/\d{1,2}/\d{2,4})`)},
}
