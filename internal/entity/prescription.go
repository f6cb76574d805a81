package entity

import "time"

// RawRecognition is what the external recognizer hands us for one image.
type RawRecognition struct {
	Text               string  `json:"text"`
	ReportedConfidence float64 `json:"reported_confidence"`
	IsHandwritten      bool    `json:"is_handwritten"`
}

// MedicationLine is one "name - dosage - frequency" entry, in source order.
type MedicationLine struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
}

// PrescriptionDraft is the best-effort structured extraction. Every field may be absent.
type PrescriptionDraft struct {
	PatientName string           `json:"patient_name,omitempty"`
	DoctorName  string           `json:"doctor_name,omitempty"`
	CRMNumber   string           `json:"crm,omitempty"`
	Date        *time.Time       `json:"date,omitempty"`
	RawDate     string           `json:"raw_date,omitempty"`
	Medications []MedicationLine `json:"medications"`
}

// ValidationResult is produced fresh by each validation attempt.
type ValidationResult struct {
	IsValid    bool     `json:"is_valid"`
	Errors     []string `json:"errors"`
	Warnings   []string `json:"warnings"`
	Confidence float64  `json:"confidence"`
}

// ValidatedRecord is the terminal output of the intake pipeline.
// Confidence always mirrors Validation.Confidence.
type ValidatedRecord struct {
	Draft                PrescriptionDraft `json:"parsed_data"`
	Validation           ValidationResult  `json:"validation"`
	Confidence           float64           `json:"confidence"`
	RequiresManualReview bool              `json:"requires_manual_review"`
	Strategy             string            `json:"strategy,omitempty"`
	ReviewApproved       bool              `json:"review_approved,omitempty"` // a reviewer signed off on this record
}
