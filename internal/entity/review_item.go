package entity

import (
	"time"

	"github.com/joseph-ayodele/rx-intake/constants"
)

// ReviewItem is a persisted manual-review queue entry.
type ReviewItem struct {
	ID               string                 `json:"id"`
	PrescriptionData ValidatedRecord        `json:"prescription_data"`
	Status           constants.ReviewStatus `json:"status"`
	Corrections      map[string]string      `json:"corrections,omitempty"`
	QueuedAt         time.Time              `json:"queued_at"`
	ApprovedAt       *time.Time             `json:"approved_at,omitempty"`
}

// IsPending reports whether the item still awaits a reviewer.
func (r ReviewItem) IsPending() bool {
	return r.Status == constants.ReviewStatusPending
}
