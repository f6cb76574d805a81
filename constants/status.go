package constants

// ReviewStatus is the canonical status for rows in review_item.
type ReviewStatus string

// Stable values (store these exact strings in DB).
const (
	ReviewStatusPending  ReviewStatus = "pending_review" // waiting for a human
	ReviewStatusApproved ReviewStatus = "approved"       // terminal
)

// Thresholds that drive routing. Changing them changes which prescriptions
// reach downstream systems without a human looking at them.
const (
	ReviewThreshold      = 0.85
	HandwritingThreshold = 0.70
	FallbackPenalty      = 0.5
)

// Validation strategy names recorded on each ValidatedRecord.
const (
	StrategyExternal = "external"
	StrategyFallback = "fallback"
)
