package ocr

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/rx-intake/constants"
)

// HandwritingClassifier decides whether a recognition came from a handwritten
// prescription. A smarter classifier can replace the threshold one as long as
// it keeps this signature.
type HandwritingClassifier interface {
	IsHandwritten(rawConfidence float64) bool
}

// ThresholdClassifier treats low recognizer confidence as handwriting.
type ThresholdClassifier struct {
	Threshold float64
}

func (c ThresholdClassifier) IsHandwritten(rawConfidence float64) bool {
	return rawConfidence < c.Threshold
}

// DefaultClassifier uses constants.HandwritingThreshold (0.70).
var DefaultClassifier HandwritingClassifier = ThresholdClassifier{Threshold: constants.HandwritingThreshold}

// IsHandwritten reports whether rawConfidence falls below the handwriting threshold.
func IsHandwritten(rawConfidence float64) bool {
	return DefaultClassifier.IsHandwritten(rawConfidence)
}

var (
	reDate    = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	reCRM     = regexp.MustCompile(`\bcrm\b`)
	reDosage  = regexp.MustCompile(`\b\d+\s*(mg|ml|g)\b`)
	rePatient = regexp.MustCompile(`\b(paciente|nome)\s*:`)
)

// naive heuristic confidence based on decoded text characteristics
func heuristicConfidence(txt string) float64 {
	// boost if we see common prescription artifacts (date, CRM, dosage, patient label)
	txtL := strings.ToLower(txt)
	score := 0.2 // base
	if reDate.MatchString(txtL) {
		score += 0.15
	}
	if reCRM.MatchString(txtL) {
		score += 0.2
	}
	if reDosage.MatchString(txtL) {
		score += 0.2
	}
	if rePatient.MatchString(txtL) {
		score += 0.15
	}
	if len(txt) > 80 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
