package extract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/rx-intake/constants"
	"github.com/joseph-ayodele/rx-intake/internal/entity"
)

// headings open the medication section; compared after folding case and accents.
var headings = []string{"medicamento", "medicacao", "prescricao"}

// MedicationScanner finds "name - dosage - frequency" lines after a medication heading.
type MedicationScanner struct {
	line *regexp.Regexp
}

func NewMedicationScanner() *MedicationScanner {
	units := constants.UnitAlternation(constants.ScannerUnits())
	return &MedicationScanner{
		line: regexp.MustCompile(`^(.+?)\s*[-–]\s*(\d+\s*(?:` + units + `))\s*[-–]\s*(.+)$`),
	}
}

// Scan returns the medication lines in source order; never nil.
func (s *MedicationScanner) Scan(text string) []entity.MedicationLine {
	meds := make([]entity.MedicationLine, 0)
	inSection := false
	for _, line := range strings.Split(text, "\n") {
		if isHeading(line) {
			inSection = true
			continue
		}
		if !inSection || strings.TrimSpace(line) == "" {
			continue
		}
		if med, ok := s.parseLine(line); ok {
			meds = append(meds, med)
		}
	}
	return meds
}

func (s *MedicationScanner) parseLine(line string) (entity.MedicationLine, bool) {
	m := s.line.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return entity.MedicationLine{}, false
	}
	return entity.MedicationLine{
		Name:      strings.TrimSpace(m[1]),
		Dosage:    strings.TrimSpace(m[2]),
		Frequency: strings.TrimSpace(m[3]),
	}, true
}

func isHeading(line string) bool {
	folded := fold(line)
	for _, h := range headings {
		if strings.Contains(folded, h) {
			return true
		}
	}
	return false
}

// fold lowercases and strips combining marks so "Medicação" and "MEDICACAO" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}
