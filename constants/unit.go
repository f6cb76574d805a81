package constants

import "strings"

type DosageUnit string

const (
	Milligram  DosageUnit = "mg"
	Milliliter DosageUnit = "ml"
	Gram       DosageUnit = "g"
)

// units accepted by the fallback dosage check; the medication-line scanner
// only recognizes the liquid/solid pair (mg, ml).
var (
	validationUnits = []DosageUnit{Milligram, Milliliter, Gram}
	scannerUnits    = []DosageUnit{Milligram, Milliliter}
)

// ValidationUnits returns the units the fallback validator accepts, in a stable order.
func ValidationUnits() []string { return asStrings(validationUnits) }

// ScannerUnits returns the units the medication-line scanner accepts.
func ScannerUnits() []string { return asStrings(scannerUnits) }

// UnitAlternation renders units as a regexp alternation, e.g. "mg|ml".
func UnitAlternation(units []string) string { return strings.Join(units, "|") }

func asStrings(us []DosageUnit) []string {
	result := make([]string, len(us))
	for i, u := range us {
		result[i] = string(u)
	}
	return result
}
