package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/rx-intake/internal/entity"
)

func TestScan_ThreePartLine(t *testing.T) {
	got := NewMedicationScanner().Scan("Medicamento:\nName - 500mg - 2x/day")
	assert.Equal(t, []entity.MedicationLine{{Name: "Name", Dosage: "500mg", Frequency: "2x/day"}}, got)
}

func TestScan_OrderAndSkips(t *testing.T) {
	text := "Prescrição\n" +
		"Amoxicilina - 500mg - 8/8h\n" +
		"\n" +
		"Amoxicilina sem dosagem\n" +
		"Xarope – 10 ml – 12/12h\n" +
		"Vitamina D - 2 gotas - 1x/dia\n" +
		"Dipirona-1g-6/6h\n" +
		"Ibuprofeno -400mg- se dor\n"

	got := NewMedicationScanner().Scan(text)
	assert.Equal(t, []entity.MedicationLine{
		{Name: "Amoxicilina", Dosage: "500mg", Frequency: "8/8h"},
		{Name: "Xarope", Dosage: "10 ml", Frequency: "12/12h"},
		{Name: "Ibuprofeno", Dosage: "400mg", Frequency: "se dor"},
	}, got)
}

func TestScan_HeadingVariants(t *testing.T) {
	for _, h := range []string{"Medicamento:", "MEDICAMENTOS", "Medicação:", "Medicacao", "prescricao"} {
		got := NewMedicationScanner().Scan(h + "\nAmoxicilina - 500mg - 8/8h")
		assert.Len(t, got, 1, h)
	}
}

func TestScan_LinesBeforeHeadingIgnored(t *testing.T) {
	got := NewMedicationScanner().Scan("Dipirona - 500mg - 6/6h\nMedicamento:\nAmoxicilina - 500mg - 8/8h")
	assert.Equal(t, "Amoxicilina", got[0].Name)
	assert.Len(t, got, 1)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "medicacao", fold("MEDICAÇÃO"))
	assert.Equal(t, "prescricao:", fold("Prescrição:"))
}
