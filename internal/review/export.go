package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const pendingSheet = "Pending"

var pendingHeaders = []string{
	"Review ID",
	"Queued At",
	"Patient",
	"Doctor",
	"CRM",
	"Date",
	"Medications",
	"Confidence",
	"Errors",
	"Warnings",
}

// Exporter renders the pending queue as a workbook for reviewers.
type Exporter struct {
	queue  *Queue
	logger *slog.Logger
}

func NewExporter(queue *Queue, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{queue: queue, logger: logger}
}

// PendingXLSX returns an XLSX workbook (as bytes) with one row per pending item.
func (e *Exporter) PendingXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	items, err := e.queue.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), pendingSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range pendingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(pendingSheet, cell, h)
	}

	for n, it := range items {
		row := n + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(pendingSheet, cell, v)
		}

		d := it.PrescriptionData.Draft
		meds := make([]string, 0, len(d.Medications))
		for _, m := range d.Medications {
			meds = append(meds, strings.Join(strings.Fields(m.Name+" "+m.Dosage+" "+m.Frequency), " "))
		}
		date := d.RawDate
		if d.Date != nil {
			date = d.Date.Format("2006-01-02")
		}

		write(1, it.ID)
		write(2, it.QueuedAt.UTC().Format(time.RFC3339))
		write(3, d.PatientName)
		write(4, d.DoctorName)
		write(5, d.CRMNumber)
		write(6, date)
		write(7, strings.Join(meds, "; "))
		write(8, it.PrescriptionData.Confidence)
		write(9, strings.Join(it.PrescriptionData.Validation.Errors, "; "))
		write(10, strings.Join(it.PrescriptionData.Validation.Warnings, "; "))
	}

	// Widen a few columns
	_ = f.SetColWidth(pendingSheet, "A", "A", 42) // id
	_ = f.SetColWidth(pendingSheet, "B", "B", 22) // queued
	_ = f.SetColWidth(pendingSheet, "C", "D", 28) // people
	_ = f.SetColWidth(pendingSheet, "G", "G", 48) // medications
	_ = f.SetColWidth(pendingSheet, "I", "J", 48) // findings

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	e.logger.Info("export.xlsx.ok",
		"rows", len(items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
