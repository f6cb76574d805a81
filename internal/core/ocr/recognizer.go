package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/rx-intake/internal/core/proc"
)

// Recognition is what a recognizer reports for one prescription image.
type Recognition struct {
	Text       string
	Confidence float64 // 0..1
	Method     string
	Duration   time.Duration
	Warnings   []string
}

// Recognizer turns a preprocessed image (or pre-recognized text file) into text.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, path string) (Recognition, error)
}

// Config selects and tunes a Recognizer.
type Config struct {
	Kind string // "tesseract" | "text"

	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "por"
	TessdataDir   string

	EnableTSVConfidence bool

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	DefaultTextConfidence float64 // used by the text recognizer when no sidecar exists
}

// NewRecognizer builds the recognizer named by cfg.Kind.
func NewRecognizer(cfg Config, runner proc.Runner, logger *slog.Logger) (Recognizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Kind {
	case "", "tesseract":
		if runner == nil {
			runner = proc.NewExecRunner(logger)
		}
		return NewTesseract(cfg, runner, logger), nil
	case "text":
		return NewTextRecognizer(cfg.DefaultTextConfidence, logger), nil
	default:
		return nil, fmt.Errorf("unknown recognizer %q", cfg.Kind)
	}
}
