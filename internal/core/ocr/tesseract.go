package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/rx-intake/constants"
	"github.com/joseph-ayodele/rx-intake/internal/common"
	"github.com/joseph-ayodele/rx-intake/internal/core/proc"
)

// Tesseract shells out to the tesseract CLI.
type Tesseract struct {
	cfg    Config
	runner proc.Runner
	logger *slog.Logger
}

func NewTesseract(cfg Config, runner proc.Runner, logger *slog.Logger) *Tesseract {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "por"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tesseract{cfg: cfg, runner: runner, logger: logger}
}

func (e *Tesseract) Name() string { return "tesseract" }

// Recognize runs tesseract on an image and blends its word confidence with
// a prescription-shaped heuristic.
func (e *Tesseract) Recognize(ctx context.Context, path string) (Recognition, error) {
	start := time.Now()
	if constants.MapExtToFormat(filepath.Ext(path)) != constants.IMAGE {
		return Recognition{}, fmt.Errorf("%w: unsupported extension %q", common.ErrRecognitionUnavailable, filepath.Ext(path))
	}

	txt, warn, err := e.text(ctx, path)
	if err != nil {
		return Recognition{Method: "tesseract", Warnings: warn}, fmt.Errorf("%w: %v", common.ErrRecognitionUnavailable, err)
	}

	var ocrConf float64
	if e.cfg.EnableTSVConfidence {
		c, w, err2 := e.tsvConfidence(ctx, path)
		warn = append(warn, w...)
		if err2 == nil {
			ocrConf = c
		} else {
			warn = append(warn, err2.Error())
		}
	}
	heurConf := heuristicConfidence(txt)

	// blend: weight OCR higher if present
	conf := heurConf
	if ocrConf > 0 {
		conf = 0.7*ocrConf + 0.3*heurConf
	}
	if conf > 1.0 {
		conf = 1.0
	}

	e.logger.Debug("tesseract recognition done",
		"path", path,
		"ocr_confidence", ocrConf,
		"heuristic_confidence", heurConf,
		"confidence", conf,
	)
	return Recognition{
		Text:       txt,
		Confidence: conf,
		Method:     "tesseract",
		Duration:   time.Since(start),
		Warnings:   warn,
	}, nil
}

func (e *Tesseract) baseArgs(path string) []string {
	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

func (e *Tesseract) text(ctx context.Context, path string) (string, []string, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, nil, e.baseArgs(path)...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}

// tsvConfidence runs tesseract in TSV mode and returns mean word conf in 0..1.
func (e *Tesseract) tsvConfidence(ctx context.Context, path string) (float64, []string, error) {
	args := append(e.baseArgs(path), "tsv")
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, nil, args...)
	if err != nil {
		return 0, []string{string(errb)}, fmt.Errorf("tesseract TSV: %w", err)
	}
	return meanTSVConfidence(string(out)), nil, nil
}

func meanTSVConfidence(tsv string) float64 {
	lines := strings.Split(tsv, "\n")
	// conf column is the 11th of 12; header line includes "conf"
	var sum, n float64
	for i, ln := range lines {
		if i == 0 || len(ln) == 0 {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[10]
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n / 100.0
}
