package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/rx-intake/constants"
	"github.com/joseph-ayodele/rx-intake/internal/common"
)

// TextRecognizer accepts text that was recognized elsewhere. The confidence the
// upstream recognizer reported can be stored next to the file as "<name>.conf".
type TextRecognizer struct {
	defaultConfidence float64
	logger            *slog.Logger
}

func NewTextRecognizer(defaultConfidence float64, logger *slog.Logger) *TextRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextRecognizer{defaultConfidence: defaultConfidence, logger: logger}
}

func (t *TextRecognizer) Name() string { return "text" }

func (t *TextRecognizer) Recognize(_ context.Context, path string) (Recognition, error) {
	start := time.Now()
	if constants.MapExtToFormat(filepath.Ext(path)) != constants.TXT {
		return Recognition{}, fmt.Errorf("%w: unsupported extension %q", common.ErrRecognitionUnavailable, filepath.Ext(path))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Recognition{}, fmt.Errorf("%w: %v", common.ErrRecognitionUnavailable, err)
	}

	conf := t.defaultConfidence
	var warns []string
	if raw, err := os.ReadFile(path + ".conf"); err == nil {
		v, perr := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
		switch {
		case perr != nil:
			warns = append(warns, fmt.Sprintf("ignoring unreadable confidence sidecar: %v", perr))
		case v < 0 || v > 1:
			warns = append(warns, fmt.Sprintf("ignoring out-of-range confidence %v", v))
		default:
			conf = v
		}
	}
	if len(warns) > 0 {
		t.logger.Warn("confidence sidecar rejected", "path", path, "warnings", warns)
	}

	return Recognition{
		Text:       string(b),
		Confidence: conf,
		Method:     "text",
		Duration:   time.Since(start),
		Warnings:   warns,
	}, nil
}
