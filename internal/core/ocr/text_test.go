package ocr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rx-intake/internal/common"
)

func TestTextRecognizer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rx.txt")
	require.NoError(t, os.WriteFile(path, []byte("Paciente: Maria Silva"), 0o600))

	rec := NewTextRecognizer(0.9, nil)
	res, err := rec.Recognize(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Paciente: Maria Silva", res.Text)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)

	require.NoError(t, os.WriteFile(path+".conf", []byte("0.42\n"), 0o600))
	res, err = rec.Recognize(context.Background(), path)
	require.NoError(t, err)
	assert.InDelta(t, 0.42, res.Confidence, 1e-9)

	require.NoError(t, os.WriteFile(path+".conf", []byte("7"), 0o600))
	res, err = rec.Recognize(context.Background(), path)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)
	assert.Len(t, res.Warnings, 1)
}

func TestTextRecognizer_Errors(t *testing.T) {
	rec := NewTextRecognizer(0.9, nil)
	_, err := rec.Recognize(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, common.ErrRecognitionUnavailable)

	_, err = rec.Recognize(context.Background(), "scan.jpg")
	assert.ErrorIs(t, err, common.ErrRecognitionUnavailable)
}
