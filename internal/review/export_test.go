package review

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExporter_PendingXLSX(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(newStore(t), nil)
	id, err := q.Enqueue(ctx, record("Maria Silva"))
	require.NoError(t, err)
	done, err := q.Enqueue(ctx, record("Aprovada"))
	require.NoError(t, err)
	_, err = q.Approve(ctx, done, nil)
	require.NoError(t, err)

	b, err := NewExporter(q, nil).PendingXLSX(ctx)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(pendingSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, pendingHeaders, rows[0])
	assert.Equal(t, id, rows[1][0])
	assert.Equal(t, "Maria Silva", rows[1][2])
	assert.Equal(t, "Amoxicilina 8/8h", rows[1][6])
	assert.Equal(t, "Invalid dosage format for Amoxicilina", rows[1][9])
}
