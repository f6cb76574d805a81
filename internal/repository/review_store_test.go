package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rx-intake/constants"
	"github.com/joseph-ayodele/rx-intake/internal/common"
	"github.com/joseph-ayodele/rx-intake/internal/entity"
)

func sampleItem(id string) entity.ReviewItem {
	return entity.ReviewItem{
		ID: id,
		PrescriptionData: entity.ValidatedRecord{
			Draft: entity.PrescriptionDraft{
				PatientName: "Maria Silva",
				Medications: []entity.MedicationLine{{Name: "Amoxicilina", Dosage: "500mg", Frequency: "8/8h"}},
			},
			Validation:           entity.ValidationResult{IsValid: true, Errors: []string{}, Warnings: []string{"x"}, Confidence: 0.7},
			Confidence:           0.7,
			RequiresManualReview: true,
			Strategy:             constants.StrategyFallback,
		},
		Status:   constants.ReviewStatusPending,
		QueuedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(context.Background(), db))
}

func TestReviewStore_InsertGet(t *testing.T) {
	ctx := context.Background()
	store := NewReviewStore(openTestDB(t), nil)

	item := sampleItem("val_1")
	require.NoError(t, store.Insert(ctx, item))

	got, err := store.Get(ctx, "val_1")
	require.NoError(t, err)
	assert.Equal(t, item, got)

	ids, err := store.PendingIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"val_1"}, ids)
}

func TestReviewStore_GetMissing(t *testing.T) {
	_, err := NewReviewStore(openTestDB(t), nil).Get(context.Background(), "val_missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReviewStore_DuplicateInsertFails(t *testing.T) {
	ctx := context.Background()
	store := NewReviewStore(openTestDB(t), nil)
	require.NoError(t, store.Insert(ctx, sampleItem("val_1")))

	err := store.Insert(ctx, sampleItem("val_1"))
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)

	ids, err := store.PendingIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"val_1"}, ids, "failed insert must not leave a pending entry")
}

func TestReviewStore_PendingOrder(t *testing.T) {
	ctx := context.Background()
	store := NewReviewStore(openTestDB(t), nil)
	for _, id := range []string{"val_c", "val_a", "val_b"} {
		require.NoError(t, store.Insert(ctx, sampleItem(id)))
	}

	ids, err := store.PendingIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"val_c", "val_a", "val_b"}, ids)
}

func TestReviewStore_ApproveRemovesOneOccurrence(t *testing.T) {
	ctx := context.Background()
	store := NewReviewStore(openTestDB(t), nil)
	require.NoError(t, store.Insert(ctx, sampleItem("val_1")))
	require.NoError(t, store.Insert(ctx, sampleItem("val_2")))
	require.NoError(t, store.AppendPending(ctx, "val_1"))

	approvedAt := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)
	got, err := store.Approve(ctx, "val_1", func(it *entity.ReviewItem) {
		it.Status = constants.ReviewStatusApproved
		it.Corrections = map[string]string{"patient_name": "Maria da Silva"}
		it.ApprovedAt = &approvedAt
	})
	require.NoError(t, err)
	assert.Equal(t, constants.ReviewStatusApproved, got.Status)

	ids, err := store.PendingIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"val_2", "val_1"}, ids)

	stored, err := store.Get(ctx, "val_1")
	require.NoError(t, err)
	assert.Equal(t, got, stored)
	assert.Equal(t, "Maria da Silva", stored.Corrections["patient_name"])
	require.NotNil(t, stored.ApprovedAt)
	assert.True(t, approvedAt.Equal(*stored.ApprovedAt))
}

func TestReviewStore_ApproveMissing(t *testing.T) {
	ctx := context.Background()
	store := NewReviewStore(openTestDB(t), nil)
	require.NoError(t, store.AppendPending(ctx, "val_ghost"))

	called := false
	_, err := store.Approve(ctx, "val_ghost", func(*entity.ReviewItem) { called = true })
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.False(t, called)

	ids, err := store.PendingIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"val_ghost"}, ids)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
