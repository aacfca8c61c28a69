package receiptRepo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/block-integration-api/tutorial-webchat/models"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingReceipt(id string) models.BookingReceipt {
	now := time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC)
	return models.BookingReceipt{
		CorrelationID: id,
		Status:        models.ReceiptPending,
		JobID:         "job_1",
		Provider:      "Carl Morris",
		ServiceName:   "Haircut",
		StartTime:     "2025-11-15T14:00:00-08:00",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestRedisReceiptRepo(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := NewRedisReceiptRepo(client, time.Hour)
	ctx := context.Background()

	_, err := repo.Get(ctx, "req_missing")
	assert.ErrorIs(t, err, ErrNotFound)

	receipt := pendingReceipt("req_1")
	require.NoError(t, repo.Save(ctx, receipt))
	assert.True(t, mr.Exists("booking:receipt:req_1"))
	assert.Equal(t, time.Hour, mr.TTL("booking:receipt:req_1"))

	receipt.ApplyOutcome(models.Succeeded(models.BookingResult{AppointmentID: "appt_1"}), "See you then")
	require.NoError(t, repo.Save(ctx, receipt))

	got, err := repo.Get(ctx, "req_1")
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptSucceeded, got.Status)
	assert.Equal(t, "appt_1", got.AppointmentID)
	assert.Equal(t, "See you then", got.Message)

	mr.FastForward(2 * time.Hour)
	_, err = repo.Get(ctx, "req_1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisReceiptRepo_Delete(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := NewRedisReceiptRepo(client, time.Hour)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, pendingReceipt("req_1")))
	require.NoError(t, repo.Delete(ctx, "req_1"))

	_, err := repo.Get(ctx, "req_1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReceiptRepo_Expiry(t *testing.T) {
	now := time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC)
	repo := &memoryReceiptRepo{
		entries: make(map[string]memoryEntry),
		ttl:     time.Minute,
		now:     func() time.Time { return now },
	}
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, pendingReceipt("req_1")))
	got, err := repo.Get(ctx, "req_1")
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptPending, got.Status)

	// Returned receipts are copies.
	got.Status = models.ReceiptFailed
	again, _ := repo.Get(ctx, "req_1")
	assert.Equal(t, models.ReceiptPending, again.Status)

	now = now.Add(2 * time.Minute)
	_, err = repo.Get(ctx, "req_1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Save(ctx, pendingReceipt("req_2")))
	assert.Len(t, repo.entries, 1)
}

func TestMemoryReceiptRepo_SweepsOncePerTTL(t *testing.T) {
	start := time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC)
	now := start
	repo := &memoryReceiptRepo{
		entries: make(map[string]memoryEntry),
		ttl:     time.Minute,
		now:     func() time.Time { return now },
	}
	ctx := context.Background()
	saveAt := func(offset time.Duration, id string) {
		now = start.Add(offset)
		require.NoError(t, repo.Save(ctx, pendingReceipt(id)))
	}

	saveAt(0, "req_a")
	saveAt(59*time.Second, "req_b")
	saveAt(61*time.Second, "req_c")
	assert.Len(t, repo.entries, 2, "req_a swept")

	// req_b expired but the next sweep is not due yet.
	saveAt(2*time.Minute, "req_d")
	assert.Len(t, repo.entries, 3)
	_, err := repo.Get(ctx, "req_b")
	assert.ErrorIs(t, err, ErrNotFound)

	saveAt(2*time.Minute+2*time.Second, "req_e")
	assert.Len(t, repo.entries, 2)
	assert.Contains(t, repo.entries, "req_d")
	assert.Contains(t, repo.entries, "req_e")
}
