package receiptRepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/block-integration-api/tutorial-webchat/models"
	"github.com/go-redis/redis/v8"
)

const receiptPrefix = "booking:receipt:"

type redisReceiptRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReceiptRepo keeps receipts as JSON strings that expire after ttl.
func NewRedisReceiptRepo(client *redis.Client, ttl time.Duration) ReceiptRepository {
	return &redisReceiptRepo{client: client, ttl: ttl}
}

func (r *redisReceiptRepo) Save(ctx context.Context, receipt models.BookingReceipt) error {
	b, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	return r.client.Set(ctx, receiptPrefix+receipt.CorrelationID, b, r.ttl).Err()
}

func (r *redisReceiptRepo) Get(ctx context.Context, correlationID string) (*models.BookingReceipt, error) {
	data, err := r.client.Get(ctx, receiptPrefix+correlationID).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var receipt models.BookingReceipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return nil, fmt.Errorf("decode receipt %s: %w", correlationID, err)
	}
	return &receipt, nil
}

func (r *redisReceiptRepo) Delete(ctx context.Context, correlationID string) error {
	return r.client.Del(ctx, receiptPrefix+correlationID).Err()
}
