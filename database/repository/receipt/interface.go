package receiptRepo

import (
	"context"
	"errors"

	"github.com/block-integration-api/tutorial-webchat/models"
)

// ErrNotFound is returned when no receipt exists for a correlation id.
var ErrNotFound = errors.New("booking receipt not found")

// ReceiptRepository stores the last known state of each booking attempt.
type ReceiptRepository interface {
	Save(ctx context.Context, receipt models.BookingReceipt) error
	Get(ctx context.Context, correlationID string) (*models.BookingReceipt, error)
	Delete(ctx context.Context, correlationID string) error
}
