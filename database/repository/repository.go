package repository

import (
	receiptRepo "github.com/block-integration-api/tutorial-webchat/database/repository/receipt"
)

// Re-export the ReceiptRepository interface and constructors.
type ReceiptRepository = receiptRepo.ReceiptRepository

var (
	NewRedisReceiptRepo  = receiptRepo.NewRedisReceiptRepo
	NewMemoryReceiptRepo = receiptRepo.NewMemoryReceiptRepo
	ErrReceiptNotFound   = receiptRepo.ErrNotFound
)
