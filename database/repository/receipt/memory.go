package receiptRepo

import (
	"context"
	"sync"
	"time"

	"github.com/block-integration-api/tutorial-webchat/models"
)

type memoryEntry struct {
	receipt   models.BookingReceipt
	expiresAt time.Time
}

type memoryReceiptRepo struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time

	nextSweep time.Time
}

// NewMemoryReceiptRepo keeps receipts in process memory. Expired entries are
// hidden on access and swept by Save at most once per TTL.
func NewMemoryReceiptRepo(ttl time.Duration) ReceiptRepository {
	return &memoryReceiptRepo{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *memoryReceiptRepo) Save(_ context.Context, receipt models.BookingReceipt) error {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ttl > 0 && !now.Before(m.nextSweep) {
		for id, e := range m.entries {
			if m.expired(e, now) {
				delete(m.entries, id)
			}
		}
		m.nextSweep = now.Add(m.ttl)
	}
	m.entries[receipt.CorrelationID] = memoryEntry{receipt: receipt, expiresAt: now.Add(m.ttl)}
	return nil
}

func (m *memoryReceiptRepo) Get(_ context.Context, correlationID string) (*models.BookingReceipt, error) {
	m.mu.RLock()
	e, ok := m.entries[correlationID]
	m.mu.RUnlock()
	if !ok || m.expired(e, m.now()) {
		return nil, ErrNotFound
	}
	receipt := e.receipt
	return &receipt, nil
}

func (m *memoryReceiptRepo) Delete(_ context.Context, correlationID string) error {
	m.mu.Lock()
	delete(m.entries, correlationID)
	m.mu.Unlock()
	return nil
}

func (m *memoryReceiptRepo) expired(e memoryEntry, now time.Time) bool {
	return m.ttl > 0 && now.After(e.expiresAt)
}
