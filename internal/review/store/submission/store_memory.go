package submission

import (
	"context"
	"sync"
	"time"

	"claimcheck/internal/review/models"
	id "claimcheck/pkg/domain"
	"claimcheck/pkg/requestcontext"
)

// StoredSubmission is what the memory store keeps per receipt.
type StoredSubmission struct {
	SubmissionID id.SubmissionID
	SubmittedBy  id.UserID
	Request      models.SubmissionRequest
	CreatedAt    time.Time
}

// MemoryStore is the in-memory submission backend for tests and local runs.
// It applies the same gate rules as the durable store: unconfirmed blocks,
// one submission per receipt.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[id.ReceiptID]StoredSubmission
}

// NewMemory constructs an empty in-memory submission store.
func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[id.ReceiptID]StoredSubmission)}
}

func (s *MemoryStore) Create(ctx context.Context, req models.SubmissionRequest) (*models.SubmissionResult, error) {
	if !req.UserConfirmed {
		return &models.SubmissionResult{
			Status: models.SubmissionStatusBlocked,
			Reason: models.ReasonConfirmationRequired,
		}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[req.ReceiptID]; exists {
		return &models.SubmissionResult{
			Status: models.SubmissionStatusBlocked,
			Reason: models.ReasonDuplicateReceipt,
		}, nil
	}

	submissionID := newSubmissionID()
	s.records[req.ReceiptID] = StoredSubmission{
		SubmissionID: submissionID,
		SubmittedBy:  requestcontext.UserID(ctx),
		Request:      req,
		CreatedAt:    requestcontext.Now(ctx),
	}

	return &models.SubmissionResult{
		Status:       models.SubmissionStatusSubmitted,
		SubmissionID: submissionID,
	}, nil
}

// Get returns the stored submission for a receipt.
func (s *MemoryStore) Get(receiptID id.ReceiptID) (StoredSubmission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[receiptID]
	return record, ok
}

// Len reports how many submissions are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
