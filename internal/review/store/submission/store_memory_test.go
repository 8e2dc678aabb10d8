package submission

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"claimcheck/internal/review/models"
	id "claimcheck/pkg/domain"
	"claimcheck/pkg/requestcontext"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
}

func (s *MemoryStoreSuite) ctx() context.Context {
	ctx := requestcontext.WithUserID(context.Background(), "user-rev-1")
	return requestcontext.WithTime(ctx, time.Date(2025, 6, 12, 9, 30, 0, 0, time.UTC))
}

func confirmedRequest(receiptID id.ReceiptID) models.SubmissionRequest {
	fields := make(models.FieldSet)
	fields.SetManual(id.FieldMerchant, "Central Cafe")
	fields.SetManual(id.FieldTotal, "18.40")
	return models.SubmissionRequest{
		ReceiptID:     receiptID,
		FinalFields:   fields,
		UserConfirmed: true,
		PolicyRuleIDs: []string{"POL-LIM-010"},
		ReviewState:   models.ReviewStateYellow,
	}
}

func (s *MemoryStoreSuite) TestUnconfirmedBlocksWithoutStoring() {
	req := confirmedRequest("r_1a2b3c4d")
	req.UserConfirmed = false

	result, err := s.store.Create(s.ctx(), req)
	s.Require().NoError(err)
	s.Equal(models.SubmissionStatusBlocked, result.Status)
	s.Equal(models.ReasonConfirmationRequired, result.Reason)
	s.Zero(s.store.Len())
}

func (s *MemoryStoreSuite) TestConfirmedSubmits() {
	result, err := s.store.Create(s.ctx(), confirmedRequest("r_1a2b3c4d"))
	s.Require().NoError(err)

	s.Equal(models.SubmissionStatusSubmitted, result.Status)
	s.True(strings.HasPrefix(result.SubmissionID.String(), "sub_"))

	stored, ok := s.store.Get("r_1a2b3c4d")
	s.Require().True(ok)
	s.Equal(result.SubmissionID, stored.SubmissionID)
	s.Equal(id.UserID("user-rev-1"), stored.SubmittedBy)
	s.Equal(models.ReviewStateYellow, stored.Request.ReviewState)
}

func (s *MemoryStoreSuite) TestDuplicateReceiptBlocks() {
	_, err := s.store.Create(s.ctx(), confirmedRequest("r_1a2b3c4d"))
	s.Require().NoError(err)

	result, err := s.store.Create(s.ctx(), confirmedRequest("r_1a2b3c4d"))
	s.Require().NoError(err)
	s.Equal(models.SubmissionStatusBlocked, result.Status)
	s.Equal(models.ReasonDuplicateReceipt, result.Reason)
	s.Equal(1, s.store.Len())
}
