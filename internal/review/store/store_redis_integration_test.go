//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"claimcheck/internal/review/models"
	"claimcheck/internal/review/store"
	id "claimcheck/pkg/domain"
	"claimcheck/pkg/platform/sentinel"
	"claimcheck/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.redis.FlushAll(ctx)
	s.Require().NoError(err)
}

func makeSession(t time.Time) *models.Session {
	fields := make(models.FieldSet)
	fields.SetSuggested(id.FieldMerchant, "Central Cafe", 0.92)
	fields.SetSuggested(id.FieldTotal, "42.10", 0.58)
	fields.SetManual(id.FieldCurrency, "EUR")
	extraction := &models.ExtractionResult{
		ReceiptID:      "r_1a2b3c4d",
		Fields:         fields.Clone(),
		RawTextPreview: "CENTRAL CAFE\nTOTAL 42.10 EUR",
	}
	session, err := models.NewSession(id.NewSessionID(), "user-rev-1", extraction, fields, "client lunch", t)
	if err != nil {
		panic(err)
	}
	return session
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	now := time.Date(2025, 6, 12, 9, 30, 0, 0, time.UTC)
	session := makeSession(now)

	_, err := session.ApplyEdit(id.FieldTotal, "19.95", now.Add(time.Minute))
	s.Require().NoError(err)
	s.Require().NoError(session.ApplyJustification(id.FieldTotal, "POL-LIM-010", "Team dinner, VP approved", now.Add(2*time.Minute)))
	session.Compliance = &models.ValidationResponse{
		ReceiptID:  session.ReceiptID,
		Compliance: models.VerdictWarn,
		Issues: []models.PolicyIssue{
			{Field: "total", Severity: models.SeverityWarn, RuleID: "POL-CONF-100", Message: "low confidence"},
		},
	}
	session.Cycle = models.CycleState{
		Phase: models.CyclePhaseExplained,
		Explanation: &models.Explanation{
			Trigger:                models.ExplainTriggerAuto,
			Question:               "Explain what is flagged and what to do next.",
			Text:                   "- The total has low confidence",
			ClarificationQuestions: []string{"Is the total correct?"},
			At:                     now.Add(3 * time.Minute),
		},
	}

	s.Require().NoError(s.store.Create(ctx, session))
	s.Require().NoError(s.store.Save(ctx, session, store.AllRecords...))

	loaded, err := s.store.Get(ctx, session.ID)
	s.Require().NoError(err)

	s.Equal(session.ID, loaded.ID)
	s.Equal(session.UserID, loaded.UserID)
	s.Equal(session.ReceiptID, loaded.ReceiptID)
	s.Equal(session.Note, loaded.Note)
	s.Equal(session.Fields, loaded.Fields)
	s.Equal(session.Originals, loaded.Originals)
	s.Equal(session.Compliance, loaded.Compliance)
	s.Equal(session.Cycle, loaded.Cycle)
	s.Equal(session.Edits.Snapshot(), loaded.Edits.Snapshot())
	s.Equal(session.Justifications.Snapshot(), loaded.Justifications.Snapshot())
	s.Equal(session.ReviewState(), loaded.ReviewState())
}

func (s *RedisStoreSuite) TestCreateConflict() {
	ctx := context.Background()
	session := makeSession(time.Now())

	s.Require().NoError(s.store.Create(ctx, session))
	err := s.store.Create(ctx, session)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *RedisStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), id.NewSessionID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestPartialSaveLeavesOtherRecordsAlone pins the hash-per-record layout:
// writing the cycle must not rewrite fields that a concurrent editor owns.
func (s *RedisStoreSuite) TestPartialSaveLeavesOtherRecordsAlone() {
	ctx := context.Background()
	now := time.Date(2025, 6, 12, 9, 30, 0, 0, time.UTC)
	session := makeSession(now)
	s.Require().NoError(s.store.Create(ctx, session))

	// Writer A edits a field and saves fields+edits.
	writerA, err := s.store.Get(ctx, session.ID)
	s.Require().NoError(err)
	_, err = writerA.ApplyEdit(id.FieldTotal, "99.00", now.Add(time.Minute))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(ctx, writerA, store.RecordFields, store.RecordEdits))

	// Writer B holds a stale snapshot and saves only the cycle.
	staleB := makeSession(now)
	staleB.ID = session.ID
	staleB.UserID = session.UserID
	staleB.Cycle = models.CycleState{Phase: models.CyclePhaseValidating}
	s.Require().NoError(s.store.Save(ctx, staleB, store.RecordCycle))

	loaded, err := s.store.Get(ctx, session.ID)
	s.Require().NoError(err)
	total, ok := loaded.Fields.Get(id.FieldTotal)
	s.Require().True(ok)
	s.Equal("99.00", total.Value)
	s.True(loaded.Edits.IsEdited(id.FieldTotal))
	s.Equal(models.CyclePhaseValidating, loaded.Cycle.Phase)
}

func (s *RedisStoreSuite) TestSaveNeverResurrectsClearedSession() {
	ctx := context.Background()
	session := makeSession(time.Now())
	s.Require().NoError(s.store.Create(ctx, session))
	s.Require().NoError(s.store.Clear(ctx, session.ID))

	err := s.store.Save(ctx, session, store.RecordCycle)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Get(ctx, session.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestClearRemovesEverythingAtOnce() {
	ctx := context.Background()
	session := makeSession(time.Now())
	s.Require().NoError(s.store.Create(ctx, session))

	s.Require().NoError(s.store.Clear(ctx, session.ID))
	s.Require().NoError(s.store.Clear(ctx, session.ID))

	keys, err := s.redis.Client.Keys(ctx, "review:session:*").Result()
	s.Require().NoError(err)
	s.Empty(keys)
}

func (s *RedisStoreSuite) TestSessionTTL() {
	ctx := context.Background()
	shortLived := store.NewRedis(s.redis.Client, store.WithTTL(time.Hour))
	session := makeSession(time.Now())
	s.Require().NoError(shortLived.Create(ctx, session))

	ttl, err := s.redis.Client.TTL(ctx, "review:session:"+session.ID.String()).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 50*time.Minute)
	s.LessOrEqual(ttl, time.Hour)
}
