// Package submission provides the durable backends behind the submission
// gate. The gate invokes Create exactly once per confirmed attempt; the
// store decides SUBMITTED or BLOCKED and mints the submission ID.
package submission

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"claimcheck/internal/review/models"
	id "claimcheck/pkg/domain"
	"claimcheck/pkg/platform/audit"
	txcontext "claimcheck/pkg/platform/tx"
	"claimcheck/pkg/requestcontext"
)

// Schema is the DDL for the submissions table. Applied by deploy tooling
// and by the integration test container.
const Schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id              TEXT PRIMARY KEY,
	receipt_id      TEXT NOT NULL,
	submitted_by    TEXT NOT NULL,
	review_state    TEXT NOT NULL,
	fields          JSONB NOT NULL,
	issues          JSONB NOT NULL DEFAULT '[]'::jsonb,
	policy_rule_ids TEXT[] NOT NULL DEFAULT '{}',
	edits           JSONB NOT NULL DEFAULT '[]'::jsonb,
	justifications  JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS submissions_receipt_id_key ON submissions (receipt_id);
`

// PostgresStore persists confirmed submissions. The row and its audit
// record commit in one transaction, so a submission either exists with its
// trail or not at all.
type PostgresStore struct {
	db     *sql.DB
	audits audit.Store
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithAuditStore makes Create append a submission_recorded audit event in
// the same transaction as the submission row.
func WithAuditStore(store audit.Store) PostgresOption {
	return func(s *PostgresStore) {
		s.audits = store
	}
}

// NewPostgres constructs a PostgreSQL-backed submission store.
func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create records the submission. Unconfirmed requests block without touching
// the database; a receipt that already has a row blocks as a duplicate. Both
// blocks are results, not errors: the gate stays armed.
func (s *PostgresStore) Create(ctx context.Context, req models.SubmissionRequest) (*models.SubmissionResult, error) {
	if !req.UserConfirmed {
		return &models.SubmissionResult{
			Status: models.SubmissionStatusBlocked,
			Reason: models.ReasonConfirmationRequired,
		}, nil
	}

	fields, err := json.Marshal(req.FinalFields)
	if err != nil {
		return nil, fmt.Errorf("marshal submission fields: %w", err)
	}
	issues, err := json.Marshal(req.Issues)
	if err != nil {
		return nil, fmt.Errorf("marshal submission issues: %w", err)
	}
	edits, err := json.Marshal(req.Edits)
	if err != nil {
		return nil, fmt.Errorf("marshal submission edits: %w", err)
	}
	justifications, err := json.Marshal(req.Justifications)
	if err != nil {
		return nil, fmt.Errorf("marshal submission justifications: %w", err)
	}

	submissionID := newSubmissionID()
	now := requestcontext.Now(ctx)

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin submission tx: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	query := `
		INSERT INTO submissions (
			id, receipt_id, submitted_by, review_state,
			fields, issues, policy_rule_ids, edits, justifications, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (receipt_id) DO NOTHING
	`
	result, err := dbTx.ExecContext(ctx, query,
		submissionID.String(),
		req.ReceiptID.String(),
		requestcontext.UserID(ctx).String(),
		string(req.ReviewState),
		fields,
		issues,
		pq.Array(req.PolicyRuleIDs),
		edits,
		justifications,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	if inserted == 0 {
		return &models.SubmissionResult{
			Status: models.SubmissionStatusBlocked,
			Reason: models.ReasonDuplicateReceipt,
		}, nil
	}

	if s.audits != nil {
		event := audit.Event{
			Category:  audit.CategoryCompliance,
			Timestamp: now,
			UserID:    requestcontext.UserID(ctx),
			ReceiptID: req.ReceiptID.String(),
			Action:    string(audit.EventSubmissionRecorded),
			Decision:  string(models.SubmissionStatusSubmitted),
			RequestID: requestcontext.RequestID(ctx),
			Payload:   fields,
		}
		if err := s.audits.Append(txcontext.WithTx(ctx, dbTx), event); err != nil {
			return nil, fmt.Errorf("append submission audit record: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit submission: %w", err)
	}

	return &models.SubmissionResult{
		Status:       models.SubmissionStatusSubmitted,
		SubmissionID: submissionID,
	}, nil
}

// newSubmissionID mints a sub_-prefixed identifier from 6 random bytes.
func newSubmissionID() id.SubmissionID {
	raw := uuid.New()
	return id.SubmissionID("sub_" + hex.EncodeToString(raw[:6]))
}
