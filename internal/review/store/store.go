// Package store persists review sessions as plain structured records under
// fixed keys, one record per session facet. Both implementations share the
// same JSON codec so a session serialized by one can be read by the other.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"claimcheck/internal/review/models"
	id "claimcheck/pkg/domain"
)

// Record names one serialized facet of a session. The names are the fixed
// keys of the persistence contract; external readers of the raw hash rely
// on them staying stable.
type Record string

const (
	RecordMeta           Record = "meta"
	RecordExtraction     Record = "extraction"
	RecordFields         Record = "fields"
	RecordOriginals      Record = "originals"
	RecordNote           Record = "note"
	RecordCompliance     Record = "compliance"
	RecordReviewState    Record = "review_state"
	RecordEdits          Record = "edits"
	RecordJustifications Record = "justifications"
	RecordCycle          Record = "cycle"
	RecordSubmission     Record = "submission"
)

// AllRecords lists every record key in write order.
var AllRecords = []Record{
	RecordMeta,
	RecordExtraction,
	RecordFields,
	RecordOriginals,
	RecordNote,
	RecordCompliance,
	RecordReviewState,
	RecordEdits,
	RecordJustifications,
	RecordCycle,
	RecordSubmission,
}

// SessionStore persists review sessions with record-granular writes.
//
// Save rewrites only the named records plus meta, which every write
// refreshes. A save touching fields or compliance also rewrites
// review_state: the stored verdict is derived from those two records and
// must track any write that can move either. Save never resurrects a
// cleared session.
//
// Clear removes all records atomically from the caller's point of view.
//
// Stores return sentinel errors (sentinel.ErrNotFound, sentinel.ErrConflict);
// services translate them into domain errors.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Save(ctx context.Context, session *models.Session, records ...Record) error
	Clear(ctx context.Context, sessionID id.SessionID) error
}

// sessionMeta is the identity record. Everything else hangs off it.
type sessionMeta struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	ReceiptID string    `json:"receipt_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// encodeRecord serializes one facet of the session. The review_state record
// is derived at write time, never read back into the session.
func encodeRecord(session *models.Session, rec Record) ([]byte, error) {
	switch rec {
	case RecordMeta:
		return json.Marshal(sessionMeta{
			SessionID: session.ID.String(),
			UserID:    session.UserID.String(),
			ReceiptID: session.ReceiptID.String(),
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		})
	case RecordExtraction:
		return json.Marshal(session.Extraction)
	case RecordFields:
		return json.Marshal(session.Fields)
	case RecordOriginals:
		return json.Marshal(session.Originals)
	case RecordNote:
		return json.Marshal(session.Note)
	case RecordCompliance:
		return json.Marshal(session.Compliance)
	case RecordReviewState:
		return json.Marshal(session.ReviewState())
	case RecordEdits:
		return json.Marshal(session.Edits)
	case RecordJustifications:
		return json.Marshal(session.Justifications)
	case RecordCycle:
		return json.Marshal(session.Cycle)
	case RecordSubmission:
		return json.Marshal(session.Submission)
	default:
		return nil, fmt.Errorf("unknown session record %q", rec)
	}
}

// encodeRecords serializes the given facets, deduplicating and always
// including meta. Writes that touch fields or compliance also carry
// review_state, the verdict derived from them.
func encodeRecords(session *models.Session, records []Record) (map[Record][]byte, error) {
	full := append([]Record{RecordMeta}, records...)
	for _, rec := range records {
		if rec == RecordFields || rec == RecordCompliance {
			full = append(full, RecordReviewState)
			break
		}
	}
	out := make(map[Record][]byte, len(full))
	for _, rec := range full {
		if _, done := out[rec]; done {
			continue
		}
		data, err := encodeRecord(session, rec)
		if err != nil {
			return nil, err
		}
		out[rec] = data
	}
	return out, nil
}

// decodeSession rebuilds a session from its records. Absent optional
// records leave their zero values; absent ledgers come back empty, not nil.
// The stored review_state is ignored: it is derived state, recomputed on
// demand.
func decodeSession(records map[Record][]byte) (*models.Session, error) {
	metaData, ok := records[RecordMeta]
	if !ok {
		return nil, fmt.Errorf("session records missing %q", RecordMeta)
	}
	var meta sessionMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, fmt.Errorf("decode session meta: %w", err)
	}
	sessionID, err := id.ParseSessionID(meta.SessionID)
	if err != nil {
		return nil, fmt.Errorf("decode session meta: %w", err)
	}

	session := &models.Session{
		ID:             sessionID,
		UserID:         id.UserID(meta.UserID),
		ReceiptID:      id.ReceiptID(meta.ReceiptID),
		CreatedAt:      meta.CreatedAt,
		UpdatedAt:      meta.UpdatedAt,
		Fields:         make(models.FieldSet),
		Originals:      make(models.FieldSet),
		Edits:          models.NewEditLedger(),
		Justifications: models.NewJustificationLedger(),
		Cycle:          models.CycleState{Phase: models.CyclePhaseIdle},
	}

	decoders := map[Record]any{
		RecordExtraction:     &session.Extraction,
		RecordFields:         &session.Fields,
		RecordOriginals:      &session.Originals,
		RecordNote:           &session.Note,
		RecordCompliance:     &session.Compliance,
		RecordEdits:          &session.Edits,
		RecordJustifications: session.Justifications,
		RecordCycle:          &session.Cycle,
		RecordSubmission:     &session.Submission,
	}
	for rec, target := range decoders {
		data, ok := records[rec]
		if !ok || string(data) == "null" {
			continue
		}
		if err := json.Unmarshal(data, target); err != nil {
			return nil, fmt.Errorf("decode session record %q: %w", rec, err)
		}
	}
	return session, nil
}
