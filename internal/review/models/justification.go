package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"claimcheck/internal/policy"
	id "claimcheck/pkg/domain"
	dErrors "claimcheck/pkg/domain-errors"
)

// JustificationKey addresses one justification: the flagged field and the
// rule the text answers to. A dedicated key type rather than concatenated
// strings, so an exotic rule ID can never collide with another pair.
type JustificationKey struct {
	Field  id.FieldName
	RuleID string
}

// JustificationRecord is reviewer-authored text attached to one flagged
// (field, rule) pair. It never alters compliance locally; the rule
// evaluator reads it on the next validation and decides what it is worth.
type JustificationRecord struct {
	Field  id.FieldName `json:"field"`
	RuleID string       `json:"rule_id"`
	Text   string       `json:"text"`
	At     time.Time    `json:"at"`
}

// JustificationLedger holds at most one live record per (field, rule) pair.
//
// Invariants:
//   - blank text is rejected without mutating state
//   - only rules in the justifiable allowlist accept text; all other rules
//     are informational-only
//   - saving again for the same key replaces the record (upsert)
type JustificationLedger struct {
	records map[JustificationKey]JustificationRecord
}

// NewJustificationLedger returns an empty ledger ready for writes.
func NewJustificationLedger() *JustificationLedger {
	return &JustificationLedger{records: make(map[JustificationKey]JustificationRecord)}
}

// Save upserts the justification for (field, ruleID). Text is trimmed
// first; blank text and non-justifiable rules are rejected and the ledger
// is left untouched.
func (l *JustificationLedger) Save(field id.FieldName, ruleID, text string, at time.Time) error {
	if !policy.IsJustifiable(ruleID) {
		return dErrors.Newf(dErrors.CodeValidation, "rule %s does not accept justification", ruleID)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return dErrors.New(dErrors.CodeValidation, "justification text cannot be blank")
	}
	if l.records == nil {
		l.records = make(map[JustificationKey]JustificationRecord)
	}
	key := JustificationKey{Field: field, RuleID: ruleID}
	l.records[key] = JustificationRecord{Field: field, RuleID: ruleID, Text: text, At: at}
	return nil
}

// Get returns the live record for (field, ruleID), if any.
func (l *JustificationLedger) Get(field id.FieldName, ruleID string) (JustificationRecord, bool) {
	rec, ok := l.records[JustificationKey{Field: field, RuleID: ruleID}]
	return rec, ok
}

// Len returns the number of live records.
func (l *JustificationLedger) Len() int {
	return len(l.records)
}

// RuleContext flattens the ledger to the rule_id -> text mapping the rule
// evaluator takes inside user context. When two fields justify the same
// rule, records are applied in key order so the result is deterministic.
func (l *JustificationLedger) RuleContext() map[string]string {
	if len(l.records) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(l.records))
	for _, rec := range l.Snapshot() {
		out[rec.RuleID] = rec.Text
	}
	return out
}

// Snapshot returns the live records ordered by (field, rule), the shape the
// submission payload carries.
func (l *JustificationLedger) Snapshot() []JustificationRecord {
	out := make([]JustificationRecord, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}

// MarshalJSON serializes the ledger as its ordered record list. The struct
// key cannot be a JSON object key, and the list is what both the session
// store and the submission payload want anyway.
func (l *JustificationLedger) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Snapshot())
}

// UnmarshalJSON rebuilds the keyed ledger from a record list.
func (l *JustificationLedger) UnmarshalJSON(data []byte) error {
	var records []JustificationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	l.records = make(map[JustificationKey]JustificationRecord, len(records))
	for _, rec := range records {
		l.records[JustificationKey{Field: rec.Field, RuleID: rec.RuleID}] = rec
	}
	return nil
}
