package models

import (
	"encoding/json"
	"reflect"
	"sort"
	"time"

	id "claimcheck/pkg/domain"
)

// EditRecord is one live correction: what the reviewer changed a field to,
// relative to the value the session started with.
type EditRecord struct {
	Field id.FieldName `json:"field"`
	From  any          `json:"from"`
	To    any          `json:"to"`
	At    time.Time    `json:"at"`
}

// EditLedger tracks reviewer corrections, at most one live record per field.
//
// Invariants:
//   - edits are relative to the session-start value, not the previous value
//   - setting a field back to its session-start value removes the record
//     entirely (revert), it never leaves a from==to entry behind
type EditLedger map[id.FieldName]EditRecord

// NewEditLedger returns an empty ledger ready for writes.
func NewEditLedger() EditLedger {
	return make(EditLedger)
}

// Record notes that field now holds newValue, where original is the
// session-start value. A newValue equal to original deletes any live record
// (the reviewer reverted); otherwise the record is inserted or its To/At
// updated in place.
func (l EditLedger) Record(field id.FieldName, original, newValue any, at time.Time) {
	if ValueEqual(original, newValue) {
		delete(l, field)
		return
	}
	l[field] = EditRecord{Field: field, From: original, To: newValue, At: at}
}

// IsEdited reports whether a live record exists for the field.
func (l EditLedger) IsEdited(field id.FieldName) bool {
	_, ok := l[field]
	return ok
}

// Snapshot returns the live records ordered by field name, the shape the
// submission payload carries.
func (l EditLedger) Snapshot() []EditRecord {
	out := make([]EditRecord, 0, len(l))
	for _, rec := range l {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// ValueEqual compares two field values after JSON normalization, so an
// int 12 extracted value and a float64 12 decoded from a request body
// compare equal. Anything that cannot be marshaled falls back to deep
// equality.
func ValueEqual(a, b any) bool {
	ab, aErr := json.Marshal(a)
	bb, bErr := json.Marshal(b)
	if aErr != nil || bErr != nil {
		return reflect.DeepEqual(a, b)
	}
	return string(ab) == string(bb)
}
