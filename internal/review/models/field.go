package models

import (
	id "claimcheck/pkg/domain"
)

// ManualConfidence marks a value of manual origin: a human correction or a
// deterministic default, as opposed to an extraction guess.
const ManualConfidence = 1.0

// DefaultPaymentMethod is the payment_type applied at intake when the
// extractor produced none. Deployments override it via configuration.
const DefaultPaymentMethod = "corporate_card"

// FieldValue is one expense attribute with the confidence of its origin.
//
// Invariants:
//   - Confidence is in [0,1]
//   - Confidence 1.0 denotes manual origin; anything below is
//     extraction-derived and subject to the low-confidence review branch
type FieldValue struct {
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
}

// IsManual reports whether the value is of manual origin.
func (v FieldValue) IsManual() bool {
	return v.Confidence >= ManualConfidence
}

// FieldSet maps field names to their current values. Keys are normally the
// fixed vocabulary in pkg/domain; extraction may hand back extension fields
// and those are carried as-is.
type FieldSet map[id.FieldName]FieldValue

// Get returns the value for a field and whether it is present.
func (fs FieldSet) Get(name id.FieldName) (FieldValue, bool) {
	v, ok := fs[name]
	return v, ok
}

// Set replaces a field's value, preserving its recorded confidence. A field
// not present yet is inserted at manual confidence, since a value that never
// came from extraction has no extraction confidence to preserve.
func (fs FieldSet) Set(name id.FieldName, value any) {
	if existing, ok := fs[name]; ok {
		existing.Value = value
		fs[name] = existing
		return
	}
	fs[name] = FieldValue{Value: value, Confidence: ManualConfidence}
}

// SetManual replaces a field's value and marks it manual.
func (fs FieldSet) SetManual(name id.FieldName, value any) {
	fs[name] = FieldValue{Value: value, Confidence: ManualConfidence}
}

// SetSuggested replaces a field's value with a scored suggestion, keeping
// the scorer's confidence so the review threshold still applies to it.
func (fs FieldSet) SetSuggested(name id.FieldName, value any, confidence float64) {
	fs[name] = FieldValue{Value: value, Confidence: confidence}
}

// Clone returns an independent copy. Values are shared, which is safe for
// the JSON-scalar payloads extraction produces.
func (fs FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}

// StringValue returns the field's value rendered as a string, or "" when
// the field is absent or not a string.
func (fs FieldSet) StringValue(name id.FieldName) string {
	v, ok := fs[name]
	if !ok {
		return ""
	}
	s, _ := v.Value.(string)
	return s
}

// ApplyDefaults fills fields absent from extraction with fixed manual
// defaults: payment_type gets the configured default method, reimbursable
// defaults to true, and description takes the reviewer's note when one was
// provided. Only missing keys are filled, so reapplying after edits changes
// nothing: the operation is idempotent and never touches a present field.
func (fs FieldSet) ApplyDefaults(note, defaultPaymentMethod string) {
	if _, ok := fs[id.FieldPaymentType]; !ok {
		fs.SetManual(id.FieldPaymentType, defaultPaymentMethod)
	}
	if _, ok := fs[id.FieldReimbursable]; !ok {
		fs.SetManual(id.FieldReimbursable, true)
	}
	if _, ok := fs[id.FieldDescription]; !ok && note != "" {
		fs.SetManual(id.FieldDescription, note)
	}
}
