package domain

import dErrors "claimcheck/pkg/domain-errors"

// FieldName is a domain value that identifies one expense attribute on a
// receipt. Invariant: the value must be one of the supported field names.
//
// Usage: construct via ParseFieldName at trust boundaries to enforce the
// vocabulary; direct casting bypasses validation.
type FieldName string

// Supported expense fields.
// These align with the attributes the extraction service emits and the
// policy catalog references.
const (
	FieldMerchant        FieldName = "merchant"
	FieldDate            FieldName = "date"
	FieldTotal           FieldName = "total"
	FieldCurrency        FieldName = "currency"
	FieldCategory        FieldName = "category"
	FieldDescription     FieldName = "description"
	FieldBusinessPurpose FieldName = "business_purpose"
	FieldPaymentType     FieldName = "payment_type"
	FieldReimbursable    FieldName = "reimbursable"
	FieldCostCenter      FieldName = "cost_center"
	FieldProjectCode     FieldName = "project_code"
)

// FieldNames lists the vocabulary in canonical display order.
var FieldNames = []FieldName{
	FieldMerchant,
	FieldDate,
	FieldTotal,
	FieldCurrency,
	FieldCategory,
	FieldDescription,
	FieldBusinessPurpose,
	FieldPaymentType,
	FieldReimbursable,
	FieldCostCenter,
	FieldProjectCode,
}

// validFieldNames is the single source of truth for valid field names.
var validFieldNames = func() map[FieldName]bool {
	m := make(map[FieldName]bool, len(FieldNames))
	for _, f := range FieldNames {
		m[f] = true
	}
	return m
}()

// ParseFieldName constructs a FieldName from external input.
//
// Usage: call from handlers/adapters when parsing requests.
//
// Errors: returns CodeInvalidInput when the value is empty or outside the
// vocabulary; no other errors are expected.
func ParseFieldName(s string) (FieldName, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "field name cannot be empty")
	}
	f := FieldName(s)
	if !f.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown field name")
	}
	return f, nil
}

// IsValid checks if the field name is one of the supported enum values.
func (f FieldName) IsValid() bool {
	return validFieldNames[f]
}

// String returns the string representation of the field name.
func (f FieldName) String() string {
	return string(f)
}
