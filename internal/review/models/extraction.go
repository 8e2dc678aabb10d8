package models

import id "claimcheck/pkg/domain"

// ReceiptImage is the uploaded receipt handed to the extraction service.
// Content types are restricted at the transport boundary to PNG/JPEG.
type ReceiptImage struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExtractionResult is what the extraction service produced for one receipt:
// the minted receipt ID, field values with extraction confidences, and a
// bounded preview of the raw recognized text (input to category scoring).
type ExtractionResult struct {
	ReceiptID      id.ReceiptID `json:"receipt_id"`
	Fields         FieldSet     `json:"fields"`
	RawTextPreview string       `json:"raw_text_preview,omitempty"`
}
