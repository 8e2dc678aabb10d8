package main

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
)

type submissionRequest struct {
	ReceiptID      string                `json:"receipt_id"`
	FinalFields    map[string]fieldValue `json:"final_fields"`
	UserConfirmed  bool                  `json:"user_confirmed"`
	PolicyRuleIDs  []string              `json:"policy_rule_ids"`
	Issues         []policyIssue         `json:"issues"`
	ReviewState    string                `json:"review_state"`
	Edits          []map[string]any      `json:"edits"`
	Justifications []map[string]any      `json:"justifications"`
}

type submissionResponse struct {
	Status       string `json:"status"`
	SubmissionID string `json:"submission_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// submissionLog is the in-memory stand-in for the submissions table. One
// submission per receipt: a second attempt for the same receipt id is
// BLOCKED, like the unique index on the real store.
type submissionLog struct {
	mu        sync.Mutex
	byReceipt map[string]string
}

func newSubmissionLog() *submissionLog {
	return &submissionLog{byReceipt: map[string]string{}}
}

func (l *submissionLog) record(receiptID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.byReceipt[receiptID]; exists {
		return "", false
	}
	id := newSubmissionID()
	l.byReceipt[receiptID] = id
	return id, true
}

func newSubmissionID() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "sub_000000000000"
	}
	return "sub_" + hex.EncodeToString(b[:])
}

func (s *server) handleSubmission(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if !s.decode(w, r, &req) {
		return
	}

	if !req.UserConfirmed {
		s.writeJSON(w, http.StatusOK, submissionResponse{
			Status: "BLOCKED",
			Reason: "User confirmation required.",
		})
		return
	}
	if req.ReceiptID == "" {
		s.writeDetail(w, http.StatusBadRequest, "receipt_id is required.")
		return
	}

	id, ok := s.submissions.record(req.ReceiptID)
	if !ok {
		s.writeJSON(w, http.StatusOK, submissionResponse{
			Status: "BLOCKED",
			Reason: "This receipt was already submitted.",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, submissionResponse{
		Status:       "SUBMITTED",
		SubmissionID: id,
	})
}
