package models

import "time"

// CyclePhase tracks where the current validation cycle stands. Phases are
// written to the session on entry and exit of each external call, so a
// concurrent reader sees in-flight work.
type CyclePhase string

const (
	CyclePhaseIdle             CyclePhase = "IDLE"
	CyclePhaseValidating       CyclePhase = "VALIDATING"
	CyclePhaseValidated        CyclePhase = "VALIDATED"
	CyclePhaseValidationFailed CyclePhase = "VALIDATION_FAILED"
	CyclePhaseExplaining       CyclePhase = "EXPLAINING"
	CyclePhaseExplained        CyclePhase = "EXPLAINED"
	CyclePhaseExplainFailed    CyclePhase = "EXPLAIN_FAILED"
)

// InFlight reports whether an external call is currently pending in this
// phase.
func (p CyclePhase) InFlight() bool {
	return p == CyclePhaseValidating || p == CyclePhaseExplaining
}

// Explanation triggers, recorded for display and metrics.
const (
	ExplainTriggerAuto   = "auto"
	ExplainTriggerManual = "manual"
)

// Explanation is the advisory text currently shown for the session, either
// auto-chained after a validation with issues or requested by the reviewer.
// A newer explanation always replaces the whole struct.
type Explanation struct {
	Trigger                string    `json:"trigger"`
	Question               string    `json:"question"`
	Text                   string    `json:"text"`
	ClarificationQuestions []string  `json:"clarification_questions"`
	At                     time.Time `json:"at"`
}

// CycleState is the orchestrator's per-session scratchpad: the current
// phase, the error that ended the last cycle (if any), and the displayed
// explanation. Explanation failure is advisory: it lands in Err and
// ExplainFailed but never unwinds a VALIDATED outcome, which lives in the
// session's compliance response, not here.
type CycleState struct {
	Phase       CyclePhase   `json:"phase"`
	Err         string       `json:"error,omitempty"`
	Explanation *Explanation `json:"explanation,omitempty"`
}
