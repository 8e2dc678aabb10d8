package models

// ReviewState is the tri-state verdict gating progression to submission.
// It is always derived from the current fields and the last compliance
// response, never stored as independently mutable state; callers recompute
// it whenever either input changes.
type ReviewState string

const (
	ReviewStateGreen  ReviewState = "GREEN"
	ReviewStateYellow ReviewState = "YELLOW"
	ReviewStateRed    ReviewState = "RED"
)

// ConfidenceThreshold is the extraction confidence below which a field
// value needs human review. Matches the evaluator's published threshold.
const ConfidenceThreshold = 0.75

// ComputeReviewState derives the verdict:
//
//  1. any FAIL issue wins: RED
//  2. else any field confidence below the threshold, or any WARN: YELLOW
//  3. else GREEN
//
// Manual values carry confidence 1.0 and so never trip the confidence
// branch; only values still carrying extraction confidence can. A nil
// compliance response (nothing validated yet) leaves only that branch.
func ComputeReviewState(fields FieldSet, compliance *ValidationResponse) ReviewState {
	if compliance != nil {
		for _, issue := range compliance.Issues {
			if issue.Severity == SeverityFail {
				return ReviewStateRed
			}
		}
	}

	for _, v := range fields {
		if v.Confidence < ConfidenceThreshold {
			return ReviewStateYellow
		}
	}
	if compliance != nil {
		for _, issue := range compliance.Issues {
			if issue.Severity == SeverityWarn {
				return ReviewStateYellow
			}
		}
	}
	return ReviewStateGreen
}
