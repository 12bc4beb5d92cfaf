package verification

import (
	"context"

	"rtrs-be/models"
)

// Outcome is the verifier's verdict on a submission's before-images.
type Outcome struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

// ImprovementArea describes one aspect of a before/after comparison.
type ImprovementArea struct {
	Name        string  `json:"name"`
	Improvement float64 `json:"improvement"`
	Details     string  `json:"details"`
}

// ResolutionOutcome is the verifier's verdict on a before/after image pair.
type ResolutionOutcome struct {
	Resolved           bool              `json:"resolved"`
	Message            string            `json:"message"`
	OverallImprovement float64           `json:"overallImprovement"`
	Areas              []ImprovementArea `json:"areas"`
}

// Verifier accepts or rejects images for submission and resolution. The
// lifecycle controller never calls it directly; it only reads the flags a
// caller persisted after a successful verification. A real vision model can
// replace the mock behind this interface without touching anything else.
type Verifier interface {
	VerifySubmission(ctx context.Context, images []string, category models.IssueCategory) (Outcome, error)
	VerifyResolution(ctx context.Context, before, after []string, category models.IssueCategory) (ResolutionOutcome, error)
}
