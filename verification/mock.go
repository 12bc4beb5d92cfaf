package verification

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"rtrs-be/apperrors"
	"rtrs-be/models"
)

const (
	defaultAcceptRate = 0.85
	defaultResolveBar = 0.30
)

// MockVerifier simulates an external AI verification service. All randomness
// comes from the injected source, so a fixed seed gives fully deterministic
// outcomes in tests. Latency, when set, makes the call slow enough for the
// timeout wrapper to kick in.
type MockVerifier struct {
	mu  sync.Mutex
	rng *rand.Rand

	// AcceptRate is the probability a submission image set is accepted.
	AcceptRate float64
	// ResolveBar is the minimum improvement draw for a resolution to pass.
	ResolveBar float64
	// Latency delays every call, simulating the remote model.
	Latency time.Duration
}

// NewMockVerifier returns a mock seeded with the given value.
func NewMockVerifier(seed int64) *MockVerifier {
	return &MockVerifier{
		rng:        rand.New(rand.NewSource(seed)),
		AcceptRate: defaultAcceptRate,
		ResolveBar: defaultResolveBar,
	}
}

func (m *MockVerifier) VerifySubmission(ctx context.Context, images []string, category models.IssueCategory) (Outcome, error) {
	if len(images) == 0 {
		return Outcome{}, fmt.Errorf("%w: no images to verify", apperrors.ErrInvalidInput)
	}
	if err := m.sleep(ctx); err != nil {
		return Outcome{}, err
	}

	m.mu.Lock()
	draw := m.rng.Float64()
	m.mu.Unlock()

	if draw < m.AcceptRate {
		return Outcome{
			Accepted: true,
			Message:  fmt.Sprintf("Image verified successfully for category: %s", category),
		}, nil
	}
	return Outcome{
		Accepted: false,
		Message:  fmt.Sprintf("Image does not clearly show a %s issue. Please upload a clearer image.", category),
	}, nil
}

func (m *MockVerifier) VerifyResolution(ctx context.Context, before, after []string, category models.IssueCategory) (ResolutionOutcome, error) {
	if len(before) == 0 || len(after) == 0 {
		return ResolutionOutcome{}, fmt.Errorf("%w: need at least one before and one after image", apperrors.ErrInvalidInput)
	}
	if err := m.sleep(ctx); err != nil {
		return ResolutionOutcome{}, err
	}

	m.mu.Lock()
	improvement := m.rng.Float64()
	resolved := improvement > m.ResolveBar
	areas := []ImprovementArea{
		m.area("Cleanliness", resolved, 0.6, 0.4,
			"Significant improvement in cleanliness observed.",
			"Minor improvement in cleanliness, but not sufficient."),
		m.area("Structural Integrity", resolved, 0.7, 0.3,
			"Structure has been properly repaired.",
			"Some repair work done, but structure still needs attention."),
		m.area("Safety Hazards", resolved, 0.9, 0.1,
			"All safety hazards have been addressed.",
			"Safety issues still present and need immediate attention."),
	}
	m.mu.Unlock()

	out := ResolutionOutcome{
		Resolved:           resolved,
		OverallImprovement: improvement,
		Areas:              areas,
	}
	if resolved {
		out.Message = fmt.Sprintf("The %s issue has been successfully resolved.", category)
	} else {
		out.Message = fmt.Sprintf("The %s issue has not been fully resolved. Please address remaining issues.", category)
	}
	return out, nil
}

// area draws an improvement ratio in a band that skews high when the issue is
// resolved and low when it is not, mirroring the demo model's behavior.
// Callers must hold m.mu.
func (m *MockVerifier) area(name string, resolved bool, span, floor float64, okDetails, badDetails string) ImprovementArea {
	a := ImprovementArea{Name: name}
	if resolved {
		a.Improvement = m.rng.Float64()*span + floor
		a.Details = okDetails
	} else {
		a.Improvement = m.rng.Float64() * (1 - span)
		a.Details = badDetails
	}
	return a
}

func (m *MockVerifier) sleep(ctx context.Context) error {
	if m.Latency <= 0 {
		return nil
	}
	select {
	case <-time.After(m.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
