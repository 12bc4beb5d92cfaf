package verification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtrs-be/apperrors"
	"rtrs-be/models"
)

func TestVerifySubmissionDeterministicUnderSeed(t *testing.T) {
	images := []string{"pothole-1.jpg", "pothole-2.jpg"}

	a := NewMockVerifier(42)
	b := NewMockVerifier(42)

	for i := 0; i < 20; i++ {
		outA, errA := a.VerifySubmission(context.Background(), images, models.Roads)
		outB, errB := b.VerifySubmission(context.Background(), images, models.Roads)
		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, outA, outB, "draw %d diverged", i)
	}
}

func TestVerifyResolutionDeterministicUnderSeed(t *testing.T) {
	before := []string{"before.jpg"}
	after := []string{"after.jpg"}

	a := NewMockVerifier(7)
	b := NewMockVerifier(7)

	for i := 0; i < 20; i++ {
		outA, errA := a.VerifyResolution(context.Background(), before, after, models.Sewage)
		outB, errB := b.VerifyResolution(context.Background(), before, after, models.Sewage)
		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, outA, outB)
	}
}

func TestVerifySubmissionRejectsZeroImages(t *testing.T) {
	v := NewMockVerifier(1)
	_, err := v.VerifySubmission(context.Background(), nil, models.Roads)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestVerifyResolutionRejectsMissingImages(t *testing.T) {
	v := NewMockVerifier(1)

	_, err := v.VerifyResolution(context.Background(), nil, []string{"after.jpg"}, models.Roads)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = v.VerifyResolution(context.Background(), []string{"before.jpg"}, nil, models.Roads)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestResolutionOutcomeShape(t *testing.T) {
	v := NewMockVerifier(3)
	out, err := v.VerifyResolution(context.Background(), []string{"b.jpg"}, []string{"a.jpg"}, models.Parks)
	require.NoError(t, err)

	require.Len(t, out.Areas, 3)
	assert.Equal(t, "Cleanliness", out.Areas[0].Name)
	assert.Equal(t, "Structural Integrity", out.Areas[1].Name)
	assert.Equal(t, "Safety Hazards", out.Areas[2].Name)
	for _, area := range out.Areas {
		assert.GreaterOrEqual(t, area.Improvement, 0.0)
		assert.LessOrEqual(t, area.Improvement, 1.0)
		assert.NotEmpty(t, area.Details)
	}
	assert.GreaterOrEqual(t, out.OverallImprovement, 0.0)
	assert.LessOrEqual(t, out.OverallImprovement, 1.0)
	assert.NotEmpty(t, out.Message)
}

func TestAlwaysAcceptAndAlwaysRejectRates(t *testing.T) {
	always := NewMockVerifier(1)
	always.AcceptRate = 1.0
	out, err := always.VerifySubmission(context.Background(), []string{"x.jpg"}, models.Electricity)
	require.NoError(t, err)
	assert.True(t, out.Accepted)

	never := NewMockVerifier(1)
	never.AcceptRate = 0.0
	out, err = never.VerifySubmission(context.Background(), []string{"x.jpg"}, models.Electricity)
	require.NoError(t, err)
	assert.False(t, out.Accepted)
}

func TestTimeoutWrapperReportsUnavailable(t *testing.T) {
	slow := NewMockVerifier(1)
	slow.Latency = 500 * time.Millisecond

	v := WithTimeout(slow, 10*time.Millisecond)

	_, err := v.VerifySubmission(context.Background(), []string{"x.jpg"}, models.Roads)
	assert.ErrorIs(t, err, apperrors.ErrVerifierUnavailable)

	_, err = v.VerifyResolution(context.Background(), []string{"b.jpg"}, []string{"a.jpg"}, models.Roads)
	assert.ErrorIs(t, err, apperrors.ErrVerifierUnavailable)
}

func TestTimeoutWrapperPassesThroughFastCalls(t *testing.T) {
	v := WithTimeout(NewMockVerifier(1), time.Second)
	_, err := v.VerifySubmission(context.Background(), []string{"x.jpg"}, models.Roads)
	assert.NoError(t, err)

	// Input validation errors are not outages.
	_, err = v.VerifySubmission(context.Background(), nil, models.Roads)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
