package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"

	"rtrs-be/apperrors"
	"rtrs-be/stores"
	"rtrs-be/verification"
)

const verifyMaxRetries = 2

type VerificationController struct {
	Issues   stores.IssueStore
	Verifier verification.Verifier
}

// VerifySubmission runs the verifier over an issue's before-images and, on
// acceptance, persists the submissionVerified flag. A rejection is a normal
// 200 outcome; only an outage becomes a 503 after bounded retries.
func (vc *VerificationController) VerifySubmission(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	issue, err := vc.Issues.GetIssue(ctx, issueID)
	if err != nil {
		respondError(c, err)
		return
	}

	var outcome verification.Outcome
	err = retryUnavailable(ctx, func() error {
		var verr error
		outcome, verr = vc.Verifier.VerifySubmission(ctx, issue.BeforeImages, issue.Category)
		return verr
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if outcome.Accepted {
		verified := true
		issue, err = vc.Issues.UpdateIssue(ctx, issueID, stores.IssuePatch{SubmissionVerified: &verified})
		if err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"outcome": outcome, "issue": issue})
}

// VerifyResolution compares an issue's before/after images and, on a passing
// verdict, persists the resolutionVerified flag. It never changes status;
// the transition to resolved is a separate officer action.
func (vc *VerificationController) VerifyResolution(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	issue, err := vc.Issues.GetIssue(ctx, issueID)
	if err != nil {
		respondError(c, err)
		return
	}

	var outcome verification.ResolutionOutcome
	err = retryUnavailable(ctx, func() error {
		var verr error
		outcome, verr = vc.Verifier.VerifyResolution(ctx, issue.BeforeImages, issue.AfterImages, issue.Category)
		return verr
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if outcome.Resolved {
		verified := true
		issue, err = vc.Issues.UpdateIssue(ctx, issueID, stores.IssuePatch{ResolutionVerified: &verified})
		if err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"outcome": outcome, "issue": issue})
}

// retryUnavailable retries only verifier outages, with exponential backoff;
// every other error is surfaced immediately.
func retryUnavailable(ctx context.Context, op func() error) error {
	wrapped := func() error {
		err := op()
		if err != nil && !errors.Is(err, apperrors.ErrVerifierUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), verifyMaxRetries), ctx)
	return backoff.Retry(wrapped, policy)
}
