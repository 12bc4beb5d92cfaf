package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rtrs-be/apperrors"
	"rtrs-be/models"
)

// WithTimeout wraps a Verifier so that a slow or dead backend surfaces as
// ErrVerifierUnavailable instead of blocking the request indefinitely.
func WithTimeout(v Verifier, timeout time.Duration) Verifier {
	return &timeoutVerifier{inner: v, timeout: timeout}
}

type timeoutVerifier struct {
	inner   Verifier
	timeout time.Duration
}

func (t *timeoutVerifier) VerifySubmission(ctx context.Context, images []string, category models.IssueCategory) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		out Outcome
		err error
	}
	ch := make(chan result, 1)
	go func() {
		out, err := t.inner.VerifySubmission(ctx, images, category)
		ch <- result{out, err}
	}()

	select {
	case r := <-ch:
		return r.out, unavailableIfTimeout(r.err)
	case <-ctx.Done():
		return Outcome{}, unavailableIfTimeout(ctx.Err())
	}
}

func (t *timeoutVerifier) VerifyResolution(ctx context.Context, before, after []string, category models.IssueCategory) (ResolutionOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		out ResolutionOutcome
		err error
	}
	ch := make(chan result, 1)
	go func() {
		out, err := t.inner.VerifyResolution(ctx, before, after, category)
		ch <- result{out, err}
	}()

	select {
	case r := <-ch:
		return r.out, unavailableIfTimeout(r.err)
	case <-ctx.Done():
		return ResolutionOutcome{}, unavailableIfTimeout(ctx.Err())
	}
}

func unavailableIfTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", apperrors.ErrVerifierUnavailable, err)
	}
	return err
}
