// Package lifecycle is the single authority on issue status transitions.
// Every status change, whether it arrives through a PATCH or the transition
// endpoint, is checked against the table here; nothing else in the codebase
// decides transition legality.
package lifecycle

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"rtrs-be/apperrors"
	"rtrs-be/models"
)

// Actor is whoever is requesting the transition.
type Actor struct {
	ID   primitive.ObjectID
	Role models.UserRole
}

type transitionKey struct {
	From models.IssueStatus
	To   models.IssueStatus
}

type rule struct {
	guard  func(issue *models.Issue, actor Actor) string // non-empty = rejection reason
	effect func(issue *models.Issue, actor Actor, now time.Time)
}

func officerOnly(_ *models.Issue, actor Actor) string {
	if actor.Role != models.Officer {
		return "only an officer may change issue status"
	}
	return ""
}

var transitions = map[transitionKey]rule{
	{models.Pending, models.InProgress}: {
		guard: func(issue *models.Issue, actor Actor) string {
			if reason := officerOnly(issue, actor); reason != "" {
				return reason
			}
			if !issue.SubmissionVerified {
				return "submission has not been verified"
			}
			return ""
		},
		effect: func(issue *models.Issue, actor Actor, _ time.Time) {
			if issue.AssignedOfficerID == nil {
				id := actor.ID
				issue.AssignedOfficerID = &id
			}
		},
	},
	{models.Pending, models.Rejected}: {
		guard: officerOnly,
	},
	{models.InProgress, models.Resolved}: {
		guard: func(issue *models.Issue, actor Actor) string {
			if reason := officerOnly(issue, actor); reason != "" {
				return reason
			}
			if !issue.ResolutionVerified {
				return "resolution has not been verified"
			}
			if len(issue.AfterImages) == 0 {
				return "no after images attached"
			}
			return ""
		},
		effect: func(issue *models.Issue, _ Actor, now time.Time) {
			resolvedAt := now
			issue.ResolvedAt = &resolvedAt
		},
	},
	{models.InProgress, models.Rejected}: {
		guard: officerOnly,
	},
	// Explicit re-open; clears nothing.
	{models.InProgress, models.Pending}: {
		guard: officerOnly,
	},
}

// Transition applies the status change to the issue in place, or returns an
// IllegalTransitionError and leaves the issue untouched. Callers are expected
// to pass the latest persisted copy of the issue and to write it back with a
// version check, so a stale guard evaluation cannot slip through.
func Transition(issue *models.Issue, to models.IssueStatus, actor Actor, now time.Time) error {
	r, ok := transitions[transitionKey{issue.Status, to}]
	if !ok {
		return &apperrors.IllegalTransitionError{From: issue.Status, To: to}
	}
	if reason := r.guard(issue, actor); reason != "" {
		return &apperrors.IllegalTransitionError{From: issue.Status, To: to, Reason: reason}
	}
	issue.Status = to
	if r.effect != nil {
		r.effect(issue, actor, now)
	}
	return nil
}

// Allowed reports whether a from->to edge exists in the table at all,
// ignoring guards.
func Allowed(from, to models.IssueStatus) bool {
	_, ok := transitions[transitionKey{from, to}]
	return ok
}
