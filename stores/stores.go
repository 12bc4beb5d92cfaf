// Package stores holds the persistence layer for issues, comments and users.
// Both backends (MongoDB and in-memory) share the validation and patch logic
// here, so lifecycle guards are enforced identically no matter what is
// underneath.
package stores

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"rtrs-be/apperrors"
	"rtrs-be/lifecycle"
	"rtrs-be/models"
)

// ImageSlot selects which evidence list an image reference is attached to.
type ImageSlot string

const (
	SlotBefore ImageSlot = "before"
	SlotAfter  ImageSlot = "after"
)

func (s ImageSlot) Valid() bool {
	return s == SlotBefore || s == SlotAfter
}

// IssueDraft is the caller-supplied portion of a new issue.
type IssueDraft struct {
	Title        string
	Description  string
	Category     models.IssueCategory
	Location     string
	Zone         string
	Latitude     *float64
	Longitude    *float64
	Priority     models.IssuePriority
	BeforeImages []string
	ReporterID   primitive.ObjectID
}

// Validate collects every violated constraint rather than stopping at the
// first, so a form can show all problems at once.
func (d *IssueDraft) Validate() error {
	verr := &apperrors.ValidationError{}
	if strings.TrimSpace(d.Title) == "" {
		verr.Add("title", "title is required")
	}
	if strings.TrimSpace(d.Description) == "" {
		verr.Add("description", "description is required")
	}
	if !d.Category.Valid() {
		verr.Add("category", "category must be one of the known categories")
	}
	if strings.TrimSpace(d.Location) == "" {
		verr.Add("location", "location is required")
	}
	if len(d.BeforeImages) == 0 {
		verr.Add("beforeImages", "at least one before image is required")
	}
	if d.Priority != "" && !d.Priority.Valid() {
		verr.Add("priority", "priority must be low, medium or high")
	}
	if d.ReporterID.IsZero() {
		verr.Add("reporterId", "reporter identity is required")
	}
	return verr.OrNil()
}

// IssuePatch is a partial update. A status change must carry the actor so the
// lifecycle table can be consulted; verification flags are set by the
// verification endpoints after a successful verifier call.
type IssuePatch struct {
	Title       *string
	Description *string
	Category    *models.IssueCategory
	Location    *string
	Zone        *string
	Latitude    *float64
	Longitude   *float64
	Priority    *models.IssuePriority

	Status *models.IssueStatus
	Actor  lifecycle.Actor

	SubmissionVerified *bool
	ResolutionVerified *bool

	// ExpectedVersion, when set, makes the update a compare-and-swap: a
	// mismatch with the persisted version fails with Conflict.
	ExpectedVersion *int64
}

// IssueStore is the durable CRUD surface for issues, comments and image
// references, independent of the concrete backend.
type IssueStore interface {
	CreateIssue(ctx context.Context, draft IssueDraft) (*models.Issue, error)
	GetIssue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	ListByReporter(ctx context.Context, reporterID primitive.ObjectID) ([]models.Issue, error)
	ListByOfficerScope(ctx context.Context, category models.IssueCategory, zone string) ([]models.Issue, error)
	UpdateIssue(ctx context.Context, id primitive.ObjectID, patch IssuePatch) (*models.Issue, error)
	AddImages(ctx context.Context, id primitive.ObjectID, refs []string, slot ImageSlot) (*models.Issue, error)
	AddComment(ctx context.Context, issueID primitive.ObjectID, content string, authorID primitive.ObjectID, role models.UserRole) (*models.Comment, error)
	ListComments(ctx context.Context, issueID primitive.ObjectID) ([]models.Comment, error)
}

// UserStore is the minimal user lookup surface the controllers need.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// newIssue builds the stored issue from a validated draft. Verification is a
// separate explicit step, never implicit in creation.
func newIssue(draft IssueDraft, now time.Time) *models.Issue {
	priority := draft.Priority
	if priority == "" {
		priority = models.Medium
	}
	return &models.Issue{
		ID:           primitive.NewObjectID(),
		Title:        draft.Title,
		Description:  draft.Description,
		Category:     draft.Category,
		Location:     draft.Location,
		Zone:         draft.Zone,
		Latitude:     draft.Latitude,
		Longitude:    draft.Longitude,
		Priority:     priority,
		Status:       models.Pending,
		ReporterID:   draft.ReporterID,
		BeforeImages: append([]string(nil), draft.BeforeImages...),
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
}

// applyPatch mutates a copy of the latest persisted issue. Status changes go
// through the lifecycle table; anything illegal rejects the whole patch.
func applyPatch(issue *models.Issue, patch IssuePatch, now time.Time) error {
	if patch.ExpectedVersion != nil && *patch.ExpectedVersion != issue.Version {
		return apperrors.ErrConflict
	}

	verr := &apperrors.ValidationError{}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		verr.Add("title", "title cannot be empty")
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		verr.Add("description", "description cannot be empty")
	}
	if patch.Category != nil && !patch.Category.Valid() {
		verr.Add("category", "category must be one of the known categories")
	}
	if patch.Location != nil && strings.TrimSpace(*patch.Location) == "" {
		verr.Add("location", "location cannot be empty")
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		verr.Add("priority", "priority must be low, medium or high")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		verr.Add("status", "unknown status")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	if patch.Status != nil && *patch.Status != issue.Status {
		if err := lifecycle.Transition(issue, *patch.Status, patch.Actor, now); err != nil {
			return err
		}
	}

	if patch.Title != nil {
		issue.Title = *patch.Title
	}
	if patch.Description != nil {
		issue.Description = *patch.Description
	}
	if patch.Category != nil {
		issue.Category = *patch.Category
	}
	if patch.Location != nil {
		issue.Location = *patch.Location
	}
	if patch.Zone != nil {
		issue.Zone = *patch.Zone
	}
	if patch.Latitude != nil {
		issue.Latitude = patch.Latitude
	}
	if patch.Longitude != nil {
		issue.Longitude = patch.Longitude
	}
	if patch.Priority != nil {
		issue.Priority = *patch.Priority
	}
	if patch.SubmissionVerified != nil {
		issue.SubmissionVerified = *patch.SubmissionVerified
	}
	if patch.ResolutionVerified != nil {
		issue.ResolutionVerified = *patch.ResolutionVerified
	}

	touch(issue, now)
	issue.Version++
	return nil
}

// touch advances updatedAt, strictly, even if the clock has not moved.
func touch(issue *models.Issue, now time.Time) {
	if !now.After(issue.UpdatedAt) {
		now = issue.UpdatedAt.Add(time.Nanosecond)
	}
	issue.UpdatedAt = now
}

// attachImages appends the refs that are not already present, so re-attaching
// after a partial failure is safe.
func attachImages(issue *models.Issue, refs []string, slot ImageSlot, now time.Time) error {
	if !slot.Valid() {
		return (&apperrors.ValidationError{}).Add("slot", "slot must be before or after")
	}
	if len(refs) == 0 {
		return (&apperrors.ValidationError{}).Add("refs", "at least one image reference is required")
	}
	target := &issue.BeforeImages
	if slot == SlotAfter {
		target = &issue.AfterImages
	}
	seen := make(map[string]bool, len(*target))
	for _, ref := range *target {
		seen[ref] = true
	}
	added := false
	for _, ref := range refs {
		if ref == "" || seen[ref] {
			continue
		}
		*target = append(*target, ref)
		seen[ref] = true
		added = true
	}
	if added {
		touch(issue, now)
		issue.Version++
	}
	return nil
}
