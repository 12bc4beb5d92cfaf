package stores

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"rtrs-be/apperrors"
	"rtrs-be/models"
)

// MemoryStore is an in-process IssueStore. It backs the demo mode and the
// unit tests; the Mongo store is the durable twin with identical semantics.
type MemoryStore struct {
	mu       sync.RWMutex
	issues   map[primitive.ObjectID]*models.Issue
	comments map[primitive.ObjectID][]models.Comment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		issues:   make(map[primitive.ObjectID]*models.Issue),
		comments: make(map[primitive.ObjectID][]models.Comment),
	}
}

func (s *MemoryStore) CreateIssue(_ context.Context, draft IssueDraft) (*models.Issue, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	issue := newIssue(draft, time.Now())

	s.mu.Lock()
	s.issues[issue.ID] = issue
	s.mu.Unlock()

	return copyIssue(issue), nil
}

func (s *MemoryStore) GetIssue(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issue, ok := s.issues[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copyIssue(issue), nil
}

func (s *MemoryStore) ListByReporter(_ context.Context, reporterID primitive.ObjectID) ([]models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Issue
	for _, issue := range s.issues {
		if issue.ReporterID == reporterID {
			out = append(out, *copyIssue(issue))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) ListByOfficerScope(_ context.Context, category models.IssueCategory, zone string) ([]models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Issue
	for _, issue := range s.issues {
		if issue.Category != category {
			continue
		}
		if zone != "" && issue.Zone != zone {
			continue
		}
		out = append(out, *copyIssue(issue))
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) UpdateIssue(_ context.Context, id primitive.ObjectID, patch IssuePatch) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	// Patch a copy first: a failed guard must leave the stored issue untouched.
	updated := copyIssue(issue)
	if err := applyPatch(updated, patch, time.Now()); err != nil {
		return nil, err
	}
	s.issues[id] = updated
	return copyIssue(updated), nil
}

func (s *MemoryStore) AddImages(_ context.Context, id primitive.ObjectID, refs []string, slot ImageSlot) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	updated := copyIssue(issue)
	if err := attachImages(updated, refs, slot, time.Now()); err != nil {
		return nil, err
	}
	s.issues[id] = updated
	return copyIssue(updated), nil
}

func (s *MemoryStore) AddComment(_ context.Context, issueID primitive.ObjectID, content string, authorID primitive.ObjectID, role models.UserRole) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, (&apperrors.ValidationError{}).Add("content", "comment content is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.issues[issueID]; !ok {
		return nil, apperrors.ErrNotFound
	}
	comment := models.Comment{
		ID:         primitive.NewObjectID(),
		IssueID:    issueID,
		Content:    content,
		AuthorID:   authorID,
		AuthorRole: role,
		CreatedAt:  time.Now(),
	}
	s.comments[issueID] = append(s.comments[issueID], comment)
	return &comment, nil
}

func (s *MemoryStore) ListComments(_ context.Context, issueID primitive.ObjectID) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.issues[issueID]; !ok {
		return nil, apperrors.ErrNotFound
	}
	out := append([]models.Comment(nil), s.comments[issueID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func copyIssue(issue *models.Issue) *models.Issue {
	dup := *issue
	dup.BeforeImages = append([]string(nil), issue.BeforeImages...)
	dup.AfterImages = append([]string(nil), issue.AfterImages...)
	if issue.AssignedOfficerID != nil {
		id := *issue.AssignedOfficerID
		dup.AssignedOfficerID = &id
	}
	if issue.ResolvedAt != nil {
		t := *issue.ResolvedAt
		dup.ResolvedAt = &t
	}
	return &dup
}

// sortNewestFirst orders by createdAt descending, id as tie-break so equal
// timestamps still list deterministically.
func sortNewestFirst(issues []models.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].CreatedAt.Equal(issues[j].CreatedAt) {
			return issues[i].ID.Hex() > issues[j].ID.Hex()
		}
		return issues[i].CreatedAt.After(issues[j].CreatedAt)
	})
}

// MemoryUserStore is the in-process UserStore twin.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[primitive.ObjectID]*models.User)}
}

func (s *MemoryUserStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return apperrors.ErrConflict
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	dup := *user
	s.users[user.ID] = &dup
	return nil
}

func (s *MemoryUserStore) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	dup := *user
	return &dup, nil
}

func (s *MemoryUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			dup := *user
			return &dup, nil
		}
	}
	return nil, apperrors.ErrNotFound
}
