// Package projections derives the role-scoped dashboard views from issue
// lists. Everything here is a pure function over already-fetched issues, so
// both store backends get identical filtering and ordering.
package projections

import (
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"rtrs-be/models"
)

// StatusCounts tallies issues per lifecycle state.
type StatusCounts struct {
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
	Rejected   int `json:"rejected"`
	Total      int `json:"total"`
}

func CountByStatus(issues []models.Issue) StatusCounts {
	var counts StatusCounts
	for _, issue := range issues {
		switch issue.Status {
		case models.Pending:
			counts.Pending++
		case models.InProgress:
			counts.InProgress++
		case models.Resolved:
			counts.Resolved++
		case models.Rejected:
			counts.Rejected++
		}
	}
	counts.Total = len(issues)
	return counts
}

// OfficerSummary extends the status tally with the officer's personal count.
type OfficerSummary struct {
	StatusCounts
	AssignedToMe int `json:"assignedToMe"`
}

func SummarizeOfficer(issues []models.Issue, officerID primitive.ObjectID) OfficerSummary {
	summary := OfficerSummary{StatusCounts: CountByStatus(issues)}
	for _, issue := range issues {
		if issue.AssignedOfficerID != nil && *issue.AssignedOfficerID == officerID {
			summary.AssignedToMe++
		}
	}
	return summary
}

// OfficerView selects one of the officer dashboard sub-views.
type OfficerView string

const (
	ViewAll        OfficerView = "all"
	ViewAssigned   OfficerView = "assigned-to-me"
	ViewUnassigned OfficerView = "unassigned"
)

func (v OfficerView) Valid() bool {
	return v == ViewAll || v == ViewAssigned || v == ViewUnassigned
}

func FilterOfficerView(issues []models.Issue, view OfficerView, officerID primitive.ObjectID) []models.Issue {
	if view == ViewAll || view == "" {
		return issues
	}
	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		switch view {
		case ViewAssigned:
			if issue.AssignedOfficerID != nil && *issue.AssignedOfficerID == officerID {
				out = append(out, issue)
			}
		case ViewUnassigned:
			if issue.AssignedOfficerID == nil {
				out = append(out, issue)
			}
		}
	}
	return out
}

// Sort keys and orders accepted by Query.
const (
	SortCreatedAt = "createdAt"
	SortPriority  = "priority"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Query filters and orders an issue list. Ordering is deterministic: ties
// fall back to createdAt, then id, so pagination-free lists never reshuffle.
type Query struct {
	Search   string
	Category models.IssueCategory
	SortBy   string
	Order    string
}

func Apply(issues []models.Issue, q Query) []models.Issue {
	out := make([]models.Issue, 0, len(issues))
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	for _, issue := range issues {
		if q.Category != "" && issue.Category != q.Category {
			continue
		}
		if needle != "" && !matches(issue, needle) {
			continue
		}
		out = append(out, issue)
	}

	desc := q.Order != OrderAsc
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j], q.SortBy)
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// compare orders two issues on the requested key, breaking ties on createdAt
// and then id.
func compare(a, b models.Issue, sortBy string) int {
	if sortBy == SortPriority {
		if ar, br := a.Priority.Rank(), b.Priority.Rank(); ar != br {
			if ar < br {
				return -1
			}
			return 1
		}
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	}
	return strings.Compare(a.ID.Hex(), b.ID.Hex())
}

func matches(issue models.Issue, needle string) bool {
	return strings.Contains(strings.ToLower(issue.Title), needle) ||
		strings.Contains(strings.ToLower(issue.Description), needle) ||
		strings.Contains(strings.ToLower(issue.Location), needle)
}
