package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	WaterSupply       IssueCategory = "Water Supply"
	Electricity       IssueCategory = "Electricity"
	Roads             IssueCategory = "Roads"
	GarbageCollection IssueCategory = "Garbage Collection"
	Sewage            IssueCategory = "Sewage"
	StreetLights      IssueCategory = "Street Lights"
	PublicProperty    IssueCategory = "Public Property"
	Parks             IssueCategory = "Parks"
	Other             IssueCategory = "Other"
)

// Categories is the fixed catalog an issue must be filed under.
var Categories = []IssueCategory{
	WaterSupply, Electricity, Roads, GarbageCollection, Sewage,
	StreetLights, PublicProperty, Parks, Other,
}

func (c IssueCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// IssueStatus enum
type IssueStatus string

const (
	Pending    IssueStatus = "pending"
	InProgress IssueStatus = "in-progress"
	Resolved   IssueStatus = "resolved"
	Rejected   IssueStatus = "rejected"
)

var Statuses = []IssueStatus{Pending, InProgress, Resolved, Rejected}

func (s IssueStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further status change is allowed from s.
func (s IssueStatus) Terminal() bool {
	return s == Resolved || s == Rejected
}

// IssuePriority enum
type IssuePriority string

const (
	Low    IssuePriority = "low"
	Medium IssuePriority = "medium"
	High   IssuePriority = "high"
)

func (p IssuePriority) Valid() bool {
	return p == Low || p == Medium || p == High
}

// Rank orders priorities for sorting: high > medium > low.
func (p IssuePriority) Rank() int {
	switch p {
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	}
	return 0
}

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title              string              `bson:"title" json:"title"`
	Description        string              `bson:"description" json:"description"`
	Category           IssueCategory       `bson:"category" json:"category"`
	Location           string              `bson:"location" json:"location"`
	Zone               string              `bson:"zone,omitempty" json:"zone,omitempty"`
	Latitude           *float64            `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude          *float64            `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Priority           IssuePriority       `bson:"priority" json:"priority"`
	Status             IssueStatus         `bson:"status" json:"status"`
	ReporterID         primitive.ObjectID  `bson:"reporterId" json:"reporterId"`
	AssignedOfficerID  *primitive.ObjectID `bson:"assignedOfficerId,omitempty" json:"assignedOfficerId,omitempty"`
	BeforeImages       []string            `bson:"beforeImages" json:"beforeImages"`
	AfterImages        []string            `bson:"afterImages,omitempty" json:"afterImages,omitempty"`
	SubmissionVerified bool                `bson:"submissionVerified" json:"submissionVerified"`
	ResolutionVerified bool                `bson:"resolutionVerified" json:"resolutionVerified"`
	CreatedAt          time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time           `bson:"updatedAt" json:"updatedAt"`
	ResolvedAt         *time.Time          `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	Version            int64               `bson:"version" json:"version"`
}
