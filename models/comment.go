package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is an immutable remark on an issue by its reporter or an officer.
// Comments are allowed in every issue state, including resolved and rejected.
type Comment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	IssueID    primitive.ObjectID `bson:"issueId" json:"issueId"`
	Content    string             `bson:"content" json:"content"`
	AuthorID   primitive.ObjectID `bson:"authorId" json:"authorId"`
	AuthorRole UserRole           `bson:"authorRole" json:"authorRole"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
