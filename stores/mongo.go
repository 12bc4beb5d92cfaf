package stores

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rtrs-be/apperrors"
	"rtrs-be/models"
)

// MongoStore is the durable IssueStore backed by MongoDB. Updates are
// compare-and-swap on the issue's version field: the patch is applied to the
// freshly fetched document and written back only if nobody raced us.
type MongoStore struct {
	issues   *mongo.Collection
	comments *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		issues:   db.Collection("issues"),
		comments: db.Collection("comments"),
	}
}

// EnsureIndexes creates the indexes the scope queries rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.issues.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reporterId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "zone", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return err
	}
	_, err = s.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "issueId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return err
}

func (s *MongoStore) CreateIssue(ctx context.Context, draft IssueDraft) (*models.Issue, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	issue := newIssue(draft, time.Now())
	if _, err := s.issues.InsertOne(ctx, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

func (s *MongoStore) GetIssue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := s.issues.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &issue, nil
}

func (s *MongoStore) ListByReporter(ctx context.Context, reporterID primitive.ObjectID) ([]models.Issue, error) {
	return s.list(ctx, bson.M{"reporterId": reporterID})
}

func (s *MongoStore) ListByOfficerScope(ctx context.Context, category models.IssueCategory, zone string) ([]models.Issue, error) {
	filter := bson.M{"category": category}
	if zone != "" {
		filter["zone"] = zone
	}
	return s.list(ctx, filter)
}

func (s *MongoStore) list(ctx context.Context, filter bson.M) ([]models.Issue, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := s.issues.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (s *MongoStore) UpdateIssue(ctx context.Context, id primitive.ObjectID, patch IssuePatch) (*models.Issue, error) {
	issue, err := s.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	fetchedVersion := issue.Version
	if err := applyPatch(issue, patch, time.Now()); err != nil {
		return nil, err
	}

	result, err := s.issues.ReplaceOne(ctx, bson.M{"_id": id, "version": fetchedVersion}, issue)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		// The document existed a moment ago; somebody else won the write.
		return nil, apperrors.ErrConflict
	}
	return issue, nil
}

func (s *MongoStore) AddImages(ctx context.Context, id primitive.ObjectID, refs []string, slot ImageSlot) (*models.Issue, error) {
	issue, err := s.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	fetchedVersion := issue.Version
	if err := attachImages(issue, refs, slot, time.Now()); err != nil {
		return nil, err
	}
	if issue.Version == fetchedVersion {
		// Every ref was already attached; nothing to write.
		return issue, nil
	}

	result, err := s.issues.ReplaceOne(ctx, bson.M{"_id": id, "version": fetchedVersion}, issue)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, apperrors.ErrConflict
	}
	return issue, nil
}

func (s *MongoStore) AddComment(ctx context.Context, issueID primitive.ObjectID, content string, authorID primitive.ObjectID, role models.UserRole) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, (&apperrors.ValidationError{}).Add("content", "comment content is required")
	}
	if _, err := s.GetIssue(ctx, issueID); err != nil {
		return nil, err
	}
	comment := models.Comment{
		ID:         primitive.NewObjectID(),
		IssueID:    issueID,
		Content:    content,
		AuthorID:   authorID,
		AuthorRole: role,
		CreatedAt:  time.Now(),
	}
	if _, err := s.comments.InsertOne(ctx, comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *MongoStore) ListComments(ctx context.Context, issueID primitive.ObjectID) ([]models.Comment, error) {
	if _, err := s.GetIssue(ctx, issueID); err != nil {
		return nil, err
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := s.comments.Find(ctx, bson.M{"issueId": issueID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// MongoUserStore is the durable UserStore.
type MongoUserStore struct {
	users *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{users: db.Collection("users")}
}

// EnsureIndexes creates the unique email index.
func (s *MongoUserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoUserStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := s.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.ErrConflict
	}
	return err
}

func (s *MongoUserStore) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *MongoUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
