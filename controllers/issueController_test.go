package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"rtrs-be/apperrors"
	"rtrs-be/models"
	"rtrs-be/stores"
	"rtrs-be/verification"
)

// testIdentity reads the identity from test headers, standing in for the JWT
// middleware.
func testIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set("user_id", id)
			c.Set("role", c.GetHeader("X-Test-Role"))
		}
		c.Next()
	}
}

type testEnv struct {
	router *gin.Engine
	issues *stores.MemoryStore
	users  *stores.MemoryUserStore
}

func newTestEnv(t *testing.T, verifier verification.Verifier) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issueStore := stores.NewMemoryStore()
	userStore := stores.NewMemoryUserStore()

	issues := &IssueController{Issues: issueStore, Users: userStore}
	comments := &CommentController{Issues: issueStore, Users: userStore}
	verify := &VerificationController{Issues: issueStore, Verifier: verifier}

	r := gin.New()
	group := r.Group("/api/issues", testIdentity())
	group.POST("", issues.CreateIssue)
	group.GET("/mine", issues.GetMyIssues)
	group.GET("/assigned", issues.GetOfficerIssues)
	group.GET("/:id", issues.GetIssue)
	group.PATCH("/:id", issues.UpdateIssue)
	group.POST("/:id/transition", issues.TransitionIssue)
	group.POST("/:id/images", issues.AttachImages)
	group.POST("/:id/comments", comments.AddComment)
	group.GET("/:id/comments", comments.ListComments)
	group.POST("/:id/verify-submission", verify.VerifySubmission)
	group.POST("/:id/verify-resolution", verify.VerifyResolution)

	return &testEnv{router: r, issues: issueStore, users: userStore}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, userID primitive.ObjectID, role models.UserRole) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if !userID.IsZero() {
		req.Header.Set("X-Test-User", userID.Hex())
		req.Header.Set("X-Test-Role", string(role))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) newUser(t *testing.T, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Name:  "Test " + string(role),
		Email: primitive.NewObjectID().Hex() + "@example.com",
		Role:  role,
	}
	if role == models.Officer {
		user.Category = models.Roads
		user.Zone = "Central Zone"
		user.Designation = "Junior Engineer"
	}
	require.NoError(t, e.users.CreateUser(context.Background(), user))
	return user
}

func validIssueBody() gin.H {
	return gin.H{
		"title":        "Large pothole on MG Road",
		"description":  "Deep pothole near the bus stop",
		"category":     "Roads",
		"location":     "MG Road, near bus stop 12",
		"zone":         "Central Zone",
		"beforeImages": []string{"img/before-1.jpg"},
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func alwaysAccept() *verification.MockVerifier {
	v := verification.NewMockVerifier(1)
	v.AcceptRate = 1.0
	v.ResolveBar = -1 // every improvement draw passes
	return v
}

func TestCreateIssueBlankTitleListsViolation(t *testing.T) {
	env := newTestEnv(t, alwaysAccept())
	reporter := env.newUser(t, models.Issuer)

	body := validIssueBody()
	body["title"] = "   "
	w := env.do(t, http.MethodPost, "/api/issues", body, reporter.ID, models.Issuer)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "title")
}

func TestCreateAndFetchIssue(t *testing.T) {
	env := newTestEnv(t, alwaysAccept())
	reporter := env.newUser(t, models.Issuer)

	w := env.do(t, http.MethodPost, "/api/issues", validIssueBody(), reporter.ID, models.Issuer)
	require.Equal(t, http.StatusCreated, w.Code)

	created := decode(t, w)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, false, created["submissionVerified"])

	w = env.do(t, http.MethodGet, "/api/issues/"+created["id"].(string), nil, reporter.ID, models.Issuer)
	require.Equal(t, http.StatusOK, w.Code)

	fetched := decode(t, w)
	issue := fetched["issue"].(map[string]any)
	assert.Equal(t, created["id"], issue["id"])
	// Reporter details are joined at read time.
	assert.Equal(t, reporter.Name, fetched["reporter"].(map[string]any)["name"])
}

func TestSubmissionVerificationUnlocksProgress(t *testing.T) {
	env := newTestEnv(t, alwaysAccept())
	reporter := env.newUser(t, models.Issuer)
	officer := env.newUser(t, models.Officer)

	w := env.do(t, http.MethodPost, "/api/issues", validIssueBody(), reporter.ID, models.Issuer)
	require.Equal(t, http.StatusCreated, w.Code)
	issueID := decode(t, w)["id"].(string)

	// Transition before verification must fail and change nothing.
	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/transition", gin.H{"to": "in-progress"}, officer.ID, models.Officer)
	require.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/verify-submission", nil, reporter.ID, models.Issuer)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	require.Equal(t, true, out["outcome"].(map[string]any)["accepted"])
	assert.Equal(t, true, out["issue"].(map[string]any)["submissionVerified"])

	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/transition", gin.H{"to": "in-progress"}, officer.ID, models.Officer)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode(t, w)
	assert.Equal(t, "in-progress", updated["status"])
	assert.Equal(t, officer.ID.Hex(), updated["assignedOfficerId"])
}

func TestPendingToResolvedDirectlyIsIllegal(t *testing.T) {
	env := newTestEnv(t, alwaysAccept())
	reporter := env.newUser(t, models.Issuer)
	officer := env.newUser(t, models.Officer)

	w := env.do(t, http.MethodPost, "/api/issues", validIssueBody(), reporter.ID, models.Issuer)
	issueID := decode(t, w)["id"].(string)

	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/transition", gin.H{"to": "resolved"}, officer.ID, models.Officer)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "illegal transition")
}

func TestResolutionFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t, alwaysAccept())
	reporter := env.newUser(t, models.Issuer)
	officer := env.newUser(t, models.Officer)

	w := env.do(t, http.MethodPost, "/api/issues", validIssueBody(), reporter.ID, models.Issuer)
	issueID := decode(t, w)["id"].(string)

	env.do(t, http.MethodPost, "/api/issues/"+issueID+"/verify-submission", nil, reporter.ID, models.Issuer)
	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/transition", gin.H{"to": "in-progress"}, officer.ID, models.Officer)
	require.Equal(t, http.StatusOK, w.Code)

	// Resolving before resolution verification fails.
	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/transition", gin.H{"to": "resolved"}, officer.ID, models.Officer)
	require.Equal(t, http.StatusConflict, w.Code)

	// Attach the after image, verify, then resolve.
	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/images", gin.H{"refs": []string{"img/after-1.jpg"}, "slot": "after"}, officer.ID, models.Officer)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/verify-resolution", nil, officer.ID, models.Officer)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	require.Equal(t, true, out["outcome"].(map[string]any)["resolved"])

	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/transition", gin.H{"to": "resolved"}, officer.ID, models.Officer)
	require.Equal(t, http.StatusOK, w.Code)
	resolved := decode(t, w)
	assert.Equal(t, "resolved", resolved["status"])
	assert.NotNil(t, resolved["resolvedAt"])
}

func TestStaleVersionPatchConflicts(t *testing.T) {
	env := newTestEnv(t, alwaysAccept())
	reporter := env.newUser(t, models.Issuer)

	w := env.do(t, http.MethodPost, "/api/issues", validIssueBody(), reporter.ID, models.Issuer)
	created := decode(t, w)
	issueID := created["id"].(string)
	version := int64(created["version"].(float64))

	w = env.do(t, http.MethodPatch, "/api/issues/"+issueID, gin.H{"title": "First writer", "version": version}, reporter.ID, models.Issuer)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPatch, "/api/issues/"+issueID, gin.H{"title": "Second writer", "version": version}, reporter.ID, models.Issuer)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestPatchByOtherIssuerForbidden(t *testing.T) {
	env := newTestEnv(t, alwaysAccept())
	reporter := env.newUser(t, models.Issuer)
	stranger := env.newUser(t, models.Issuer)

	w := env.do(t, http.MethodPost, "/api/issues", validIssueBody(), reporter.ID, models.Issuer)
	issueID := decode(t, w)["id"].(string)

	w = env.do(t, http.MethodPatch, "/api/issues/"+issueID, gin.H{"title": "hijack"}, stranger.ID, models.Issuer)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOfficerDashboardScopeAndViews(t *testing.T) {
	env := newTestEnv(t, alwaysAccept())
	reporter := env.newUser(t, models.Issuer)
	officer := env.newUser(t, models.Officer) // Roads / Central Zone

	inScope := validIssueBody()
	outOfScope := validIssueBody()
	outOfScope["category"] = "Parks"

	w := env.do(t, http.MethodPost, "/api/issues", inScope, reporter.ID, models.Issuer)
	issueID := decode(t, w)["id"].(string)
	env.do(t, http.MethodPost, "/api/issues", outOfScope, reporter.ID, models.Issuer)

	w = env.do(t, http.MethodGet, "/api/issues/assigned", nil, officer.ID, models.Officer)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	require.Len(t, out["issues"], 1, "only the officer's category is in scope")

	// Claim the issue, then the assigned-to-me view contains it.
	env.do(t, http.MethodPost, "/api/issues/"+issueID+"/verify-submission", nil, reporter.ID, models.Issuer)
	env.do(t, http.MethodPost, "/api/issues/"+issueID+"/transition", gin.H{"to": "in-progress"}, officer.ID, models.Officer)

	w = env.do(t, http.MethodGet, "/api/issues/assigned?view=assigned-to-me", nil, officer.ID, models.Officer)
	out = decode(t, w)
	require.Len(t, out["issues"], 1)
	summary := out["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["assignedToMe"])
	assert.Equal(t, float64(1), summary["inProgress"])
}

func TestCommentsRoundTrip(t *testing.T) {
	env := newTestEnv(t, alwaysAccept())
	reporter := env.newUser(t, models.Issuer)
	officer := env.newUser(t, models.Officer)

	w := env.do(t, http.MethodPost, "/api/issues", validIssueBody(), reporter.ID, models.Issuer)
	issueID := decode(t, w)["id"].(string)

	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/comments", gin.H{"content": "On our list."}, officer.ID, models.Officer)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/comments", gin.H{"content": ""}, officer.ID, models.Officer)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/issues/"+issueID+"/comments", nil, reporter.ID, models.Issuer)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	comments := out["comments"].([]any)
	require.Len(t, comments, 1)
	first := comments[0].(map[string]any)
	assert.Equal(t, "On our list.", first["content"])
	assert.Equal(t, officer.Name, first["authorName"])
	assert.Equal(t, "officer", first["authorRole"])
}

// downVerifier simulates an outage: every call fails as unavailable.
type downVerifier struct{}

func (downVerifier) VerifySubmission(context.Context, []string, models.IssueCategory) (verification.Outcome, error) {
	return verification.Outcome{}, fmt.Errorf("%w: connection refused", apperrors.ErrVerifierUnavailable)
}

func (downVerifier) VerifyResolution(context.Context, []string, []string, models.IssueCategory) (verification.ResolutionOutcome, error) {
	return verification.ResolutionOutcome{}, fmt.Errorf("%w: connection refused", apperrors.ErrVerifierUnavailable)
}

func TestVerifierOutageIsRetryableNotARejection(t *testing.T) {
	env := newTestEnv(t, downVerifier{})
	reporter := env.newUser(t, models.Issuer)

	w := env.do(t, http.MethodPost, "/api/issues", validIssueBody(), reporter.ID, models.Issuer)
	issueID := decode(t, w)["id"].(string)

	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/verify-submission", nil, reporter.ID, models.Issuer)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	out := decode(t, w)
	assert.Equal(t, true, out["retryable"])

	// The outage must never mark the issue verified.
	issue, err := env.issues.GetIssue(context.Background(), mustObjectID(t, issueID))
	require.NoError(t, err)
	assert.False(t, issue.SubmissionVerified)
}

func mustObjectID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)
	return id
}
