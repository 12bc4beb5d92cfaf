package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"rtrs-be/lifecycle"
	"rtrs-be/models"
	"rtrs-be/projections"
	"rtrs-be/stores"
)

type IssueController struct {
	Issues stores.IssueStore
	Users  stores.UserStore
}

// currentActor reads the authenticated identity set by the auth middleware.
func currentActor(c *gin.Context) (lifecycle.Actor, bool) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return lifecycle.Actor{}, false
	}
	roleVal, _ := c.Get("role")
	role, _ := roleVal.(string)
	return lifecycle.Actor{ID: userID, Role: models.UserRole(role)}, true
}

func issueIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// CreateIssue files a new issue for the authenticated citizen. The issue
// starts pending and unverified; verification is a separate explicit step.
func (ic *IssueController) CreateIssue(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var input struct {
		Title        string   `json:"title" binding:"required,max=200"`
		Description  string   `json:"description" binding:"required,max=1000"`
		Category     string   `json:"category" binding:"required"`
		Location     string   `json:"location" binding:"required,max=200"`
		Zone         string   `json:"zone,omitempty"`
		Priority     string   `json:"priority,omitempty"`
		BeforeImages []string `json:"beforeImages"`
		Latitude     *float64 `json:"latitude,omitempty"`
		Longitude    *float64 `json:"longitude,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft := stores.IssueDraft{
		Title:        input.Title,
		Description:  input.Description,
		Category:     models.IssueCategory(input.Category),
		Location:     input.Location,
		Zone:         input.Zone,
		Priority:     models.IssuePriority(input.Priority),
		BeforeImages: input.BeforeImages,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		ReporterID:   actor.ID,
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	issue, err := ic.Issues.CreateIssue(ctx, draft)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, issue)
}

// GetIssue retrieves an issue with reporter and officer details joined at
// read time; display names are never persisted on the issue itself.
func (ic *IssueController) GetIssue(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	issue, err := ic.Issues.GetIssue(ctx, issueID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := gin.H{"issue": issue}
	if reporter, err := ic.Users.GetUser(ctx, issue.ReporterID); err == nil {
		response["reporter"] = gin.H{"id": reporter.ID, "name": reporter.Name, "email": reporter.Email}
	}
	if issue.AssignedOfficerID != nil {
		if officer, err := ic.Users.GetUser(ctx, *issue.AssignedOfficerID); err == nil {
			response["officer"] = gin.H{
				"id":          officer.ID,
				"name":        officer.Name,
				"email":       officer.Email,
				"designation": officer.Designation,
			}
		}
	}

	c.JSON(http.StatusOK, response)
}

func listQuery(c *gin.Context) projections.Query {
	return projections.Query{
		Search:   c.Query("search"),
		Category: models.IssueCategory(c.Query("category")),
		SortBy:   c.DefaultQuery("sort", projections.SortCreatedAt),
		Order:    c.DefaultQuery("order", projections.OrderDesc),
	}
}

// GetMyIssues lists the authenticated citizen's own issues with status counts.
func (ic *IssueController) GetMyIssues(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	issues, err := ic.Issues.ListByReporter(ctx, actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	filtered := projections.Apply(issues, listQuery(c))

	c.JSON(http.StatusOK, gin.H{
		"issues": filtered,
		"counts": projections.CountByStatus(issues),
	})
}

// GetOfficerIssues lists the issues in the authenticated officer's
// category/zone scope, with the dashboard sub-views and counts.
func (ic *IssueController) GetOfficerIssues(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	officer, err := ic.Users.GetUser(ctx, actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	// Scope is the officer's category; zone narrowing is opt-in.
	zone := ""
	if c.Query("zoneOnly") == "true" {
		zone = officer.Zone
	}

	issues, err := ic.Issues.ListByOfficerScope(ctx, officer.Category, zone)
	if err != nil {
		respondError(c, err)
		return
	}

	view := projections.OfficerView(c.DefaultQuery("view", string(projections.ViewAll)))
	if !view.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid view"})
		return
	}

	filtered := projections.Apply(projections.FilterOfficerView(issues, view, actor.ID), listQuery(c))

	c.JSON(http.StatusOK, gin.H{
		"issues":  filtered,
		"summary": projections.SummarizeOfficer(issues, actor.ID),
	})
}

// UpdateIssue applies a partial update. Status changes in the patch are run
// through the lifecycle table by the store; an illegal patch is rejected
// whole and nothing is applied.
func (ic *IssueController) UpdateIssue(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var input struct {
		Title       *string  `json:"title,omitempty"`
		Description *string  `json:"description,omitempty"`
		Category    *string  `json:"category,omitempty"`
		Location    *string  `json:"location,omitempty"`
		Zone        *string  `json:"zone,omitempty"`
		Priority    *string  `json:"priority,omitempty"`
		Status      *string  `json:"status,omitempty"`
		Latitude    *float64 `json:"latitude,omitempty"`
		Longitude   *float64 `json:"longitude,omitempty"`
		Version     *int64   `json:"version,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	issue, err := ic.Issues.GetIssue(ctx, issueID)
	if err != nil {
		respondError(c, err)
		return
	}
	// Citizens may only touch their own reports; officers act within their
	// scope through status transitions.
	if actor.Role == models.Issuer && issue.ReporterID != actor.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to update this issue"})
		return
	}

	patch := stores.IssuePatch{
		Title:           input.Title,
		Description:     input.Description,
		Location:        input.Location,
		Zone:            input.Zone,
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		Actor:           actor,
		ExpectedVersion: input.Version,
	}
	if input.Category != nil {
		category := models.IssueCategory(*input.Category)
		patch.Category = &category
	}
	if input.Priority != nil {
		priority := models.IssuePriority(*input.Priority)
		patch.Priority = &priority
	}
	if input.Status != nil {
		status := models.IssueStatus(*input.Status)
		patch.Status = &status
	}

	updated, err := ic.Issues.UpdateIssue(ctx, issueID, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// TransitionIssue is the officer's status-change endpoint; the lifecycle
// table decides legality against the latest persisted state.
func (ic *IssueController) TransitionIssue(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var input struct {
		To      string `json:"to" binding:"required"`
		Version *int64 `json:"version,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.IssueStatus(input.To)
	patch := stores.IssuePatch{
		Status:          &status,
		Actor:           actor,
		ExpectedVersion: input.Version,
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	updated, err := ic.Issues.UpdateIssue(ctx, issueID, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// AttachImages adds uploaded image references to an issue. Attaching is
// idempotent per reference, so a client that lost the response can simply
// re-attach without re-uploading.
func (ic *IssueController) AttachImages(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}
	if _, ok := currentActor(c); !ok {
		return
	}

	var input struct {
		Refs []string `json:"refs" binding:"required"`
		Slot string   `json:"slot" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	updated, err := ic.Issues.AddImages(ctx, issueID, input.Refs, stores.ImageSlot(input.Slot))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
