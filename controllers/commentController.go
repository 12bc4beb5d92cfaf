package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rtrs-be/models"
	"rtrs-be/stores"
)

type CommentController struct {
	Issues stores.IssueStore
	Users  stores.UserStore
}

// AddComment appends an immutable comment to an issue. Comments are allowed
// in every state, including resolved and rejected.
func (cc *CommentController) AddComment(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var input struct {
		Content string `json:"content"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	comment, err := cc.Issues.AddComment(ctx, issueID, input.Content, actor.ID, actor.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// ListComments returns an issue's comments oldest first, with author names
// joined at read time.
func (cc *CommentController) ListComments(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	comments, err := cc.Issues.ListComments(ctx, issueID)
	if err != nil {
		respondError(c, err)
		return
	}

	type commentWithAuthor struct {
		models.Comment
		AuthorName string `json:"authorName,omitempty"`
	}

	names := make(map[string]string)
	out := make([]commentWithAuthor, 0, len(comments))
	for _, comment := range comments {
		key := comment.AuthorID.Hex()
		if _, seen := names[key]; !seen {
			names[key] = ""
			if author, err := cc.Users.GetUser(ctx, comment.AuthorID); err == nil {
				names[key] = author.Name
			}
		}
		out = append(out, commentWithAuthor{Comment: comment, AuthorName: names[key]})
	}

	c.JSON(http.StatusOK, gin.H{"comments": out})
}
