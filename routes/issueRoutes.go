package routes

import (
	"rtrs-be/controllers"
	"rtrs-be/middlewares"
	"rtrs-be/models"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue, comment and verification routes.
// createExtras lets the caller add middleware (the Redis rate limiter) in
// front of issue creation when Redis is configured.
func IssueRoutes(r *gin.Engine, issues *controllers.IssueController, comments *controllers.CommentController, verify *controllers.VerificationController, createExtras ...gin.HandlerFunc) {
	group := r.Group("/api/issues", middlewares.AuthMiddleware())
	{
		createChain := append([]gin.HandlerFunc{middlewares.RequireRole(models.Issuer)}, createExtras...)
		group.POST("", append(createChain, issues.CreateIssue)...)

		group.GET("/mine", issues.GetMyIssues)
		group.GET("/assigned", middlewares.RequireRole(models.Officer), issues.GetOfficerIssues)
		group.GET("/:id", issues.GetIssue)
		group.PATCH("/:id", issues.UpdateIssue)
		group.POST("/:id/transition", middlewares.RequireRole(models.Officer), issues.TransitionIssue)
		group.POST("/:id/images", issues.AttachImages)

		group.POST("/:id/comments", comments.AddComment)
		group.GET("/:id/comments", comments.ListComments)

		group.POST("/:id/verify-submission", verify.VerifySubmission)
		group.POST("/:id/verify-resolution", middlewares.RequireRole(models.Officer), verify.VerifyResolution)
	}
}
