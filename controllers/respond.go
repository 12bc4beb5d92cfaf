package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"rtrs-be/apperrors"
)

// respondError maps domain errors onto HTTP responses. Validation and
// transition failures carry their details; a verifier outage is flagged
// retryable so clients can tell it apart from a rejection.
func respondError(c *gin.Context, err error) {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "validation failed",
			"violations": verr.Violations,
		})
		return
	}

	var terr *apperrors.IllegalTransitionError
	if errors.As(err, &terr) {
		c.JSON(http.StatusConflict, gin.H{
			"error": terr.Error(),
			"from":  terr.From,
			"to":    terr.To,
		})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "The record was modified concurrently, please retry"})
	case errors.Is(err, apperrors.ErrVerifierUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Verification service is unavailable, please try again",
			"retryable": true,
		})
	default:
		log.Println("Internal error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}
