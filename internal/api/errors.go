package api

import (
	"alcyxob/coaching-plans/internal/service"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps a service error to an HTTP response using its Outcome.
// Invariant failures carry the offending field; retryable failures say so,
// and a failed materialization also reports its job so the caller can resume it.
func respondServiceError(c *gin.Context, err error) {
	var invErr *service.InvariantError
	var matErr *service.MaterializationError

	switch service.Classify(err) {
	case service.OutcomeInvariant:
		errors.As(err, &invErr)
		body := gin.H{"error": err.Error(), "field": invErr.Field}
		if errors.As(err, &matErr) {
			body["jobId"] = matErr.JobID.Hex()
		}
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, body)
	case service.OutcomeRetryable:
		body := gin.H{"error": "Temporarily unable to complete the request.", "retryable": true}
		if errors.As(err, &matErr) {
			body["error"] = "Materialization stopped part way."
			body["jobId"] = matErr.JobID.Hex()
			body["daysWritten"] = matErr.DaysWritten
			body["itemsWritten"] = matErr.ItemsWritten
		}
		log.Printf("WARN: %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, body)
	case service.OutcomeNotFound:
		abortWithError(c, http.StatusNotFound, err.Error())
	case service.OutcomeForbidden:
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		switch {
		case errors.Is(err, service.ErrClientNotRole), errors.Is(err, service.ErrClientAlreadyAssigned):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrStorageNotConfigured):
			abortWithError(c, http.StatusNotImplemented, err.Error())
		default:
			log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
		}
	}
}
