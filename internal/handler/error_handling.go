package handler

import (
	"context"
	"errors"
	"net/http"

	"chat-server/shared/models"

	"github.com/gin-gonic/gin"
)

// statusClientClosedRequest is the nginx convention for a caller that went
// away before the answer was ready.
const statusClientClosedRequest = 499

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrBadRequest), errors.Is(err, models.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Request body must be a JSON object with a 'prompt' string"}
	case errors.Is(err, models.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: "Token has expired"}
	case errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: "Token is missing, invalid or malformed"}
	case errors.Is(err, models.ErrRateLimited):
		statusCode = http.StatusTooManyRequests
		errResp = models.ErrorResponse{Code: models.ErrCodeRateLimited, Message: "Too many requests"}
	case errors.Is(err, context.DeadlineExceeded):
		statusCode = http.StatusGatewayTimeout
		errResp = models.ErrorResponse{Code: models.ErrCodeTimeout, Message: "Generation backend did not answer in time"}
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(statusClientClosedRequest)
		return
	default:
		statusCode = http.StatusBadGateway
		errResp = models.ErrorResponse{Code: models.ErrCodeGenerationFailed, Message: err.Error()}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}
