package models

import "errors"

// Application-wide standard errors
var (
	// Request errors
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidInput = errors.New("invalid input data")

	// Access errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
	ErrRateLimited    = errors.New("too many requests")
)

// Error codes returned in ErrorResponse.Code
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeTimeout          = "timeout"
	ErrCodeGenerationFailed = "generation_failed"
)
