package models

// Keys stored in the request context by middleware.
const (
	UserIDContextKey    = "user_id"
	RequestIDContextKey = "request_id"
)

// RequestIDHeader carries the request correlation id in both directions.
const RequestIDHeader = "X-Request-ID"
