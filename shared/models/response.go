package models

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// ChatRequest is the body of a chat call. Prompt is forwarded as is,
// the empty string included.
type ChatRequest struct {
	Prompt string `json:"prompt"`
}

// ChatResponse wraps the generated text.
type ChatResponse struct {
	Response string `json:"response"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status string `json:"status"`
}
