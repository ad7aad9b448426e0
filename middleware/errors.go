package middleware

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

var (
	ErrInvalidRequest = ErrorResponse{
		Error: "Invalid request",
	}
	ErrStreamUnavailable = ErrorResponse{
		Error: "Log stream unavailable",
	}
	ErrPublishFailed = ErrorResponse{
		Error: "Publishing log failed",
	}
	ErrRequestTimeout = ErrorResponse{
		Error: "Request timed out",
	}
)
