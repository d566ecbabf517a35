package handlers

const (
	RequestIDHeader = "X-Request-ID"

	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrRateLimited         = "Too many requests"
	ErrInternalServerError = "Internal server error"

	CodeInvalidRequest = "INVALID_REQUEST"
	CodeUnauthorized   = "INVALID_TOKEN"
	CodeRateLimited    = "RATE_LIMITED"
	CodeNotFound       = "NOT_FOUND"
	CodeNotReady       = "PROFILE_NOT_READY"
	CodeServerError    = "SERVER_ERROR"

	maxBodyBytes = 1 << 20
)
