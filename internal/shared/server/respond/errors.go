package respond

import (
	"github.com/gin-gonic/gin"

	"docsummary-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body. Detail repeats the message for web
// clients that only read the top-level field.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Detail  string    `json:"detail"`
	Error   ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if username := c.GetString("username"); username != "" {
		fields["username"] = username
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Detail:  message,
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
