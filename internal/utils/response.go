package utils

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrorResponse is the stable JSON shape for every error response. Either
// Message (single failure) or Errors (itemized validation failures) is set,
// never raw internals.
type ErrorResponse struct {
	Status  int      `json:"status"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Meta    Meta     `json:"meta"`
}

// Meta contains request-scoped metadata.
type Meta struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// Error writes an error response with a single message.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{
		Status:  status,
		Message: message,
		Meta:    requestMeta(c),
	})
}

// ValidationErrors writes an error response carrying the full list of
// "field: message" violations collected for the request.
func ValidationErrors(c *gin.Context, status int, errs []string) {
	c.JSON(status, ErrorResponse{
		Status: status,
		Errors: errs,
		Meta:   requestMeta(c),
	})
}

func requestMeta(c *gin.Context) Meta {
	return Meta{
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// GetRequestID returns the correlation id assigned by the logging middleware,
// generating a short fallback when called outside a correlated request.
func GetRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}
