package response

import (
	"inclusive-matching-api/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// Response standardizes the API JSON envelope used for errors and
// operational endpoints.
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     interface{} `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Success sends a success response wrapped in the envelope
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: requestID(c),
	})
}

// Resource sends data as the bare response body. Resource endpoints
// (profiles, match results) return their payload without the envelope.
func Resource(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

// Error sends an error response
func Error(c *gin.Context, code int, message string, err interface{}) {
	c.JSON(code, Response{
		Success:   false,
		Message:   message,
		Error:     err,
		RequestID: requestID(c),
	})
}

// AppError renders err with its own status code, message and details.
func AppError(c *gin.Context, err *apperror.AppError) {
	Error(c, err.Code, err.Message, err.Details)
}

func requestID(c *gin.Context) string {
	reqID, _ := c.Get("RequestID")
	idStr, _ := reqID.(string) // Safe type assertion
	return idStr
}
