package response

import (
	"zaanjob-backend/internal/domain"
	"zaanjob-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Error     string      `json:"error"`
	Code      string      `json:"code"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Success sends payload as-is. Handlers wrap records under their domain key
// ("resume", "resumes").
func Success(c *gin.Context, code int, payload interface{}) {
	c.JSON(code, payload)
}

// Error sends an error response
func Error(c *gin.Context, code int, kind, message string, details interface{}) {
	c.JSON(code, ErrorBody{
		Error:     message,
		Code:      kind,
		Details:   details,
		RequestID: requestID(c),
	})
}

// AppError renders a typed application error.
func AppError(c *gin.Context, err *apperror.AppError) {
	Error(c, err.Code, err.Kind, err.Message, err.Details)
}

func requestID(c *gin.Context) string {
	reqID, _ := c.Get(string(domain.KeyRequestID))
	idStr, _ := reqID.(string)
	return idStr
}
