package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/disfruleg/disfruleg-pos/pkg/apperror"
	"github.com/disfruleg/disfruleg-pos/pkg/pagination"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Kind    apperror.Kind `json:"kind,omitempty"`
	Data    interface{}   `json:"data,omitempty"`
	Errors  interface{}   `json:"errors,omitempty"`
	Meta    *Meta         `json:"meta,omitempty"`
}

// Meta contains metadata about the response
type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

func newMeta(c *gin.Context) *Meta {
	requestID := c.GetString("request_id")
	if requestID == "" {
		requestID = c.GetHeader("X-Request-ID")
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return &Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
}

// Success sends a success response
func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    newMeta(c),
	})
}

// OK sends a 200 OK response
func OK(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusOK, message, data)
}

// SuccessWithPagination sends one page of results
func SuccessWithPagination[T any](c *gin.Context, message string, result *pagination.PaginatedResult[T]) {
	Success(c, http.StatusOK, message, result)
}

// Error maps err onto its status code and kind.
func Error(c *gin.Context, err error) {
	appErr := apperror.GetAppError(err)
	c.JSON(appErr.Code, APIResponse{
		Success: false,
		Message: appErr.Message,
		Kind:    appErr.Kind,
		Errors:  appErr.Errors,
		Meta:    newMeta(c),
	})
}

// Failure sends an unsuccessful response that still carries data, such as a
// receipt outcome the client has to show.
func Failure(c *gin.Context, err error, message string, data interface{}) {
	appErr := apperror.GetAppError(err)
	c.JSON(appErr.Code, APIResponse{
		Success: false,
		Message: message,
		Kind:    appErr.Kind,
		Data:    data,
		Meta:    newMeta(c),
	})
}

func errorWithCode(c *gin.Context, statusCode int, kind apperror.Kind, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Message: message,
		Kind:    kind,
		Meta:    newMeta(c),
	})
}

// BadRequest sends a 400 Bad Request response
func BadRequest(c *gin.Context, message string) {
	errorWithCode(c, http.StatusBadRequest, apperror.KindValidation, message)
}

// Unauthorized sends a 401 Unauthorized response
func Unauthorized(c *gin.Context, message string) {
	errorWithCode(c, http.StatusUnauthorized, apperror.KindBadCredentials, message)
}

// Forbidden sends a 403 Forbidden response
func Forbidden(c *gin.Context, message string) {
	errorWithCode(c, http.StatusForbidden, apperror.KindNotAdmin, message)
}

// TooManyRequests sends a 429 response
func TooManyRequests(c *gin.Context, message string) {
	errorWithCode(c, http.StatusTooManyRequests, apperror.KindValidation, message)
}
