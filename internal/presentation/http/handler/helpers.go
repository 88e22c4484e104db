package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/disfruleg/disfruleg-pos/internal/application/service"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/dto/response"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/middleware"
	"github.com/disfruleg/disfruleg-pos/pkg/apperror"
)

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// sessionFor resolves the receipt session of the authenticated operator.
// It writes a 401 and returns nil when the request carries no session.
func sessionFor(c *gin.Context, registry *service.SessionRegistry) *service.ReceiptSession {
	auth, ok := middleware.GetAuthSession(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
		return nil
	}
	return registry.Get(auth)
}

// invoiceIDParam parses the :id path parameter.
func invoiceIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		response.BadRequest(c, "Invalid invoice ID")
		return 0, false
	}
	return uint(id), true
}

// uuidParam parses a uuid path parameter.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// bindError answers a request whose body or query failed to bind. Field
// failures are listed so the counter can highlight the input.
func bindError(c *gin.Context, err error, message string) {
	appErr := apperror.NewBadRequestError(message)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		appErr = apperror.NewValidationError(message, fieldErrors(verrs))
	}
	response.Error(c, appErr)
}

func fieldErrors(verrs validator.ValidationErrors) []apperror.FieldError {
	out := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := "is invalid"
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "uuid":
			msg = "must be a UUID"
		case "max":
			msg = "must be at most " + fe.Param() + " characters"
		}
		out = append(out, apperror.FieldError{Field: strings.ToLower(fe.Field()), Message: msg})
	}
	return out
}
