package response

import (
	"errors"
	"fmt"
	"net/http"

	"algomancy.gg/deckhub/pkg/apperror"
	"algomancy.gg/deckhub/pkg/ratelimiter"
	appValidator "algomancy.gg/deckhub/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logger is used for internal error reporting; replaced at startup.
var Logger = zap.NewNop()

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// GetOptionalUserID returns nil for anonymous requests.
func GetOptionalUserID(c *gin.Context) *uuid.UUID {
	userID, err := GetUserID(c)
	if err != nil {
		return nil
	}
	return &userID
}

// GetUserRole returns the role set by the auth middleware.
func GetUserRole(c *gin.Context) string {
	return c.GetString("user_role")
}

// ParseUUIDParam parses a path parameter as a UUID.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, apperror.ErrBadRequest)
	}
	return id, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": appValidator.FormatValidationError(validationErrs)})
		return
	}

	var rateLimitErr *ratelimiter.RateLimitError
	if errors.As(err, &rateLimitErr) {
		c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
	}

	code := apperror.MapErrorToStatus(err)

	if code >= http.StatusInternalServerError {
		Logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", code),
			zap.Error(err))
	}

	if code == http.StatusInternalServerError {
		c.JSON(code, gin.H{"error": apperror.ErrInternal.Error()})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

// BindError reports a request binding failure. Malformed bodies are client
// errors too, not only validation failures.
func BindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": appValidator.FormatValidationError(validationErrs)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}
