package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pabloERSH/nutrition-service/middlewares"
	"github.com/pabloERSH/nutrition-service/services"
)

// respondError maps service errors onto the JSON error envelope. Unknown
// errors are logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		validationFailed(c, verr.Errors...)
	case errors.Is(err, services.ErrDuplicateFood):
		validationFailed(c, services.ErrDuplicateFood.Error())
	case errors.Is(err, services.ErrEmailTaken):
		validationFailed(c, "The email has already been taken.")
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found", "message": "The requested resource was not found."})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "message": "You do not have privileges to update/delete this resource."})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Wrong email or password!"})
	case errors.Is(err, services.ErrSearchDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service Unavailable", "message": "Food search is not configured."})
	case errors.Is(err, services.ErrUpstream):
		slog.WarnContext(c.Request.Context(), "food search upstream failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Bad Gateway", "message": "Food search provider failed."})
	default:
		slog.ErrorContext(c.Request.Context(), "request failed",
			"request_id", middlewares.GetRequestID(c.Request.Context()),
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "message": "Something went wrong."})
	}
}

func validationFailed(c *gin.Context, msgs ...string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":   "Validation failed",
		"message": "The provided data is invalid.",
		"errors":  msgs,
	})
}

// bindJSON decodes the body, answering 422 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		validationFailed(c, bindingMessages(err)...)
		return false
	}
	return true
}

func bindingMessages(err error) []string {
	var (
		verrs    validator.ValidationErrors
		typeErr  *json.UnmarshalTypeError
		syntaxEr *json.SyntaxError
	)
	switch {
	case errors.As(err, &verrs):
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return msgs
	case errors.As(err, &typeErr):
		return []string{fmt.Sprintf("The %s field has an invalid type.", typeErr.Field)}
	case errors.As(err, &syntaxEr):
		return []string{"The request body is not valid JSON."}
	default:
		return []string{"The request body is invalid."}
	}
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", field)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", field, fe.Param())
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", field, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}

func userIDFromCtx(c *gin.Context) (uint, bool) {
	v, ok := c.Get(middlewares.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// requireUser answers 401 when the auth middleware did not run.
func requireUser(c *gin.Context) (uint, bool) {
	id, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated", "message": "Unauthenticated."})
	}
	return id, ok
}

// pathID parses the :id route parameter; unparsable ids are reported as not
// found.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, services.ErrNotFound)
		return 0, false
	}
	return uint(id), true
}

func pageFromQuery(c *gin.Context) services.PageRequest {
	return services.NewPageRequest(c.Query("page"), c.Query("per_page"))
}
