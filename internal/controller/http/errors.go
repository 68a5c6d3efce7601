package http

import (
	"errors"
	"net/http"

	"github.com/cetiassist/asesoria_backend/internal/auth"
	"github.com/cetiassist/asesoria_backend/internal/model"
	"github.com/gin-gonic/gin"
)

// writeError maps domain errors to HTTP status codes. Mutations are
// never retried here; conflicts and validation failures go straight
// back to the caller.
func writeError(c *gin.Context, err error) {
	switch {
	case model.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrAvailabilityNotFound), errors.Is(err, model.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrAlreadyReserved),
		errors.Is(err, model.ErrNotReserved),
		errors.Is(err, model.ErrAlreadyRequested),
		errors.Is(err, model.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
