package handler

import (
	"errors"
	"net/http"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// abortWithServiceError maps the service error taxonomy onto HTTP status
// codes. Anything outside the taxonomy is an internal error; the transaction
// has already rolled back by the time it reaches here.
func abortWithServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrLocked):
		status = http.StatusLocked
	}
	c.JSON(status, response.Error(status, err.Error()))
}
