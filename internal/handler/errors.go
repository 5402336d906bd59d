package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/woundtrack/ehr-api/internal/repository"
	"github.com/woundtrack/ehr-api/internal/service/visit"
	apperrors "github.com/woundtrack/ehr-api/pkg/errors"
)

func statusOf(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrBadRequest:
		return http.StatusBadRequest
	case apperrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrForbidden:
		return http.StatusForbidden
	case apperrors.ErrConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Validate checks request structs against their validate tags.
var Validate = validator.New()

// WriteError maps service failures onto HTTP statuses. Business-rule
// rejections keep their reason verbatim; the UI shows it to the clinician.
func WriteError(c *gin.Context, err error) {
	if rej, ok := visit.AsRejection(err); ok {
		c.JSON(http.StatusUnprocessableEntity, NewErrorResponse(rej.Reason))
		return
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(statusOf(appErr.Code), NewErrorResponse(appErr.Message))
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, NewErrorResponse("not found"))
		return
	}
	if errors.Is(err, repository.ErrStatusConflict) {
		c.JSON(http.StatusConflict, NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusInternalServerError, NewErrorResponse(err.Error()))
}
