package handlers

import (
	"errors"
	"net/http"

	"github.com/feichai0017/hasty/internal/aggregate"
	"github.com/feichai0017/hasty/internal/service/auth"
	"github.com/feichai0017/hasty/internal/service/report"
	"github.com/feichai0017/hasty/pkg/converters"
	"github.com/feichai0017/hasty/pkg/queue"
)

// apiError carries the HTTP status and a stable code for an error.
type apiError struct {
	Status int
	Code   string
	Err    error
}

func (e *apiError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *apiError) Unwrap() error { return e.Err }

func newAPIError(status int, code string, err error) *apiError {
	return &apiError{Status: status, Code: code, Err: err}
}

// classify maps service errors to HTTP errors.
func classify(err error) *apiError {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}

	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return newAPIError(http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, auth.ErrLoginDisabled):
		return newAPIError(http.StatusForbidden, "login_disabled", err)
	case errors.Is(err, report.ErrInvalidUpload),
		errors.Is(err, converters.ErrInvalidWorkbook),
		errors.Is(err, converters.ErrInvalidRow):
		return newAPIError(http.StatusBadRequest, "invalid_upload", err)
	case errors.Is(err, converters.ErrMissingSheet),
		errors.Is(err, converters.ErrMissingColumn),
		errors.Is(err, aggregate.ErrMissingReference),
		errors.Is(err, aggregate.ErrEmptyCommodity),
		errors.Is(err, aggregate.ErrMixedCommodity):
		return newAPIError(http.StatusUnprocessableEntity, "invalid_workbook", err)
	case errors.Is(err, queue.ErrTaskNotFound):
		return newAPIError(http.StatusNotFound, "task_not_found", err)
	case errors.Is(err, report.ErrTaskNotFinished):
		return newAPIError(http.StatusConflict, "task_not_finished", err)
	case errors.Is(err, report.ErrTaskFinished):
		return newAPIError(http.StatusConflict, "task_finished", err)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", err)
	}
}
