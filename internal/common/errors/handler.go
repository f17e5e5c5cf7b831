// internal/common/errors/handler.go
package errors

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"rental-portal/internal/common/response"
)

// ErrorHandler renders every error returned by a route as the JSON envelope
// with a toast. It is installed as echo's HTTPErrorHandler.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle satisfies echo.HTTPErrorHandler.
func (h *ErrorHandler) Handle(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	stdErr := h.normalize(err)
	status := HTTPStatus(stdErr)
	h.logError(c, stdErr, status)

	var errs interface{}
	if missing, ok := stdErr.Metadata["missing"]; ok {
		errs = map[string]interface{}{"missing": missing}
	} else if fieldErrs, ok := stdErr.Metadata["fields"]; ok {
		errs = fieldErrs
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = response.Failure(c, status, string(stdErr.Code), stdErr.Message, errs, ToToast(stdErr))
	}
	if writeErr != nil {
		h.logger.Error("failed to write error response", map[string]interface{}{
			"error": writeErr,
		})
	}
}

// normalize also folds echo's own HTTP errors (404 routes, 405, bind failures)
// into StandardErrors.
func (h *ErrorHandler) normalize(err error) *StandardError {
	if he, ok := err.(*echo.HTTPError); ok {
		msg := fmt.Sprintf("%v", he.Message)
		switch he.Code {
		case http.StatusNotFound:
			return NewResourceNotFoundError(msg)
		case http.StatusUnauthorized:
			return NewSessionInvalidError(msg)
		case http.StatusForbidden:
			return NewForbiddenError("", msg)
		case http.StatusRequestEntityTooLarge:
			return NewFileTooLargeError("", 0, 0)
		}
		if he.Code >= 400 && he.Code < 500 {
			return newError(ErrCodeInvalidInput, http.StatusText(he.Code), msg, false).
				WithMetadata("httpStatus", he.Code)
		}
		return NewInternalError(err)
	}
	return Normalize(err)
}

func (h *ErrorHandler) logError(c echo.Context, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"method":        c.Request().Method,
		"path":          c.Request().URL.Path,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if status >= 500 {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}
