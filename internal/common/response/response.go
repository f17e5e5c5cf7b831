// internal/common/response/response.go
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Toast is the transient notification a page shows for a failed action.
type Toast struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
	Code    string      `json:"code,omitempty"`
	Toast   *Toast      `json:"toast,omitempty"`
}

func Success(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Failure writes an error envelope. A nil toast means the page shows nothing.
func Failure(c echo.Context, status int, code, message string, errs interface{}, toast *Toast) error {
	return c.JSON(status, APIResponse{
		Success: false,
		Message: message,
		Code:    code,
		Errors:  errs,
		Toast:   toast,
	})
}
