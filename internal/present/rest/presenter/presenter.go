package presenter

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/covault/covault/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func BadRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func Unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: msg})
}

// Error maps a domain error to its HTTP status. Any error the domain does
// not classify counts as an internal fault and gets logged here, once.
func Error(c echo.Context, err error) error {
	switch {
	case domain.IsNotFound(err):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case domain.IsAuthorization(err):
		return c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
	case domain.IsValidation(err):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case domain.IsConflict(err):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case domain.IsUnavailable(err):
		return c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(
			c.Request().Context(), "Unhandled error",
			slog.String("error", err.Error()),
			slog.String("module", "rest"),
		)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
