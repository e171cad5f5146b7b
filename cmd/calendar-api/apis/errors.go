package apis

import (
	"calendar-sessions-backend/cmd/calendar-api/model"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

const notFoundMessage = "Not found"

// respondError writes the JSON error for err. Echo errors are handed back to
// the framework so HTTPErrorHandler shapes them.
func respondError(c echo.Context, err error) error {
	var fieldErr *model.FieldError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &fieldErr):
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: fieldErr.Msg})
	case errors.Is(err, model.ErrInvalidBody):
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: model.ErrInvalidBody.Error()})
	case errors.Is(err, model.ErrInvalidArgument):
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrNotFound):
		return c.JSON(http.StatusNotFound, model.ErrorResponse{Error: model.ErrNotFound.Error()})
	case errors.Is(err, model.ErrConflict):
		return c.JSON(http.StatusConflict, model.ErrorResponse{Error: model.ErrConflict.Error()})
	case errors.Is(err, model.ErrStaleEvent):
		return c.JSON(http.StatusConflict, model.ErrorResponse{Error: model.ErrStaleEvent.Error()})
	case errors.As(err, &httpErr):
		return httpErr
	}

	slog.ErrorContext(c.Request().Context(), "request failed",
		"method", c.Request().Method,
		"route", c.Path(),
		"error", err,
	)
	return c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
}

// HTTPErrorHandler renders every error that reaches echo as {"error": ...}.
// Unknown routes and known paths with the wrong method are both plain 404s.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := err.Error()

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			status, msg = http.StatusNotFound, notFoundMessage
		default:
			status, msg = httpErr.Code, fmt.Sprint(httpErr.Message)
		}
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "unhandled error", "route", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, model.ErrorResponse{Error: msg})
	}
	if err != nil {
		slog.Error("can't write error response", "error", err)
	}
}
