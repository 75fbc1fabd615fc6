package router

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lostpaws/pawserver/internal/errs"
)

// errorBody is the uniform error response shape.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// errorHandler turns every error escaping a handler into the uniform JSON
// shape. Service errors carry their own status and message; echo's routing
// errors keep their status; anything unexpected is logged and reported as a
// plain 500 so internals never leak to clients.
func errorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Server Error"

		if se, ok := errs.As(err); ok {
			status = se.Status
			message = se.Message
		} else if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			}
		} else {
			log.Error("request failed", slog.Any("error", err))
		}

		if err := c.JSON(status, errorBody{Code: status, Message: message}); err != nil {
			log.Error("writing error response", slog.Any("error", err))
		}
	}
}
