package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"
)

// RequestLogger logs every incoming request before it is handled.
func RequestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			log.Info("<< "+req.Method+" "+req.RequestURI,
				slog.String("method", req.Method),
				slog.String("uri", req.RequestURI),
			)
			return next(c)
		}
	}
}
