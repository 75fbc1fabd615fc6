// Package middleware holds the echo middleware: caller identity resolution,
// request logging and the throttle switch.
package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/lostpaws/pawserver/internal/auth"
	"github.com/lostpaws/pawserver/internal/model"
	"github.com/lostpaws/pawserver/internal/service"
)

// Request headers and context keys for caller identity.
const (
	HeaderAuthorization = "X-Authorization"
	HeaderAdmin         = "X-Admin"

	contextUser  = "user"
	contextAdmin = "admin"
)

// Identity resolves the caller before the handler runs. A present
// X-Authorization header must resolve to a live session or the request fails
// with the resolver's error; the X-Admin header flags the request for the
// rule-engine bypass regardless of its value.
func Identity(a *auth.Auth) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(HeaderAdmin) != "" {
				c.Set(contextAdmin, true)
			}
			if token := c.Request().Header.Get(HeaderAuthorization); token != "" {
				user, err := a.Resolve(token)
				if err != nil {
					return err
				}
				slog.Info("Authorized as " + identityOf(user))
				c.Set(contextUser, user)
			}
			return next(c)
		}
	}
}

func identityOf(user model.Record) string {
	if email, ok := user["email"].(string); ok {
		return email
	}
	return user.ID()
}

// CallerFrom extracts the resolved identity for the services.
func CallerFrom(c echo.Context) service.Caller {
	caller := service.Caller{}
	if user, ok := c.Get(contextUser).(model.Record); ok {
		caller.User = user
	}
	if admin, ok := c.Get(contextAdmin).(bool); ok {
		caller.Admin = admin
	}
	return caller
}
