// Package router wires the HTTP surface: global middleware, the route table
// for every service, and the central error handler.
package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/lostpaws/pawserver/internal/auth"
	"github.com/lostpaws/pawserver/internal/errs"
	"github.com/lostpaws/pawserver/internal/handler"
	"github.com/lostpaws/pawserver/internal/middleware"
	"github.com/lostpaws/pawserver/internal/service"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Home      *handler.Home
	Auth      *handler.Auth
	Data      *handler.Data
	JSONStore *handler.JSONStore
	Util      *handler.Util
	Admin     *handler.Admin
}

// New builds the Echo instance with all middleware and routes registered.
// The middleware order matters: CORS first so even errored responses carry
// the headers, then logging, then the throttle delay, then identity
// resolution so every handler sees the caller.
func New(log *slog.Logger, authSvc *auth.Auth, flags *service.Flags, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(log)

	// The server is meant to be called from pages served on any origin, so
	// CORS is wide open. The custom identity headers must be listed or
	// browsers will strip them from preflighted requests.
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			"X-Requested-With", "X-HTTP-Method-Override", "Content-Type", "Accept",
			middleware.HeaderAuthorization, middleware.HeaderAdmin,
		},
		MaxAge: 86400,
	}))
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Throttle(flags))
	e.Use(middleware.Identity(authSvc))

	// Landing page and static bits.
	e.GET("/", h.Home.Index)
	e.GET("/favicon.ico", h.Admin.Favicon)
	e.GET("/admin", h.Admin.Redirect)
	e.GET("/admin/*", h.Admin.Serve)

	// Authentication. Logout is a GET on purpose: the session to close is
	// identified by the token header, not by a body.
	users := e.Group("/users")
	users.POST("/register", h.Auth.Register)
	users.POST("/login", h.Auth.Login)
	users.GET("/logout", h.Auth.Logout)
	users.GET("/me", h.Auth.Me)

	// Collection CRUD. The bare path lists the collections; writes must
	// address a record by id; POST must not.
	data := e.Group("/data")
	data.GET("", h.Data.Collections)
	data.GET("/:collection", h.Data.Get)
	data.POST("/:collection", h.Data.Create)
	data.PUT("/:collection", h.Data.MissingID)
	data.PATCH("/:collection", h.Data.MissingID)
	data.DELETE("/:collection", h.Data.MissingID)
	data.GET("/:collection/:id", h.Data.Get)
	data.POST("/:collection/:id", h.Data.CreateWithID)
	data.PUT("/:collection/:id", h.Data.Replace)
	data.PATCH("/:collection/:id", h.Data.Patch)
	data.DELETE("/:collection/:id", h.Data.Delete)
	data.Any("/:collection/:id/*", h.Data.TooDeep)

	// The JSON tree accepts arbitrary path depth, so the whole subtree goes
	// through one handler.
	e.Any("/jsonstore", h.JSONStore.Handle)
	e.Any("/jsonstore/*", h.JSONStore.Handle)

	// Behavior flags.
	e.GET("/util/:flag", h.Util.GetFlag)
	e.POST("/util", h.Util.SetFlags)

	// Anything else names a service this server does not provide.
	e.Any("/*", unknownService)

	return e
}

// unknownService rejects requests whose first path segment is not a mounted
// service.
func unknownService(c echo.Context) error {
	name := strings.Trim(c.Request().URL.Path, "/")
	if idx := strings.Index(name, "/"); idx >= 0 {
		name = name[:idx]
	}
	return errs.Request(fmt.Sprintf("Service %q is not supported", name))
}
