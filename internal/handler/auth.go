// Package handler contains the echo handlers that translate HTTP requests
// into service calls and service results into JSON responses.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lostpaws/pawserver/internal/auth"
	"github.com/lostpaws/pawserver/internal/errs"
	"github.com/lostpaws/pawserver/internal/middleware"
	"github.com/lostpaws/pawserver/internal/model"
)

// Auth handles the /users endpoints.
type Auth struct {
	svc *auth.Auth
}

func NewAuth(svc *auth.Auth) *Auth {
	return &Auth{svc: svc}
}

// Register creates an account and returns the profile with an access token.
func (h *Auth) Register(c echo.Context) error {
	body, err := bindRecord(c)
	if err != nil {
		return err
	}
	user, err := h.svc.Register(body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Login opens a session and returns the profile with an access token.
func (h *Auth) Login(c echo.Context) error {
	body, err := bindRecord(c)
	if err != nil {
		return err
	}
	user, err := h.svc.Login(body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Logout closes the caller's session. A successful logout has no body.
func (h *Auth) Logout(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	if err := h.svc.Logout(caller.User); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated caller's own profile.
func (h *Auth) Me(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	if caller.User == nil {
		return errs.Authorization()
	}
	return c.JSON(http.StatusOK, auth.Public(caller.User))
}

// bindRecord decodes the request body into a record. An empty or malformed
// body is a request error.
func bindRecord(c echo.Context) (model.Record, error) {
	var body model.Record
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return nil, errs.Request()
	}
	return body, nil
}
