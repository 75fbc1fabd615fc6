package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lostpaws/pawserver/internal/service"
)

// Util handles the /util endpoints that toggle runtime behavior flags.
type Util struct {
	flags *service.Flags
}

func NewUtil(flags *service.Flags) *Util {
	return &Util{flags: flags}
}

// GetFlag reports whether the named flag is on.
func (h *Util) GetFlag(c echo.Context) error {
	return c.JSON(http.StatusOK, h.flags.Get(c.Param("flag")))
}

// SetFlags sets every flag in the body. The response body is an empty JSON
// string, which keeps naive clients that always parse the body working.
func (h *Util) SetFlags(c echo.Context) error {
	body, err := bindObject(c)
	if err != nil {
		return err
	}
	for name, v := range body {
		if on, ok := v.(bool); ok {
			state := "disabled"
			if on {
				state = "enabled"
			}
			slog.Info(name + " " + state)
		}
	}
	h.flags.Apply(body)
	return c.JSON(http.StatusOK, "")
}
