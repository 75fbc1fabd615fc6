package middleware

import (
	"math/rand"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lostpaws/pawserver/internal/service"
)

// Throttle delays every request by 500-1000ms while the throttle flag is on,
// so client developers can see their loading states.
func Throttle(flags *service.Flags) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if flags.Get(service.FlagThrottle) {
				time.Sleep(time.Duration(500+rand.Intn(500)) * time.Millisecond)
			}
			return next(c)
		}
	}
}
