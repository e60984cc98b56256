package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/rollcall/core/user"
)

// capabilityMiddleware lets the request through when the session role grants capability.
func capabilityMiddleware(capability user.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if err := getContextSession(ctx).Require(capability); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}
