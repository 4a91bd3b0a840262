package middleware

import (
	"net/http"

	"grocery/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// RequireRole はAuthJWTがcontextに入れたroleを検査する。
// AuthJWTより後ろに並べること。role無しは401、role違いは403。
func RequireRole(required model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawRole := c.Get(CtxUserRoleKey)
			role, ok := rawRole.(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			if model.Role(role) != required {
				return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
			}

			return next(c)
		}
	}
}
