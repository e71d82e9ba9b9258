package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// roleMiddleware only lets through users holding a role with one of the prefixes, e.g. "teacher:".
func roleMiddleware(prefixes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.HasRolePrefix(prefixes...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// editorMiddleware guards the routes that change lesson content.
func editorMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(roleTeacher, roleAdmin)
}

// HasRolePrefix reports whether any role of the claims starts with one of prefixes.
func (c Claims) HasRolePrefix(prefixes ...string) bool {
	for _, role := range c.Roles {
		for _, p := range prefixes {
			if strings.HasPrefix(role, p) {
				return true
			}
		}
	}
	return false
}
