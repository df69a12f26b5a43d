package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/favo-app/favo-web/internal/api"
)

// Marketplace roles derived from the profile flags.
const (
	RoleProvider  = "proveedor"
	RoleRequester = "demandante"
)

// Roles lists the roles a user holds. Profiles that carry neither flag
// predate the flags and may act as both.
func Roles(u api.User) []string {
	if !u.IsProvider && !u.IsRequester {
		return []string{RoleProvider, RoleRequester}
	}
	var roles []string
	if u.IsProvider {
		roles = append(roles, RoleProvider)
	}
	if u.IsRequester {
		roles = append(roles, RoleRequester)
	}
	return roles
}

// RequireRoles ensures the signed-in user holds one of the allowed roles.
// Usage: route(..., RequireRoles(RoleProvider))
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, ok := CurrentSession(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": MsgNotAuthenticated, "redirect": "/login"})
			}

			for _, have := range Roles(s.User) {
				for _, want := range roles {
					if have == want {
						return next(c)
					}
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
	}
}
