package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mware "github.com/favo-app/favo-web/internal/middleware"
)

// Me returns the currently authenticated user's profile
func (h *Handler) Me(c echo.Context) error {
	s, ok := mware.CurrentSession(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": mware.MsgNotAuthenticated, "redirect": "/login"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":       s.User,
		"roles":      mware.Roles(s.User),
		"remember":   s.Remember,
		"expires_at": s.ExpiresAt,
	})
}
