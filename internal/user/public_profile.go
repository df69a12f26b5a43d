package user

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/favo-app/favo-web/internal/api"
	mware "github.com/favo-app/favo-web/internal/middleware"
)

// Directory looks up other users on the backend.
type Directory interface {
	GetUser(ctx context.Context, token string, id int64) (api.User, error)
}

// Handler serves the profile routes.
type Handler struct {
	Users Directory
}

func NewHandler(users Directory) *Handler {
	return &Handler{Users: users}
}

// GET /users/:id
func (h *Handler) GetPublicProfile(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	var token string
	if s, ok := mware.CurrentSession(c); ok {
		token = s.Token
	}

	u, err := h.Users.GetUser(c.Request().Context(), token, userID)
	if err != nil {
		if api.StatusOf(err) == http.StatusNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return mware.Failure(c, err, "failed to fetch user")
	}

	return c.JSON(http.StatusOK, PublicProfile(u, mware.Roles(u)))
}
