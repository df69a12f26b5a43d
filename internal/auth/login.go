package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/favo-app/favo-web/internal/api"
	mware "github.com/favo-app/favo-web/internal/middleware"
	"github.com/favo-app/favo-web/internal/session"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type LoginResponse struct {
	User     api.User `json:"user"`
	Remember bool     `json:"remember"`
}

// ===== Login =====
func (h *Handler) Login(c echo.Context) error {
	req := new(LoginRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Email = strings.TrimSpace(req.Email)
	if errs := validateCredentials(req.Email, req.Password); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request", "errors": errs})
	}

	s, err := h.Sessions.Login(c.Request().Context(), req.Email, req.Password, req.Remember)
	if err != nil {
		return h.loginFailure(c, err, "Error al iniciar sesión")
	}
	c.SetCookie(session.Cookie(s, h.SecureCookie))
	return c.JSON(http.StatusOK, LoginResponse{User: s.User, Remember: s.Remember})
}

func (h *Handler) loginFailure(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		msg := api.DetailOf(err)
		if msg == "" {
			msg = "Credenciales inválidas"
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
	case errors.Is(err, api.ErrUnavailable):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": mware.MsgConnectionFailed})
	case errors.Is(err, session.ErrExpired), errors.Is(err, session.ErrInvalidToken):
		log.Printf("[auth] backend issued an unusable token: %v", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": fallback})
	}
	if status := api.StatusOf(err); status != 0 {
		msg := api.DetailOf(err)
		if msg == "" {
			msg = fallback
		}
		return c.JSON(status, echo.Map{"error": msg})
	}
	log.Printf("[auth][ERROR] %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}

// ===== Logout =====
func (h *Handler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(session.CookieName); err == nil {
		_ = h.Sessions.Logout(c.Request().Context(), cookie.Value)
	}
	c.SetCookie(session.ClearCookie(h.SecureCookie))
	return c.JSON(http.StatusOK, echo.Map{"message": "Sesión cerrada", "redirect": "/login"})
}
