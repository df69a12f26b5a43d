package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/favo-app/favo-web/internal/api"
	"github.com/favo-app/favo-web/internal/session"
)

// Registrar creates accounts on the backend.
type Registrar interface {
	Register(ctx context.Context, u api.NewUser) error
}

// Handler serves the /auth routes.
type Handler struct {
	Sessions     *session.Manager
	Registrar    Registrar
	SecureCookie bool
}

func NewHandler(sessions *session.Manager, registrar Registrar, secureCookie bool) *Handler {
	return &Handler{Sessions: sessions, Registrar: registrar, SecureCookie: secureCookie}
}

type SignupRequest struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ===== Signup =====
// Registers on the backend, then logs in with the same credentials. The
// new session is remembered.
func (h *Handler) Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if errs := validateSignup(req.Name, req.Email, req.Password); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request", "errors": errs})
	}

	ctx := c.Request().Context()
	if err := h.Registrar.Register(ctx, api.NewUser{Email: req.Email, Password: req.Password, Name: req.Name}); err != nil {
		return h.loginFailure(c, err, "Error en el registro")
	}

	s, err := h.Sessions.Login(ctx, req.Email, req.Password, true)
	if err != nil {
		return h.loginFailure(c, err, "Error al iniciar sesión después del registro")
	}
	c.SetCookie(session.Cookie(s, h.SecureCookie))
	return c.JSON(http.StatusCreated, LoginResponse{User: s.User, Remember: s.Remember})
}
