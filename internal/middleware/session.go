package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/favo-app/favo-web/internal/session"
)

const (
	sessionKey  = "session"
	rejectedKey = "session_rejected"
)

// Messages shown when the session is missing or no longer usable.
const (
	MsgNotAuthenticated = "No estás autenticado. Por favor, inicia sesión."
	MsgSessionExpired   = "Tu sesión ha expirado. Por favor, inicia sesión nuevamente."
	MsgInvalidToken     = "Token inválido. Por favor, inicia sesión nuevamente."
	MsgSessionRejected  = "Sesión expirada o inválida. Iniciá sesión nuevamente."
)

// RequireSession resolves the session cookie and rejects the request with
// 401 when there is no live session. If a handler reports that the backend
// refused the token, the session is closed after the handler returns.
func RequireSession(m *session.Manager, secureCookie bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, err := resolve(c, m)
			if err != nil {
				c.SetCookie(session.ClearCookie(secureCookie))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":    sessionMessage(err),
					"redirect": "/login",
				})
			}
			SetSession(c, s)

			herr := next(c)
			if rejected, _ := c.Get(rejectedKey).(bool); rejected {
				m.Invalidate(c.Request().Context(), s.ID)
				c.SetCookie(session.ClearCookie(secureCookie))
			}
			return herr
		}
	}
}

// LoadSession binds the session when there is one and lets anonymous
// requests through.
func LoadSession(m *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s, err := resolve(c, m); err == nil {
				SetSession(c, s)
			}
			return next(c)
		}
	}
}

// CurrentSession returns the session bound by RequireSession or LoadSession.
func CurrentSession(c echo.Context) (*session.Session, bool) {
	s, ok := c.Get(sessionKey).(*session.Session)
	return s, ok && s != nil
}

// RejectSession marks the current session as refused by the backend.
func RejectSession(c echo.Context) {
	c.Set(rejectedKey, true)
}

func resolve(c echo.Context, m *session.Manager) (*session.Session, error) {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, session.ErrNoSession
	}
	return m.Current(c.Request().Context(), cookie.Value)
}

// SetSession binds s to the request context.
func SetSession(c echo.Context, s *session.Session) {
	c.Set(sessionKey, s)
}

func sessionMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrExpired):
		return MsgSessionExpired
	case errors.Is(err, session.ErrInvalidToken):
		return MsgInvalidToken
	default:
		return MsgNotAuthenticated
	}
}
