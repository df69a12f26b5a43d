package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/favo-app/favo-web/internal/api"
	"github.com/favo-app/favo-web/internal/session"
)

// MsgConnectionFailed is shown when the backend could not be reached.
const MsgConnectionFailed = "Fallo de conexión. Verificá tu conexión a internet."

// HTTPError is implemented by domain errors that carry their own answer.
type HTTPError interface {
	error
	HTTPStatus() int
	PublicMessage() string
}

// Failure writes the JSON answer for err. Backend 401s close the session;
// fallback is used when nothing more specific is known.
func Failure(c echo.Context, err error, fallback string) error {
	var domainErr HTTPError
	switch {
	case errors.Is(err, api.ErrUnauthorized),
		errors.Is(err, session.ErrExpired),
		errors.Is(err, session.ErrInvalidToken),
		errors.Is(err, session.ErrNoSession):
		RejectSession(c)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": MsgSessionRejected, "redirect": "/login"})
	case errors.As(err, &domainErr):
		return c.JSON(domainErr.HTTPStatus(), echo.Map{"error": domainErr.PublicMessage()})
	case errors.Is(err, api.ErrUnavailable):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": MsgConnectionFailed})
	}

	if status := api.StatusOf(err); status != 0 {
		msg := api.DetailOf(err)
		if msg == "" {
			msg = fallback
		}
		return c.JSON(status, echo.Map{"error": fmt.Sprintf("Error: %s", msg)})
	}

	log.Printf("[http][ERROR] %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}
