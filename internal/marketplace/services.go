package marketplace

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/favo-app/favo-web/internal/api"
	mware "github.com/favo-app/favo-web/internal/middleware"
)

// ListServices returns services matching the optional q search
func (h *Handler) ListServices(c echo.Context) error {
	services, err := h.Catalog.Services(c.Request().Context(), actorFrom(c), c.QueryParam("q"))
	if err != nil {
		return mware.Failure(c, err, "could not fetch services")
	}
	if services == nil {
		services = []api.Service{}
	}
	return c.JSON(http.StatusOK, echo.Map{"servicios": services})
}

// CreateService allows a provider to list a new service on the marketplace
func (h *Handler) CreateService(c echo.Context) error {
	var form ServiceForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	created, err := h.Catalog.CreateService(c.Request().Context(), actorFrom(c), form)
	if err != nil {
		return mware.Failure(c, err, "could not create service")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"servicio": created,
		"message":  "service created successfully",
	})
}

// GetUserServices returns the caller's active services
func (h *Handler) GetUserServices(c echo.Context) error {
	services, err := h.Catalog.MyServices(c.Request().Context(), actorFrom(c))
	if err != nil {
		return mware.Failure(c, err, "could not fetch user services")
	}
	if services == nil {
		services = []api.Service{}
	}
	return c.JSON(http.StatusOK, echo.Map{"servicios": services})
}

// HireService sends a hire offer to the owner of the service in the URL
func (h *Handler) HireService(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing servicio id in URL"})
	}
	var form HireForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx := c.Request().Context()
	actor := actorFrom(c)
	svc, err := h.Catalog.FindService(ctx, actor, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Servicio no encontrado."})
		}
		return mware.Failure(c, err, "Error al enviar la solicitud")
	}

	offer, err := h.Catalog.Hire(ctx, actor, svc, form)
	if err != nil {
		return mware.Failure(c, err, "Error al enviar la solicitud")
	}
	return c.JSON(http.StatusCreated, echo.Map{"oferta": offer, "message": "Solicitud enviada"})
}
