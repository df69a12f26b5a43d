package marketplace

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/favo-app/favo-web/internal/api"
	mware "github.com/favo-app/favo-web/internal/middleware"
)

// =========================
// ListRequests - Open pedidos, optionally by category
// =========================
func (h *Handler) ListRequests(c echo.Context) error {
	var categoryID int64
	if raw := c.QueryParam("categoria"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid categoria"})
		}
		categoryID = v
	}

	actor := actorFrom(c)
	reqs, err := h.Catalog.Requests(c.Request().Context(), actor, categoryID)
	if err != nil {
		return mware.Failure(c, err, "Error al cargar pedidos")
	}
	return c.JSON(http.StatusOK, echo.Map{"pedidos": h.views(actor, reqs)})
}

// =========================
// GetRequest - One pedido with the caller's legal actions
// =========================
func (h *Handler) GetRequest(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing pedido id in URL"})
	}

	actor := actorFrom(c)
	req, err := h.Responder.Load(c.Request().Context(), actor, id)
	if err != nil {
		if api.StatusOf(err) == http.StatusNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Pedido no encontrado."})
		}
		return mware.Failure(c, err, "Error al cargar pedido")
	}
	return c.JSON(http.StatusOK, requestView{Request: req, Actions: nonNil(h.Responder.Actions(actor, req))})
}

// =========================
// CreateRequest - Requester publishes a pedido
// =========================
func (h *Handler) CreateRequest(c echo.Context) error {
	var form RequestForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	created, err := h.Catalog.CreateRequest(c.Request().Context(), actorFrom(c), form)
	if err != nil {
		if status := api.StatusOf(err); status == http.StatusUnauthorized || status == http.StatusForbidden {
			mware.RejectSession(c)
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"error":    "No autorizado. Por favor, inicia sesión nuevamente.",
				"redirect": "/login",
			})
		}
		return mware.Failure(c, err, "Error al crear pedido")
	}
	return c.JSON(http.StatusCreated, echo.Map{"pedido": created, "message": "Pedido creado"})
}

// =========================
// AcceptRequest - Provider takes an open pedido
// =========================
func (h *Handler) AcceptRequest(c echo.Context) error {
	return h.act(c, h.Responder.Accept, "Error al aceptar pedido")
}

// =========================
// CompleteRequest - Participant marks the pedido completed
// =========================
func (h *Handler) CompleteRequest(c echo.Context) error {
	return h.act(c, h.Responder.Complete, "Error al completar el pedido")
}

// =========================
// RespondAccept - Owner confirms the provider
// =========================
func (h *Handler) RespondAccept(c echo.Context) error {
	return h.act(c, h.Responder.RespondAccept, "No se pudo aceptar")
}

// =========================
// RespondReject - Owner turns the provider down
// =========================
func (h *Handler) RespondReject(c echo.Context) error {
	return h.act(c, h.Responder.RespondReject, "No se pudo rechazar")
}

// =========================
// Counteroffer - Owner proposes a different price
// =========================
func (h *Handler) Counteroffer(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing pedido id in URL"})
	}
	var req struct {
		Price   string `json:"precio"`
		Comment string `json:"comentario"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	out, err := h.Responder.Counteroffer(c.Request().Context(), actorFrom(c), id, req.Price, req.Comment)
	if err != nil {
		return mware.Failure(c, err, "No se pudo enviar la contraoferta")
	}
	return c.JSON(http.StatusOK, h.outcome(c, out, "¡Contraoferta enviada!"))
}

// =========================
// MyRequests - Pedidos the caller owns or accepted
// =========================
func (h *Handler) MyRequests(c echo.Context) error {
	scope := c.QueryParam("scope")
	if scope == "" {
		scope = api.ScopeOwner
	}
	status := api.Status(c.QueryParam("status"))
	switch status {
	case "", api.StatusPending, api.StatusInProcess, api.StatusCompleted:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	actor := actorFrom(c)
	reqs, err := h.Catalog.MyRequests(c.Request().Context(), actor, scope, status)
	if err != nil {
		return mware.Failure(c, err, "Error al cargar tus pedidos")
	}
	return c.JSON(http.StatusOK, echo.Map{"pedidos": h.views(actor, reqs)})
}

func (h *Handler) act(c echo.Context, fn func(context.Context, Actor, int64) (Outcome, error), fallback string) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing pedido id in URL"})
	}
	out, err := fn(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return mware.Failure(c, err, fallback)
	}
	return c.JSON(http.StatusOK, h.outcome(c, out, "ok"))
}

func (h *Handler) outcome(c echo.Context, out Outcome, message string) echo.Map {
	resp := echo.Map{"message": message, "eliminado": out.Deleted}
	if !out.Deleted {
		resp["pedido"] = requestView{Request: out.Request, Actions: nonNil(h.Responder.Actions(actorFrom(c), out.Request))}
	}
	return resp
}
