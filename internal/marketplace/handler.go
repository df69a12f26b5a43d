package marketplace

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/favo-app/favo-web/internal/api"
	mware "github.com/favo-app/favo-web/internal/middleware"
)

// Handler serves the pedido and servicio routes.
type Handler struct {
	Responder *Responder
	Catalog   *Catalog
}

func NewHandler(r *Responder, c *Catalog) *Handler {
	return &Handler{Responder: r, Catalog: c}
}

// requestView is a request plus what the caller may do with it.
type requestView struct {
	Request api.Request `json:"pedido"`
	Actions []Action    `json:"acciones"`
}

func actorFrom(c echo.Context) Actor {
	s, ok := mware.CurrentSession(c)
	if !ok {
		return Actor{}
	}
	return Actor{SessionID: s.ID, Token: s.Token, UserID: s.User.ID}
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) views(actor Actor, rs []api.Request) []requestView {
	out := make([]requestView, 0, len(rs))
	for _, r := range rs {
		out = append(out, requestView{Request: r, Actions: nonNil(h.Responder.Actions(actor, r))})
	}
	return out
}

func nonNil(a []Action) []Action {
	if a == nil {
		return []Action{}
	}
	return a
}
