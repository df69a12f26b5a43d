package notifications

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/favo-app/favo-web/internal/marketplace"
	mware "github.com/favo-app/favo-web/internal/middleware"
)

// Handler serves the notification routes and the websocket.
type Handler struct {
	Viewer *Viewer
	Hub    *Hub
	Poller *Poller
}

func NewHandler(v *Viewer, hub *Hub, p *Poller) *Handler {
	return &Handler{Viewer: v, Hub: hub, Poller: p}
}

func actorFrom(c echo.Context) marketplace.Actor {
	s, ok := mware.CurrentSession(c)
	if !ok {
		return marketplace.Actor{}
	}
	return marketplace.Actor{SessionID: s.ID, Token: s.Token, UserID: s.User.ID}
}

// ListNotifications returns the merged notifications, newest first
func (h *Handler) ListNotifications(c echo.Context) error {
	list, err := h.Viewer.List(c.Request().Context(), actorFrom(c))
	if err != nil {
		status, msg := Message(err)
		resp := echo.Map{"error": msg}
		if status == http.StatusUnauthorized {
			mware.RejectSession(c)
			resp["redirect"] = "/login"
		}
		return c.JSON(status, resp)
	}
	return c.JSON(http.StatusOK, echo.Map{"notificaciones": list})
}

// Respond answers one notification: /notificaciones/:source/:id/:action
func (h *Handler) Respond(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing notificación id in URL"})
	}
	ans := Answer{Action: Action(c.Param("action"))}
	if ans.Action == ActionCounter {
		var body struct {
			Price   string `json:"precio"`
			Comment string `json:"comentario"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}
		ans.Price, ans.Comment = body.Price, body.Comment
	}
	return h.respond(c, c.Param("source"), id, ans)
}

// AcceptCounteroffer accepts a counteroffer reply
func (h *Handler) AcceptCounteroffer(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing notificación id in URL"})
	}
	return h.respond(c, SourceReply, id, Answer{Action: ActionAcceptCounter})
}

func (h *Handler) respond(c echo.Context, source string, id int64, ans Answer) error {
	err := h.Viewer.Respond(c.Request().Context(), actorFrom(c), source, id, ans)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": Confirmation(ans.Action)})
	case errors.Is(err, ErrUnknownSource):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown notification source"})
	}
	return mware.Failure(c, err, "Error al procesar")
}

// ServeWS upgrades to a websocket bound to the current session. The
// connection receives notification_new and session_closed events.
func (h *Handler) ServeWS(c echo.Context) error {
	actor := actorFrom(c)
	if actor.Token == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": mware.MsgNotAuthenticated, "redirect": "/login"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	cl := h.Hub.register(actor.SessionID, ws)
	log.Printf("[ws] connected user=%d client=%s", actor.UserID, cl.id)

	stop := func() {}
	if h.Poller != nil {
		stop = h.Poller.Watch(actor)
	}

	// server push only; reads just detect the close
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	stop()
	h.Hub.unregister(cl)
	_ = ws.Close()
	log.Printf("[ws] disconnected user=%d client=%s", actor.UserID, cl.id)
	return nil
}
