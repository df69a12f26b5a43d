package marketplace

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/favo-app/favo-web/internal/api"
	mware "github.com/favo-app/favo-web/internal/middleware"
	"github.com/favo-app/favo-web/internal/session"
)

func newTestServer(backend *fakeBackend, actor Actor) *echo.Echo {
	boards := NewBoards()
	h := NewHandler(NewResponder(backend, boards, DefaultPolicy()), NewCatalog(backend, boards))

	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if actor.Token != "" {
				mware.SetSession(c, &session.Session{ID: actor.SessionID, Token: actor.Token, User: api.User{ID: actor.UserID}})
			}
			return next(c)
		}
	})
	e.GET("/pedidos", h.ListRequests)
	e.GET("/pedidos/:id", h.GetRequest)
	e.POST("/pedidos", h.CreateRequest)
	e.POST("/pedidos/:id/aceptar", h.AcceptRequest)
	e.POST("/pedidos/:id/responder/contraoferta", h.Counteroffer)
	e.POST("/servicios/:id/contratar", h.HireService)
	return e
}

func serve(e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestGetRequestListsActions(t *testing.T) {
	backend := newFakeBackend(api.Request{ID: 42, OwnerID: 7, Status: api.StatusInProcess, AcceptedBy: ptr(int64(9))})
	e := newTestServer(backend, owner)

	rec, body := serve(e, http.MethodGet, "/pedidos/42", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []any{"responder_aceptar", "responder_rechazar", "contraoferta", "completar"}, body["acciones"])

	rec, body = serve(e, http.MethodGet, "/pedidos/77", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Pedido no encontrado.", body["error"])
}

func TestAcceptRequestHandler(t *testing.T) {
	backend := newFakeBackend(api.Request{ID: 42, OwnerID: 7, Status: api.StatusPending})

	rec, body := serve(newTestServer(backend, owner), http.MethodPost, "/pedidos/42/aceptar", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "No puedes aceptar tu propio pedido.", body["error"])

	rec, body = serve(newTestServer(backend, provider), http.MethodPost, "/pedidos/42/aceptar", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := body["pedido"].(map[string]any)
	require.Equal(t, "en_proceso", view["pedido"].(map[string]any)["status"])
	require.Equal(t, []any{"completar"}, view["acciones"])
}

func TestCounterofferHandlerValidatesPrice(t *testing.T) {
	backend := newFakeBackend(api.Request{ID: 42, OwnerID: 7, Status: api.StatusInProcess, AcceptedBy: ptr(int64(9))})
	e := newTestServer(backend, owner)

	rec, body := serve(e, http.MethodPost, "/pedidos/42/responder/contraoferta", `{"precio":"0"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "El precio debe ser mayor a 0", body["error"])
	require.Zero(t, backend.calls.Load())

	rec, body = serve(e, http.MethodPost, "/pedidos/42/responder/contraoferta", `{"precio":"1200","comentario":"ok"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "¡Contraoferta enviada!", body["message"])
}

func TestCreateRequestBackendRefusal(t *testing.T) {
	backend := newFakeBackend()
	e := newTestServer(backend, Actor{SessionID: "s", Token: "tok-unknown", UserID: 5})

	rec, body := serve(e, http.MethodPost, "/pedidos", `{"titulo":"t","descripcion":"d","id_categoria":1}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "No autorizado. Por favor, inicia sesión nuevamente.", body["error"])
	require.Equal(t, "/login", body["redirect"])
}

func TestListRequestsBackendDown(t *testing.T) {
	backend := newFakeBackend()
	backend.failWith = api.ErrUnavailable
	rec, body := serve(newTestServer(backend, provider), http.MethodGet, "/pedidos", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, mware.MsgConnectionFailed, body["error"])
}

func TestHireServiceHandler(t *testing.T) {
	backend := newFakeBackend()
	backend.services = []api.Service{{ID: 5, OwnerID: 7}}
	e := newTestServer(backend, provider)

	rec, _ := serve(e, http.MethodPost, "/servicios/6/contratar", `{"titulo":"t","desc":"d","precio":"10","remoto":true}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, body := serve(e, http.MethodPost, "/servicios/5/contratar", `{"titulo":"t","desc":"d","precio":"10","remoto":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Solicitud enviada", body["message"])
	require.Len(t, backend.hires, 1)
	require.Equal(t, RemoteLocation, backend.hires[0].Location)
}
