package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/favo-app/favo-web/internal/api"
	"github.com/favo-app/favo-web/internal/auth"
	"github.com/favo-app/favo-web/internal/config"
	"github.com/favo-app/favo-web/internal/db"
	"github.com/favo-app/favo-web/internal/marketplace"
	mware "github.com/favo-app/favo-web/internal/middleware"
	"github.com/favo-app/favo-web/internal/notifications"
	"github.com/favo-app/favo-web/internal/session"
	"github.com/favo-app/favo-web/internal/user"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Remembered sessions need Postgres; without it they stay in memory
	var persistent session.Store
	if dsn := cfg.DSN(); dsn != "" {
		db.Init(dsn)
		defer db.Close()
		persistent = session.NewPostgresStore(db.Conn)
	} else {
		log.Println("[session] no database configured, remembered sessions will not survive restarts")
	}

	client := api.NewClient(cfg.APIURL, cfg.APITimeout)
	policy := policyFrom(cfg)

	sessions := session.NewManager(client, session.NewMemoryStore(), persistent, cfg.SessionTTL)
	boards := marketplace.NewBoards()
	hub := notifications.NewHub()
	viewer := notifications.NewViewer(client, policy)
	poller := notifications.NewPoller(viewer, hub, cfg.NotifyPollInterval)
	poller.OnReject(func(sessionID string) {
		sessions.Invalidate(context.Background(), sessionID)
	})

	sessions.OnClose(boards.Drop)
	sessions.OnClose(viewer.Forget)
	sessions.OnClose(hub.CloseSession)

	e := echo.New()
	e.HideBanner = true

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	routes(e, cfg, sessions, handlers{
		auth:          auth.NewHandler(sessions, client, cfg.SessionCookieSecure),
		users:         user.NewHandler(client),
		marketplace:   marketplace.NewHandler(marketplace.NewResponder(client, boards, policy), marketplace.NewCatalog(client, boards)),
		notifications: notifications.NewHandler(viewer, hub, poller),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sessions.RunSweeper(ctx, cfg.SessionSweepInterval)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	poller.Close()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	viewer.Wait()
}

type handlers struct {
	auth          *auth.Handler
	users         *user.Handler
	marketplace   *marketplace.Handler
	notifications *notifications.Handler
}

func routes(e *echo.Echo, cfg config.Config, sessions *session.Manager, h handlers) {
	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		resp := echo.Map{"status": "ok", "service": "favo-web", "signed_in": false}
		if s, ok := mware.CurrentSession(c); ok {
			resp["signed_in"] = true
			resp["user"] = s.User.Name
		}
		return c.JSON(http.StatusOK, resp)
	}, mware.LoadSession(sessions))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if cfg.DSN() == "" {
			return c.JSON(http.StatusOK, echo.Map{"status": "ready", "sessions": "memory"})
		}
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready", "sessions": "postgres"})
	})

	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.AuthRateLimit))))
	authGroup.POST("/register", h.auth.Signup)
	authGroup.POST("/login", h.auth.Login)
	authGroup.POST("/logout", h.auth.Logout)
	authGroup.GET("/me", h.auth.Me, mware.RequireSession(sessions, cfg.SessionCookieSecure))

	// Protected routes
	app := e.Group("")
	app.Use(mware.RequireSession(sessions, cfg.SessionCookieSecure))

	app.GET("/users/:id", h.users.GetPublicProfile)

	m := h.marketplace
	app.GET("/pedidos", m.ListRequests)
	app.GET("/pedidos/:id", m.GetRequest)
	app.POST("/pedidos", m.CreateRequest, mware.RequireRoles(mware.RoleRequester))
	app.POST("/pedidos/:id/aceptar", m.AcceptRequest, mware.RequireRoles(mware.RoleProvider))
	app.POST("/pedidos/:id/completar", m.CompleteRequest)
	app.POST("/pedidos/:id/responder/aceptar", m.RespondAccept)
	app.POST("/pedidos/:id/responder/rechazar", m.RespondReject)
	app.POST("/pedidos/:id/responder/contraoferta", m.Counteroffer)
	app.GET("/mis-pedidos", m.MyRequests)

	app.GET("/servicios", m.ListServices)
	app.POST("/servicios", m.CreateService, mware.RequireRoles(mware.RoleProvider))
	app.GET("/mis-servicios", m.GetUserServices, mware.RequireRoles(mware.RoleProvider))
	app.POST("/servicios/:id/contratar", m.HireService, mware.RequireRoles(mware.RoleRequester))

	n := h.notifications
	app.GET("/notificaciones", n.ListNotifications)
	app.POST("/notificaciones/respuestas/:id/aceptar_contraoferta", n.AcceptCounteroffer)
	app.POST("/notificaciones/:source/:id/:action", n.Respond)
	app.GET("/ws", n.ServeWS)
}

func policyFrom(cfg config.Config) marketplace.Policy {
	return marketplace.Policy{
		AcceptMode:             marketplace.AcceptMode(cfg.AcceptMode),
		Counteroffers:          cfg.CounteroffersEnabled,
		LegacyServiceEndpoints: cfg.LegacyServiceEndpoints,
	}
}
