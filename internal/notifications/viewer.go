package notifications

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/favo-app/favo-web/internal/api"
	"github.com/favo-app/favo-web/internal/marketplace"
	"github.com/favo-app/favo-web/internal/session"
)

// Messages shown when the notifications could not be loaded.
const (
	MsgUnavailable = "Servicio de notificaciones no disponible temporalmente."
	MsgServerError = "Error interno del servidor. Por favor, intentá más tarde."
	MsgUnknown     = "Error desconocido"
)

// Backend is the part of the Favo API behind the notification screens.
type Backend interface {
	ServiceOffers(ctx context.Context, token string) ([]api.Offer, error)
	RequestOffers(ctx context.Context, token string) ([]api.Offer, error)
	Replies(ctx context.Context, token string) ([]api.Reply, error)
	MarkReplySeen(ctx context.Context, token string, id int64) error

	Reply(ctx context.Context, token string, kind api.ReplyKind, target api.Target, price decimal.Decimal, comment string) error
	AcceptServiceOffer(ctx context.Context, token string, id int64) error
	RejectServiceOffer(ctx context.Context, token string, id int64) error
	DeleteRequestOffer(ctx context.Context, token string, id int64) error
	AcceptCounteroffer(ctx context.Context, token string, id int64) error
	CounterReply(ctx context.Context, token string, id int64, price decimal.Decimal, comment string) error
	DeleteReply(ctx context.Context, token string, id int64) error
}

// Viewer loads the merged notification list for a session and answers
// notifications on the user's behalf.
type Viewer struct {
	backend     Backend
	policy      marketplace.Policy
	now         func() time.Time
	seenTimeout time.Duration

	mu      sync.Mutex
	inboxes map[string]map[key]Notification

	pending sync.WaitGroup
}

func NewViewer(backend Backend, policy marketplace.Policy) *Viewer {
	return &Viewer{
		backend:     backend,
		policy:      policy,
		now:         time.Now,
		seenTimeout: 5 * time.Second,
		inboxes:     make(map[string]map[key]Notification),
	}
}

// WithClock overrides the time source used for the token expiry check.
func (v *Viewer) WithClock(now func() time.Time) *Viewer {
	v.now = now
	return v
}

// List fetches the three notification lists concurrently and merges them.
// Any failed list fails the whole call. Unseen replies are then marked
// seen in the background, once, without retry.
func (v *Viewer) List(ctx context.Context, actor marketplace.Actor) ([]Notification, error) {
	merged, replies, err := v.fetch(ctx, actor)
	if err != nil {
		return nil, err
	}
	v.markSeen(actor, replies)
	return merged, nil
}

// Peek is List without marking anything seen. Background refreshes use it,
// so a reply only turns visto when the user opens the list.
func (v *Viewer) Peek(ctx context.Context, actor marketplace.Actor) ([]Notification, error) {
	merged, _, err := v.fetch(ctx, actor)
	return merged, err
}

func (v *Viewer) fetch(ctx context.Context, actor marketplace.Actor) ([]Notification, []api.Reply, error) {
	if actor.Token == "" {
		return nil, nil, marketplace.ErrUnauthorized
	}
	if err := session.CheckToken(actor.Token, v.now()); err != nil {
		return nil, nil, err
	}

	var (
		serviceOffers, requestOffers []api.Offer
		replies                      []api.Reply
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		serviceOffers, err = v.backend.ServiceOffers(gctx, actor.Token)
		return err
	})
	g.Go(func() (err error) {
		requestOffers, err = v.backend.RequestOffers(gctx, actor.Token)
		return err
	})
	g.Go(func() (err error) {
		replies, err = v.backend.Replies(gctx, actor.Token)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("notifications: list: %w", err)
	}

	offers := make([]Notification, 0, len(serviceOffers)+len(requestOffers))
	for _, o := range serviceOffers {
		offers = append(offers, FromOffer(o, v.policy))
	}
	for _, o := range requestOffers {
		offers = append(offers, FromOffer(o, v.policy))
	}
	answers := make([]Notification, 0, len(replies))
	for _, r := range replies {
		answers = append(answers, FromReply(r, v.policy))
	}
	merged := Merge(offers, answers)

	v.remember(actor.SessionID, merged)
	return merged, replies, nil
}

func (v *Viewer) markSeen(actor marketplace.Actor, replies []api.Reply) {
	for _, r := range replies {
		if r.Seen {
			continue
		}
		v.pending.Add(1)
		go func(id int64) {
			defer v.pending.Done()
			ctx, cancel := context.WithTimeout(context.Background(), v.seenTimeout)
			defer cancel()
			if err := v.backend.MarkReplySeen(ctx, actor.Token, id); err != nil {
				log.Printf("[notify] mark seen respuesta=%d failed: %v", id, err)
			}
		}(r.ID)
	}
}

// Wait blocks until background mark-seen calls have finished.
func (v *Viewer) Wait() {
	v.pending.Wait()
}

func (v *Viewer) remember(sessionID string, list []Notification) {
	if sessionID == "" {
		return
	}
	inbox := make(map[key]Notification, len(list))
	for _, n := range list {
		inbox[n.key()] = n
	}
	v.mu.Lock()
	v.inboxes[sessionID] = inbox
	v.mu.Unlock()
}

func (v *Viewer) lookup(sessionID string, k key) (Notification, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	n, ok := v.inboxes[sessionID][k]
	return n, ok
}

func (v *Viewer) forgetOne(sessionID string, k key) {
	v.mu.Lock()
	delete(v.inboxes[sessionID], k)
	v.mu.Unlock()
}

// Forget drops a session's cached list. It matches session.CloseFunc.
func (v *Viewer) Forget(sessionID, _ string) {
	v.mu.Lock()
	delete(v.inboxes, sessionID)
	v.mu.Unlock()
}

// Message turns a List failure into the text shown to the user, with the
// HTTP status the BFF answers with.
func Message(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrExpired):
		return http.StatusUnauthorized, "Tu sesión ha expirado. Por favor, inicia sesión nuevamente."
	case errors.Is(err, session.ErrInvalidToken):
		return http.StatusUnauthorized, "Token inválido. Por favor, inicia sesión nuevamente."
	case errors.Is(err, api.ErrUnauthorized), errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized, "Sesión expirada o inválida. Iniciá sesión nuevamente."
	case errors.Is(err, api.ErrUnavailable):
		return http.StatusBadGateway, "Fallo de conexión. Verificá tu conexión a internet."
	}

	switch status := api.StatusOf(err); status {
	case 0:
		return http.StatusInternalServerError, MsgServerError
	case http.StatusNotFound:
		return status, MsgUnavailable
	case http.StatusInternalServerError:
		return status, MsgServerError
	default:
		detail := api.DetailOf(err)
		if detail == "" {
			detail = MsgUnknown
		}
		return status, fmt.Sprintf("Error (%d): %s", status, detail)
	}
}
