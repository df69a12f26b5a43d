package marketplace

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/favo-app/favo-web/internal/api"
)

// Backend is the part of the Favo API the responder drives.
type Backend interface {
	GetRequest(ctx context.Context, token string, id int64) (api.Request, error)
	AcceptRequest(ctx context.Context, token string, id int64) (*api.Request, error)
	CompleteRequest(ctx context.Context, token string, id int64) (*api.Request, error)
	DeleteRequest(ctx context.Context, token string, id int64) error
	Reply(ctx context.Context, token string, kind api.ReplyKind, target api.Target, price decimal.Decimal, comment string) error
}

// Actor is who is acting: the session, its bearer token and user id.
type Actor struct {
	SessionID string
	Token     string
	UserID    int64
}

// Outcome is the request state after an action.
type Outcome struct {
	Request api.Request `json:"pedido"`
	Deleted bool        `json:"eliminado"`
}

// Responder decides which negotiation actions are legal and executes them
// with an optimistic local update that is rolled back on failure.
type Responder struct {
	backend  Backend
	boards   *Boards
	policy   Policy
	now      func() time.Time
	inflight singleflight.Group
}

func NewResponder(backend Backend, boards *Boards, policy Policy) *Responder {
	return &Responder{backend: backend, boards: boards, policy: policy, now: time.Now}
}

// WithClock overrides the time source used for accepted_at.
func (r *Responder) WithClock(now func() time.Time) *Responder {
	r.now = now
	return r
}

func (r *Responder) Policy() Policy {
	return r.policy
}

// Actions lists what the actor may do on req.
func (r *Responder) Actions(actor Actor, req api.Request) []Action {
	return Actions(req, actor.UserID, r.policy)
}

// Load fetches a request from the backend and refreshes the actor's board.
func (r *Responder) Load(ctx context.Context, actor Actor, id int64) (api.Request, error) {
	req, err := r.fetch(ctx, actor, id)
	if err != nil {
		return api.Request{}, err
	}
	if actor.SessionID != "" {
		r.boards.For(actor.SessionID).Put(req)
	}
	return req, nil
}

func (r *Responder) fetch(ctx context.Context, actor Actor, id int64) (api.Request, error) {
	req, err := r.backend.GetRequest(ctx, actor.Token, id)
	if err != nil {
		return api.Request{}, fmt.Errorf("marketplace: load pedido %d: %w", id, err)
	}
	return req, nil
}

// Accept lets a provider take an open request.
func (r *Responder) Accept(ctx context.Context, actor Actor, id int64) (Outcome, error) {
	return r.execute(ctx, actor, id, ActionAccept, func(ctx context.Context) (*api.Request, error) {
		if r.policy.AcceptMode == AcceptDelete {
			return nil, r.backend.DeleteRequest(ctx, actor.Token, id)
		}
		return r.backend.AcceptRequest(ctx, actor.Token, id)
	})
}

// Complete closes an in-process request.
func (r *Responder) Complete(ctx context.Context, actor Actor, id int64) (Outcome, error) {
	return r.execute(ctx, actor, id, ActionComplete, func(ctx context.Context) (*api.Request, error) {
		return r.backend.CompleteRequest(ctx, actor.Token, id)
	})
}

// RespondAccept confirms the provider who took the request.
func (r *Responder) RespondAccept(ctx context.Context, actor Actor, id int64) (Outcome, error) {
	return r.execute(ctx, actor, id, ActionRespondAccept, func(ctx context.Context) (*api.Request, error) {
		return nil, r.backend.Reply(ctx, actor.Token, api.ReplyAccepted, api.Target{RequestID: id}, decimal.Zero, "")
	})
}

// RespondReject turns the provider down and reopens the request.
func (r *Responder) RespondReject(ctx context.Context, actor Actor, id int64) (Outcome, error) {
	return r.execute(ctx, actor, id, ActionRespondReject, func(ctx context.Context) (*api.Request, error) {
		return nil, r.backend.Reply(ctx, actor.Token, api.ReplyRejected, api.Target{RequestID: id}, decimal.Zero, "")
	})
}

// Counteroffer proposes a new price. The price is validated before anything
// else, so an invalid one never reaches the backend.
func (r *Responder) Counteroffer(ctx context.Context, actor Actor, id int64, price, comment string) (Outcome, error) {
	p, err := ParsePrice("precio", price)
	if err != nil {
		return Outcome{}, err
	}
	return r.execute(ctx, actor, id, ActionCounteroffer, func(ctx context.Context) (*api.Request, error) {
		return nil, r.backend.Reply(ctx, actor.Token, api.ReplyCounter, api.Target{RequestID: id}, p, comment)
	})
}

func (r *Responder) execute(ctx context.Context, actor Actor, id int64, action Action, call func(context.Context) (*api.Request, error)) (Outcome, error) {
	if actor.Token == "" || actor.UserID == Anonymous {
		return Outcome{}, ErrUnauthorized
	}

	// Legality is decided on the backend's current record, never the board.
	current, err := r.fetch(ctx, actor, id)
	if err != nil {
		return Outcome{}, err
	}
	if !Allowed(current, actor.UserID, r.policy, action) {
		return Outcome{}, &NotAllowedError{
			Action:    action,
			RequestID: id,
			Reason:    denyReason(current, actor.UserID, r.policy, action),
		}
	}

	key := fmt.Sprintf("%s:%s:%d", actor.SessionID, action, id)
	v, err, shared := r.inflight.Do(key, func() (any, error) {
		board := r.boards.For(actor.SessionID)
		expected, deleted := Apply(current, action, actor.UserID, r.now(), r.policy)
		var rev uint64
		if deleted {
			rev = board.Stage(id, nil)
		} else {
			rev = board.Stage(id, &expected)
		}

		echoed, err := call(ctx)
		if err != nil {
			if !board.Revert(id, rev, current) {
				log.Printf("[marketplace] %s pedido=%d newer copy on board, rollback skipped", action, id)
			}
			log.Printf("[marketplace] %s pedido=%d user=%d rolled back: %v", action, id, actor.UserID, err)
			return Outcome{}, fmt.Errorf("marketplace: %s pedido %d: %w", action, id, err)
		}
		if echoed != nil && !deleted {
			board.Put(*echoed)
			expected = *echoed
		}
		log.Printf("[marketplace] %s pedido=%d user=%d status=%s", action, id, actor.UserID, expected.Status)
		return Outcome{Request: expected, Deleted: deleted}, nil
	})
	if shared {
		log.Printf("[marketplace] %s pedido=%d collapsed duplicate submit", action, id)
	}
	if err != nil {
		return Outcome{}, err
	}
	return v.(Outcome), nil
}
