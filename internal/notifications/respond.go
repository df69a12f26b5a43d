package notifications

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/favo-app/favo-web/internal/api"
	"github.com/favo-app/favo-web/internal/marketplace"
)

// ErrUnknownSource is returned for a source that is not a notification list.
var ErrUnknownSource = errors.New("notifications: unknown source")

// NotAllowedError is an answer that does not apply to the notification.
type NotAllowedError struct {
	Action Action
	Source string
	ID     int64
}

func (e *NotAllowedError) Error() string {
	return fmt.Sprintf("notifications: %s not available on %s %d", e.Action, e.Source, e.ID)
}

func (e *NotAllowedError) Unwrap() error { return marketplace.ErrNotAllowed }
func (e *NotAllowedError) HTTPStatus() int { return http.StatusForbidden }
func (e *NotAllowedError) PublicMessage() string { return "Acción no disponible para esta notificación." }

// Answer is what the user sent back on a notification.
type Answer struct {
	Action  Action
	Price   string
	Comment string
}

// Respond answers the notification (source, id). The notification is taken
// from the session's last list, or refetched when the session has none.
func (v *Viewer) Respond(ctx context.Context, actor marketplace.Actor, source string, id int64, ans Answer) error {
	if actor.Token == "" {
		return marketplace.ErrUnauthorized
	}
	switch source {
	case api.SourceService, api.SourceRequest, SourceReply:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}

	var price decimal.Decimal
	if ans.Action == ActionCounter {
		p, err := marketplace.ParsePrice("precio", ans.Price)
		if err != nil {
			return err
		}
		price = p
	}

	k := key{source, id}
	n, ok := v.lookup(actor.SessionID, k)
	if !ok {
		if _, err := v.Peek(ctx, actor); err != nil {
			return err
		}
		if n, ok = v.lookup(actor.SessionID, k); !ok {
			return fmt.Errorf("notifications: %s %d: %w", source, id, api.ErrNotFound)
		}
	}
	if !n.Allows(ans.Action) {
		return &NotAllowedError{Action: ans.Action, Source: source, ID: id}
	}

	if err := v.send(ctx, actor.Token, n, ans.Action, price, ans.Comment); err != nil {
		return fmt.Errorf("notifications: %s %s %d: %w", ans.Action, source, id, err)
	}
	v.forgetOne(actor.SessionID, k)
	log.Printf("[notify] %s %s=%d user=%d", ans.Action, source, id, actor.UserID)
	return nil
}

func (v *Viewer) send(ctx context.Context, token string, n Notification, a Action, price decimal.Decimal, comment string) error {
	switch n.Source {
	case api.SourceService:
		target := api.Target{ServiceOfferID: n.ID}
		switch a {
		case ActionAccept:
			if v.policy.LegacyServiceEndpoints {
				return v.backend.AcceptServiceOffer(ctx, token, n.ID)
			}
			return v.backend.Reply(ctx, token, api.ReplyAccepted, target, decimal.Zero, "")
		case ActionReject:
			if v.policy.LegacyServiceEndpoints {
				return v.backend.RejectServiceOffer(ctx, token, n.ID)
			}
			return v.backend.Reply(ctx, token, api.ReplyRejected, target, decimal.Zero, "")
		case ActionCounter:
			return v.backend.Reply(ctx, token, api.ReplyCounter, target, price, comment)
		}
	case api.SourceRequest:
		return v.backend.DeleteRequestOffer(ctx, token, n.ID)
	case SourceReply:
		switch a {
		case ActionAcceptCounter:
			return v.backend.AcceptCounteroffer(ctx, token, n.ID)
		case ActionCounter:
			return v.backend.CounterReply(ctx, token, n.ID, price, comment)
		default:
			return v.backend.DeleteReply(ctx, token, n.ID)
		}
	}
	return &NotAllowedError{Action: a, Source: n.Source, ID: n.ID}
}

// Confirmation is the text shown after a successful answer.
func Confirmation(a Action) string {
	switch a {
	case ActionAccept:
		return "Oferta aceptada"
	case ActionReject:
		return "Oferta rechazada"
	case ActionCounter:
		return "¡Contraoferta enviada!"
	case ActionAcceptCounter:
		return "Contraoferta aceptada. Pedido creado."
	default:
		return "Notificación eliminada"
	}
}
