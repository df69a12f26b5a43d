package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// Target names what a reply answers: a service offer or a request.
// Exactly one of the fields is set.
type Target struct {
	ServiceOfferID int64
	RequestID      int64
}

func (t Target) query() (url.Values, error) {
	q := url.Values{}
	switch {
	case t.ServiceOfferID > 0 && t.RequestID == 0:
		q.Set("id_notif_servicio", strconv.FormatInt(t.ServiceOfferID, 10))
	case t.RequestID > 0 && t.ServiceOfferID == 0:
		q.Set("id_pedido", strconv.FormatInt(t.RequestID, 10))
	default:
		return nil, errors.New("api: reply target must name exactly one of service offer or request")
	}
	return q, nil
}

// ServiceOffers lists offers on the caller's services. Items without a
// source are service-origin.
func (c *Client) ServiceOffers(ctx context.Context, token string) ([]Offer, error) {
	var out []Offer
	if err := c.getJSON(ctx, "/notificaciones_servicios", nil, token, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Source == "" {
			out[i].Source = SourceService
		}
	}
	return out, nil
}

// RequestOffers lists notifications raised on the caller's requests.
func (c *Client) RequestOffers(ctx context.Context, token string) ([]Offer, error) {
	var out []Offer
	if err := c.getJSON(ctx, "/notificaciones_pedidos", nil, token, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Source = SourceRequest
	}
	return out, nil
}

// Replies lists negotiation outcomes addressed to the caller.
func (c *Client) Replies(ctx context.Context, token string) ([]Reply, error) {
	var out []Reply
	if err := c.getJSON(ctx, "/notificaciones_respuestas", nil, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reply posts an accept, reject or counteroffer on target. price and
// comment are only sent for ReplyCounter.
func (c *Client) Reply(ctx context.Context, token string, kind ReplyKind, target Target, price decimal.Decimal, comment string) error {
	q, err := target.query()
	if err != nil {
		return err
	}
	if kind == ReplyCounter {
		q.Set("precio_nuevo", price.String())
		q.Set("comentario", comment)
	}
	return c.sendJSON(ctx, http.MethodPost, "/notificaciones_respuestas/"+string(kind), q, token, nil, nil)
}

// AcceptCounteroffer accepts the counteroffer carried by reply id.
func (c *Client) AcceptCounteroffer(ctx context.Context, token string, id int64) error {
	return c.sendJSON(ctx, http.MethodPost, idPath("/notificaciones_respuestas/%d/aceptar_contraoferta", id), nil, token, nil, nil)
}

// CounterReply answers a counteroffer with another price.
func (c *Client) CounterReply(ctx context.Context, token string, id int64, price decimal.Decimal, comment string) error {
	q := url.Values{}
	q.Set("precio_nuevo", price.String())
	q.Set("comentario", comment)
	return c.sendJSON(ctx, http.MethodPost, idPath("/notificaciones_respuestas/%d/contraoferta", id), q, token, nil, nil)
}

// DeleteReply removes a reply, which rejects it when it is a counteroffer.
func (c *Client) DeleteReply(ctx context.Context, token string, id int64) error {
	return c.sendJSON(ctx, http.MethodDelete, idPath("/notificaciones_respuestas/%d", id), nil, token, nil, nil)
}

// MarkReplySeen flips visto on a reply.
func (c *Client) MarkReplySeen(ctx context.Context, token string, id int64) error {
	return c.sendJSON(ctx, http.MethodPut, idPath("/notificaciones_respuestas/%d/visto", id), nil, token, nil, nil)
}

// DeleteRequestOffer acknowledges a request-origin notification.
func (c *Client) DeleteRequestOffer(ctx context.Context, token string, id int64) error {
	return c.sendJSON(ctx, http.MethodDelete, idPath("/notificaciones_pedidos/%d", id), nil, token, nil, nil)
}

// AcceptServiceOffer is the older accept endpoint for service offers.
func (c *Client) AcceptServiceOffer(ctx context.Context, token string, id int64) error {
	return c.sendJSON(ctx, http.MethodPost, idPath("/notificaciones_servicios/%d/aceptar", id), nil, token, nil, nil)
}

// RejectServiceOffer is the older reject endpoint for service offers.
func (c *Client) RejectServiceOffer(ctx context.Context, token string, id int64) error {
	return c.sendJSON(ctx, http.MethodPost, idPath("/notificaciones_servicios/%d/rechazar", id), nil, token, nil, nil)
}
