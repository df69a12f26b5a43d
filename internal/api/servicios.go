package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

// NewService is the creation payload of POST /servicios.
type NewService struct {
	Title       string           `json:"titulo"`
	Description string           `json:"descripcion"`
	Price       *decimal.Decimal `json:"precio,omitempty"`
	CategoryID  int64            `json:"id_categoria"`
}

// Hire is the payload of POST /notificaciones_servicios: an offer to hire
// ServiceID, addressed to the service owner RecipientID.
type Hire struct {
	Title       string          `json:"titulo"`
	Description string          `json:"desc"`
	Price       decimal.Decimal `json:"precio"`
	Location    string          `json:"ubicacion"`
	ServiceID   int64           `json:"id_servicio"`
	RecipientID int64           `json:"id_usuario"`
}

// SearchServices runs a free text search. An empty q lists everything.
func (c *Client) SearchServices(ctx context.Context, token, q string) ([]Service, error) {
	query := url.Values{}
	if q != "" {
		query.Set("q", q)
	}
	var out []Service
	if err := c.getJSON(ctx, "/servicios", query, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateService publishes a service owned by the token's user.
func (c *Client) CreateService(ctx context.Context, token string, in NewService) (Service, error) {
	var s Service
	if err := c.sendJSON(ctx, http.MethodPost, "/servicios", nil, token, in, &s); err != nil {
		return Service{}, err
	}
	return s, nil
}

// MyServices lists the caller's active services.
func (c *Client) MyServices(ctx context.Context, token string) ([]Service, error) {
	q := url.Values{}
	q.Set("only_active", "true")
	var out []Service
	if err := c.getJSON(ctx, "/users/me/servicios", q, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HireService sends a hire offer to the owner of a service.
func (c *Client) HireService(ctx context.Context, token string, in Hire) (Offer, error) {
	var o Offer
	if err := c.sendJSON(ctx, http.MethodPost, "/notificaciones_servicios", nil, token, in, &o); err != nil {
		return Offer{}, err
	}
	if o.Source == "" {
		o.Source = SourceService
	}
	return o, nil
}
