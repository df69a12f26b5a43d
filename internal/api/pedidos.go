package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// Scopes accepted by /users/me/pedidos.
const (
	ScopeOwner    = "owner"
	ScopeAccepted = "accepted"
)

// NewRequest is the creation payload of POST /pedidos.
type NewRequest struct {
	Title       string           `json:"titulo"`
	Description string           `json:"descripcion"`
	Price       *decimal.Decimal `json:"precio,omitempty"`
	CategoryID  int64            `json:"id_categoria"`
}

// ListRequests lists open requests, optionally filtered by category.
func (c *Client) ListRequests(ctx context.Context, token string, categoryID int64) ([]Request, error) {
	q := url.Values{}
	if categoryID > 0 {
		q.Set("id_categoria", strconv.FormatInt(categoryID, 10))
	}
	var out []Request
	if err := c.getJSON(ctx, "/pedidos", q, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRequest fetches one request.
func (c *Client) GetRequest(ctx context.Context, token string, id int64) (Request, error) {
	var r Request
	if err := c.getJSON(ctx, idPath("/pedidos/%d", id), nil, token, &r); err != nil {
		return Request{}, err
	}
	return r, nil
}

// CreateRequest publishes a new request owned by the token's user.
func (c *Client) CreateRequest(ctx context.Context, token string, in NewRequest) (Request, error) {
	var r Request
	if err := c.sendJSON(ctx, http.MethodPost, "/pedidos", nil, token, in, &r); err != nil {
		return Request{}, err
	}
	return r, nil
}

// AcceptRequest moves an open request to en_proceso with the caller as
// provider. The backend may or may not echo the updated record.
func (c *Client) AcceptRequest(ctx context.Context, token string, id int64) (*Request, error) {
	return c.mutateRequest(ctx, token, idPath("/pedidos/%d/aceptar", id))
}

// CompleteRequest marks an en_proceso request as completado.
func (c *Client) CompleteRequest(ctx context.Context, token string, id int64) (*Request, error) {
	return c.mutateRequest(ctx, token, idPath("/pedidos/%d/completar", id))
}

// DeleteRequest removes a request.
func (c *Client) DeleteRequest(ctx context.Context, token string, id int64) error {
	return c.sendJSON(ctx, http.MethodDelete, idPath("/pedidos/%d", id), nil, token, nil, nil)
}

// MyRequests lists the caller's own requests (ScopeOwner) or the ones
// they accepted as provider (ScopeAccepted). status may be empty.
func (c *Client) MyRequests(ctx context.Context, token, scope string, status Status) ([]Request, error) {
	q := url.Values{}
	q.Set("scope", scope)
	if status != "" {
		q.Set("status", string(status))
	}
	var out []Request
	if err := c.getJSON(ctx, "/users/me/pedidos", q, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) mutateRequest(ctx context.Context, token, path string) (*Request, error) {
	var r Request
	if err := c.sendJSON(ctx, http.MethodPost, path, nil, token, nil, &r); err != nil {
		return nil, err
	}
	if r.ID == 0 {
		return nil, nil
	}
	return &r, nil
}
