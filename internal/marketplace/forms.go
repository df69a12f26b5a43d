package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/favo-app/favo-web/internal/api"
)

// ParsePrice accepts a strictly positive decimal.
func ParsePrice(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, &FieldError{Field: field, Message: "El precio debe ser mayor a 0"}
	}
	p, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, &FieldError{Field: field, Message: "El precio debe ser un número"}
	}
	if !p.IsPositive() {
		return decimal.Decimal{}, &FieldError{Field: field, Message: "El precio debe ser mayor a 0"}
	}
	return p, nil
}

func optionalPrice(field, raw string) (*decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	p, err := ParsePrice(field, raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func required(field, value, message string) error {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Message: message}
	}
	return nil
}

// RequestForm is the "new pedido" form.
type RequestForm struct {
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	Price       string `json:"precio"`
	CategoryID  int64  `json:"id_categoria"`
}

func (f RequestForm) Validate() (api.NewRequest, error) {
	if err := required("titulo", f.Title, "El título es requerido"); err != nil {
		return api.NewRequest{}, err
	}
	if err := required("descripcion", f.Description, "La descripción es requerida"); err != nil {
		return api.NewRequest{}, err
	}
	if f.CategoryID <= 0 {
		return api.NewRequest{}, &FieldError{Field: "id_categoria", Message: "La categoría es requerida"}
	}
	price, err := optionalPrice("precio", f.Price)
	if err != nil {
		return api.NewRequest{}, err
	}
	return api.NewRequest{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Price:       price,
		CategoryID:  f.CategoryID,
	}, nil
}

// ServiceForm is the "new servicio" form.
type ServiceForm struct {
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	Price       string `json:"precio"`
	CategoryID  int64  `json:"id_categoria"`
}

func (f ServiceForm) Validate() (api.NewService, error) {
	if err := required("titulo", f.Title, "El título es requerido"); err != nil {
		return api.NewService{}, err
	}
	if err := required("descripcion", f.Description, "La descripción es requerida"); err != nil {
		return api.NewService{}, err
	}
	if f.CategoryID <= 0 {
		return api.NewService{}, &FieldError{Field: "id_categoria", Message: "La categoría es requerida"}
	}
	price, err := optionalPrice("precio", f.Price)
	if err != nil {
		return api.NewService{}, err
	}
	return api.NewService{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Price:       price,
		CategoryID:  f.CategoryID,
	}, nil
}

// RemoteLocation is sent as ubicacion when the job is done remotely.
const RemoteLocation = "Remoto"

// HireForm is the offer a requester sends to hire a service.
type HireForm struct {
	Title       string `json:"titulo"`
	Description string `json:"desc"`
	Price       string `json:"precio"`
	Location    string `json:"ubicacion"`
	Remote      bool   `json:"remoto"`
}

// Validate builds the hire payload for svc. Hiring one's own service is refused.
func (f HireForm) Validate(svc api.Service, userID int64) (api.Hire, error) {
	if svc.OwnerID == userID {
		return api.Hire{}, &FieldError{Field: "id_servicio", Message: "No puedes contratar tu propio servicio."}
	}
	if err := required("titulo", f.Title, "El título es requerido"); err != nil {
		return api.Hire{}, err
	}
	if err := required("desc", f.Description, "La descripción es requerida"); err != nil {
		return api.Hire{}, err
	}
	price, err := ParsePrice("precio", f.Price)
	if err != nil {
		return api.Hire{}, err
	}
	location := strings.TrimSpace(f.Location)
	if f.Remote {
		location = RemoteLocation
	} else if location == "" {
		return api.Hire{}, &FieldError{Field: "ubicacion", Message: "La ubicación es requerida"}
	}
	return api.Hire{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Price:       price,
		Location:    location,
		ServiceID:   svc.ID,
		RecipientID: svc.OwnerID,
	}, nil
}

// CatalogBackend is the part of the Favo API used to publish and browse.
type CatalogBackend interface {
	ListRequests(ctx context.Context, token string, categoryID int64) ([]api.Request, error)
	MyRequests(ctx context.Context, token, scope string, status api.Status) ([]api.Request, error)
	CreateRequest(ctx context.Context, token string, in api.NewRequest) (api.Request, error)
	SearchServices(ctx context.Context, token, q string) ([]api.Service, error)
	MyServices(ctx context.Context, token string) ([]api.Service, error)
	CreateService(ctx context.Context, token string, in api.NewService) (api.Service, error)
	HireService(ctx context.Context, token string, in api.Hire) (api.Offer, error)
}

// Catalog publishes requests, services and hire offers. Identical
// submissions from one session that overlap in time reach the backend once.
type Catalog struct {
	backend  CatalogBackend
	boards   *Boards
	inflight singleflight.Group
}

func NewCatalog(backend CatalogBackend, boards *Boards) *Catalog {
	return &Catalog{backend: backend, boards: boards}
}

// Requests lists open requests and remembers them on the actor's board.
func (c *Catalog) Requests(ctx context.Context, actor Actor, categoryID int64) ([]api.Request, error) {
	out, err := c.backend.ListRequests(ctx, actor.Token, categoryID)
	if err != nil {
		return nil, fmt.Errorf("marketplace: list pedidos: %w", err)
	}
	c.remember(actor, out)
	return out, nil
}

// MyRequests lists the actor's own or accepted requests.
func (c *Catalog) MyRequests(ctx context.Context, actor Actor, scope string, status api.Status) ([]api.Request, error) {
	if scope != api.ScopeOwner && scope != api.ScopeAccepted {
		return nil, &FieldError{Field: "scope", Message: "scope debe ser owner o accepted"}
	}
	out, err := c.backend.MyRequests(ctx, actor.Token, scope, status)
	if err != nil {
		return nil, fmt.Errorf("marketplace: my pedidos: %w", err)
	}
	c.remember(actor, out)
	return out, nil
}

func (c *Catalog) CreateRequest(ctx context.Context, actor Actor, f RequestForm) (api.Request, error) {
	in, err := f.Validate()
	if err != nil {
		return api.Request{}, err
	}
	v, err := c.once(actor, "pedido", in, func() (any, error) {
		return c.backend.CreateRequest(ctx, actor.Token, in)
	})
	if err != nil {
		return api.Request{}, fmt.Errorf("marketplace: create pedido: %w", err)
	}
	created := v.(api.Request)
	if created.ID != 0 {
		c.remember(actor, []api.Request{created})
	}
	return created, nil
}

func (c *Catalog) Services(ctx context.Context, actor Actor, q string) ([]api.Service, error) {
	out, err := c.backend.SearchServices(ctx, actor.Token, strings.TrimSpace(q))
	if err != nil {
		return nil, fmt.Errorf("marketplace: search servicios: %w", err)
	}
	return out, nil
}

func (c *Catalog) MyServices(ctx context.Context, actor Actor) ([]api.Service, error) {
	out, err := c.backend.MyServices(ctx, actor.Token)
	if err != nil {
		return nil, fmt.Errorf("marketplace: my servicios: %w", err)
	}
	return out, nil
}

func (c *Catalog) CreateService(ctx context.Context, actor Actor, f ServiceForm) (api.Service, error) {
	in, err := f.Validate()
	if err != nil {
		return api.Service{}, err
	}
	v, err := c.once(actor, "servicio", in, func() (any, error) {
		return c.backend.CreateService(ctx, actor.Token, in)
	})
	if err != nil {
		return api.Service{}, fmt.Errorf("marketplace: create servicio: %w", err)
	}
	return v.(api.Service), nil
}

// Hire sends a hire offer for svc to its owner.
func (c *Catalog) Hire(ctx context.Context, actor Actor, svc api.Service, f HireForm) (api.Offer, error) {
	in, err := f.Validate(svc, actor.UserID)
	if err != nil {
		return api.Offer{}, err
	}
	v, err := c.once(actor, "contratar", in, func() (any, error) {
		return c.backend.HireService(ctx, actor.Token, in)
	})
	if err != nil {
		return api.Offer{}, fmt.Errorf("marketplace: hire servicio %d: %w", svc.ID, err)
	}
	return v.(api.Offer), nil
}

// FindService looks a service up by id through the search endpoint.
func (c *Catalog) FindService(ctx context.Context, actor Actor, id int64) (api.Service, error) {
	all, err := c.backend.SearchServices(ctx, actor.Token, "")
	if err != nil {
		return api.Service{}, fmt.Errorf("marketplace: find servicio %d: %w", id, err)
	}
	for _, s := range all {
		if s.ID == id {
			return s, nil
		}
	}
	return api.Service{}, fmt.Errorf("marketplace: servicio %d: %w", id, api.ErrNotFound)
}

func (c *Catalog) once(actor Actor, kind string, payload any, fn func() (any, error)) (any, error) {
	if actor.Token == "" {
		return nil, ErrUnauthorized
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marketplace: encode %s: %w", kind, err)
	}
	key := actor.SessionID + ":" + kind + ":" + string(body)
	v, err, _ := c.inflight.Do(key, fn)
	return v, err
}

func (c *Catalog) remember(actor Actor, rs []api.Request) {
	if actor.SessionID == "" || len(rs) == 0 {
		return
	}
	c.boards.For(actor.SessionID).Put(rs...)
}
