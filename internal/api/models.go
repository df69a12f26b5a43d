package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend sends and expects prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Status is the lifecycle state of a Request.
type Status string

const (
	StatusPending   Status = "pendiente"
	StatusInProcess Status = "en_proceso"
	StatusCompleted Status = "completado"
)

// Request is a job posting ("pedido") owned by a requester.
type Request struct {
	ID             int64               `json:"id_pedidos"`
	Title          string              `json:"titulo"`
	Description    string              `json:"descripcion"`
	Price          decimal.NullDecimal `json:"precio"`
	CategoryID     int64               `json:"id_categoria"`
	OwnerID        int64               `json:"id_usuario"`
	Status         Status              `json:"status"`
	AcceptedBy     *int64              `json:"accepted_by"`
	AcceptedAt     *Time               `json:"accepted_at"`
	AcceptedByName *string             `json:"aceptado_por_nombre"`
}

// Service is an offering ("servicio") published by a provider.
type Service struct {
	ID          int64               `json:"id_servicio"`
	Title       string              `json:"titulo"`
	Description string              `json:"descripcion"`
	Price       decimal.NullDecimal `json:"precio"`
	CategoryID  int64               `json:"id_categoria"`
	OwnerID     int64               `json:"id_usuario"`
	Active      bool                `json:"activo"`
	Rating      *float64            `json:"rating,omitempty"`
}

// Offer origins, as reported in Offer.Source.
const (
	SourceService = "servicio"
	SourceRequest = "pedido"
)

// Offer is a pending proposal on a Service or a Request addressed to UserID.
type Offer struct {
	ID             int64           `json:"id"`
	Title          string          `json:"titulo"`
	Description    string          `json:"desc"`
	Price          decimal.Decimal `json:"precio"`
	Location       string          `json:"ubicacion"`
	UserID         int64           `json:"id_usuario"`
	CreatedAt      *Time           `json:"created_at,omitempty"`
	AcceptedBy     *int64          `json:"accepted_by,omitempty"`
	AcceptedAt     *Time           `json:"accepted_at,omitempty"`
	AcceptedByName *string         `json:"aceptado_por_nombre,omitempty"`
	Source         string          `json:"source,omitempty"`
}

// ReplyKind is the outcome carried by a Reply.
type ReplyKind string

const (
	ReplyAccepted ReplyKind = "aceptado"
	ReplyRejected ReplyKind = "rechazado"
	ReplyCounter  ReplyKind = "contraoferta"
)

// Reply is the outcome of one negotiation round ("notificación de respuesta").
type Reply struct {
	ID            int64               `json:"id"`
	RequestID     int64               `json:"id_pedido"`
	Kind          ReplyKind           `json:"tipo"`
	Title         string              `json:"titulo"`
	Description   string              `json:"descripcion"`
	PreviousPrice decimal.NullDecimal `json:"precio_anterior"`
	NewPrice      decimal.NullDecimal `json:"precio_nuevo"`
	Comment       string              `json:"comentario,omitempty"`
	Seen          bool                `json:"visto"`
	CreatedAt     *Time               `json:"created_at,omitempty"`
	FromName      string              `json:"nombre_usuario_origen,omitempty"`
}

// User is the profile returned by /users/me/ and /usuarios/{id}.
type User struct {
	ID           int64  `json:"id_usuario"`
	Name         string `json:"nombre"`
	Email        string `json:"mail,omitempty"`
	Description  string `json:"descripcion,omitempty"`
	Photo        string `json:"foto_perfil,omitempty"`
	Verified     bool   `json:"verificado"`
	RegisteredAt *Time  `json:"fecha_registro,omitempty"`
	LocationID   *int64 `json:"id_ubicacion,omitempty"`
	IsProvider   bool   `json:"es_proveedor"`
	IsRequester  bool   `json:"es_demandante"`
}

// Time accepts the timestamp layouts the backend emits, with or without zone.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("api: timestamp: %w", err)
	}
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("api: unrecognised timestamp %q", s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
