package notifications

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/favo-app/favo-web/internal/api"
	"github.com/favo-app/favo-web/internal/marketplace"
)

// SourceReply tags notifications built from /notificaciones_respuestas.
// Offers keep the backend's own source ("servicio" or "pedido").
const SourceReply = "respuesta"

// Direction says whether a notification is an incoming offer or an answer
// to something the user sent.
type Direction string

const (
	DirectionOffer Direction = "oferta"
	DirectionReply Direction = "respuesta"
)

// Kind is what the notification says.
type Kind string

const (
	KindOffer    Kind = "oferta"
	KindAccepted Kind = Kind(api.ReplyAccepted)
	KindRejected Kind = Kind(api.ReplyRejected)
	KindCounter  Kind = Kind(api.ReplyCounter)
)

// Action is an answer the user can give to a notification.
type Action string

const (
	ActionAccept        Action = "aceptar"
	ActionReject        Action = "rechazar"
	ActionCounter       Action = "contraoferta"
	ActionDismiss       Action = "descartar"
	ActionAcceptCounter Action = "aceptar_contraoferta"
)

// Notification is the single shape the viewer shows, whatever list the
// item came from.
type Notification struct {
	ID             int64               `json:"id"`
	Source         string              `json:"source"`
	Direction      Direction           `json:"direccion"`
	Kind           Kind                `json:"tipo"`
	Title          string              `json:"titulo"`
	Description    string              `json:"descripcion"`
	Price          decimal.NullDecimal `json:"precio"`
	PreviousPrice  decimal.NullDecimal `json:"precio_anterior"`
	Location       string              `json:"ubicacion,omitempty"`
	RequestID      int64               `json:"id_pedido,omitempty"`
	Comment        string              `json:"comentario,omitempty"`
	From           string              `json:"de,omitempty"`
	Seen           bool                `json:"visto"`
	CreatedAt      *api.Time           `json:"created_at,omitempty"`
	AcceptedBy     *int64              `json:"accepted_by,omitempty"`
	AcceptedByName *string             `json:"aceptado_por_nombre,omitempty"`
	Actions        []Action            `json:"acciones"`
}

// key identifies a notification across lists.
type key struct {
	source string
	id     int64
}

func (n Notification) key() key { return key{n.Source, n.ID} }

// FromOffer converts an offer from either offers list.
func FromOffer(o api.Offer, p marketplace.Policy) Notification {
	source := o.Source
	if source == "" {
		source = api.SourceService
	}
	n := Notification{
		ID:             o.ID,
		Source:         source,
		Direction:      DirectionOffer,
		Kind:           KindOffer,
		Title:          o.Title,
		Description:    o.Description,
		Price:          decimal.NewNullDecimal(o.Price),
		Location:       o.Location,
		Seen:           true,
		CreatedAt:      o.CreatedAt,
		AcceptedBy:     o.AcceptedBy,
		AcceptedByName: o.AcceptedByName,
	}
	n.Actions = actionsFor(n, p)
	return n
}

// FromReply converts a negotiation answer.
func FromReply(r api.Reply, p marketplace.Policy) Notification {
	n := Notification{
		ID:            r.ID,
		Source:        SourceReply,
		Direction:     DirectionReply,
		Kind:          Kind(r.Kind),
		Title:         r.Title,
		Description:   r.Description,
		Price:         r.NewPrice,
		PreviousPrice: r.PreviousPrice,
		RequestID:     r.RequestID,
		Comment:       r.Comment,
		From:          r.FromName,
		Seen:          r.Seen,
		CreatedAt:     r.CreatedAt,
	}
	n.Actions = actionsFor(n, p)
	return n
}

// actionsFor gates the available answers on where the notification came
// from and what it says.
func actionsFor(n Notification, p marketplace.Policy) []Action {
	switch {
	case n.Direction == DirectionOffer && n.Source == api.SourceService:
		if p.Counteroffers {
			return []Action{ActionAccept, ActionReject, ActionCounter}
		}
		return []Action{ActionAccept, ActionReject}
	case n.Direction == DirectionOffer:
		return []Action{ActionDismiss}
	case n.Kind == KindCounter:
		if p.Counteroffers {
			return []Action{ActionAcceptCounter, ActionReject, ActionCounter}
		}
		return []Action{ActionAcceptCounter, ActionReject}
	default:
		return []Action{ActionDismiss}
	}
}

// Allows reports whether a is one of n's actions.
func (n Notification) Allows(a Action) bool {
	for _, have := range n.Actions {
		if have == a {
			return true
		}
	}
	return false
}

// Merge joins lists, drops repeats of the same (source, id) keeping the
// first one seen, and orders the result newest id first.
func Merge(lists ...[]Notification) []Notification {
	seen := make(map[key]bool)
	out := []Notification{}
	for _, list := range lists {
		for _, n := range list {
			if seen[n.key()] {
				continue
			}
			seen[n.key()] = true
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}
