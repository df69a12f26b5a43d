package marketplace

// Action is something a user can do to a Request.
type Action string

const (
	// ActionAccept: a provider takes an open request.
	ActionAccept Action = "aceptar"
	// ActionComplete: a participant closes an in-process request.
	ActionComplete Action = "completar"
	// ActionRespondAccept: the owner confirms the provider who took the request.
	ActionRespondAccept Action = "responder_aceptar"
	// ActionRespondReject: the owner turns the provider down; the request reopens.
	ActionRespondReject Action = "responder_rechazar"
	// ActionCounteroffer: the owner proposes a different price.
	ActionCounteroffer Action = "contraoferta"
)

// AcceptMode selects what taking an open request does on the backend.
type AcceptMode string

const (
	// AcceptTransition calls /pedidos/{id}/aceptar and keeps the record.
	AcceptTransition AcceptMode = "transition"
	// AcceptDelete removes the request, as older clients did.
	AcceptDelete AcceptMode = "delete"
)

// Policy is the set of behaviour switches that earlier clients hard-coded
// in separate versions of the same screens.
type Policy struct {
	AcceptMode             AcceptMode
	Counteroffers          bool
	LegacyServiceEndpoints bool
}

// DefaultPolicy is what current clients do.
func DefaultPolicy() Policy {
	return Policy{AcceptMode: AcceptTransition, Counteroffers: true}
}
