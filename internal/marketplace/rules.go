package marketplace

import (
	"time"

	"github.com/favo-app/favo-web/internal/api"
)

// Anonymous is the user id of a visitor without a session.
const Anonymous int64 = 0

// CanAccept: the request is open and the user is signed in and not its owner.
func CanAccept(r api.Request, userID int64) bool {
	return userID != Anonymous && r.Status == api.StatusPending && r.OwnerID != userID
}

// CanComplete: the request is in process and the user is a participant.
func CanComplete(r api.Request, userID int64) bool {
	if userID == Anonymous || r.Status != api.StatusInProcess {
		return false
	}
	return userID == r.OwnerID || (r.AcceptedBy != nil && *r.AcceptedBy == userID)
}

// CanRespond: the request was taken by a provider and the user owns it.
func CanRespond(r api.Request, userID int64) bool {
	return userID != Anonymous &&
		r.Status == api.StatusInProcess &&
		r.AcceptedBy != nil &&
		r.OwnerID == userID
}

// Actions lists what userID may do on r under p, in display order.
func Actions(r api.Request, userID int64, p Policy) []Action {
	var out []Action
	if CanAccept(r, userID) {
		out = append(out, ActionAccept)
	}
	if CanRespond(r, userID) {
		out = append(out, ActionRespondAccept, ActionRespondReject)
		if p.Counteroffers {
			out = append(out, ActionCounteroffer)
		}
	}
	if CanComplete(r, userID) {
		out = append(out, ActionComplete)
	}
	return out
}

// Allowed reports whether a is among Actions(r, userID, p).
func Allowed(r api.Request, userID int64, p Policy, a Action) bool {
	for _, have := range Actions(r, userID, p) {
		if have == a {
			return true
		}
	}
	return false
}

// denyReason explains why a is not available, for the user.
func denyReason(r api.Request, userID int64, p Policy, a Action) string {
	switch {
	case r.Status == api.StatusCompleted:
		return "El pedido ya está completado."
	case a == ActionAccept && r.OwnerID == userID:
		return "No puedes aceptar tu propio pedido."
	case a == ActionAccept:
		return "El pedido ya no está disponible."
	case a == ActionCounteroffer && !p.Counteroffers:
		return "Las contraofertas no están habilitadas."
	case a == ActionComplete:
		return "Solo los participantes pueden completar un pedido en proceso."
	default:
		return "Solo el dueño del pedido puede responder a la aceptación."
	}
}

// Apply returns the state r is expected to reach after a succeeds. The
// bool is true when the request is expected to disappear.
func Apply(r api.Request, a Action, userID int64, now time.Time, p Policy) (api.Request, bool) {
	switch a {
	case ActionAccept:
		if p.AcceptMode == AcceptDelete {
			return r, true
		}
		by := userID
		at := api.Time{Time: now}
		r.Status = api.StatusInProcess
		r.AcceptedBy = &by
		r.AcceptedAt = &at
		r.AcceptedByName = nil
	case ActionRespondReject:
		r.Status = api.StatusPending
		r.AcceptedBy = nil
		r.AcceptedAt = nil
		r.AcceptedByName = nil
	case ActionComplete:
		r.Status = api.StatusCompleted
	}
	return r, false
}
