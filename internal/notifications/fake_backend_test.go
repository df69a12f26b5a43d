package notifications

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/favo-app/favo-web/internal/api"
	"github.com/favo-app/favo-web/internal/marketplace"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ana@favo.test",
		"exp": exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func testActor(t *testing.T) marketplace.Actor {
	return marketplace.Actor{SessionID: "s-1", Token: signedToken(t, testNow.Add(time.Hour)), UserID: 7}
}

type call struct {
	name   string
	id     int64
	kind   api.ReplyKind
	target api.Target
	price  decimal.Decimal
}

type fakeBackend struct {
	mu sync.Mutex

	serviceOffers []api.Offer
	requestOffers []api.Offer
	replies       []api.Reply

	serviceErr, requestErr, repliesErr error
	seenErr                            error
	sendErr                            error

	lists int
	seen  []int64
	calls []call
}

func (f *fakeBackend) ServiceOffers(context.Context, string) ([]api.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return f.serviceOffers, f.serviceErr
}

func (f *fakeBackend) RequestOffers(context.Context, string) ([]api.Offer, error) {
	return f.requestOffers, f.requestErr
}

func (f *fakeBackend) Replies(context.Context, string) ([]api.Reply, error) {
	return f.replies, f.repliesErr
}

func (f *fakeBackend) MarkReplySeen(_ context.Context, _ string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, id)
	return f.seenErr
}

func (f *fakeBackend) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.sendErr
}

func (f *fakeBackend) Reply(_ context.Context, _ string, kind api.ReplyKind, target api.Target, price decimal.Decimal, _ string) error {
	return f.record(call{name: "reply", kind: kind, target: target, price: price})
}

func (f *fakeBackend) AcceptServiceOffer(_ context.Context, _ string, id int64) error {
	return f.record(call{name: "accept_service", id: id})
}

func (f *fakeBackend) RejectServiceOffer(_ context.Context, _ string, id int64) error {
	return f.record(call{name: "reject_service", id: id})
}

func (f *fakeBackend) DeleteRequestOffer(_ context.Context, _ string, id int64) error {
	return f.record(call{name: "delete_request_offer", id: id})
}

func (f *fakeBackend) AcceptCounteroffer(_ context.Context, _ string, id int64) error {
	return f.record(call{name: "accept_counter", id: id})
}

func (f *fakeBackend) CounterReply(_ context.Context, _ string, id int64, price decimal.Decimal, _ string) error {
	return f.record(call{name: "counter_reply", id: id, price: price})
}

func (f *fakeBackend) DeleteReply(_ context.Context, _ string, id int64) error {
	return f.record(call{name: "delete_reply", id: id})
}

func (f *fakeBackend) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func newViewer(b *fakeBackend, p marketplace.Policy) *Viewer {
	return NewViewer(b, p).WithClock(func() time.Time { return testNow })
}
