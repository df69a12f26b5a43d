package marketplace

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/favo-app/favo-web/internal/api"
)

// fakeBackend is a tiny in-memory Favo API. Tokens map to user ids.
type fakeBackend struct {
	mu       sync.Mutex
	requests map[int64]api.Request
	services []api.Service
	users    map[string]int64

	failWith error
	echo     bool
	calls    atomic.Int32
	gate     chan struct{}

	replies []fakeReply
	hires   []api.Hire
	created []api.NewRequest
}

type fakeReply struct {
	Kind    api.ReplyKind
	Target  api.Target
	Price   decimal.Decimal
	Comment string
}

func newFakeBackend(rs ...api.Request) *fakeBackend {
	f := &fakeBackend{
		requests: make(map[int64]api.Request),
		users:    map[string]int64{"tok-7": 7, "tok-9": 9, "tok-11": 11},
	}
	for _, r := range rs {
		f.requests[r.ID] = r
	}
	return f
}

func (f *fakeBackend) enter() error {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.failWith
}

func (f *fakeBackend) user(token string) (int64, error) {
	id, ok := f.users[token]
	if !ok {
		return 0, &api.Error{StatusCode: 401, Detail: "Could not validate credentials"}
	}
	return id, nil
}

func (f *fakeBackend) state(id int64) api.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[id]
}

func (f *fakeBackend) GetRequest(_ context.Context, token string, id int64) (api.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return api.Request{}, &api.Error{StatusCode: 404, Detail: "Pedido no encontrado"}
	}
	return r, nil
}

func (f *fakeBackend) AcceptRequest(_ context.Context, token string, id int64) (*api.Request, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	uid, err := f.user(token)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.requests[id]
	r.Status = api.StatusInProcess
	r.AcceptedBy = &uid
	name := fmt.Sprintf("user-%d", uid)
	r.AcceptedByName = &name
	f.requests[id] = r
	if !f.echo {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeBackend) CompleteRequest(_ context.Context, token string, id int64) (*api.Request, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.requests[id]
	r.Status = api.StatusCompleted
	f.requests[id] = r
	return nil, nil
}

func (f *fakeBackend) DeleteRequest(_ context.Context, token string, id int64) error {
	if err := f.enter(); err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.requests, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) Reply(_ context.Context, token string, kind api.ReplyKind, target api.Target, price decimal.Decimal, comment string) error {
	if err := f.enter(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, fakeReply{Kind: kind, Target: target, Price: price, Comment: comment})
	if kind == api.ReplyRejected && target.RequestID != 0 {
		r := f.requests[target.RequestID]
		r.Status = api.StatusPending
		r.AcceptedBy = nil
		r.AcceptedAt = nil
		r.AcceptedByName = nil
		f.requests[target.RequestID] = r
	}
	return nil
}

func (f *fakeBackend) ListRequests(_ context.Context, token string, categoryID int64) ([]api.Request, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []api.Request
	for _, r := range f.requests {
		if categoryID == 0 || r.CategoryID == categoryID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeBackend) MyRequests(_ context.Context, token, scope string, status api.Status) ([]api.Request, error) {
	uid, err := f.user(token)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []api.Request
	for _, r := range f.requests {
		mine := r.OwnerID == uid
		if scope == api.ScopeAccepted {
			mine = r.AcceptedBy != nil && *r.AcceptedBy == uid
		}
		if mine && (status == "" || r.Status == status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeBackend) CreateRequest(_ context.Context, token string, in api.NewRequest) (api.Request, error) {
	if err := f.enter(); err != nil {
		return api.Request{}, err
	}
	uid, err := f.user(token)
	if err != nil {
		return api.Request{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	r := api.Request{
		ID:          int64(100 + len(f.created)),
		Title:       in.Title,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		OwnerID:     uid,
		Status:      api.StatusPending,
	}
	f.requests[r.ID] = r
	return r, nil
}

func (f *fakeBackend) SearchServices(_ context.Context, token, q string) ([]api.Service, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.services, nil
}

func (f *fakeBackend) MyServices(_ context.Context, token string) ([]api.Service, error) {
	uid, err := f.user(token)
	if err != nil {
		return nil, err
	}
	var out []api.Service
	for _, s := range f.services {
		if s.OwnerID == uid {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeBackend) CreateService(_ context.Context, token string, in api.NewService) (api.Service, error) {
	if err := f.enter(); err != nil {
		return api.Service{}, err
	}
	uid, err := f.user(token)
	if err != nil {
		return api.Service{}, err
	}
	s := api.Service{ID: int64(200 + len(f.services)), Title: in.Title, Description: in.Description, CategoryID: in.CategoryID, OwnerID: uid, Active: true}
	f.services = append(f.services, s)
	return s, nil
}

func (f *fakeBackend) HireService(_ context.Context, token string, in api.Hire) (api.Offer, error) {
	if err := f.enter(); err != nil {
		return api.Offer{}, err
	}
	f.mu.Lock()
	f.hires = append(f.hires, in)
	n := len(f.hires)
	f.mu.Unlock()
	return api.Offer{ID: int64(n), Title: in.Title, Price: in.Price, Location: in.Location, Source: api.SourceService}, nil
}
