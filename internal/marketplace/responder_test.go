package marketplace

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/favo-app/favo-web/internal/api"
	"github.com/favo-app/favo-web/internal/session"
)

var (
	owner    = Actor{SessionID: "s-owner", Token: "tok-7", UserID: 7}
	provider = Actor{SessionID: "s-provider", Token: "tok-9", UserID: 9}
	stranger = Actor{SessionID: "s-stranger", Token: "tok-11", UserID: 11}
)

func newResponder(backend *fakeBackend, p Policy) (*Responder, *Boards) {
	boards := NewBoards()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return NewResponder(backend, boards, p).WithClock(func() time.Time { return now }), boards
}

func TestAcceptThenRejectReopensRequest(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(api.Request{ID: 42, OwnerID: 7, Status: api.StatusPending})
	r, boards := newResponder(backend, DefaultPolicy())

	out, err := r.Accept(ctx, provider, 42)
	require.NoError(t, err)
	require.False(t, out.Deleted)
	require.Equal(t, api.StatusInProcess, out.Request.Status)
	require.Equal(t, int64(9), *out.Request.AcceptedBy)
	require.Equal(t, api.StatusInProcess, backend.state(42).Status)

	// the owner sees the request as taken and may answer
	seen, err := r.Load(ctx, owner, 42)
	require.NoError(t, err)
	require.Contains(t, r.Actions(owner, seen), ActionRespondReject)

	out, err = r.RespondReject(ctx, owner, 42)
	require.NoError(t, err)
	require.Equal(t, api.StatusPending, out.Request.Status)
	require.Nil(t, out.Request.AcceptedBy)

	got := backend.state(42)
	require.Equal(t, api.StatusPending, got.Status)
	require.Nil(t, got.AcceptedBy)

	local, ok := boards.For(owner.SessionID).Get(42)
	require.True(t, ok)
	require.Equal(t, api.StatusPending, local.Status)

	require.Len(t, backend.replies, 1)
	require.Equal(t, api.ReplyRejected, backend.replies[0].Kind)
	require.Equal(t, api.Target{RequestID: 42}, backend.replies[0].Target)
}

func TestAcceptUsesEchoedRecord(t *testing.T) {
	backend := newFakeBackend(api.Request{ID: 42, OwnerID: 7, Status: api.StatusPending})
	backend.echo = true
	r, boards := newResponder(backend, DefaultPolicy())

	out, err := r.Accept(context.Background(), provider, 42)
	require.NoError(t, err)
	require.NotNil(t, out.Request.AcceptedByName)
	require.Equal(t, "user-9", *out.Request.AcceptedByName)

	local, _ := boards.For(provider.SessionID).Get(42)
	require.Equal(t, "user-9", *local.AcceptedByName)
}

func TestFailedActionRollsBack(t *testing.T) {
	start := api.Request{ID: 42, OwnerID: 7, Status: api.StatusPending}
	backend := newFakeBackend(start)
	backend.failWith = &api.Error{StatusCode: 500, Detail: "boom"}
	r, boards := newResponder(backend, DefaultPolicy())

	_, err := r.Accept(context.Background(), provider, 42)
	require.Error(t, err)
	require.Equal(t, 500, api.StatusOf(err))

	local, ok := boards.For(provider.SessionID).Get(42)
	require.True(t, ok)
	require.Equal(t, start, local)
}

func TestAcceptInDeleteMode(t *testing.T) {
	backend := newFakeBackend(api.Request{ID: 42, OwnerID: 7, Status: api.StatusPending})
	r, boards := newResponder(backend, Policy{AcceptMode: AcceptDelete})

	out, err := r.Accept(context.Background(), provider, 42)
	require.NoError(t, err)
	require.True(t, out.Deleted)

	_, ok := boards.For(provider.SessionID).Get(42)
	require.False(t, ok)
	_, err = backend.GetRequest(context.Background(), provider.Token, 42)
	require.Equal(t, 404, api.StatusOf(err))
}

func TestIllegalActionsNeverReachBackend(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(
		api.Request{ID: 1, OwnerID: 7, Status: api.StatusPending},
		api.Request{ID: 2, OwnerID: 7, Status: api.StatusCompleted, AcceptedBy: ptr(int64(9))},
		api.Request{ID: 3, OwnerID: 7, Status: api.StatusInProcess, AcceptedBy: ptr(int64(9))},
	)
	r, _ := newResponder(backend, DefaultPolicy())

	_, err := r.Accept(ctx, owner, 1)
	var notAllowed *NotAllowedError
	require.ErrorAs(t, err, &notAllowed)
	require.Equal(t, "No puedes aceptar tu propio pedido.", notAllowed.Reason)

	_, err = r.Complete(ctx, owner, 2)
	require.ErrorIs(t, err, ErrNotAllowed)

	_, err = r.RespondAccept(ctx, provider, 3)
	require.ErrorIs(t, err, ErrNotAllowed)

	_, err = r.Complete(ctx, stranger, 3)
	require.ErrorIs(t, err, ErrNotAllowed)

	_, err = r.Accept(ctx, Actor{}, 1)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.ErrorIs(t, err, session.ErrNoSession)

	require.Zero(t, backend.calls.Load())
}

func TestCounterofferRejectsBadPrice(t *testing.T) {
	backend := newFakeBackend(api.Request{ID: 3, OwnerID: 7, Status: api.StatusInProcess, AcceptedBy: ptr(int64(9))})
	r, _ := newResponder(backend, DefaultPolicy())

	for _, price := range []string{"", "0", "-5", "abc", "  "} {
		_, err := r.Counteroffer(context.Background(), owner, 3, price, "")
		var fe *FieldError
		require.ErrorAs(t, err, &fe, price)
		require.Equal(t, "precio", fe.Field)
	}
	require.Zero(t, backend.calls.Load())

	out, err := r.Counteroffer(context.Background(), owner, 3, "1500.50", "más horas")
	require.NoError(t, err)
	require.Equal(t, api.StatusInProcess, out.Request.Status)
	require.Len(t, backend.replies, 1)
	require.Equal(t, api.ReplyCounter, backend.replies[0].Kind)
	require.True(t, decimal.RequireFromString("1500.50").Equal(backend.replies[0].Price))
	require.Equal(t, "más horas", backend.replies[0].Comment)
}

func TestCounterofferDisabledByPolicy(t *testing.T) {
	backend := newFakeBackend(api.Request{ID: 3, OwnerID: 7, Status: api.StatusInProcess, AcceptedBy: ptr(int64(9))})
	r, _ := newResponder(backend, Policy{AcceptMode: AcceptTransition})

	_, err := r.Counteroffer(context.Background(), owner, 3, "100", "")
	require.ErrorIs(t, err, ErrNotAllowed)
	require.Zero(t, backend.calls.Load())
}

func TestCompleteByEitherParticipant(t *testing.T) {
	for _, actor := range []Actor{owner, provider} {
		backend := newFakeBackend(api.Request{ID: 3, OwnerID: 7, Status: api.StatusInProcess, AcceptedBy: ptr(int64(9))})
		r, _ := newResponder(backend, DefaultPolicy())

		out, err := r.Complete(context.Background(), actor, 3)
		require.NoError(t, err)
		require.Equal(t, api.StatusCompleted, out.Request.Status)
		require.Empty(t, r.Actions(actor, out.Request))
	}
}

func TestDuplicateSubmitsCollapse(t *testing.T) {
	backend := newFakeBackend(api.Request{ID: 42, OwnerID: 7, Status: api.StatusPending})
	backend.gate = make(chan struct{})
	r, boards := newResponder(backend, DefaultPolicy())
	boards.For(provider.SessionID).Put(backend.state(42))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Accept(context.Background(), provider, 42)
		}(i)
	}

	require.Eventually(t, func() bool { return backend.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	// the second submit either joins the first or finds the request already taken
	time.Sleep(20 * time.Millisecond)
	close(backend.gate)
	wg.Wait()

	require.Equal(t, int32(1), backend.calls.Load())
	for _, err := range errs {
		if err != nil {
			require.True(t, errors.Is(err, ErrNotAllowed), err)
		}
	}
}

func TestUnknownRequest(t *testing.T) {
	r, _ := newResponder(newFakeBackend(), DefaultPolicy())
	_, err := r.Accept(context.Background(), provider, 404)
	require.ErrorIs(t, err, api.ErrNotFound)
}

func TestOwnerAnswersAfterAcceptInAnotherSession(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(api.Request{ID: 42, OwnerID: 7, Status: api.StatusPending})
	r, boards := newResponder(backend, DefaultPolicy())

	// the owner's board still shows the request as pending
	_, err := r.Load(ctx, owner, 42)
	require.NoError(t, err)

	_, err = r.Accept(ctx, provider, 42)
	require.NoError(t, err)

	out, err := r.RespondReject(ctx, owner, 42)
	require.NoError(t, err)
	require.Equal(t, api.StatusPending, out.Request.Status)
	require.Equal(t, api.StatusPending, backend.state(42).Status)

	local, _ := boards.For(owner.SessionID).Get(42)
	require.Equal(t, api.StatusPending, local.Status)
}

func TestStaleAcceptOnCompletedRequestRefused(t *testing.T) {
	ctx := context.Background()
	open := api.Request{ID: 42, OwnerID: 7, Status: api.StatusPending}
	backend := newFakeBackend(api.Request{ID: 42, OwnerID: 7, Status: api.StatusCompleted, AcceptedBy: ptr(int64(9))})
	r, boards := newResponder(backend, DefaultPolicy())
	boards.For(stranger.SessionID).Put(open)

	_, err := r.Accept(ctx, stranger, 42)
	require.ErrorIs(t, err, ErrNotAllowed)
	require.Zero(t, backend.calls.Load())
	require.Equal(t, api.StatusCompleted, backend.state(42).Status)

	local, _ := boards.For(stranger.SessionID).Get(42)
	require.Equal(t, open, local)
}

func TestRollbackKeepsNewerCopy(t *testing.T) {
	backend := newFakeBackend(api.Request{ID: 42, OwnerID: 7, Status: api.StatusPending})
	backend.failWith = &api.Error{StatusCode: 500, Detail: "boom"}
	backend.gate = make(chan struct{})
	r, boards := newResponder(backend, DefaultPolicy())

	done := make(chan error, 1)
	go func() {
		_, err := r.Accept(context.Background(), provider, 42)
		done <- err
	}()
	require.Eventually(t, func() bool { return backend.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	fresh := api.Request{ID: 42, OwnerID: 7, Status: api.StatusPending, Title: "refrescado"}
	boards.For(provider.SessionID).Put(fresh)
	close(backend.gate)
	require.Error(t, <-done)

	local, ok := boards.For(provider.SessionID).Get(42)
	require.True(t, ok)
	require.Equal(t, fresh, local)
}

func TestBoardRevertOnlyOnUnchangedRevision(t *testing.T) {
	b := NewBoard()
	prev := api.Request{ID: 1, Status: api.StatusPending}
	b.Put(prev)

	rev := b.Stage(1, &api.Request{ID: 1, Status: api.StatusInProcess})
	require.True(t, b.Revert(1, rev, prev))
	got, _ := b.Get(1)
	require.Equal(t, prev, got)

	rev = b.Stage(1, nil)
	b.Remove(1)
	require.False(t, b.Revert(1, rev, prev))
	_, ok := b.Get(1)
	require.False(t, ok)
}
