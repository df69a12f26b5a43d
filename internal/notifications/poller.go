package notifications

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/favo-app/favo-web/internal/api"
	"github.com/favo-app/favo-web/internal/marketplace"
	"github.com/favo-app/favo-web/internal/session"
)

// Poller refreshes the notification list of every connected session and
// pushes the ones it has not pushed before.
type Poller struct {
	viewer   *Viewer
	hub      *Hub
	interval time.Duration
	onReject func(sessionID string)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPoller(viewer *Viewer, hub *Hub, interval time.Duration) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{viewer: viewer, hub: hub, interval: interval, ctx: ctx, cancel: cancel}
}

// OnReject sets what to do with a session whose token the backend refused.
func (p *Poller) OnReject(fn func(sessionID string)) {
	p.onReject = fn
}

// Watch polls for actor until stop is called, the token is refused or the
// poller is closed.
func (p *Poller) Watch(actor marketplace.Actor) (stop func()) {
	ctx, cancel := context.WithCancel(p.ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx, actor)
	}()
	return cancel
}

func (p *Poller) run(ctx context.Context, actor marketplace.Actor) {
	pushed := make(map[key]bool)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if !p.poll(ctx, actor, pushed) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll does one round and reports whether to keep going.
func (p *Poller) poll(ctx context.Context, actor marketplace.Actor, pushed map[key]bool) bool {
	list, err := p.viewer.Peek(ctx, actor)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, session.ErrExpired) || errors.Is(err, session.ErrInvalidToken) {
			log.Printf("[notify] poller stopped user=%d: %v", actor.UserID, err)
			if p.onReject != nil {
				p.onReject(actor.SessionID)
			}
			return false
		}
		log.Printf("[notify] poll user=%d failed: %v", actor.UserID, err)
		return true
	}

	// oldest first, so clients can prepend
	for i := len(list) - 1; i >= 0; i-- {
		n := list[i]
		if pushed[n.key()] {
			continue
		}
		pushed[n.key()] = true
		p.hub.PushToSession(actor.SessionID, n)
	}
	return true
}

// Close stops every watch and waits for them to return.
func (p *Poller) Close() {
	p.cancel()
	p.wg.Wait()
}
