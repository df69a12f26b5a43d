package marketplace

import (
	"sort"
	"sync"

	"github.com/favo-app/favo-web/internal/api"
)

// Board is one session's local copy of the requests it has looked at.
// Mutations are applied here first and rolled back if the backend refuses.
type Board struct {
	mu    sync.RWMutex
	items map[int64]api.Request
	revs  map[int64]uint64
}

func NewBoard() *Board {
	return &Board{items: make(map[int64]api.Request), revs: make(map[int64]uint64)}
}

// Put stores or replaces requests by id.
func (b *Board) Put(rs ...api.Request) {
	b.mu.Lock()
	for _, r := range rs {
		b.items[r.ID] = r
		b.revs[r.ID]++
	}
	b.mu.Unlock()
}

// Stage writes an optimistic copy of id, or removes it when next is nil,
// and returns the revision that write produced.
func (b *Board) Stage(id int64, next *api.Request) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if next == nil {
		delete(b.items, id)
	} else {
		b.items[id] = *next
	}
	b.revs[id]++
	return b.revs[id]
}

// Revert puts prev back only if nothing touched id since rev was staged.
func (b *Board) Revert(id int64, rev uint64, prev api.Request) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.revs[id] != rev {
		return false
	}
	b.items[id] = prev
	b.revs[id]++
	return true
}

func (b *Board) Get(id int64) (api.Request, bool) {
	b.mu.RLock()
	r, ok := b.items[id]
	b.mu.RUnlock()
	return r, ok
}

func (b *Board) Remove(id int64) {
	b.mu.Lock()
	delete(b.items, id)
	b.revs[id]++
	b.mu.Unlock()
}

// Snapshot returns the stored requests, newest id first.
func (b *Board) Snapshot() []api.Request {
	b.mu.RLock()
	out := make([]api.Request, 0, len(b.items))
	for _, r := range b.items {
		out = append(out, r)
	}
	b.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// Boards hands out one Board per session.
type Boards struct {
	mu        sync.Mutex
	bySession map[string]*Board
}

func NewBoards() *Boards {
	return &Boards{bySession: make(map[string]*Board)}
}

func (bs *Boards) For(sessionID string) *Board {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	b, ok := bs.bySession[sessionID]
	if !ok {
		b = NewBoard()
		bs.bySession[sessionID] = b
	}
	return b
}

// Drop forgets a session's board. It matches session.CloseFunc.
func (bs *Boards) Drop(sessionID, _ string) {
	bs.mu.Lock()
	delete(bs.bySession, sessionID)
	bs.mu.Unlock()
}
