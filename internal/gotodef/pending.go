package gotodef

import (
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/dshills/gotodef/internal/lsp"
)

// Clock returns the current time.
type Clock func() time.Time

// IDGenerator returns a fresh request id.
type IDGenerator func() string

// Pending is a request that has been published and not yet answered.
type Pending struct {
	ID       string
	URI      lsp.DocumentURI
	Origin   EditorPosition
	FileType string
	Issued   time.Time
}

// PendingTable tracks in-flight requests by id. Entries older than the
// timeout are dropped on every access. A zero timeout keeps entries until
// they are taken.
type PendingTable struct {
	mu      sync.Mutex
	entries map[string]Pending
	timeout time.Duration
	now     Clock
}

// NewPendingTable creates a table. A nil clock selects time.Now.
func NewPendingTable(timeout time.Duration, now Clock) *PendingTable {
	if now == nil {
		now = time.Now
	}
	return &PendingTable{
		entries: make(map[string]Pending),
		timeout: timeout,
		now:     now,
	}
}

// Add records p, replacing any entry with the same id.
func (t *PendingTable) Add(p Pending) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sweepLocked()
	t.entries[p.ID] = p
}

// Take removes and returns the live entry for id.
func (t *PendingTable) Take(id string) (Pending, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sweepLocked()
	p, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return p, ok
}

// TakeNewest removes and returns the most recently issued live entry.
func (t *PendingTable) TakeNewest() (Pending, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sweepLocked()
	if len(t.entries) == 0 {
		return Pending{}, false
	}

	newest := lo.MaxBy(lo.Values(t.entries), func(a, b Pending) bool {
		if a.Issued.Equal(b.Issued) {
			return a.ID > b.ID
		}
		return a.Issued.After(b.Issued)
	})
	delete(t.entries, newest.ID)
	return newest, true
}

// Remove drops the entry for id, if any.
func (t *PendingTable) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// Sweep drops expired entries and returns them.
func (t *PendingTable) Sweep() []Pending {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sweepLocked()
}

// Len returns the number of live entries.
func (t *PendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sweepLocked()
	return len(t.entries)
}

// IDs returns the ids of live entries, oldest first.
func (t *PendingTable) IDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sweepLocked()
	live := lo.Values(t.entries)
	sortByIssued(live)
	return lo.Map(live, func(p Pending, _ int) string { return p.ID })
}

// Clear drops every entry.
func (t *PendingTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.entries)
}

func (t *PendingTable) sweepLocked() []Pending {
	if t.timeout <= 0 || len(t.entries) == 0 {
		return nil
	}

	now := t.now()
	expired := lo.PickBy(t.entries, func(_ string, p Pending) bool {
		return now.Sub(p.Issued) >= t.timeout
	})
	for id := range expired {
		delete(t.entries, id)
	}

	out := lo.Values(expired)
	sortByIssued(out)
	return out
}

func sortByIssued(ps []Pending) {
	slices.SortFunc(ps, func(a, b Pending) int {
		return a.Issued.Compare(b.Issued)
	})
}
