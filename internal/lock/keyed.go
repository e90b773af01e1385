// Package lock provides in-process mutual exclusion keyed by domain identity.
//
// Keys are always acquired in a global order (by Kind, then ID) so callers that
// need several keys at once cannot deadlock against each other. A caller that
// acquires in two steps must only take keys of a strictly greater Kind in the
// second step.
package lock

import (
	"fmt"
	"sort"
	"sync"
)

// Kind orders lock keys. Lower kinds are acquired first.
type Kind int

const (
	KindBooking Kind = iota
	KindUser
	KindMachine
	KindSlot
)

// Key identifies one lockable resource.
type Key struct {
	Kind   Kind
	ID     string
	Shared bool
}

// Booking returns an exclusive key for one booking.
func Booking(id string) Key { return Key{Kind: KindBooking, ID: id} }

// User returns an exclusive key for one user's booking quota.
func User(id string) Key { return Key{Kind: KindUser, ID: id} }

// Machine returns a key for one machine's status. Shared holders may create
// bookings on the machine; an exclusive holder may change its status.
func Machine(id string, shared bool) Key { return Key{Kind: KindMachine, ID: id, Shared: shared} }

// Slot returns an exclusive key for one (date, window, machine) triple.
func Slot(date string, window int, machineID string) Key {
	return Key{Kind: KindSlot, ID: fmt.Sprintf("%s/%d/%s", date, window, machineID)}
}

type entry struct {
	mu   sync.RWMutex
	refs int
}

// Table hands out keyed read/write locks, creating them on demand and
// dropping them once no holder or waiter remains.
type Table struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewTable creates an empty lock table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*entry)}
}

func (k Key) name() string {
	return fmt.Sprintf("%d:%s", k.Kind, k.ID)
}

// Acquire locks every key and returns a function releasing them all.
// Duplicate keys are merged; exclusive wins over shared.
func (t *Table) Acquire(keys ...Key) (release func()) {
	merged := make(map[string]Key, len(keys))
	for _, k := range keys {
		if prev, ok := merged[k.name()]; ok && !prev.Shared {
			continue
		}
		merged[k.name()] = k
	}

	ordered := make([]Key, 0, len(merged))
	for _, k := range merged {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Kind != ordered[j].Kind {
			return ordered[i].Kind < ordered[j].Kind
		}
		return ordered[i].ID < ordered[j].ID
	})

	held := make([]*entry, 0, len(ordered))
	for _, k := range ordered {
		e := t.ref(k.name())
		if k.Shared {
			e.mu.RLock()
		} else {
			e.mu.Lock()
		}
		held = append(held, e)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(ordered) - 1; i >= 0; i-- {
				if ordered[i].Shared {
					held[i].mu.RUnlock()
				} else {
					held[i].mu.Unlock()
				}
				t.unref(ordered[i].name())
			}
		})
	}
}

func (t *Table) ref(name string) *entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[name]
	if !ok {
		e = &entry{}
		t.entries[name] = e
	}
	e.refs++
	return e
}

func (t *Table) unref(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[name]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(t.entries, name)
	}
}

// Len reports how many keys are currently held or awaited.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
