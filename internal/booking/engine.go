// Package booking is the laundry scheduling engine: the machine registry, slot
// overrides, the availability resolver, the booking ledger and the admin
// override service that coordinates them.
//
// All booking mutations go through the Ledger, which re-validates availability
// inside a per-slot critical section before committing. Reads are served
// straight from the store and may be briefly stale relative to in-flight writes.
package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"laundry-booking-backend/internal/lock"
	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/slot"
	"laundry-booking-backend/internal/store"
)

// Notifier delivers a short message to a user out of band.
type Notifier interface {
	Notify(userID, message string)
}

// Recorder receives engine events for metrics.
type Recorder interface {
	BookingCreated()
	BookingRejected(reason string)
	BookingCanceled(role Role)
	BookingRescheduled()
	OverridesCreated(n int)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) {}

type nopRecorder struct{}

func (nopRecorder) BookingCreated()        {}
func (nopRecorder) BookingRejected(string) {}
func (nopRecorder) BookingCanceled(Role)   {}
func (nopRecorder) BookingRescheduled()    {}
func (nopRecorder) OverridesCreated(int)   {}

// Options tune the engine. Zero values select defaults.
type Options struct {
	// MaxActivePerUser caps bookings in effective state active per user. 0 disables the cap.
	MaxActivePerUser int
	// OpTimeout bounds the storage work of a single operation.
	OpTimeout time.Duration
	// BlockCancelsBookings makes blocking a machine cancel its upcoming active bookings.
	BlockCancelsBookings bool

	Now      func() time.Time
	NewID    func() string
	Notifier Notifier
	Recorder Recorder
}

// Engine wires the scheduling components around one store.
type Engine struct {
	Registry  *Registry
	Overrides *Overrides
	Resolver  *Resolver
	Ledger    *Ledger
	Admin     *Admin
}

// core carries the dependencies shared by every component.
type core struct {
	store    store.Store
	cal      *slot.Calendar
	locks    *lock.Table
	opts     Options
	notifier Notifier
	recorder Recorder
}

// New builds an engine over st using cal for slot arithmetic.
func New(st store.Store, cal *slot.Calendar, opts Options) *Engine {
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 2 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	c := &core{
		store:    st,
		cal:      cal,
		locks:    lock.NewTable(),
		opts:     opts,
		notifier: opts.Notifier,
		recorder: opts.Recorder,
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.recorder == nil {
		c.recorder = nopRecorder{}
	}

	e := &Engine{
		Registry:  &Registry{core: c},
		Overrides: &Overrides{core: c},
		Resolver:  &Resolver{core: c},
	}
	e.Ledger = &Ledger{core: c, resolver: e.Resolver}
	e.Admin = &Admin{core: c, registry: e.Registry, overrides: e.Overrides, ledger: e.Ledger}
	return e
}

// Calendar exposes the slot calendar the engine evaluates windows with.
func (e *Engine) Calendar() *slot.Calendar {
	return e.Registry.cal
}

func (c *core) now() time.Time {
	return c.opts.Now()
}

func (c *core) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opts.OpTimeout)
}

// effective applies lazy completion: an active booking whose window has ended reads as completed.
func (c *core) effective(b model.Booking) model.Booking {
	if b.State == model.BookingActive && c.cal.Elapsed(b.Date, b.Window, c.now()) {
		b.State = model.BookingCompleted
	}
	return b
}

func (c *core) effectiveAll(bookings []model.Booking) []model.Booking {
	for i := range bookings {
		bookings[i] = c.effective(bookings[i])
	}
	return bookings
}

func (c *core) validateSlot(date string, window int) error {
	if err := c.cal.Validate(date, window); err != nil {
		return invalid("%v", err)
	}
	return nil
}

func (c *core) windowLabel(window int) string {
	if w, ok := c.cal.Window(window); ok {
		return w.Label
	}
	return ""
}
