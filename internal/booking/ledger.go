package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"laundry-booking-backend/internal/lock"
	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/store"
)

// Ledger is the authoritative record of reservations and owns their lifecycle.
type Ledger struct {
	*core
	resolver *Resolver
}

// AllBookingsFilter narrows the admin projection. States match effective state.
type AllBookingsFilter struct {
	Date      string
	MachineID string
	UserID    string
	States    []model.BookingState
}

// Create reserves (date, window, machineID) for userID.
func (l *Ledger) Create(ctx context.Context, userID, machineID, date string, window int) (*model.Booking, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalid("user id is required")
	}
	if err := l.validateSlot(date, window); err != nil {
		return nil, err
	}

	release := l.locks.Acquire(lock.User(userID), lock.Machine(machineID, true), lock.Slot(date, window, machineID))
	defer release()

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	blocked, err := l.userBlocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	if blocked {
		l.recorder.BookingRejected("user_blocked")
		return nil, fmt.Errorf("%w: user %q is blocked from booking", ErrForbidden, userID)
	}

	reason, err := l.resolver.check(ctx, date, window, machineID, "")
	if err != nil {
		return nil, err
	}
	if err := l.rejection(reason, machineID); err != nil {
		return nil, err
	}

	if limit := l.opts.MaxActivePerUser; limit > 0 {
		active, err := l.resolver.userActive(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(active) >= limit {
			l.recorder.BookingRejected("limit_reached")
			return nil, fmt.Errorf("%w: %d of %d", ErrLimitReached, len(active), limit)
		}
	}

	b := &model.Booking{
		ID:        l.opts.NewID(),
		UserID:    userID,
		MachineID: machineID,
		Date:      date,
		Window:    window,
		State:     model.BookingActive,
	}
	err = l.store.CreateBooking(ctx, b)
	switch {
	case errors.Is(err, store.ErrConflict):
		l.recorder.BookingRejected(string(ReasonOccupied))
		return nil, fmt.Errorf("%w: %s", ErrSlotUnavailable, ReasonOccupied)
	case err != nil:
		return nil, transient("create booking", err)
	}

	l.recorder.BookingCreated()
	return b, nil
}

// rejection turns a non-free reason into the matching error.
func (l *Ledger) rejection(reason Reason, machineID string) error {
	switch reason {
	case ReasonFree:
		return nil
	case ReasonUnknownMachine:
		l.recorder.BookingRejected(string(reason))
		return machineNotFound(machineID)
	default:
		l.recorder.BookingRejected(string(reason))
		return fmt.Errorf("%w: %s", ErrSlotUnavailable, reason)
	}
}

// Cancel ends an active booking. The owner or an admin may cancel.
func (l *Ledger) Cancel(ctx context.Context, actor Actor, bookingID string) (*model.Booking, error) {
	release := l.locks.Acquire(lock.Booking(bookingID))
	defer release()

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	b, err := l.authorized(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}

	err = l.store.UpdateBookingState(ctx, b.ID, model.BookingActive, model.BookingCanceled)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// completed by the sweeper in between
		return nil, fmt.Errorf("%w: %s", ErrAlreadyTerminal, bookingID)
	case err != nil:
		return nil, transient("cancel booking", err)
	}

	b.State = model.BookingCanceled
	l.recorder.BookingCanceled(actor.Role)
	return b, nil
}

// Reschedule moves an active booking to a new date and window on the same
// machine, keeping its identifier. Old and new slot change hands in one write.
func (l *Ledger) Reschedule(ctx context.Context, actor Actor, bookingID, newDate string, newWindow int) (*model.Booking, error) {
	if err := l.validateSlot(newDate, newWindow); err != nil {
		return nil, err
	}

	release := l.locks.Acquire(lock.Booking(bookingID))
	defer release()

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	b, err := l.authorized(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Date == newDate && b.Window == newWindow {
		return b, nil
	}

	releaseSlots := l.locks.Acquire(
		lock.Machine(b.MachineID, true),
		lock.Slot(b.Date, b.Window, b.MachineID),
		lock.Slot(newDate, newWindow, b.MachineID),
	)
	defer releaseSlots()

	reason, err := l.resolver.check(ctx, newDate, newWindow, b.MachineID, b.ID)
	if err != nil {
		return nil, err
	}
	if err := l.rejection(reason, b.MachineID); err != nil {
		return nil, err
	}

	err = l.store.MoveBooking(ctx, b.ID, newDate, newWindow)
	switch {
	case errors.Is(err, store.ErrConflict):
		l.recorder.BookingRejected(string(ReasonOccupied))
		return nil, fmt.Errorf("%w: %s", ErrSlotUnavailable, ReasonOccupied)
	case errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrAlreadyTerminal, bookingID)
	case err != nil:
		return nil, transient("move booking", err)
	}

	b.Date, b.Window = newDate, newWindow
	l.recorder.BookingRescheduled()
	return b, nil
}

// authorized loads a booking the actor may mutate and that is still effectively active.
func (l *Ledger) authorized(ctx context.Context, actor Actor, bookingID string) (*model.Booking, error) {
	b, err := l.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(b.UserID) {
		return nil, fmt.Errorf("%w: booking %s", ErrForbidden, bookingID)
	}
	if b.State.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyTerminal, bookingID, b.State)
	}
	return b, nil
}

func (l *Ledger) get(ctx context.Context, bookingID string) (*model.Booking, error) {
	b, err := l.store.GetBooking(ctx, bookingID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("%w: booking %q", ErrNotFound, bookingID)
	case err != nil:
		return nil, transient("get booking", err)
	}
	eff := l.effective(*b)
	return &eff, nil
}

// Get returns one booking in its effective state. Only the owner or an admin may read it.
func (l *Ledger) Get(ctx context.Context, actor Actor, bookingID string) (*model.Booking, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	b, err := l.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(b.UserID) {
		return nil, fmt.Errorf("%w: booking %s", ErrForbidden, bookingID)
	}
	return b, nil
}

// ListUserBookings returns every booking of userID in its effective state, ordered by date then window.
func (l *Ledger) ListUserBookings(ctx context.Context, userID string) ([]model.Booking, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	bookings, err := l.store.ListBookings(ctx, store.BookingFilter{UserID: userID})
	if err != nil {
		return nil, transient("list user bookings", err)
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	return l.effectiveAll(bookings), nil
}

// ListAllBookings is the admin projection over the same ledger.
func (l *Ledger) ListAllBookings(ctx context.Context, filter AllBookingsFilter) ([]model.Booking, error) {
	if filter.Date != "" {
		if _, err := l.cal.ParseDate(filter.Date); err != nil {
			return nil, invalid("%v", err)
		}
	}
	for _, s := range filter.States {
		if !s.Valid() {
			return nil, invalid("unknown booking state %q", s)
		}
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	bookings, err := l.store.ListBookings(ctx, store.BookingFilter{
		UserID:    filter.UserID,
		MachineID: filter.MachineID,
		Date:      filter.Date,
	})
	if err != nil {
		return nil, transient("list bookings", err)
	}

	out := []model.Booking{}
	for _, b := range l.effectiveAll(bookings) {
		if len(filter.States) == 0 || containsState(filter.States, b.State) {
			out = append(out, b)
		}
	}
	return out, nil
}

func containsState(states []model.BookingState, s model.BookingState) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}
