package booking

import (
	"context"
	"errors"
	"fmt"

	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/store"
)

// Reason explains why a slot is or is not bookable.
type Reason string

const (
	ReasonFree           Reason = "free"
	ReasonUnknownMachine Reason = "unknown_machine"
	ReasonMachineBlocked Reason = "machine_blocked"
	ReasonOverridden     Reason = "overridden"
	ReasonOccupied       Reason = "occupied"
	ReasonElapsed        Reason = "elapsed"
)

// FreeSlot is one bookable (window, machine) combination on a date.
type FreeSlot struct {
	Window      int    `json:"window"`
	WindowLabel string `json:"windowLabel"`
	MachineID   string `json:"machineId"`
}

// Resolver answers availability questions. It is a pure function of the
// current registry, override and ledger state.
type Resolver struct {
	*core
}

// IsAvailable reports whether the slot can be booked. A booking identified by
// excludingBookingID does not count as occupying the slot.
func (r *Resolver) IsAvailable(ctx context.Context, date string, window int, machineID, excludingBookingID string) (bool, error) {
	if err := r.validateSlot(date, window); err != nil {
		return false, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	reason, err := r.check(ctx, date, window, machineID, excludingBookingID)
	if err != nil {
		return false, err
	}
	return reason == ReasonFree, nil
}

// check evaluates the availability rules in order, machine existence first.
// The slot must already be valid.
func (r *Resolver) check(ctx context.Context, date string, window int, machineID, excludingBookingID string) (Reason, error) {
	m, err := r.store.GetMachine(ctx, machineID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ReasonUnknownMachine, nil
	case err != nil:
		return "", transient("get machine", err)
	}
	if r.cal.Elapsed(date, window, r.now()) {
		return ReasonElapsed, nil
	}
	if m.Status != model.MachineAvailable {
		return ReasonMachineBlocked, nil
	}

	_, err = r.store.FindOverride(ctx, date, window, machineID)
	switch {
	case err == nil:
		return ReasonOverridden, nil
	case !errors.Is(err, store.ErrNotFound):
		return "", transient("find override", err)
	}

	b, err := r.store.FindActiveBooking(ctx, machineID, date, window)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ReasonFree, nil
	case err != nil:
		return "", transient("find booking", err)
	}
	if b.ID == excludingBookingID {
		return ReasonFree, nil
	}
	return ReasonOccupied, nil
}

// ListFreeSlots returns every available (window, machine) on date ordered by
// machine then window. An empty machineID covers all machines.
func (r *Resolver) ListFreeSlots(ctx context.Context, date, machineID string) ([]FreeSlot, error) {
	if _, err := r.cal.ParseDate(date); err != nil {
		return nil, invalid("%v", err)
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var machines []model.Machine
	if machineID != "" {
		m, err := r.store.GetMachine(ctx, machineID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, machineNotFound(machineID)
		case err != nil:
			return nil, transient("get machine", err)
		}
		machines = []model.Machine{*m}
	} else {
		var err error
		if machines, err = r.store.ListMachines(ctx); err != nil {
			return nil, transient("list machines", err)
		}
	}

	overrides, err := r.store.ListOverrides(ctx, date)
	if err != nil {
		return nil, transient("list overrides", err)
	}
	bookings, err := r.store.ListBookings(ctx, store.BookingFilter{
		MachineID: machineID,
		Date:      date,
		States:    []model.BookingState{model.BookingActive},
	})
	if err != nil {
		return nil, transient("list bookings", err)
	}

	taken := make(map[string]bool, len(overrides)+len(bookings))
	for _, o := range overrides {
		taken[slotKey(o.MachineID, o.Window)] = true
	}
	for _, b := range bookings {
		taken[slotKey(b.MachineID, b.Window)] = true
	}

	now := r.now()
	free := []FreeSlot{}
	for _, m := range machines {
		if m.Status != model.MachineAvailable {
			continue
		}
		for _, w := range r.cal.Windows() {
			if taken[slotKey(m.ID, w.Index)] || r.cal.Elapsed(date, w.Index, now) {
				continue
			}
			free = append(free, FreeSlot{Window: w.Index, WindowLabel: w.Label, MachineID: m.ID})
		}
	}
	return free, nil
}

// ListUserActiveBookings returns the user's bookings whose effective state is active.
func (r *Resolver) ListUserActiveBookings(ctx context.Context, userID string) ([]model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.userActive(ctx, userID)
}

func (r *Resolver) userActive(ctx context.Context, userID string) ([]model.Booking, error) {
	bookings, err := r.store.ListBookings(ctx, store.BookingFilter{
		UserID: userID,
		States: []model.BookingState{model.BookingActive},
	})
	if err != nil {
		return nil, transient("list user bookings", err)
	}

	active := []model.Booking{}
	for _, b := range r.effectiveAll(bookings) {
		if b.State == model.BookingActive {
			active = append(active, b)
		}
	}
	return active, nil
}

func slotKey(machineID string, window int) string {
	return fmt.Sprintf("%s/%d", machineID, window)
}
