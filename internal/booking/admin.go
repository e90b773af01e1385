package booking

import (
	"context"
	"fmt"
	"log"

	"laundry-booking-backend/internal/model"
)

// Admin is the single authorization gate for destructive and override
// operations. It holds no state of its own.
type Admin struct {
	*core
	registry  *Registry
	overrides *Overrides
	ledger    *Ledger
}

func requireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}

// SetMachineStatus changes a machine's status. When an available machine
// becomes blocked, owners of upcoming bookings are told; with
// BlockCancelsBookings set, those bookings are also canceled.
func (a *Admin) SetMachineStatus(ctx context.Context, actor Actor, machineID string, status model.MachineStatus) (*model.Machine, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	m, changed, err := a.registry.setStatus(ctx, machineID, status)
	if err != nil {
		return nil, err
	}
	if !changed || status != model.MachineBlocked {
		return m, nil
	}

	// Machine lock is released by now; cancel takes booking keys which order before it.
	upcoming, err := a.registry.upcomingWithTimeout(ctx, machineID)
	if err != nil {
		log.Printf("Failed to list bookings on blocked machine %s: %v", machineID, err)
		return m, nil
	}
	for _, b := range upcoming {
		if !a.opts.BlockCancelsBookings {
			a.notifier.Notify(b.UserID, fmt.Sprintf("Machine %s was blocked. Your booking on %s %s still stands.",
				m.Name, b.Date, a.windowLabel(b.Window)))
			continue
		}
		if _, err := a.ledger.Cancel(ctx, System, b.ID); err != nil {
			log.Printf("Failed to cancel booking %s on blocked machine %s: %v", b.ID, machineID, err)
			continue
		}
		a.notifier.Notify(b.UserID, fmt.Sprintf("Machine %s was blocked. Your booking on %s %s was canceled.",
			m.Name, b.Date, a.windowLabel(b.Window)))
	}
	return m, nil
}

// BlockMachine sets a machine to blocked.
func (a *Admin) BlockMachine(ctx context.Context, actor Actor, machineID string) (*model.Machine, error) {
	return a.SetMachineStatus(ctx, actor, machineID, model.MachineBlocked)
}

// UnblockMachine sets a machine back to available.
func (a *Admin) UnblockMachine(ctx context.Context, actor Actor, machineID string) (*model.Machine, error) {
	return a.SetMachineStatus(ctx, actor, machineID, model.MachineAvailable)
}

func (a *Admin) CreateMachine(ctx context.Context, actor Actor, id, name string) (*model.Machine, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return a.registry.CreateMachine(ctx, id, name)
}

func (a *Admin) DeleteMachine(ctx context.Context, actor Actor, machineID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return a.registry.DeleteMachine(ctx, machineID)
}

func (a *Admin) BlockSlot(ctx context.Context, actor Actor, date string, window int, machineID, reason string) (*model.SlotOverride, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return a.overrides.BlockSlot(ctx, date, window, machineID, reason)
}

func (a *Admin) BlockDate(ctx context.Context, actor Actor, date string, machineIDs []string, reason string) (*BlockDateResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return a.overrides.BlockDate(ctx, date, machineIDs, reason)
}

func (a *Admin) UnblockSlot(ctx context.Context, actor Actor, overrideID string) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	return a.overrides.UnblockSlot(ctx, overrideID)
}

func (a *Admin) UnblockDate(ctx context.Context, actor Actor, date string) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	return a.overrides.UnblockDate(ctx, date)
}

func (a *Admin) ListOverrides(ctx context.Context, actor Actor, date string) ([]model.SlotOverride, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return a.overrides.List(ctx, date)
}

func (a *Admin) ListAllBookings(ctx context.Context, actor Actor, filter AllBookingsFilter) ([]model.Booking, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return a.ledger.ListAllBookings(ctx, filter)
}

// ForceCancel cancels any booking and tells its owner.
func (a *Admin) ForceCancel(ctx context.Context, actor Actor, bookingID string) (*model.Booking, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	b, err := a.ledger.Cancel(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.UserID {
		a.notifier.Notify(b.UserID, fmt.Sprintf("Your booking on %s %s for machine %s was canceled by an administrator.",
			b.Date, a.windowLabel(b.Window), b.MachineID))
	}
	return b, nil
}
