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

// Registry owns the set of machines and their operational status.
type Registry struct {
	*core
}

func machineNotFound(id string) error {
	return fmt.Errorf("%w: %w: %q", ErrNotFound, ErrMachineNotFound, id)
}

// ListMachines returns all machines ordered by identifier.
func (r *Registry) ListMachines(ctx context.Context) ([]model.Machine, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	machines, err := r.store.ListMachines(ctx)
	if err != nil {
		return nil, transient("list machines", err)
	}
	return machines, nil
}

// GetMachine looks up one machine.
func (r *Registry) GetMachine(ctx context.Context, id string) (*model.Machine, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.getMachine(ctx, id)
}

func (r *Registry) getMachine(ctx context.Context, id string) (*model.Machine, error) {
	m, err := r.store.GetMachine(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, machineNotFound(id)
	case err != nil:
		return nil, transient("get machine", err)
	}
	return m, nil
}

// SetMachineStatus changes a machine's status. Blocking only prevents new
// bookings; existing ones are left as they are.
func (r *Registry) SetMachineStatus(ctx context.Context, id string, status model.MachineStatus) (*model.Machine, error) {
	m, _, err := r.setStatus(ctx, id, status)
	return m, err
}

// setStatus also reports whether the status actually changed. The exclusive
// machine lock makes the read and the write one step.
func (r *Registry) setStatus(ctx context.Context, id string, status model.MachineStatus) (*model.Machine, bool, error) {
	if !status.Valid() {
		return nil, false, invalid("unknown machine status %q", status)
	}

	release := r.locks.Acquire(lock.Machine(id, false))
	defer release()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	current, err := r.getMachine(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if current.Status == status {
		return current, false, nil
	}

	m, err := r.store.UpdateMachineStatus(ctx, id, status)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, false, machineNotFound(id)
	case err != nil:
		return nil, false, transient("update machine status", err)
	}
	return m, true, nil
}

// CreateMachine provisions a new available machine. An empty id is generated.
func (r *Registry) CreateMachine(ctx context.Context, id, name string) (*model.Machine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("machine name is required")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = r.opts.NewID()
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	m := &model.Machine{ID: id, Name: name, Status: model.MachineAvailable}
	err := r.store.CreateMachine(ctx, m)
	switch {
	case errors.Is(err, store.ErrConflict):
		return nil, invalid("machine %q already exists", id)
	case err != nil:
		return nil, transient("create machine", err)
	}
	return m, nil
}

// DeleteMachine removes a machine that has no upcoming active bookings.
func (r *Registry) DeleteMachine(ctx context.Context, id string) error {
	release := r.locks.Acquire(lock.Machine(id, false))
	defer release()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.getMachine(ctx, id); err != nil {
		return err
	}

	upcoming, err := r.upcomingActive(ctx, id)
	if err != nil {
		return err
	}
	if len(upcoming) > 0 {
		return fmt.Errorf("%w: %d booking(s) on %q", ErrMachineInUse, len(upcoming), id)
	}

	err = r.store.DeleteMachine(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return machineNotFound(id)
	case err != nil:
		return transient("delete machine", err)
	}
	return nil
}

// Seed provisions machines that do not exist yet.
func (r *Registry) Seed(ctx context.Context, machines []model.Machine) (int64, error) {
	for i := range machines {
		if machines[i].Status == "" {
			machines[i].Status = model.MachineAvailable
		}
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	n, err := r.store.SeedMachines(ctx, machines)
	if err != nil {
		return 0, transient("seed machines", err)
	}
	return n, nil
}

func (r *Registry) upcomingWithTimeout(ctx context.Context, machineID string) ([]model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.upcomingActive(ctx, machineID)
}

// upcomingActive lists bookings on a machine whose effective state is still active.
func (r *Registry) upcomingActive(ctx context.Context, machineID string) ([]model.Booking, error) {
	bookings, err := r.store.ListBookings(ctx, store.BookingFilter{
		MachineID: machineID,
		FromDate:  r.cal.Today(r.now()),
		States:    []model.BookingState{model.BookingActive},
	})
	if err != nil {
		return nil, transient("list machine bookings", err)
	}

	var out []model.Booking
	for _, b := range r.effectiveAll(bookings) {
		if b.State == model.BookingActive {
			out = append(out, b)
		}
	}
	return out, nil
}
