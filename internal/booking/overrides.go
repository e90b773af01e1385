package booking

import (
	"context"
	"errors"
	"strings"

	"laundry-booking-backend/internal/lock"
	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/store"
)

// Overrides is the store of administrative slot blocks. Blocking a slot never
// touches bookings that already hold it.
type Overrides struct {
	*core
}

// SlotFailure reports one (window, machine) combination a bulk block could not apply.
type SlotFailure struct {
	Window    int    `json:"window"`
	MachineID string `json:"machineId"`
	Error     string `json:"error"`

	err error
}

// Err returns the underlying failure.
func (f SlotFailure) Err() error { return f.err }

// BlockDateResult aggregates a bulk block. Failures do not roll back successes.
type BlockDateResult struct {
	Overrides []model.SlotOverride `json:"overrides"`
	Failures  []SlotFailure        `json:"failures,omitempty"`
}

// BlockSlot records an override for one slot. It is idempotent: blocking an
// already blocked slot returns the existing override.
func (o *Overrides) BlockSlot(ctx context.Context, date string, window int, machineID, reason string) (*model.SlotOverride, error) {
	if err := o.validateSlot(date, window); err != nil {
		return nil, err
	}

	release := o.locks.Acquire(lock.Machine(machineID, true), lock.Slot(date, window, machineID))
	defer release()

	ctx, cancel := o.withTimeout(ctx)
	defer cancel()
	return o.blockLocked(ctx, date, window, machineID, reason)
}

func (o *Overrides) blockLocked(ctx context.Context, date string, window int, machineID, reason string) (*model.SlotOverride, error) {
	_, err := o.store.GetMachine(ctx, machineID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, machineNotFound(machineID)
	case err != nil:
		return nil, transient("get machine", err)
	}

	existing, err := o.store.FindOverride(ctx, date, window, machineID)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, transient("find override", err)
	}

	created, err := o.store.CreateOverride(ctx, &model.SlotOverride{
		ID:        o.opts.NewID(),
		Date:      date,
		Window:    window,
		MachineID: machineID,
		Reason:    strings.TrimSpace(reason),
	})
	if err != nil {
		return nil, transient("create override", err)
	}
	o.recorder.OverridesCreated(1)
	return created, nil
}

// BlockDate blocks every window on date for each machine in machineIDs, or for
// every machine when machineIDs is empty. Repeated ids count once. Combinations
// that fail are reported and skipped.
func (o *Overrides) BlockDate(ctx context.Context, date string, machineIDs []string, reason string) (*BlockDateResult, error) {
	if _, err := o.cal.ParseDate(date); err != nil {
		return nil, invalid("%v", err)
	}

	if len(machineIDs) == 0 {
		listCtx, cancel := o.withTimeout(ctx)
		machines, err := o.store.ListMachines(listCtx)
		cancel()
		if err != nil {
			return nil, transient("list machines", err)
		}
		for _, m := range machines {
			machineIDs = append(machineIDs, m.ID)
		}
	}

	result := &BlockDateResult{}
	for _, machineID := range uniqueIDs(machineIDs) {
		for _, w := range o.cal.Windows() {
			ov, err := o.BlockSlot(ctx, date, w.Index, machineID, reason)
			if err != nil {
				result.Failures = append(result.Failures, SlotFailure{
					Window:    w.Index,
					MachineID: machineID,
					Error:     err.Error(),
					err:       err,
				})
				continue
			}
			result.Overrides = append(result.Overrides, *ov)
		}
	}
	return result, nil
}

// uniqueIDs trims ids and drops blanks and repeats, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// UnblockSlot removes one override and returns how many were removed (0 or 1).
func (o *Overrides) UnblockSlot(ctx context.Context, overrideID string) (int64, error) {
	lookupCtx, cancel := o.withTimeout(ctx)
	ov, err := o.store.GetOverride(lookupCtx, overrideID)
	cancel()
	switch {
	case errors.Is(err, store.ErrNotFound):
		return 0, nil
	case err != nil:
		return 0, transient("get override", err)
	}
	return o.remove(ctx, *ov)
}

// UnblockDate removes every override on date and returns the count removed.
func (o *Overrides) UnblockDate(ctx context.Context, date string) (int64, error) {
	if _, err := o.cal.ParseDate(date); err != nil {
		return 0, invalid("%v", err)
	}

	listCtx, cancel := o.withTimeout(ctx)
	overrides, err := o.store.ListOverrides(listCtx, date)
	cancel()
	if err != nil {
		return 0, transient("list overrides", err)
	}

	var total int64
	for _, ov := range overrides {
		n, err := o.remove(ctx, ov)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (o *Overrides) remove(ctx context.Context, ov model.SlotOverride) (int64, error) {
	release := o.locks.Acquire(lock.Slot(ov.Date, ov.Window, ov.MachineID))
	defer release()

	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	n, err := o.store.DeleteOverride(ctx, ov.ID)
	if err != nil {
		return 0, transient("delete override", err)
	}
	return n, nil
}

// IsBlocked reports whether an override exists for the slot.
func (o *Overrides) IsBlocked(ctx context.Context, date string, window int, machineID string) (bool, error) {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()
	return o.isBlocked(ctx, date, window, machineID)
}

func (o *Overrides) isBlocked(ctx context.Context, date string, window int, machineID string) (bool, error) {
	_, err := o.store.FindOverride(ctx, date, window, machineID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, transient("find override", err)
	}
}

// List returns overrides on date, or all overrides when date is empty.
func (o *Overrides) List(ctx context.Context, date string) ([]model.SlotOverride, error) {
	if date != "" {
		if _, err := o.cal.ParseDate(date); err != nil {
			return nil, invalid("%v", err)
		}
	}
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	overrides, err := o.store.ListOverrides(ctx, date)
	if err != nil {
		return nil, transient("list overrides", err)
	}
	return overrides, nil
}
