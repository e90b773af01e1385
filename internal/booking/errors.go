package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for an unknown booking or override identifier.
	ErrNotFound = errors.New("booking: not found")

	// ErrForbidden is returned when the acting identity may not perform the operation.
	ErrForbidden = errors.New("booking: forbidden")

	// ErrSlotUnavailable is returned when the target slot is blocked, overridden,
	// already occupied or already over. Retrying the same slot will not help.
	ErrSlotUnavailable = errors.New("booking: slot is not available")

	// ErrAlreadyTerminal is returned when canceling or moving a canceled or completed booking.
	ErrAlreadyTerminal = errors.New("booking: booking is already canceled or completed")

	// ErrMachineNotFound is returned for an unknown machine identifier.
	ErrMachineNotFound = errors.New("booking: machine not found")

	// ErrMachineInUse is returned when deleting a machine that still has upcoming active bookings.
	ErrMachineInUse = errors.New("booking: machine has upcoming active bookings")

	// ErrLimitReached is returned when the user already holds the maximum number of active bookings.
	ErrLimitReached = errors.New("booking: active booking limit reached")

	// ErrInvalidInput is returned for malformed dates, unknown windows or bad statuses.
	ErrInvalidInput = errors.New("booking: invalid input")

	// ErrTransient wraps storage failures and timeouts. It is the only error safe to retry as is.
	ErrTransient = errors.New("booking: transient failure")
)

// IsRetryable reports whether err may be retried without a new decision by the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

func transient(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrTransient, op, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
