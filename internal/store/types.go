package store

import (
	"errors"

	"laundry-booking-backend/internal/model"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("store: unique constraint violated")
)

// BookingFilter narrows ListBookings. Zero fields do not filter.
type BookingFilter struct {
	UserID    string
	MachineID string
	Date      string
	FromDate  string
	ToDate    string
	States    []model.BookingState
}
