package model

import "time"

// BookingState is a booking's lifecycle state.
type BookingState string

const (
	BookingActive    BookingState = "active"
	BookingCanceled  BookingState = "canceled"
	BookingCompleted BookingState = "completed"
)

// Terminal reports whether no further transitions are possible.
func (s BookingState) Terminal() bool {
	return s == BookingCanceled || s == BookingCompleted
}

// Booking is a reservation of one machine for one window on one date.
// At most one active booking may exist per (MachineID, Date, Window).
type Booking struct {
	ID        string       `gorm:"primaryKey;size:36" json:"id"`
	UserID    string       `gorm:"size:128;not null;index" json:"userId"`
	MachineID string       `gorm:"size:64;not null;index" json:"machineId"`
	Date      string       `gorm:"column:slot_date;size:10;not null;index" json:"date"`
	Window    int          `gorm:"column:time_window;not null" json:"window"`
	State     BookingState `gorm:"size:16;not null;index" json:"state"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Valid reports whether s is a known state.
func (s BookingState) Valid() bool {
	return s == BookingActive || s.Terminal()
}
