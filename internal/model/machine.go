package model

import "time"

// MachineStatus is the administrative status of a machine.
type MachineStatus string

const (
	MachineAvailable MachineStatus = "available"
	MachineBlocked   MachineStatus = "blocked"
)

// Valid reports whether s is a known status.
func (s MachineStatus) Valid() bool {
	return s == MachineAvailable || s == MachineBlocked
}

// Machine represents a bookable washing machine.
type Machine struct {
	ID        string        `gorm:"primaryKey;size:64" json:"id"`
	Name      string        `gorm:"size:256;not null" json:"name"`
	Status    MachineStatus `gorm:"size:16;not null" json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
