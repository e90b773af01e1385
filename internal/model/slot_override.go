package model

import "time"

// SlotOverride removes one (date, window, machine) triple from availability.
type SlotOverride struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Date      string    `gorm:"column:slot_date;size:10;not null;uniqueIndex:idx_slot_overrides_key,priority:1" json:"date"`
	Window    int       `gorm:"column:time_window;not null;uniqueIndex:idx_slot_overrides_key,priority:2" json:"window"`
	MachineID string    `gorm:"size:64;not null;uniqueIndex:idx_slot_overrides_key,priority:3;index" json:"machineId"`
	Reason    string    `gorm:"size:512" json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
