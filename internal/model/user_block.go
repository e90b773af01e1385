package model

import "time"

// UserBlock bars one user from making new bookings until an admin lifts it.
type UserBlock struct {
	UserID    string    `gorm:"primaryKey;size:128" json:"userId"`
	Reason    string    `gorm:"size:512" json:"reason,omitempty"`
	BlockedBy string    `gorm:"size:128" json:"blockedBy"`
	CreatedAt time.Time `json:"createdAt"`
}
