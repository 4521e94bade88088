package model

import "time"

// User represents a registered account. The password is stored as a
// bcrypt hash only.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:256;not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:256;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`

	// Associations
	Machines []Machine `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Supplies []Supply  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
