package model

import "time"

// PushSubscription holds a browser push subscription for a user. Every
// alert raised for a user's machines or supplies goes to all of that
// user's endpoints.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	UserID    uint      `gorm:"index;not null" json:"-"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
