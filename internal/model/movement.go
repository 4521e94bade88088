package model

import "time"

// Movement kinds. The set is closed: anything else is rejected.
const (
	MovementEntry = "entry"
	MovementExit  = "exit"
)

// Movement is an immutable inventory change record for a supply.
type Movement struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	SupplyID uint      `gorm:"index;not null" json:"supply_id"`
	Kind     string    `gorm:"size:16;not null" json:"kind"`
	Amount   float64   `gorm:"not null" json:"amount"`
	Date     time.Time `gorm:"not null;index" json:"date"`
	Note     string    `json:"note"`
}
