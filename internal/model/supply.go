package model

import "time"

// Supply status values derived from the quantity balance.
const (
	SupplyStatusOK  = "OK"
	SupplyStatusLow = "Low Stock"
)

// Supply represents a consumable stock item owned by a user. The
// quantity balance is only ever changed by applying a Movement.
type Supply struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"index;not null" json:"-"`
	Name            string    `gorm:"size:256;not null" json:"name"`
	Unit            string    `gorm:"size:64;not null" json:"unit"`
	CurrentQuantity float64   `gorm:"not null" json:"current_quantity"`
	MinimumQuantity float64   `gorm:"not null" json:"minimum_quantity"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`

	// Associations
	Movements []Movement `gorm:"foreignKey:SupplyID;constraint:OnDelete:CASCADE" json:"-"`
}

// Status classifies the supply from its current numeric fields.
func (s *Supply) Status() string {
	if s.CurrentQuantity <= s.MinimumQuantity {
		return SupplyStatusLow
	}
	return SupplyStatusOK
}
