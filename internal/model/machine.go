package model

import "time"

// Machine status values derived from the running-hours counter.
const (
	MachineStatusOK        = "OK"
	MachineStatusUpcoming  = "Upcoming"
	MachineStatusAttention = "Attention"
)

// Machine represents a piece of agricultural equipment owned by a user.
// NextMaintenance is always recomputed as current hours plus interval
// whenever either input changes; it is never set by a client.
type Machine struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"index;not null" json:"-"`
	Name            string    `gorm:"size:256;not null" json:"name"`
	Type            string    `gorm:"size:128;not null" json:"type"`
	CurrentHours    float64   `gorm:"not null" json:"current_hours"`
	Interval        float64   `gorm:"column:maintenance_interval;not null" json:"maintenance_interval"`
	NextMaintenance float64   `gorm:"not null" json:"next_maintenance"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`

	// Associations
	Maintenances []Maintenance `gorm:"foreignKey:MachineID;constraint:OnDelete:CASCADE" json:"-"`
}

// Status classifies the machine from its current numeric fields. It is
// computed at the projection boundary and never stored.
func (m *Machine) Status() string {
	if m.CurrentHours >= m.NextMaintenance {
		return MachineStatusAttention
	}
	if m.NextMaintenance-m.CurrentHours <= m.Interval*0.1 {
		return MachineStatusUpcoming
	}
	return MachineStatusOK
}
