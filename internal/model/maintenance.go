package model

import "time"

// Maintenance is an immutable service record for a machine. Creating
// one sets the parent machine's hours counter to HoursReading and
// recomputes its next-maintenance threshold.
type Maintenance struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MachineID    uint      `gorm:"index;not null" json:"machine_id"`
	Description  string    `gorm:"size:512;not null" json:"description"`
	HoursReading float64   `gorm:"not null" json:"hours_reading"`
	Date         time.Time `gorm:"not null;index" json:"date"`
	Cost         float64   `gorm:"not null" json:"cost"`
	Note         string    `json:"note"`
}
