package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"farmtrack-backend/internal/model"
)

// ListMachines returns all machines owned by the given user.
func (s *gormStore) ListMachines(ctx context.Context, ownerID uint) ([]model.Machine, error) {
	var machines []model.Machine
	if err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Find(&machines).Error; err != nil {
		return nil, err
	}
	return machines, nil
}

// CreateMachine registers a machine bound to its owner. The
// next-maintenance threshold is derived from hours plus interval.
func (s *gormStore) CreateMachine(ctx context.Context, ownerID uint, name, machineType string, currentHours, interval float64) (*model.Machine, error) {
	if name == "" || machineType == "" {
		return nil, fmt.Errorf("%w: name and type are required", ErrInvalidInput)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: maintenance interval must be positive", ErrInvalidInput)
	}
	if currentHours < 0 {
		return nil, fmt.Errorf("%w: current hours must not be negative", ErrInvalidInput)
	}

	machine := model.Machine{
		UserID:          ownerID,
		Name:            name,
		Type:            machineType,
		CurrentHours:    currentHours,
		Interval:        interval,
		NextMaintenance: currentHours + interval,
	}
	if err := s.db.WithContext(ctx).Create(&machine).Error; err != nil {
		return nil, err
	}
	return &machine, nil
}

// UpdateMachine applies the non-nil patch fields. Whenever the hours
// counter or the interval changes the threshold is recomputed from the
// patched values.
func (s *gormStore) UpdateMachine(ctx context.Context, ownerID, machineID uint, patch MachinePatch) (*model.Machine, error) {
	if patch.Interval != nil && *patch.Interval <= 0 {
		return nil, fmt.Errorf("%w: maintenance interval must be positive", ErrInvalidInput)
	}
	if patch.CurrentHours != nil && *patch.CurrentHours < 0 {
		return nil, fmt.Errorf("%w: current hours must not be negative", ErrInvalidInput)
	}

	var updated model.Machine
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		machine, err := machineOwned(tx, ownerID, machineID)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			machine.Name = *patch.Name
		}
		if patch.Type != nil {
			machine.Type = *patch.Type
		}
		if patch.Interval != nil {
			machine.Interval = *patch.Interval
		}
		if patch.CurrentHours != nil {
			machine.CurrentHours = *patch.CurrentHours
		}
		if patch.CurrentHours != nil || patch.Interval != nil {
			machine.NextMaintenance = machine.CurrentHours + machine.Interval
		}

		if err := tx.Save(machine).Error; err != nil {
			return err
		}
		updated = *machine
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteMachine removes a machine and all its maintenance records.
func (s *gormStore) DeleteMachine(ctx context.Context, ownerID, machineID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		machine, err := machineOwned(tx, ownerID, machineID)
		if err != nil {
			return err
		}
		if err := tx.Where("machine_id = ?", machine.ID).Delete(&model.Maintenance{}).Error; err != nil {
			return err
		}
		return tx.Delete(machine).Error
	})
}

// RecordMaintenance appends an immutable service record and moves the
// machine's hours counter to the recorded reading. The reading is
// trusted as-is: no monotonicity check against prior readings.
func (s *gormStore) RecordMaintenance(ctx context.Context, ownerID, machineID uint, input MaintenanceInput) (*model.Maintenance, *model.Machine, error) {
	if input.Description == "" {
		return nil, nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if input.HoursReading < 0 {
		return nil, nil, fmt.Errorf("%w: hours reading must not be negative", ErrInvalidInput)
	}
	if input.Cost < 0 {
		return nil, nil, fmt.Errorf("%w: cost must not be negative", ErrInvalidInput)
	}

	var (
		record  model.Maintenance
		updated model.Machine
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		machine, err := machineOwned(tx, ownerID, machineID)
		if err != nil {
			return err
		}

		date := input.Date
		if date.IsZero() {
			date = time.Now().UTC()
		}
		record = model.Maintenance{
			MachineID:    machine.ID,
			Description:  input.Description,
			HoursReading: input.HoursReading,
			Date:         date,
			Cost:         input.Cost,
			Note:         input.Note,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		machine.CurrentHours = input.HoursReading
		machine.NextMaintenance = input.HoursReading + machine.Interval
		if err := tx.Save(machine).Error; err != nil {
			return err
		}
		updated = *machine
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &record, &updated, nil
}

// ListMaintenance returns the machine's service history, most recent
// first.
func (s *gormStore) ListMaintenance(ctx context.Context, ownerID, machineID uint) ([]model.Maintenance, error) {
	var records []model.Maintenance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		machine, err := machineOwned(tx, ownerID, machineID)
		if err != nil {
			return err
		}
		return tx.Where("machine_id = ?", machine.ID).Order("date DESC").Find(&records).Error
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
