package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"farmtrack-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	CreateUser(ctx context.Context, name, email, passwordHash string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id uint) (*model.User, error)
	DeleteUser(ctx context.Context, id uint) error

	ListMachines(ctx context.Context, ownerID uint) ([]model.Machine, error)
	CreateMachine(ctx context.Context, ownerID uint, name, machineType string, currentHours, interval float64) (*model.Machine, error)
	UpdateMachine(ctx context.Context, ownerID, machineID uint, patch MachinePatch) (*model.Machine, error)
	DeleteMachine(ctx context.Context, ownerID, machineID uint) error
	RecordMaintenance(ctx context.Context, ownerID, machineID uint, input MaintenanceInput) (*model.Maintenance, *model.Machine, error)
	ListMaintenance(ctx context.Context, ownerID, machineID uint) ([]model.Maintenance, error)

	ListSupplies(ctx context.Context, ownerID uint) ([]model.Supply, error)
	CreateSupply(ctx context.Context, ownerID uint, name, unit string, currentQuantity, minimumQuantity float64) (*model.Supply, error)
	UpdateSupply(ctx context.Context, ownerID, supplyID uint, patch SupplyPatch) (*model.Supply, error)
	DeleteSupply(ctx context.Context, ownerID, supplyID uint) error
	ApplyMovement(ctx context.Context, ownerID, supplyID uint, kind string, amount float64, note string) (*model.Movement, *model.Supply, error)
	ListMovements(ctx context.Context, ownerID, supplyID uint) ([]model.Movement, error)

	UpsertSubscription(ctx context.Context, ownerID uint, sub model.PushSubscription) error
	SubscriptionByEndpoint(ctx context.Context, ownerID uint, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, ownerID uint, endpoint string) error
	SubscriptionsForUser(ctx context.Context, userID uint) ([]model.PushSubscription, error)
	DropEndpoint(ctx context.Context, endpoint string) error
}

// MachinePatch carries optional machine updates. Nil fields are left
// untouched. The next-maintenance threshold is recomputed whenever
// hours or interval change; it is never patchable itself.
type MachinePatch struct {
	Name         *string
	Type         *string
	CurrentHours *float64
	Interval     *float64
}

// SupplyPatch carries optional supply updates. The quantity balance is
// deliberately absent: it only moves through ApplyMovement.
type SupplyPatch struct {
	Name            *string
	Unit            *string
	MinimumQuantity *float64
}

// MaintenanceInput describes a service event to record. A zero Date
// means "now"; an explicit one may backdate the record.
type MaintenanceInput struct {
	Description  string
	HoursReading float64
	Cost         float64
	Note         string
	Date         time.Time
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// CreateUser registers a new account. The email must not already be
// present (exact match as stored).
func (s *gormStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*model.User, error) {
	if name == "" || email == "" || passwordHash == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}

	user := model.User{Name: name, Email: email, PasswordHash: passwordHash}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.User
		err := tx.Where("email = ?", email).First(&existing).Error
		if err == nil {
			return ErrDuplicateEmail
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserByEmail looks an account up by its exact email.
func (s *gormStore) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) UserByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account together with all its machines,
// supplies and their child records. The cascade is done explicitly in
// one transaction so it does not depend on database FK configuration.
func (s *gormStore) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		machineIDs := tx.Model(&model.Machine{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("machine_id IN (?)", machineIDs).Delete(&model.Maintenance{}).Error; err != nil {
			return err
		}
		supplyIDs := tx.Model(&model.Supply{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("supply_id IN (?)", supplyIDs).Delete(&model.Movement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Machine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Supply{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.PushSubscription{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

// machineOwned loads a machine scoped to its owner. A machine that
// exists but belongs to another user is reported as not found.
func machineOwned(tx *gorm.DB, ownerID, machineID uint) (*model.Machine, error) {
	var machine model.Machine
	err := tx.Where("id = ? AND user_id = ?", machineID, ownerID).First(&machine).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &machine, nil
}

// supplyOwned is the ownership guard for supplies, same rule as
// machineOwned.
func supplyOwned(tx *gorm.DB, ownerID, supplyID uint) (*model.Supply, error) {
	var supply model.Supply
	err := tx.Where("id = ? AND user_id = ?", supplyID, ownerID).First(&supply).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &supply, nil
}
