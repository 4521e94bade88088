package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"farmtrack-backend/internal/model"
)

// ListSupplies returns all supplies owned by the given user.
func (s *gormStore) ListSupplies(ctx context.Context, ownerID uint) ([]model.Supply, error) {
	var supplies []model.Supply
	if err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Find(&supplies).Error; err != nil {
		return nil, err
	}
	return supplies, nil
}

// CreateSupply registers a stock item bound to its owner.
func (s *gormStore) CreateSupply(ctx context.Context, ownerID uint, name, unit string, currentQuantity, minimumQuantity float64) (*model.Supply, error) {
	if name == "" || unit == "" {
		return nil, fmt.Errorf("%w: name and unit are required", ErrInvalidInput)
	}
	if currentQuantity < 0 || minimumQuantity < 0 {
		return nil, fmt.Errorf("%w: quantities must not be negative", ErrInvalidInput)
	}

	supply := model.Supply{
		UserID:          ownerID,
		Name:            name,
		Unit:            unit,
		CurrentQuantity: currentQuantity,
		MinimumQuantity: minimumQuantity,
	}
	if err := s.db.WithContext(ctx).Create(&supply).Error; err != nil {
		return nil, err
	}
	return &supply, nil
}

// UpdateSupply applies the non-nil patch fields. The quantity balance
// is not reachable through this path.
func (s *gormStore) UpdateSupply(ctx context.Context, ownerID, supplyID uint, patch SupplyPatch) (*model.Supply, error) {
	if patch.MinimumQuantity != nil && *patch.MinimumQuantity < 0 {
		return nil, fmt.Errorf("%w: minimum quantity must not be negative", ErrInvalidInput)
	}

	var updated model.Supply
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		supply, err := supplyOwned(tx, ownerID, supplyID)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			supply.Name = *patch.Name
		}
		if patch.Unit != nil {
			supply.Unit = *patch.Unit
		}
		if patch.MinimumQuantity != nil {
			supply.MinimumQuantity = *patch.MinimumQuantity
		}

		if err := tx.Save(supply).Error; err != nil {
			return err
		}
		updated = *supply
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSupply removes a supply and all its movement records.
func (s *gormStore) DeleteSupply(ctx context.Context, ownerID, supplyID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		supply, err := supplyOwned(tx, ownerID, supplyID)
		if err != nil {
			return err
		}
		if err := tx.Where("supply_id = ?", supply.ID).Delete(&model.Movement{}).Error; err != nil {
			return err
		}
		return tx.Delete(supply).Error
	})
}

// ApplyMovement validates a stock movement and applies it to the
// supply's balance together with the immutable movement record, all or
// nothing. The balance change is a conditional UPDATE so that two
// concurrent exits serialize at the database and can never drive the
// balance negative.
func (s *gormStore) ApplyMovement(ctx context.Context, ownerID, supplyID uint, kind string, amount float64, note string) (*model.Movement, *model.Supply, error) {
	if kind != model.MovementEntry && kind != model.MovementExit {
		return nil, nil, fmt.Errorf("%w: kind must be %q or %q", ErrInvalidInput, model.MovementEntry, model.MovementExit)
	}
	if amount <= 0 {
		return nil, nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	var (
		movement model.Movement
		updated  model.Supply
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		supply, err := supplyOwned(tx, ownerID, supplyID)
		if err != nil {
			return err
		}

		if kind == model.MovementExit {
			res := tx.Model(&model.Supply{}).
				Where("id = ? AND current_quantity >= ?", supply.ID, amount).
				Update("current_quantity", gorm.Expr("current_quantity - ?", amount))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInsufficientStock
			}
		} else {
			res := tx.Model(&model.Supply{}).
				Where("id = ?", supply.ID).
				Update("current_quantity", gorm.Expr("current_quantity + ?", amount))
			if res.Error != nil {
				return res.Error
			}
		}

		movement = model.Movement{
			SupplyID: supply.ID,
			Kind:     kind,
			Amount:   amount,
			Date:     time.Now().UTC(),
			Note:     note,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return err
		}
		return tx.First(&updated, supply.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &movement, &updated, nil
}

// ListMovements returns the supply's movement history, most recent
// first.
func (s *gormStore) ListMovements(ctx context.Context, ownerID, supplyID uint) ([]model.Movement, error) {
	var movements []model.Movement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		supply, err := supplyOwned(tx, ownerID, supplyID)
		if err != nil {
			return err
		}
		return tx.Where("supply_id = ?", supply.ID).Order("date DESC").Find(&movements).Error
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}
