package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"farmtrack-backend/internal/db"
	"farmtrack-backend/internal/model"
)

// newTestStore opens a file-backed SQLite database in a temp dir.
// _txlock=immediate makes concurrent write transactions queue instead
// of deadlocking, which mirrors the row-level serialization we get
// from Postgres in production.
func newTestStore(t *testing.T) Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate", filepath.Join(t.TempDir(), "store_test.db"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	return NewGormStore(gormDB)
}

func seedUser(t *testing.T, s Store, email string) *model.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), "Test User", email, "$2a$10$fakefakefakefakefakefake")
	require.NoError(t, err)
	return user
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "Alice", "alice@farm.example", "hash-a")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "Another Alice", "alice@farm.example", "hash-b")
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	// Exact match as stored: a different casing is a different email.
	_, err = s.CreateUser(ctx, "Alice", "Alice@farm.example", "hash-c")
	assert.NoError(t, err)
}

func TestCreateMachineDerivesThreshold(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner@farm.example")

	machine, err := s.CreateMachine(ctx, user.ID, "Tractor", "tractor", 1000, 250)
	require.NoError(t, err)
	assert.Equal(t, float64(1250), machine.NextMaintenance)

	_, err = s.CreateMachine(ctx, user.ID, "Harvester", "harvester", 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.CreateMachine(ctx, user.ID, "Harvester", "harvester", -5, 250)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateMachineRecomputesThreshold(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner@farm.example")

	machine, err := s.CreateMachine(ctx, user.ID, "Tractor", "tractor", 1000, 250)
	require.NoError(t, err)

	hours := 1200.0
	updated, err := s.UpdateMachine(ctx, user.ID, machine.ID, MachinePatch{CurrentHours: &hours})
	require.NoError(t, err)
	assert.Equal(t, float64(1200), updated.CurrentHours)
	assert.Equal(t, float64(1450), updated.NextMaintenance)

	// Changing only the interval also moves the threshold.
	interval := 300.0
	updated, err = s.UpdateMachine(ctx, user.ID, machine.ID, MachinePatch{Interval: &interval})
	require.NoError(t, err)
	assert.Equal(t, float64(1500), updated.NextMaintenance)

	// A name-only patch leaves the numbers alone.
	name := "Old Tractor"
	updated, err = s.UpdateMachine(ctx, user.ID, machine.ID, MachinePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Old Tractor", updated.Name)
	assert.Equal(t, float64(1200), updated.CurrentHours)
	assert.Equal(t, float64(1500), updated.NextMaintenance)

	badInterval := 0.0
	_, err = s.UpdateMachine(ctx, user.ID, machine.ID, MachinePatch{Interval: &badInterval})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMachineOwnershipHidesOtherUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@farm.example")
	intruder := seedUser(t, s, "intruder@farm.example")

	machine, err := s.CreateMachine(ctx, owner.ID, "Tractor", "tractor", 0, 250)
	require.NoError(t, err)

	name := "Stolen"
	_, err = s.UpdateMachine(ctx, intruder.ID, machine.ID, MachinePatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.DeleteMachine(ctx, intruder.ID, machine.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ListMaintenance(ctx, intruder.ID, machine.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = s.RecordMaintenance(ctx, intruder.ID, machine.ID, MaintenanceInput{Description: "oil", HoursReading: 10})
	assert.ErrorIs(t, err, ErrNotFound)

	machines, err := s.ListMachines(ctx, intruder.ID)
	require.NoError(t, err)
	assert.Empty(t, machines)
}

func TestRecordMaintenanceMovesCounter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner@farm.example")

	machine, err := s.CreateMachine(ctx, user.ID, "Tractor", "tractor", 1000, 250)
	require.NoError(t, err)

	record, updated, err := s.RecordMaintenance(ctx, user.ID, machine.ID, MaintenanceInput{
		Description:  "oil change",
		HoursReading: 1250,
		Cost:         120,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(1250), record.HoursReading)
	assert.WithinDuration(t, time.Now().UTC(), record.Date, 5*time.Second)
	assert.Equal(t, float64(1250), updated.CurrentHours)
	assert.Equal(t, float64(1500), updated.NextMaintenance)

	// The reading is trusted as-is, even when lower than the counter.
	_, updated, err = s.RecordMaintenance(ctx, user.ID, machine.ID, MaintenanceInput{
		Description:  "corrected reading",
		HoursReading: 1100,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(1100), updated.CurrentHours)
	assert.Equal(t, float64(1350), updated.NextMaintenance)

	_, _, err = s.RecordMaintenance(ctx, user.ID, machine.ID, MaintenanceInput{
		Description:  "negative",
		HoursReading: -1,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = s.RecordMaintenance(ctx, user.ID, machine.ID, MaintenanceInput{
		Description:  "negative cost",
		HoursReading: 10,
		Cost:         -1,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListMaintenanceNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner@farm.example")

	machine, err := s.CreateMachine(ctx, user.ID, "Tractor", "tractor", 0, 250)
	require.NoError(t, err)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, desc := range []string{"first", "second", "third"} {
		_, _, err := s.RecordMaintenance(ctx, user.ID, machine.ID, MaintenanceInput{
			Description:  desc,
			HoursReading: float64(100 * (i + 1)),
			Date:         base.Add(time.Duration(i) * 24 * time.Hour),
		})
		require.NoError(t, err)
	}

	records, err := s.ListMaintenance(ctx, user.ID, machine.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "third", records[0].Description)
	assert.Equal(t, "second", records[1].Description)
	assert.Equal(t, "first", records[2].Description)
}

func TestApplyMovementEntryThenExit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner@farm.example")

	supply, err := s.CreateSupply(ctx, user.ID, "Fertilizer", "kg", 0, 100)
	require.NoError(t, err)

	_, updated, err := s.ApplyMovement(ctx, user.ID, supply.ID, model.MovementEntry, 5000, "delivery")
	require.NoError(t, err)
	assert.Equal(t, float64(5000), updated.CurrentQuantity)

	_, updated, err = s.ApplyMovement(ctx, user.ID, supply.ID, model.MovementExit, 450, "field 3")
	require.NoError(t, err)
	assert.Equal(t, float64(4550), updated.CurrentQuantity)

	movements, err := s.ListMovements(ctx, user.ID, supply.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, model.MovementExit, movements[0].Kind)
	assert.Equal(t, model.MovementEntry, movements[1].Kind)
}

func TestApplyMovementInsufficientStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner@farm.example")

	supply, err := s.CreateSupply(ctx, user.ID, "Seed", "sack", 500, 50)
	require.NoError(t, err)

	_, _, err = s.ApplyMovement(ctx, user.ID, supply.ID, model.MovementExit, 600, "")
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing was applied: the balance is unchanged and no movement
	// record exists.
	supplies, err := s.ListSupplies(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, supplies, 1)
	assert.Equal(t, float64(500), supplies[0].CurrentQuantity)

	movements, err := s.ListMovements(ctx, user.ID, supply.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestApplyMovementValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner@farm.example")

	supply, err := s.CreateSupply(ctx, user.ID, "Diesel", "L", 100, 10)
	require.NoError(t, err)

	_, _, err = s.ApplyMovement(ctx, user.ID, supply.ID, "adjust", 10, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = s.ApplyMovement(ctx, user.ID, supply.ID, model.MovementEntry, 0, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = s.ApplyMovement(ctx, user.ID, supply.ID, model.MovementExit, -5, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = s.ApplyMovement(ctx, user.ID, supply.ID+999, model.MovementEntry, 10, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyMovementConcurrentExits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner@farm.example")

	supply, err := s.CreateSupply(ctx, user.ID, "Lime", "kg", 400, 0)
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = s.ApplyMovement(ctx, user.ID, supply.ID, model.MovementExit, 300, "")
		}(i)
	}
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrInsufficientStock):
			insufficient++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one exit must win")
	assert.Equal(t, 1, insufficient)

	supplies, err := s.ListSupplies(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, supplies, 1)
	assert.Equal(t, float64(100), supplies[0].CurrentQuantity)

	movements, err := s.ListMovements(ctx, user.ID, supply.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 1)
}

func TestUpdateSupplyCannotTouchQuantity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner@farm.example")

	supply, err := s.CreateSupply(ctx, user.ID, "Fertilizer", "kg", 250, 100)
	require.NoError(t, err)

	name := "NPK Fertilizer"
	unit := "sack"
	minimum := 20.0
	updated, err := s.UpdateSupply(ctx, user.ID, supply.ID, SupplyPatch{
		Name:            &name,
		Unit:            &unit,
		MinimumQuantity: &minimum,
	})
	require.NoError(t, err)
	assert.Equal(t, "NPK Fertilizer", updated.Name)
	assert.Equal(t, "sack", updated.Unit)
	assert.Equal(t, float64(20), updated.MinimumQuantity)
	assert.Equal(t, float64(250), updated.CurrentQuantity)

	badMinimum := -1.0
	_, err = s.UpdateSupply(ctx, user.ID, supply.ID, SupplyPatch{MinimumQuantity: &badMinimum})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner@farm.example")
	other := seedUser(t, s, "other@farm.example")

	machine, err := s.CreateMachine(ctx, user.ID, "Tractor", "tractor", 0, 250)
	require.NoError(t, err)
	_, _, err = s.RecordMaintenance(ctx, user.ID, machine.ID, MaintenanceInput{Description: "oil", HoursReading: 100})
	require.NoError(t, err)

	supply, err := s.CreateSupply(ctx, user.ID, "Seed", "sack", 0, 0)
	require.NoError(t, err)
	_, _, err = s.ApplyMovement(ctx, user.ID, supply.ID, model.MovementEntry, 10, "")
	require.NoError(t, err)

	otherMachine, err := s.CreateMachine(ctx, other.ID, "Plow", "plow", 0, 100)
	require.NoError(t, err)
	_, _, err = s.RecordMaintenance(ctx, other.ID, otherMachine.ID, MaintenanceInput{Description: "blades", HoursReading: 5})
	require.NoError(t, err)

	count := func(model any, query string, args ...any) int64 {
		var n int64
		require.NoError(t, s.DB().Model(model).Where(query, args...).Count(&n).Error)
		return n
	}

	// Deleting a machine removes its maintenance history.
	require.NoError(t, s.DeleteMachine(ctx, user.ID, machine.ID))
	assert.Zero(t, count(&model.Maintenance{}, "machine_id = ?", machine.ID))

	// Deleting a supply removes its movement history.
	require.NoError(t, s.DeleteSupply(ctx, user.ID, supply.ID))
	assert.Zero(t, count(&model.Movement{}, "supply_id = ?", supply.ID))

	// Deleting a user removes everything it owns, transitively.
	require.NoError(t, s.DeleteUser(ctx, other.ID))
	assert.Zero(t, count(&model.Machine{}, "user_id = ?", other.ID))
	assert.Zero(t, count(&model.Maintenance{}, "machine_id = ?", otherMachine.ID))
	_, err = s.UserByID(ctx, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionOwnership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner@farm.example")
	other := seedUser(t, s, "other@farm.example")

	sub := model.PushSubscription{Endpoint: "https://push.example/abc", P256DH: "key", Auth: "auth"}
	require.NoError(t, s.UpsertSubscription(ctx, user.ID, sub))

	got, err := s.SubscriptionByEndpoint(ctx, user.ID, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)

	_, err = s.SubscriptionByEndpoint(ctx, other.ID, sub.Endpoint)
	assert.ErrorIs(t, err, ErrNotFound)

	subs, err := s.SubscriptionsForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	require.NoError(t, s.DropEndpoint(ctx, sub.Endpoint))
	subs, err = s.SubscriptionsForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
}
