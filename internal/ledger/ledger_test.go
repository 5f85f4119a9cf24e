package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"erp-service/internal/model"
	"erp-service/pkg/database"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createMaterial(t *testing.T, db *gorm.DB, stock float64) *model.Material {
	t.Helper()
	material := &model.Material{
		Code:          "MAT-001",
		Name:          "Steel sheet",
		Unit:          "kg",
		StockQuantity: stock,
	}
	require.NoError(t, db.Create(material).Error)
	return material
}

func TestDelta(t *testing.T) {
	tests := []struct {
		movementType string
		quantity     float64
		want         float64
		wantErr      error
	}{
		{model.MovementIn, 10, 10, nil},
		{model.MovementOut, 10, -10, nil},
		{model.MovementAdjustment, 5, 5, nil},
		{model.MovementTransfer, 5, 5, nil},
		{"teleport", 5, 0, ErrInvalidMovementType},
		{model.MovementIn, 0, 0, ErrInvalidQuantity},
		{model.MovementOut, -3, 0, ErrInvalidQuantity},
	}

	for _, tt := range tests {
		got, err := Delta(tt.movementType, tt.quantity)
		if tt.wantErr != nil {
			require.ErrorIs(t, err, tt.wantErr, "type %q qty %v", tt.movementType, tt.quantity)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, got, "type %q qty %v", tt.movementType, tt.quantity)
	}
}

func TestApply_OutOnEmptyMaterial(t *testing.T) {
	db := setupDB(t)
	material := createMaterial(t, db, 0)

	_, err := Apply(db, Movement{
		MaterialID:   material.ID,
		MovementType: model.MovementOut,
		Quantity:     5,
		Reason:       "issue to production",
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing persisted on failure
	var reloaded model.Material
	require.NoError(t, db.First(&reloaded, material.ID).Error)
	require.Equal(t, float64(0), reloaded.StockQuantity)

	var count int64
	db.Model(&model.StockLedgerEntry{}).Count(&count)
	require.Equal(t, int64(0), count)
}

func TestApply_Scenario(t *testing.T) {
	db := setupDB(t)
	material := createMaterial(t, db, 100)

	entry, err := Apply(db, Movement{
		MaterialID:   material.ID,
		MovementType: model.MovementIn,
		Quantity:     50,
		Reason:       "goods receipt",
	})
	require.NoError(t, err)
	require.Equal(t, float64(150), entry.BalanceAfter)

	entry, err = Apply(db, Movement{
		MaterialID:   material.ID,
		MovementType: model.MovementOut,
		Quantity:     30,
		Reason:       "issue to production",
	})
	require.NoError(t, err)
	require.Equal(t, float64(120), entry.BalanceAfter)

	// An out larger than the balance is rejected and leaves no trace
	_, err = Apply(db, Movement{
		MaterialID:   material.ID,
		MovementType: model.MovementOut,
		Quantity:     200,
		Reason:       "issue to production",
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	var reloaded model.Material
	require.NoError(t, db.First(&reloaded, material.ID).Error)
	require.Equal(t, float64(120), reloaded.StockQuantity)

	var count int64
	db.Model(&model.StockLedgerEntry{}).Where("material_id = ?", material.ID).Count(&count)
	require.Equal(t, int64(2), count)
}

func TestReverse_LeavesNewerSnapshotsStale(t *testing.T) {
	db := setupDB(t)
	material := createMaterial(t, db, 100)

	inEntry, err := Apply(db, Movement{
		MaterialID:   material.ID,
		MovementType: model.MovementIn,
		Quantity:     50,
		Reason:       "goods receipt",
	})
	require.NoError(t, err)

	outEntry, err := Apply(db, Movement{
		MaterialID:   material.ID,
		MovementType: model.MovementOut,
		Quantity:     30,
		Reason:       "issue to production",
	})
	require.NoError(t, err)
	require.Equal(t, float64(120), outEntry.BalanceAfter)

	// Reversing the in-50 applies only the inverse delta to the current
	// balance: 120 - 50 = 70
	reversed, err := Reverse(db, inEntry.ID)
	require.NoError(t, err)
	require.Equal(t, float64(70), reversed.StockQuantity)

	var count int64
	db.Model(&model.StockLedgerEntry{}).Where("id = ?", inEntry.ID).Count(&count)
	require.Equal(t, int64(0), count)

	// Known limitation: the later entry's snapshot is now stale relative to
	// the true balance. This is the current behavior, asserted on purpose.
	var stale model.StockLedgerEntry
	require.NoError(t, db.First(&stale, outEntry.ID).Error)
	require.Equal(t, float64(120), stale.BalanceAfter)
	require.NotEqual(t, reversed.StockQuantity, stale.BalanceAfter)
}

func TestReverse_RejectsNegativeBalance(t *testing.T) {
	db := setupDB(t)
	material := createMaterial(t, db, 0)

	inEntry, err := Apply(db, Movement{
		MaterialID:   material.ID,
		MovementType: model.MovementIn,
		Quantity:     10,
		Reason:       "goods receipt",
	})
	require.NoError(t, err)

	_, err = Apply(db, Movement{
		MaterialID:   material.ID,
		MovementType: model.MovementOut,
		Quantity:     8,
		Reason:       "issue to production",
	})
	require.NoError(t, err)

	// Balance is 2; reversing the in-10 would make it -8
	_, err = Reverse(db, inEntry.ID)
	require.ErrorIs(t, err, ErrInsufficientStock)

	// The entry survives a rejected reversal
	var count int64
	db.Model(&model.StockLedgerEntry{}).Where("id = ?", inEntry.ID).Count(&count)
	require.Equal(t, int64(1), count)

	var reloaded model.Material
	require.NoError(t, db.First(&reloaded, material.ID).Error)
	require.Equal(t, float64(2), reloaded.StockQuantity)
}

func TestApply_UnknownMaterial(t *testing.T) {
	db := setupDB(t)

	_, err := Apply(db, Movement{
		MaterialID:   9999,
		MovementType: model.MovementIn,
		Quantity:     1,
		Reason:       "goods receipt",
	})
	require.ErrorIs(t, err, ErrMaterialNotFound)
}

func TestReverse_UnknownEntry(t *testing.T) {
	db := setupDB(t)

	_, err := Reverse(db, 9999)
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestLedgerSum_MatchesBalance(t *testing.T) {
	db := setupDB(t)
	material := createMaterial(t, db, 0)

	movements := []Movement{
		{MaterialID: material.ID, MovementType: model.MovementIn, Quantity: 100, Reason: "goods receipt"},
		{MaterialID: material.ID, MovementType: model.MovementOut, Quantity: 25, Reason: "issue"},
		{MaterialID: material.ID, MovementType: model.MovementAdjustment, Quantity: 5, Reason: "cycle count"},
		{MaterialID: material.ID, MovementType: model.MovementTransfer, Quantity: 10, Reason: "transfer in"},
		{MaterialID: material.ID, MovementType: model.MovementOut, Quantity: 40, Reason: "issue"},
	}
	for _, mv := range movements {
		_, err := Apply(db, mv)
		require.NoError(t, err)
	}

	// Absent reversals, folding the signed deltas from zero reproduces the
	// cached balance
	var entries []model.StockLedgerEntry
	require.NoError(t, db.Where("material_id = ?", material.ID).Find(&entries).Error)

	var sum float64
	for _, e := range entries {
		delta, err := Delta(e.MovementType, e.Quantity)
		require.NoError(t, err)
		sum += delta
	}

	var reloaded model.Material
	require.NoError(t, db.First(&reloaded, material.ID).Error)
	require.Equal(t, sum, reloaded.StockQuantity)
	require.Equal(t, float64(50), reloaded.StockQuantity)
}
