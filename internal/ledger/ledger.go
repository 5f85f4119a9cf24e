package ledger

import (
	"errors"

	"gorm.io/gorm"

	"erp-service/internal/model"
)

var (
	ErrInvalidMovementType = errors.New("invalid movement type")
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrMaterialNotFound    = errors.New("material not found")
	ErrEntryNotFound       = errors.New("ledger entry not found")
)

// movementSign maps a movement type to its signed multiplier. Adjustments and
// transfers are additive; product owners have been told adjustment/transfer
// likely need a direction field, until then the mapping stays explicit here.
var movementSign = map[string]float64{
	model.MovementIn:         1,
	model.MovementOut:        -1,
	model.MovementAdjustment: 1,
	model.MovementTransfer:   1,
}

// Movement is a request to change a material's stock balance
type Movement struct {
	MaterialID   uint
	MovementType string
	Quantity     float64
	Reason       string
	Reference    string
	Notes        string
	CreatedByID  uint
}

// Delta validates a movement type and quantity and returns the signed balance delta
func Delta(movementType string, quantity float64) (float64, error) {
	sign, ok := movementSign[movementType]
	if !ok {
		return 0, ErrInvalidMovementType
	}
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	return sign * quantity, nil
}

// Apply records a movement against a material. The ledger insert and the
// cached balance update happen in one transaction; the balance update is a
// guarded atomic increment so two concurrent movements on the same material
// cannot lose each other's write or drive the balance negative.
func Apply(db *gorm.DB, mv Movement) (*model.StockLedgerEntry, error) {
	delta, err := Delta(mv.MovementType, mv.Quantity)
	if err != nil {
		return nil, err
	}

	var entry model.StockLedgerEntry
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Material{}).
			Where("id = ? AND stock_quantity + ? >= 0", mv.MaterialID, delta).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Either the material does not exist or the guard rejected the
			// movement; look at the row to tell the two apart.
			var material model.Material
			if err := tx.First(&material, mv.MaterialID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrMaterialNotFound
				}
				return err
			}
			return ErrInsufficientStock
		}

		// The row is write-locked by our own update until commit, so this
		// read-back is the balance the movement produced.
		var material model.Material
		if err := tx.First(&material, mv.MaterialID).Error; err != nil {
			return err
		}

		entry = model.StockLedgerEntry{
			MaterialID:   material.ID,
			MovementType: mv.MovementType,
			Quantity:     mv.Quantity,
			BalanceAfter: material.StockQuantity,
			Reason:       mv.Reason,
			Reference:    mv.Reference,
			Notes:        mv.Notes,
			CreatedByID:  mv.CreatedByID,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Reverse deletes a ledger entry and applies its inverse delta to the
// material's current balance. Only the cached balance is adjusted: the
// balance_after snapshots of entries created after the reversed one keep
// their recorded values and go stale relative to the true balance. That
// matches the system this replaces; whether deletion should instead rewrite
// subsequent snapshots is an open product decision.
func Reverse(db *gorm.DB, entryID uint) (*model.Material, error) {
	var material model.Material
	err := db.Transaction(func(tx *gorm.DB) error {
		var entry model.StockLedgerEntry
		if err := tx.First(&entry, entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return err
		}

		inverse := -movementSign[entry.MovementType] * entry.Quantity
		res := tx.Model(&model.Material{}).
			Where("id = ? AND stock_quantity + ? >= 0", entry.MaterialID, inverse).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", inverse))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var m model.Material
			if err := tx.First(&m, entry.MaterialID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrMaterialNotFound
				}
				return err
			}
			return ErrInsufficientStock
		}

		if err := tx.Delete(&entry).Error; err != nil {
			return err
		}
		return tx.First(&material, entry.MaterialID).Error
	})
	if err != nil {
		return nil, err
	}
	return &material, nil
}
