package dao

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryItem struct {
	ID       uint `gorm:"primaryKey"`
	UserID   uint `gorm:"not null;uniqueIndex:uq_inventory_user_item"`
	ItemID   uint `gorm:"not null;uniqueIndex:uq_inventory_user_item"`
	Quantity int  `gorm:"not null;default:1;check:quantity > 0"`
}

// InventoryRow is one inventory row joined with its catalog item.
type InventoryRow struct {
	Type     string
	Cost     int
	Quantity int
}

type InventoryDAO struct {
	db *gorm.DB
}

func NewInventoryDAO(db *gorm.DB) *InventoryDAO {
	return &InventoryDAO{
		db: db,
	}
}

// Grant adds one unit of the item to the user's inventory as a single
// upsert: insert at quantity 1, or increment on conflict. Two concurrent
// grants for the same (user, item) pair cannot lose an update.
func (d *InventoryDAO) Grant(tx *gorm.DB, userID, itemID uint) error {
	entry := InventoryItem{
		UserID:   userID,
		ItemID:   itemID,
		Quantity: 1,
	}

	result := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("inventory_items.quantity + 1"),
		}),
	}).Create(&entry)
	if result.Error != nil {
		return translatePgError(result.Error)
	}

	return nil
}

func (d *InventoryDAO) FindByUserID(ctx context.Context, userID uint) ([]InventoryRow, error) {
	var rows []InventoryRow

	result := d.db.WithContext(ctx).
		Table("inventory_items").
		Select("items.type, items.cost, inventory_items.quantity").
		Joins("JOIN items ON items.id = inventory_items.item_id").
		Where("inventory_items.user_id = ?", userID).
		Order("items.type").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}
