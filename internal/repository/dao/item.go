package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrItemNotFound = errors.New("item not found")

type Item struct {
	ID   uint   `gorm:"primaryKey"`
	Type string `gorm:"unique;not null"`
	Cost int    `gorm:"not null;check:cost >= 0"`
}

type ItemDAO struct {
	db *gorm.DB
}

func NewItemDAO(db *gorm.DB) *ItemDAO {
	return &ItemDAO{
		db: db,
	}
}

// FindByType looks up a catalog item. The catalog is immutable at runtime,
// so no locking is needed here.
func (d *ItemDAO) FindByType(ctx context.Context, itemType string) (Item, error) {
	var item Item

	result := d.db.WithContext(ctx).First(&item, "type = ?", itemType)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Item{}, ErrItemNotFound
		}

		return Item{}, result.Error
	}

	return item, nil
}
