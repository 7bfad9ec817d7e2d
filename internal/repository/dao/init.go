package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Item{},
		&InventoryItem{},
		&Transaction{},
	)
}

// SeedItems populates the catalog once. Items are immutable after
// creation, so existing rows are left untouched.
func SeedItems(db *gorm.DB) error {
	items := []Item{
		{Type: "t-shirt", Cost: 80},
		{Type: "cup", Cost: 20},
		{Type: "book", Cost: 50},
		{Type: "pen", Cost: 10},
		{Type: "powerbank", Cost: 200},
		{Type: "hoody", Cost: 300},
		{Type: "umbrella", Cost: 200},
		{Type: "socks", Cost: 10},
		{Type: "wallet", Cost: 50},
		{Type: "pink-hoody", Cost: 500},
	}

	for _, item := range items {
		var existing Item
		result := db.Where("type = ?", item.Type).Limit(1).Find(&existing)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			continue
		}

		if err := db.Create(&item).Error; err != nil {
			return err
		}
	}

	return nil
}
