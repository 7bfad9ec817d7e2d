package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionPurchase TransactionType = "purchase"
	TransactionGift     TransactionType = "gift"
)

// Transaction rows are append-only: this DAO has no update or delete.
type Transaction struct {
	ID          uint            `gorm:"primaryKey"`
	UserID      uint            `gorm:"not null;index"`
	Amount      int             `gorm:"not null;check:amount > 0"`
	Type        TransactionType `gorm:"not null"`
	RecipientID *uint           `gorm:"index"`
	ItemID      *uint
	Timestamp   time.Time `gorm:"not null"`
}

// GiftRow is a gift transaction joined with the counterparty's username.
type GiftRow struct {
	Username string
	Amount   int
}

type TransactionDAO struct {
	db *gorm.DB
}

func NewTransactionDAO(db *gorm.DB) *TransactionDAO {
	return &TransactionDAO{
		db: db,
	}
}

func (d *TransactionDAO) Insert(tx *gorm.DB, transaction Transaction) (Transaction, error) {
	result := tx.Create(&transaction)
	if result.Error != nil {
		return Transaction{}, translatePgError(result.Error)
	}

	return transaction, nil
}

// FindSentGifts returns gift transactions where the user is the actor,
// joined to the recipient's username.
func (d *TransactionDAO) FindSentGifts(ctx context.Context, userID uint) ([]GiftRow, error) {
	var rows []GiftRow

	result := d.db.WithContext(ctx).
		Table("transactions").
		Select("users.username, transactions.amount").
		Joins("JOIN users ON users.id = transactions.recipient_id").
		Where("transactions.user_id = ? AND transactions.type = ?", userID, TransactionGift).
		Order("transactions.id").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// FindReceivedGifts returns transactions where the user is the recipient,
// joined to the sender's username. Only gifts carry a recipient, so this
// is the gifts-received view.
func (d *TransactionDAO) FindReceivedGifts(ctx context.Context, userID uint) ([]GiftRow, error) {
	var rows []GiftRow

	result := d.db.WithContext(ctx).
		Table("transactions").
		Select("users.username, transactions.amount").
		Joins("JOIN users ON users.id = transactions.user_id").
		Where("transactions.recipient_id = ?", userID).
		Order("transactions.id").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}
