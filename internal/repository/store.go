package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/merchshop/api/internal/domain"
	"github.com/merchshop/api/internal/repository/dao"
)

var (
	ErrItemNotFound       = dao.ErrItemNotFound
	ErrInsufficientCoins  = dao.ErrInsufficientCoins
	ErrContention         = dao.ErrContention
	ErrInvalidLedgerEntry = errors.New("ledger entry must reference exactly one of recipient or item")
)

// StoreTx is the view of the store handed to one transaction. Every
// mutation goes through it; the transaction commits or rolls back as a unit.
type StoreTx interface {
	// LockUser reads the user's row with an exclusive lock held until the
	// transaction ends. All balance mutations require the lock.
	LockUser(id uint) (domain.User, error)
	FindUserByUsername(username string) (domain.User, error)
	Debit(userID uint, amount int) error
	Credit(userID uint, amount int) error
	GrantItem(userID, itemID uint) error
	AppendTransaction(transaction domain.Transaction) (domain.Transaction, error)
}

// StoreRepository owns the catalog, inventory and ledger reads, and runs
// balance-mutating transactions over all of them.
type StoreRepository struct {
	db        *gorm.DB
	users     *dao.UserDAO
	items     *dao.ItemDAO
	inventory *dao.InventoryDAO
	txns      *dao.TransactionDAO
}

func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{
		db:        db,
		users:     dao.NewUserDAO(db),
		items:     dao.NewItemDAO(db),
		inventory: dao.NewInventoryDAO(db),
		txns:      dao.NewTransactionDAO(db),
	}
}

// InTransaction runs fn inside a database transaction. If fn returns an error,
// every mutation made through the StoreTx is rolled back.
func (r *StoreRepository) InTransaction(ctx context.Context, fn func(tx StoreTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&storeTx{
			tx:   tx,
			repo: r,
		})
	})
}

func (r *StoreRepository) GetItemByType(ctx context.Context, itemType string) (domain.Item, error) {
	item, err := r.items.FindByType(ctx, itemType)
	if err != nil {
		if errors.Is(err, dao.ErrItemNotFound) {
			return domain.Item{}, ErrItemNotFound
		}

		return domain.Item{}, fmt.Errorf("r.items.FindByType -> %w", err)
	}

	return r.itemDaoToDomain(item), nil
}

// ListInventory expands the user's inventory by quantity: one entry per
// unit owned, as the summary view presents it.
func (r *StoreRepository) ListInventory(ctx context.Context, userID uint) ([]domain.OwnedItem, error) {
	rows, err := r.inventory.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.inventory.FindByUserID -> %w", err)
	}

	items := make([]domain.OwnedItem, 0)
	for _, row := range rows {
		for i := 0; i < row.Quantity; i++ {
			items = append(items, domain.OwnedItem{
				Type: row.Type,
				Cost: row.Cost,
			})
		}
	}

	return items, nil
}

func (r *StoreRepository) SentGifts(ctx context.Context, userID uint) ([]domain.SentGift, error) {
	rows, err := r.txns.FindSentGifts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.txns.FindSentGifts -> %w", err)
	}

	gifts := make([]domain.SentGift, len(rows))
	for i, row := range rows {
		gifts[i] = domain.SentGift{
			ToUser: row.Username,
			Amount: row.Amount,
		}
	}

	return gifts, nil
}

func (r *StoreRepository) ReceivedGifts(ctx context.Context, userID uint) ([]domain.ReceivedGift, error) {
	rows, err := r.txns.FindReceivedGifts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.txns.FindReceivedGifts -> %w", err)
	}

	gifts := make([]domain.ReceivedGift, len(rows))
	for i, row := range rows {
		gifts[i] = domain.ReceivedGift{
			FromUser: row.Username,
			Amount:   row.Amount,
		}
	}

	return gifts, nil
}

func (r *StoreRepository) itemDaoToDomain(item dao.Item) domain.Item {
	return domain.Item{
		ID:   item.ID,
		Type: item.Type,
		Cost: item.Cost,
	}
}

// storeTx binds the DAOs to one open database transaction.
type storeTx struct {
	tx   *gorm.DB
	repo *StoreRepository
}

func (t *storeTx) LockUser(id uint) (domain.User, error) {
	user, err := t.repo.users.LockByID(t.tx, id)
	if err != nil {
		if errors.Is(err, dao.ErrUserNotFound) || errors.Is(err, dao.ErrContention) {
			return domain.User{}, err
		}

		return domain.User{}, fmt.Errorf("users.LockByID -> %w", err)
	}

	return t.repo.userDaoToDomain(user), nil
}

func (t *storeTx) FindUserByUsername(username string) (domain.User, error) {
	var user dao.User

	result := t.tx.First(&user, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return domain.User{}, ErrUserNotFound
		}

		return domain.User{}, result.Error
	}

	return t.repo.userDaoToDomain(user), nil
}

func (t *storeTx) Debit(userID uint, amount int) error {
	return t.repo.users.Debit(t.tx, userID, amount)
}

func (t *storeTx) Credit(userID uint, amount int) error {
	return t.repo.users.Credit(t.tx, userID, amount)
}

func (t *storeTx) GrantItem(userID, itemID uint) error {
	return t.repo.inventory.Grant(t.tx, userID, itemID)
}

func (t *storeTx) AppendTransaction(transaction domain.Transaction) (domain.Transaction, error) {
	if !transaction.IsValid() {
		return domain.Transaction{}, ErrInvalidLedgerEntry
	}

	inserted, err := t.repo.txns.Insert(t.tx, dao.Transaction{
		UserID:      transaction.UserID,
		Amount:      transaction.Amount,
		Type:        dao.TransactionType(transaction.Type),
		RecipientID: transaction.RecipientID,
		ItemID:      transaction.ItemID,
		Timestamp:   transaction.Timestamp,
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("txns.Insert -> %w", err)
	}

	return domain.Transaction{
		ID:          inserted.ID,
		UserID:      inserted.UserID,
		Amount:      inserted.Amount,
		Type:        domain.TransactionType(inserted.Type),
		RecipientID: inserted.RecipientID,
		ItemID:      inserted.ItemID,
		Timestamp:   inserted.Timestamp,
	}, nil
}

func (r *StoreRepository) userDaoToDomain(u dao.User) domain.User {
	return domain.User{
		ID:        u.ID,
		Username:  u.Username,
		Password:  u.Password,
		Coins:     u.Coins,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
