package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/merchshop/api/internal/domain"
	"github.com/merchshop/api/internal/repository"
)

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInsufficientCoins  = repository.ErrInsufficientCoins
	ErrItemNotFound       = repository.ErrItemNotFound
	ErrRecipientNotFound  = errors.New("recipient not found")
	ErrInvalidLedgerEntry = repository.ErrInvalidLedgerEntry
	ErrContention         = repository.ErrContention
)

type StoreRepository interface {
	InTransaction(ctx context.Context, fn func(tx repository.StoreTx) error) error
	GetItemByType(ctx context.Context, itemType string) (domain.Item, error)
	ListInventory(ctx context.Context, userID uint) ([]domain.OwnedItem, error)
	SentGifts(ctx context.Context, userID uint) ([]domain.SentGift, error)
	ReceivedGifts(ctx context.Context, userID uint) ([]domain.ReceivedGift, error)
}

type StoreUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

// StoreService coordinates purchases and coin transfers. Every mutating
// operation runs in one database transaction: lock the involved account rows,
// validate, mutate balances and inventory, append the ledger entry, commit.
// Any failure before commit rolls everything back.
type StoreService struct {
	repo     StoreRepository
	userRepo StoreUserRepository
}

func NewStoreService(repo StoreRepository, userRepo StoreUserRepository) *StoreService {
	return &StoreService{
		repo:     repo,
		userRepo: userRepo,
	}
}

// Purchase buys one unit of the catalog item for the user.
func (s *StoreService) Purchase(ctx context.Context, userID uint, itemType string) error {
	// The catalog is immutable at runtime, so the lookup can happen
	// before any lock is taken.
	item, err := s.repo.GetItemByType(ctx, itemType)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}

		return fmt.Errorf("s.repo.GetItemByType -> %w", err)
	}

	err = s.repo.InTransaction(ctx, func(tx repository.StoreTx) error {
		user, err := tx.LockUser(userID)
		if err != nil {
			return fmt.Errorf("tx.LockUser -> %w", err)
		}

		if user.Coins < item.Cost {
			return ErrInsufficientCoins
		}

		if err = tx.GrantItem(user.ID, item.ID); err != nil {
			return fmt.Errorf("tx.GrantItem -> %w", err)
		}

		if err = tx.Debit(user.ID, item.Cost); err != nil {
			return fmt.Errorf("tx.Debit -> %w", err)
		}

		itemID := item.ID
		_, err = tx.AppendTransaction(domain.Transaction{
			UserID:    user.ID,
			Amount:    item.Cost,
			Type:      domain.TransactionPurchase,
			ItemID:    &itemID,
			Timestamp: time.Now(),
		})
		if err != nil {
			return fmt.Errorf("tx.AppendTransaction -> %w", err)
		}

		return nil
	})
	if err != nil {
		return unwrapTxErr(err)
	}

	return nil
}

// SendCoins transfers amount from the sender to the named recipient.
func (s *StoreService) SendCoins(ctx context.Context, senderID uint, recipientUsername string, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	err := s.repo.InTransaction(ctx, func(tx repository.StoreTx) error {
		recipient, err := tx.FindUserByUsername(recipientUsername)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return ErrRecipientNotFound
			}

			return fmt.Errorf("tx.FindUserByUsername -> %w", err)
		}

		// Lock both rows in ascending ID order so two opposite-direction
		// transfers between the same accounts cannot deadlock. A transfer
		// to oneself takes the lock once.
		var sender domain.User
		switch {
		case recipient.ID == senderID:
			sender, err = tx.LockUser(senderID)
			if err != nil {
				return fmt.Errorf("tx.LockUser -> %w", err)
			}
			recipient = sender
		case recipient.ID < senderID:
			if recipient, err = tx.LockUser(recipient.ID); err != nil {
				return fmt.Errorf("tx.LockUser(recipient) -> %w", err)
			}
			if sender, err = tx.LockUser(senderID); err != nil {
				return fmt.Errorf("tx.LockUser(sender) -> %w", err)
			}
		default:
			if sender, err = tx.LockUser(senderID); err != nil {
				return fmt.Errorf("tx.LockUser(sender) -> %w", err)
			}
			if recipient, err = tx.LockUser(recipient.ID); err != nil {
				return fmt.Errorf("tx.LockUser(recipient) -> %w", err)
			}
		}

		if sender.Coins < amount {
			return ErrInsufficientCoins
		}

		if err = tx.Debit(sender.ID, amount); err != nil {
			return fmt.Errorf("tx.Debit -> %w", err)
		}

		if err = tx.Credit(recipient.ID, amount); err != nil {
			return fmt.Errorf("tx.Credit -> %w", err)
		}

		recipientID := recipient.ID
		_, err = tx.AppendTransaction(domain.Transaction{
			UserID:      sender.ID,
			Amount:      amount,
			Type:        domain.TransactionGift,
			RecipientID: &recipientID,
			Timestamp:   time.Now(),
		})
		if err != nil {
			return fmt.Errorf("tx.AppendTransaction -> %w", err)
		}

		return nil
	})
	if err != nil {
		return unwrapTxErr(err)
	}

	return nil
}

// GetSummary returns the account view: balance, inventory expanded by
// quantity, and gift history in both directions.
func (s *StoreService) GetSummary(ctx context.Context, userID uint) (domain.Summary, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("s.userRepo.FindByID -> %w", err)
	}

	inventory, err := s.repo.ListInventory(ctx, userID)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("s.repo.ListInventory -> %w", err)
	}

	sent, err := s.repo.SentGifts(ctx, userID)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("s.repo.SentGifts -> %w", err)
	}

	received, err := s.repo.ReceivedGifts(ctx, userID)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("s.repo.ReceivedGifts -> %w", err)
	}

	return domain.Summary{
		Coins:     user.Coins,
		Inventory: inventory,
		CoinHistory: domain.CoinHistory{
			Received: received,
			Sent:     sent,
		},
	}, nil
}

// unwrapTxErr surfaces the domain error from a rolled-back transaction
// while keeping the wrapped chain for anything unexpected.
func unwrapTxErr(err error) error {
	for _, sentinel := range []error{
		ErrInsufficientCoins,
		ErrRecipientNotFound,
		ErrItemNotFound,
		ErrInvalidLedgerEntry,
		ErrContention,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}

	return err
}
