package domain

import "time"

type TransactionType string

const (
	TransactionPurchase TransactionType = "purchase"
	TransactionGift     TransactionType = "gift"
)

// Transaction is an immutable ledger entry for a completed economic event.
// Exactly one of RecipientID (gift) or ItemID (purchase) is set.
type Transaction struct {
	ID          uint            `json:"id"`
	UserID      uint            `json:"user_id"`
	Amount      int             `json:"amount"`
	Type        TransactionType `json:"type"`
	RecipientID *uint           `json:"recipient_id,omitempty"`
	ItemID      *uint           `json:"item_id,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

func (t *Transaction) IsValid() bool {
	if t.Amount <= 0 {
		return false
	}

	switch t.Type {
	case TransactionPurchase:
		return t.ItemID != nil && t.RecipientID == nil
	case TransactionGift:
		return t.RecipientID != nil && t.ItemID == nil
	}

	return false
}

// SentGift is a gift the user sent, joined to the recipient's username.
type SentGift struct {
	ToUser string `json:"toUser"`
	Amount int    `json:"amount"`
}

// ReceivedGift is a gift the user received, joined to the sender's username.
type ReceivedGift struct {
	FromUser string `json:"fromUser"`
	Amount   int    `json:"amount"`
}

type CoinHistory struct {
	Received []ReceivedGift `json:"received"`
	Sent     []SentGift     `json:"sent"`
}

// Summary is the full account view: balance, inventory expanded by
// quantity, and gift history in both directions.
type Summary struct {
	Coins       int         `json:"coins"`
	Inventory   []OwnedItem `json:"inventory"`
	CoinHistory CoinHistory `json:"coinHistory"`
}
