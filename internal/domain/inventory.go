package domain

// InventoryEntry is one (user, item) row of the inventory multiset.
// Quantity is always positive; a row disappears rather than hitting zero.
type InventoryEntry struct {
	ID       uint `json:"id"`
	UserID   uint `json:"user_id"`
	ItemID   uint `json:"item_id"`
	Quantity int  `json:"quantity"`
}

// OwnedItem is one unit of an owned item, expanded for display.
type OwnedItem struct {
	Type string `json:"type"`
	Cost int    `json:"cost"`
}
