package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchshop/api/internal/domain"
	"github.com/merchshop/api/internal/repository"
)

// memStore is an in-memory StoreRepository. Transactions run under one mutex
// against a staged copy of the state, so a failing transaction leaves nothing
// behind, mirroring the rollback behavior of the real repository.
type memStore struct {
	mu       sync.Mutex
	users    map[uint]domain.User
	byName   map[string]uint
	items    map[string]domain.Item
	holdings map[[2]uint]int // (userID, itemID) -> quantity
	ledger   []domain.Transaction
	txCount  int
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uint]domain.User),
		byName:   make(map[string]uint),
		items:    make(map[string]domain.Item),
		holdings: make(map[[2]uint]int),
	}
}

func (m *memStore) addUser(id uint, username string, coins int) {
	m.users[id] = domain.User{ID: id, Username: username, Coins: coins}
	m.byName[username] = id
}

func (m *memStore) addItem(id uint, itemType string, cost int) {
	m.items[itemType] = domain.Item{ID: id, Type: itemType, Cost: cost}
}

type memTx struct {
	users    map[uint]domain.User
	byName   map[string]uint
	holdings map[[2]uint]int
	ledger   []domain.Transaction
}

func (m *memStore) InTransaction(ctx context.Context, fn func(tx repository.StoreTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++

	staged := &memTx{
		users:    make(map[uint]domain.User, len(m.users)),
		byName:   m.byName,
		holdings: make(map[[2]uint]int, len(m.holdings)),
		ledger:   append([]domain.Transaction(nil), m.ledger...),
	}
	for id, u := range m.users {
		staged.users[id] = u
	}
	for key, qty := range m.holdings {
		staged.holdings[key] = qty
	}

	if err := fn(staged); err != nil {
		return err
	}

	m.users = staged.users
	m.holdings = staged.holdings
	m.ledger = staged.ledger
	return nil
}

func (t *memTx) LockUser(id uint) (domain.User, error) {
	user, ok := t.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (t *memTx) FindUserByUsername(username string) (domain.User, error) {
	id, ok := t.byName[username]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	return t.users[id], nil
}

func (t *memTx) Debit(userID uint, amount int) error {
	user := t.users[userID]
	if user.Coins < amount {
		return repository.ErrInsufficientCoins
	}
	user.Coins -= amount
	t.users[userID] = user
	return nil
}

func (t *memTx) Credit(userID uint, amount int) error {
	user := t.users[userID]
	user.Coins += amount
	t.users[userID] = user
	return nil
}

func (t *memTx) GrantItem(userID, itemID uint) error {
	t.holdings[[2]uint{userID, itemID}]++
	return nil
}

func (t *memTx) AppendTransaction(transaction domain.Transaction) (domain.Transaction, error) {
	if !transaction.IsValid() {
		return domain.Transaction{}, repository.ErrInvalidLedgerEntry
	}
	transaction.ID = uint(len(t.ledger) + 1)
	t.ledger = append(t.ledger, transaction)
	return transaction, nil
}

func (m *memStore) GetItemByType(ctx context.Context, itemType string) (domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemType]
	if !ok {
		return domain.Item{}, repository.ErrItemNotFound
	}
	return item, nil
}

func (m *memStore) ListInventory(ctx context.Context, userID uint) ([]domain.OwnedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]domain.OwnedItem, 0)
	for key, qty := range m.holdings {
		if key[0] != userID {
			continue
		}
		for _, item := range m.items {
			if item.ID != key[1] {
				continue
			}
			for i := 0; i < qty; i++ {
				items = append(items, domain.OwnedItem{Type: item.Type, Cost: item.Cost})
			}
		}
	}
	return items, nil
}

func (m *memStore) SentGifts(ctx context.Context, userID uint) ([]domain.SentGift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	gifts := make([]domain.SentGift, 0)
	for _, entry := range m.ledger {
		if entry.Type != domain.TransactionGift || entry.UserID != userID {
			continue
		}
		gifts = append(gifts, domain.SentGift{
			ToUser: m.users[*entry.RecipientID].Username,
			Amount: entry.Amount,
		})
	}
	return gifts, nil
}

func (m *memStore) ReceivedGifts(ctx context.Context, userID uint) ([]domain.ReceivedGift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	gifts := make([]domain.ReceivedGift, 0)
	for _, entry := range m.ledger {
		if entry.RecipientID == nil || *entry.RecipientID != userID {
			continue
		}
		gifts = append(gifts, domain.ReceivedGift{
			FromUser: m.users[entry.UserID].Username,
			Amount:   entry.Amount,
		})
	}
	return gifts, nil
}

func (m *memStore) FindByID(ctx context.Context, id uint) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *memStore) balance(id uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].Coins
}

func (m *memStore) quantity(userID, itemID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holdings[[2]uint{userID, itemID}]
}

func (m *memStore) ledgerLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ledger)
}

func newTestService(store *memStore) *StoreService {
	return NewStoreService(store, store)
}

func TestPurchase_BuySameItemTwice(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice", 1000)
	store.addItem(10, "hoody", 500)
	svc := newTestService(store)

	require.NoError(t, svc.Purchase(context.Background(), 1, "hoody"))
	assert.Equal(t, 500, store.balance(1))
	assert.Equal(t, 1, store.quantity(1, 10))
	assert.Equal(t, 1, store.ledgerLen())

	require.NoError(t, svc.Purchase(context.Background(), 1, "hoody"))
	assert.Equal(t, 0, store.balance(1))
	assert.Equal(t, 2, store.quantity(1, 10))
	assert.Equal(t, 2, store.ledgerLen())

	for _, entry := range store.ledger {
		assert.Equal(t, domain.TransactionPurchase, entry.Type)
		assert.Equal(t, 500, entry.Amount)
		require.NotNil(t, entry.ItemID)
		assert.Nil(t, entry.RecipientID)
	}
}

func TestPurchase_ItemNotFound(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice", 1000)
	svc := newTestService(store)

	err := svc.Purchase(context.Background(), 1, "jetpack")
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Equal(t, 1000, store.balance(1))
	assert.Equal(t, 0, store.ledgerLen())
}

func TestPurchase_InsufficientCoins(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice", 100)
	store.addItem(10, "hoody", 500)
	svc := newTestService(store)

	err := svc.Purchase(context.Background(), 1, "hoody")
	assert.ErrorIs(t, err, ErrInsufficientCoins)

	// The aborted transaction leaves no trace.
	assert.Equal(t, 100, store.balance(1))
	assert.Equal(t, 0, store.quantity(1, 10))
	assert.Equal(t, 0, store.ledgerLen())
}

func TestSendCoins_Conservation(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice", 1000)
	store.addUser(2, "bob", 1000)
	svc := newTestService(store)

	require.NoError(t, svc.SendCoins(context.Background(), 1, "bob", 350))

	assert.Equal(t, 650, store.balance(1))
	assert.Equal(t, 1350, store.balance(2))
	assert.Equal(t, 2000, store.balance(1)+store.balance(2))

	require.Equal(t, 1, store.ledgerLen())
	entry := store.ledger[0]
	assert.Equal(t, domain.TransactionGift, entry.Type)
	assert.Equal(t, 350, entry.Amount)
	assert.Equal(t, uint(1), entry.UserID)
	require.NotNil(t, entry.RecipientID)
	assert.Equal(t, uint(2), *entry.RecipientID)
	assert.Nil(t, entry.ItemID)
}

func TestSendCoins_InvalidAmount(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice", 1000)
	svc := newTestService(store)

	assert.ErrorIs(t, svc.SendCoins(context.Background(), 1, "bob", 0), ErrInvalidAmount)
	assert.ErrorIs(t, svc.SendCoins(context.Background(), 1, "bob", -10), ErrInvalidAmount)

	// Rejected before any transaction starts.
	assert.Equal(t, 0, store.txCount)
}

func TestSendCoins_RecipientNotFound(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice", 1000)
	svc := newTestService(store)

	err := svc.SendCoins(context.Background(), 1, "nobody", 100)
	assert.ErrorIs(t, err, ErrRecipientNotFound)
	assert.Equal(t, 1000, store.balance(1))
	assert.Equal(t, 0, store.ledgerLen())
}

func TestSendCoins_InsufficientCoins(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice", 0)
	store.addUser(2, "bob", 1000)
	svc := newTestService(store)

	err := svc.SendCoins(context.Background(), 1, "bob", 350)
	assert.ErrorIs(t, err, ErrInsufficientCoins)

	assert.Equal(t, 0, store.balance(1))
	assert.Equal(t, 1000, store.balance(2))
	assert.Equal(t, 0, store.ledgerLen())
}

func TestSendCoins_ToSelf(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice", 1000)
	svc := newTestService(store)

	require.NoError(t, svc.SendCoins(context.Background(), 1, "alice", 100))
	assert.Equal(t, 1000, store.balance(1))
	assert.Equal(t, 1, store.ledgerLen())
}

func TestConcurrentPurchases_NoLostUpdates(t *testing.T) {
	const workers = 20
	const cost = 50

	store := newMemStore()
	store.addUser(1, "alice", workers*cost)
	store.addItem(10, "pen", cost)
	svc := newTestService(store)

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Purchase(context.Background(), 1, "pen")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "purchase %d", i)
	}
	assert.Equal(t, 0, store.balance(1))
	assert.Equal(t, workers, store.quantity(1, 10))
	assert.Equal(t, workers, store.ledgerLen())
}

func TestConcurrentOppositeTransfers_Complete(t *testing.T) {
	const rounds = 50

	store := newMemStore()
	store.addUser(1, "alice", 10000)
	store.addUser(2, "bob", 10000)
	svc := newTestService(store)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_ = svc.SendCoins(context.Background(), 1, "bob", 10)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_ = svc.SendCoins(context.Background(), 2, "alice", 10)
		}
	}()
	wg.Wait()

	// Both directions complete and coins are conserved.
	assert.Equal(t, 20000, store.balance(1)+store.balance(2))
	assert.GreaterOrEqual(t, store.balance(1), 0)
	assert.GreaterOrEqual(t, store.balance(2), 0)
}

func TestGetSummary(t *testing.T) {
	store := newMemStore()
	store.addUser(1, "alice", 1000)
	store.addUser(2, "bob", 1000)
	store.addItem(10, "cup", 20)
	svc := newTestService(store)

	require.NoError(t, svc.Purchase(context.Background(), 1, "cup"))
	require.NoError(t, svc.Purchase(context.Background(), 1, "cup"))
	require.NoError(t, svc.SendCoins(context.Background(), 1, "bob", 100))
	require.NoError(t, svc.SendCoins(context.Background(), 2, "alice", 40))

	summary, err := svc.GetSummary(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1000-2*20-100+40, summary.Coins)
	require.Len(t, summary.Inventory, 2)
	assert.Equal(t, "cup", summary.Inventory[0].Type)

	require.Len(t, summary.CoinHistory.Sent, 1)
	assert.Equal(t, domain.SentGift{ToUser: "bob", Amount: 100}, summary.CoinHistory.Sent[0])

	require.Len(t, summary.CoinHistory.Received, 1)
	assert.Equal(t, domain.ReceivedGift{FromUser: "bob", Amount: 40}, summary.CoinHistory.Received[0])
}
