// Package memory provides the in-memory ledger store. It implements the
// full ledger.Store contract with per-account mutexes: an atomic unit locks
// the accounts it touches in ascending id order, stages its writes, and
// commits them only when the unit succeeds.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"bankx/internal/core"
	"bankx/internal/ledger"
)

type account struct {
	mu      sync.Mutex
	id      int64
	balance core.Money
}

// Store holds all ledger state in process memory.
//
// Lock order: account mutexes are always taken in ascending account id, and
// the store mutex is never held while waiting on an account mutex.
type Store struct {
	mu            sync.Mutex
	customers     map[int64]customerRecord
	accounts      map[int64]*account
	transactions  map[int64][]core.Transaction
	notifications map[int64][]core.Notification

	nextCustomerID     int64
	nextAccountID      int64
	nextTransactionID  int64
	nextNotificationID int64
}

type customerRecord struct {
	id       int64
	name     string
	savings  *account
	current  *account
}

func NewStore() *Store {
	return &Store{
		customers:     make(map[int64]customerRecord),
		accounts:      make(map[int64]*account),
		transactions:  make(map[int64][]core.Transaction),
		notifications: make(map[int64][]core.Notification),
	}
}

var _ ledger.Store = (*Store)(nil)

// Onboard creates the customer and both accounts as one step under the
// store lock.
func (s *Store) Onboard(_ context.Context, name string) (core.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCustomerID++
	id := s.nextCustomerID

	savings := &account{id: s.newAccountID(), balance: core.SignupBonus}
	current := &account{id: s.newAccountID()}
	s.accounts[savings.id] = savings
	s.accounts[current.id] = current
	s.customers[id] = customerRecord{id: id, name: name, savings: savings, current: current}

	return core.Customer{
		ID:   id,
		Name: name,
		Accounts: []core.Account{
			{ID: savings.id, CustomerID: id, Type: core.Savings, Balance: savings.balance},
			{ID: current.id, CustomerID: id, Type: core.Current, Balance: current.balance},
		},
	}, nil
}

// newAccountID is called with s.mu held.
func (s *Store) newAccountID() int64 {
	s.nextAccountID++
	return s.nextAccountID
}

// Customer returns a snapshot of the customer and both account balances.
func (s *Store) Customer(_ context.Context, id int64) (core.Customer, error) {
	s.mu.Lock()
	rec, ok := s.customers[id]
	s.mu.Unlock()
	if !ok {
		return core.Customer{}, fmt.Errorf("customer %d: %w", id, core.ErrCustomerNotFound)
	}

	// Balances are read under the account locks, outside the store lock.
	return core.Customer{
		ID:   rec.id,
		Name: rec.name,
		Accounts: []core.Account{
			{ID: rec.savings.id, CustomerID: rec.id, Type: core.Savings, Balance: rec.savings.snapshot()},
			{ID: rec.current.id, CustomerID: rec.id, Type: core.Current, Balance: rec.current.snapshot()},
		},
	}, nil
}

func (a *account) snapshot() core.Money {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// DeleteCustomer purges the customer, its accounts and its history.
func (s *Store) DeleteCustomer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.customers[id]
	if !ok {
		return fmt.Errorf("customer %d: %w", id, core.ErrCustomerNotFound)
	}
	delete(s.accounts, rec.savings.id)
	delete(s.accounts, rec.current.id)
	delete(s.transactions, id)
	delete(s.notifications, id)
	delete(s.customers, id)
	return nil
}

// Transactions returns the customer's audit records in insertion order.
func (s *Store) Transactions(_ context.Context, customerID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.transactions[customerID]))
	copy(out, s.transactions[customerID])
	return out, nil
}

// Notifications returns the customer's notifications in insertion order.
func (s *Store) Notifications(_ context.Context, customerID int64) ([]core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Notification, len(s.notifications[customerID]))
	copy(out, s.notifications[customerID])
	return out, nil
}

// Atomically locks the named accounts in ascending id order, runs fn with a
// staging transaction, and commits the staged writes only if fn succeeds.
func (s *Store) Atomically(_ context.Context, accountIDs []int64, fn func(tx ledger.Tx) error) error {
	ids := sortedUnique(accountIDs)

	s.mu.Lock()
	locked := make([]*account, 0, len(ids))
	for _, id := range ids {
		a, ok := s.accounts[id]
		if !ok {
			s.mu.Unlock()
			return fmt.Errorf("account %d: %w", id, core.ErrAccountNotFound)
		}
		locked = append(locked, a)
	}
	s.mu.Unlock()

	// Ascending id order avoids deadlock between concurrent two-account
	// transfers.
	for _, a := range locked {
		a.mu.Lock()
	}
	defer func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].mu.Unlock()
		}
	}()

	tx := &memTx{
		store:    s,
		accounts: make(map[int64]*account, len(locked)),
		deltas:   make(map[int64]core.Money, len(locked)),
	}
	for _, a := range locked {
		tx.accounts[a.id] = a
	}

	if err := fn(tx); err != nil {
		return err
	}

	// Commit: balances under the held account locks, history under the
	// store lock.
	for id, delta := range tx.deltas {
		tx.accounts[id].balance = tx.accounts[id].balance.Add(delta)
	}
	s.mu.Lock()
	for _, t := range tx.transactions {
		s.transactions[t.CustomerID] = append(s.transactions[t.CustomerID], t)
	}
	for _, n := range tx.notifications {
		s.notifications[n.CustomerID] = append(s.notifications[n.CustomerID], n)
	}
	s.mu.Unlock()
	return nil
}

// memTx stages deltas and records for one atomic unit. The accounts it may
// touch are locked for the whole unit.
type memTx struct {
	store         *Store
	accounts      map[int64]*account
	deltas        map[int64]core.Money
	transactions  []core.Transaction
	notifications []core.Notification
}

func (tx *memTx) Balance(_ context.Context, accountID int64) (core.Money, error) {
	a, ok := tx.accounts[accountID]
	if !ok {
		return core.Money{}, fmt.Errorf("account %d not part of this unit: %w", accountID, core.ErrAccountNotFound)
	}
	return a.balance.Add(tx.deltas[accountID]), nil
}

func (tx *memTx) ApplyDelta(ctx context.Context, accountID int64, delta core.Money) (core.Money, error) {
	balance, err := tx.Balance(ctx, accountID)
	if err != nil {
		return core.Money{}, err
	}
	next := balance.Add(delta)
	if next.IsNegative() {
		return core.Money{}, fmt.Errorf("account %d holds %s, delta %s: %w",
			accountID, balance, delta, core.ErrInsufficientFunds)
	}
	tx.deltas[accountID] = tx.deltas[accountID].Add(delta)
	return next, nil
}

func (tx *memTx) AppendTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = atomic.AddInt64(&tx.store.nextTransactionID, 1)
	tx.transactions = append(tx.transactions, t)
	return t, nil
}

func (tx *memTx) AppendNotification(_ context.Context, n core.Notification) (core.Notification, error) {
	n.ID = atomic.AddInt64(&tx.store.nextNotificationID, 1)
	tx.notifications = append(tx.notifications, n)
	return n, nil
}

func sortedUnique(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, id := range out {
		if i == 0 || id != out[i-1] {
			out[n] = id
			n++
		}
	}
	return out[:n]
}
