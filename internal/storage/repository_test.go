package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bankx/internal/core"
	"bankx/internal/ledger"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "bankx.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestOnboardAndResolve(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Onboard(ctx, "Alice")
	if err != nil {
		t.Fatalf("onboard: %v", err)
	}

	loaded, err := repo.Customer(ctx, created.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if loaded.Name != "Alice" || len(loaded.Accounts) != 2 {
		t.Fatalf("unexpected customer: %+v", loaded)
	}
	sav, err := loaded.AccountByType(core.Savings)
	if err != nil {
		t.Fatal(err)
	}
	if sav.Balance != core.SignupBonus {
		t.Errorf("savings = %s, want %s", sav.Balance, core.SignupBonus)
	}
	cur, err := loaded.AccountByType(core.Current)
	if err != nil {
		t.Fatal(err)
	}
	if !cur.Balance.IsZero() {
		t.Errorf("current = %s, want 0.00", cur.Balance)
	}
}

func TestCustomerNotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Customer(context.Background(), 42); !errors.Is(err, core.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestAtomicUnitCommitsAllOrNothing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	c, _ := repo.Onboard(ctx, "Alice")
	cur, _ := c.AccountByType(core.Current)
	sav, _ := c.AccountByType(core.Savings)

	// Failing unit: credit current, then force an insufficient debit on it.
	err := repo.Atomically(ctx, []int64{cur.ID, sav.ID}, func(tx ledger.Tx) error {
		if _, err := tx.ApplyDelta(ctx, cur.ID, core.Money{Cents: 500}); err != nil {
			return err
		}
		if _, err := tx.AppendTransaction(ctx, core.Transaction{CustomerID: c.ID, Label: core.LabelDeposit, Amount: core.Money{Cents: 500}}); err != nil {
			return err
		}
		_, err := tx.ApplyDelta(ctx, cur.ID, core.Money{Cents: -10000})
		return err
	})
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	after, _ := repo.Customer(ctx, c.ID)
	got, _ := after.AccountByType(core.Current)
	if !got.Balance.IsZero() {
		t.Errorf("aborted unit leaked balance: %s", got.Balance)
	}
	txs, err := repo.Transactions(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 0 {
		t.Errorf("aborted unit leaked %d transactions", len(txs))
	}
}

func TestAtomicUnitPersistsRecords(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	c, _ := repo.Onboard(ctx, "Alice")
	cur, _ := c.AccountByType(core.Current)

	var note core.Notification
	err := repo.Atomically(ctx, []int64{cur.ID}, func(tx ledger.Tx) error {
		if _, err := tx.ApplyDelta(ctx, cur.ID, core.Money{Cents: 12345}); err != nil {
			return err
		}
		if _, err := tx.AppendTransaction(ctx, core.Transaction{
			CustomerID: c.ID, Label: core.LabelDeposit, Amount: core.Money{Cents: 12345},
		}); err != nil {
			return err
		}
		var err error
		note, err = tx.AppendNotification(ctx, core.Notification{
			CustomerID: c.ID, Message: "Deposited 123.45 to your Current Account",
		})
		return err
	})
	if err != nil {
		t.Fatalf("unit: %v", err)
	}
	if note.ID == 0 {
		t.Error("notification id not assigned")
	}

	txs, _ := repo.Transactions(ctx, c.ID)
	if len(txs) != 1 || txs[0].Amount.Cents != 12345 || txs[0].Label != core.LabelDeposit {
		t.Errorf("unexpected transactions: %+v", txs)
	}
	notes, _ := repo.Notifications(ctx, c.ID)
	if len(notes) != 1 || notes[0].ID != note.ID {
		t.Errorf("unexpected notifications: %+v", notes)
	}
}

func TestPendingNotificationsAndDelivery(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	c, _ := repo.Onboard(ctx, "Alice")
	cur, _ := c.AccountByType(core.Current)

	for i := 0; i < 3; i++ {
		err := repo.Atomically(ctx, []int64{cur.ID}, func(tx ledger.Tx) error {
			_, err := tx.AppendNotification(ctx, core.Notification{CustomerID: c.ID, Message: "hello"})
			return err
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	pending, err := repo.PendingNotifications(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(pending))
	}

	if err := repo.MarkNotificationDelivered(ctx, pending[0].ID); err != nil {
		t.Fatal(err)
	}
	pending, err = repo.PendingNotifications(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Errorf("pending after delivery = %d, want 2", len(pending))
	}
}

func TestDeleteCustomerCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	c, _ := repo.Onboard(ctx, "Alice")
	cur, _ := c.AccountByType(core.Current)
	_ = repo.Atomically(ctx, []int64{cur.ID}, func(tx ledger.Tx) error {
		if _, err := tx.AppendTransaction(ctx, core.Transaction{CustomerID: c.ID, Label: core.LabelDeposit}); err != nil {
			return err
		}
		_, err := tx.AppendNotification(ctx, core.Notification{CustomerID: c.ID, Message: "hi"})
		return err
	})

	if err := repo.DeleteCustomer(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Customer(ctx, c.ID); !errors.Is(err, core.ErrCustomerNotFound) {
		t.Errorf("customer should be gone, got %v", err)
	}
	txs, _ := repo.Transactions(ctx, c.ID)
	notes, _ := repo.Notifications(ctx, c.ID)
	if len(txs) != 0 || len(notes) != 0 {
		t.Errorf("history not purged: %d transactions, %d notifications", len(txs), len(notes))
	}
	if err := repo.DeleteCustomer(ctx, c.ID); !errors.Is(err, core.ErrCustomerNotFound) {
		t.Errorf("double delete: expected ErrCustomerNotFound, got %v", err)
	}
}

func TestEngineOverSQLite(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	e := ledger.NewEngine(repo, repo, repo, nil)

	alice, err := e.Onboard(ctx, "Alice")
	if err != nil {
		t.Fatal(err)
	}
	bob, err := e.Onboard(ctx, "Bob")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Deposit(ctx, alice.ID, core.Money{Cents: 100000}); err != nil {
		t.Fatal(err)
	}
	pay, err := e.Pay(ctx, alice.ID, core.Money{Cents: 10000})
	if err != nil {
		t.Fatal(err)
	}
	if pay.CurrentBalance.Cents != 89995 {
		t.Errorf("balance after pay = %s, want 899.95", pay.CurrentBalance)
	}
	tr, err := e.TransferToCustomer(ctx, alice.ID, bob.ID, core.Money{Cents: 5000})
	if err != nil {
		t.Fatal(err)
	}
	if tr.SenderBalance.Cents != 84992 { // 899.95 - 50.00 - 0.03
		t.Errorf("sender balance = %s, want 849.92", tr.SenderBalance)
	}
	bobTxs, err := e.Transactions(ctx, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(bobTxs) != 1 || bobTxs[0].Label != "Received from Alice" {
		t.Errorf("receiver history: %+v", bobTxs)
	}
}
