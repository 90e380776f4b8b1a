package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bankx/internal/core"
	"bankx/internal/ledger"
	"bankx/internal/memory"
)

type capturePublisher struct {
	mu       sync.Mutex
	messages []core.Notification
}

func (p *capturePublisher) PublishNotification(_ context.Context, n core.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, n)
	return nil
}

func newEngine(t *testing.T) (*ledger.Engine, *memory.Store, *capturePublisher) {
	t.Helper()
	store := memory.NewStore()
	pub := &capturePublisher{}
	return ledger.NewEngine(store, store, store, pub), store, pub
}

func currentBalance(t *testing.T, store *memory.Store, customerID int64) core.Money {
	t.Helper()
	c, err := store.Customer(context.Background(), customerID)
	if err != nil {
		t.Fatalf("customer %d: %v", customerID, err)
	}
	a, err := c.AccountByType(core.Current)
	if err != nil {
		t.Fatal(err)
	}
	return a.Balance
}

func savingsBalance(t *testing.T, store *memory.Store, customerID int64) core.Money {
	t.Helper()
	c, err := store.Customer(context.Background(), customerID)
	if err != nil {
		t.Fatalf("customer %d: %v", customerID, err)
	}
	a, err := c.AccountByType(core.Savings)
	if err != nil {
		t.Fatal(err)
	}
	return a.Balance
}

func TestOnboardFundsSavingsBonus(t *testing.T) {
	e, store, _ := newEngine(t)
	ctx := context.Background()

	c, err := e.Onboard(ctx, "Alice")
	if err != nil {
		t.Fatalf("onboard: %v", err)
	}
	if got := savingsBalance(t, store, c.ID); got.Cents != 50000 {
		t.Errorf("savings = %s, want 500.00", got)
	}
	if got := currentBalance(t, store, c.ID); !got.IsZero() {
		t.Errorf("current = %s, want 0.00", got)
	}
}

func TestPayDebitsAmountPlusFee(t *testing.T) {
	e, store, pub := newEngine(t)
	ctx := context.Background()
	c, _ := e.Onboard(ctx, "Alice")
	if _, err := e.Deposit(ctx, c.ID, core.Money{Cents: 100000}); err != nil {
		t.Fatalf("seed deposit: %v", err)
	}

	r, err := e.Pay(ctx, c.ID, core.Money{Cents: 10000})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if r.Fee.Cents != 5 {
		t.Errorf("fee = %s, want 0.05", r.Fee)
	}
	if r.CurrentBalance.Cents != 89995 {
		t.Errorf("balance = %s, want 899.95", r.CurrentBalance)
	}
	if got := currentBalance(t, store, c.ID); got.Cents != 89995 {
		t.Errorf("stored balance = %s, want 899.95", got)
	}

	txs, err := e.Transactions(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	// Seed deposit plus the payment.
	if len(txs) != 2 {
		t.Fatalf("transactions = %d, want 2", len(txs))
	}
	last := txs[1]
	if last.Label != core.LabelPayment || last.Amount.Cents != 10000 || last.Fee.Cents != 5 {
		t.Errorf("unexpected transaction: %+v", last)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.messages) != 2 {
		t.Errorf("published notifications = %d, want 2", len(pub.messages))
	}
}

func TestPayInsufficientFundsLeavesNoTrace(t *testing.T) {
	e, store, _ := newEngine(t)
	ctx := context.Background()
	c, _ := e.Onboard(ctx, "Alice")
	if _, err := e.Deposit(ctx, c.ID, core.Money{Cents: 1000}); err != nil {
		t.Fatal(err)
	}

	_, err := e.Pay(ctx, c.ID, core.Money{Cents: 10000})
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := currentBalance(t, store, c.ID); got.Cents != 1000 {
		t.Errorf("balance changed on failure: %s", got)
	}
	txs, _ := e.Transactions(ctx, c.ID)
	if len(txs) != 1 { // only the seed deposit
		t.Errorf("failed payment must not record a transaction, got %d", len(txs))
	}
}

func TestPayExactBalanceDrainsToZero(t *testing.T) {
	e, store, _ := newEngine(t)
	ctx := context.Background()
	c, _ := e.Onboard(ctx, "Alice")
	// 100.00 + 0.05 fee = exactly the seeded balance.
	if _, err := e.Deposit(ctx, c.ID, core.Money{Cents: 10005}); err != nil {
		t.Fatal(err)
	}

	r, err := e.Pay(ctx, c.ID, core.Money{Cents: 10000})
	if err != nil {
		t.Fatalf("pay with exact balance must succeed: %v", err)
	}
	if !r.CurrentBalance.IsZero() {
		t.Errorf("balance = %s, want 0.00", r.CurrentBalance)
	}
	if got := currentBalance(t, store, c.ID); !got.IsZero() {
		t.Errorf("stored balance = %s, want 0.00", got)
	}
}

func TestTransferToSavingsCreditsInterest(t *testing.T) {
	e, store, _ := newEngine(t)
	ctx := context.Background()
	c, _ := e.Onboard(ctx, "Alice")
	if _, err := e.Deposit(ctx, c.ID, core.Money{Cents: 20000}); err != nil {
		t.Fatal(err)
	}

	r, err := e.TransferToSavings(ctx, c.ID, core.Money{Cents: 10000})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if r.Interest.Cents != 50 {
		t.Errorf("interest = %s, want 0.50", r.Interest)
	}
	if r.SavingsBalance.Cents != 60050 {
		t.Errorf("savings = %s, want 600.50", r.SavingsBalance)
	}
	if got := currentBalance(t, store, c.ID); got.Cents != 10000 {
		t.Errorf("current = %s, want 100.00", got)
	}

	txs, _ := e.Transactions(ctx, c.ID)
	last := txs[len(txs)-1]
	if last.Label != core.LabelTransferToSavings || last.Amount.Cents != 10050 || !last.Fee.IsZero() {
		t.Errorf("unexpected transaction: %+v", last)
	}
}

func TestTransferToSavingsInsufficient(t *testing.T) {
	e, store, _ := newEngine(t)
	ctx := context.Background()
	c, _ := e.Onboard(ctx, "Alice")

	_, err := e.TransferToSavings(ctx, c.ID, core.Money{Cents: 100})
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := savingsBalance(t, store, c.ID); got != core.SignupBonus {
		t.Errorf("savings must be untouched, got %s", got)
	}
}

func TestTransferToCustomer(t *testing.T) {
	e, store, _ := newEngine(t)
	ctx := context.Background()
	alice, _ := e.Onboard(ctx, "Alice")
	bob, _ := e.Onboard(ctx, "Bob")
	if _, err := e.Deposit(ctx, alice.ID, core.Money{Cents: 10000}); err != nil {
		t.Fatal(err)
	}

	r, err := e.TransferToCustomer(ctx, alice.ID, bob.ID, core.Money{Cents: 5000})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	// Fee on 50.00 is 0.025, rounded half-up to 0.03.
	if r.Fee.Cents != 3 {
		t.Errorf("fee = %s, want 0.03", r.Fee)
	}
	if r.SenderBalance.Cents != 4997 {
		t.Errorf("sender balance = %s, want 49.97", r.SenderBalance)
	}
	if got := currentBalance(t, store, bob.ID); got.Cents != 5000 {
		t.Errorf("receiver balance = %s, want 50.00", got)
	}

	aliceTxs, _ := e.Transactions(ctx, alice.ID)
	bobTxs, _ := e.Transactions(ctx, bob.ID)
	if got := aliceTxs[len(aliceTxs)-1]; got.Label != "Transfer to Bob" || got.Fee.Cents != 3 {
		t.Errorf("sender transaction: %+v", got)
	}
	if len(bobTxs) != 1 || bobTxs[0].Label != "Received from Alice" || !bobTxs[0].Fee.IsZero() {
		t.Errorf("receiver transactions: %+v", bobTxs)
	}

	aliceNotes, _ := e.Notifications(ctx, alice.ID)
	bobNotes, _ := e.Notifications(ctx, bob.ID)
	if len(aliceNotes) != 2 || len(bobNotes) != 1 {
		t.Errorf("notifications: sender %d, receiver %d", len(aliceNotes), len(bobNotes))
	}
}

func TestTransferToCustomerShortfall(t *testing.T) {
	e, store, _ := newEngine(t)
	ctx := context.Background()
	alice, _ := e.Onboard(ctx, "Alice")
	bob, _ := e.Onboard(ctx, "Bob")
	if _, err := e.Deposit(ctx, alice.ID, core.Money{Cents: 5000}); err != nil {
		t.Fatal(err)
	}

	// 50.00 + 0.03 fee exceeds the 50.00 balance.
	_, err := e.TransferToCustomer(ctx, alice.ID, bob.ID, core.Money{Cents: 5000})
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := currentBalance(t, store, alice.ID); got.Cents != 5000 {
		t.Errorf("sender must be untouched, got %s", got)
	}
	if got := currentBalance(t, store, bob.ID); !got.IsZero() {
		t.Errorf("receiver must be untouched, got %s", got)
	}
	bobTxs, _ := e.Transactions(ctx, bob.ID)
	if len(bobTxs) != 0 {
		t.Errorf("no records on failure, got %d", len(bobTxs))
	}
}

func TestTransferToUnknownCustomer(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	alice, _ := e.Onboard(ctx, "Alice")

	if _, err := e.TransferToCustomer(ctx, alice.ID, 999, core.Money{Cents: 100}); !errors.Is(err, core.ErrCustomerNotFound) {
		t.Errorf("unknown receiver: expected ErrCustomerNotFound, got %v", err)
	}
	if _, err := e.TransferToCustomer(ctx, 999, alice.ID, core.Money{Cents: 100}); !errors.Is(err, core.ErrCustomerNotFound) {
		t.Errorf("unknown sender: expected ErrCustomerNotFound, got %v", err)
	}
}

func TestTransferToSelfRejected(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	alice, _ := e.Onboard(ctx, "Alice")

	if _, err := e.TransferToCustomer(ctx, alice.ID, alice.ID, core.Money{Cents: 100}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestNonPositiveAmountsRejected(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	c, _ := e.Onboard(ctx, "Alice")

	for name, op := range map[string]func() error{
		"pay": func() error {
			_, err := e.Pay(ctx, c.ID, core.Money{})
			return err
		},
		"deposit": func() error {
			_, err := e.Deposit(ctx, c.ID, core.Money{Cents: -100})
			return err
		},
		"transfer to savings": func() error {
			_, err := e.TransferToSavings(ctx, c.ID, core.Money{})
			return err
		},
	} {
		if err := op(); !errors.Is(err, core.ErrInvalidAmount) {
			t.Errorf("%s: expected ErrInvalidAmount, got %v", name, err)
		}
	}
}

func TestApplyInterest(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	c, _ := e.Onboard(ctx, "Alice")

	r, err := e.ApplyInterest(ctx, c.ID)
	if err != nil {
		t.Fatalf("apply interest: %v", err)
	}
	// 0.5% of the 500.00 bonus.
	if r.Interest.Cents != 250 {
		t.Errorf("interest = %s, want 2.50", r.Interest)
	}
	if r.SavingsBalance.Cents != 50250 {
		t.Errorf("savings = %s, want 502.50", r.SavingsBalance)
	}

	if _, err := e.ApplyInterest(ctx, 999); !errors.Is(err, core.ErrCustomerNotFound) {
		t.Errorf("unknown customer: expected ErrCustomerNotFound, got %v", err)
	}
}

func TestQueriesOnUnknownCustomer(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()

	if _, err := e.Transactions(ctx, 7); !errors.Is(err, core.ErrCustomerNotFound) {
		t.Errorf("transactions: got %v", err)
	}
	if _, err := e.Notifications(ctx, 7); !errors.Is(err, core.ErrCustomerNotFound) {
		t.Errorf("notifications: got %v", err)
	}
}

func TestQueriesAreIdempotent(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	c, _ := e.Onboard(ctx, "Alice")
	for i := 0; i < 3; i++ {
		if _, err := e.Deposit(ctx, c.ID, core.Money{Cents: 100}); err != nil {
			t.Fatal(err)
		}
	}

	first, err := e.Transactions(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Transactions(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("lengths: %d, %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("entry %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestConcurrentDeposits(t *testing.T) {
	e, store, _ := newEngine(t)
	ctx := context.Background()
	c, _ := e.Onboard(ctx, "Alice")

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := e.Deposit(ctx, c.ID, core.Money{Cents: 100}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("deposit failed: %v", err)
	}

	if got := currentBalance(t, store, c.ID); got.Cents != n*100 {
		t.Errorf("balance = %s, want %d.00", got, n)
	}
	txs, _ := e.Transactions(ctx, c.ID)
	if len(txs) != n {
		t.Errorf("transactions = %d, want %d", len(txs), n)
	}
}

func TestDeleteCustomer(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	c, _ := e.Onboard(ctx, "Alice")

	if err := e.DeleteCustomer(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := e.Transactions(ctx, c.ID); !errors.Is(err, core.ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound after purge, got %v", err)
	}
	if err := e.DeleteCustomer(ctx, c.ID); !errors.Is(err, core.ErrCustomerNotFound) {
		t.Errorf("double delete: expected ErrCustomerNotFound, got %v", err)
	}
}

// A run of mixed operations never drives any balance negative and every
// balance stays consistent with the recorded history count.
func TestMixedOperationsKeepBalancesNonNegative(t *testing.T) {
	e, store, _ := newEngine(t)
	ctx := context.Background()
	alice, _ := e.Onboard(ctx, "Alice")
	bob, _ := e.Onboard(ctx, "Bob")
	if _, err := e.Deposit(ctx, alice.ID, core.Money{Cents: 50000}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	ops := []func(){
		func() { _, _ = e.Pay(ctx, alice.ID, core.Money{Cents: 700}) },
		func() { _, _ = e.TransferToSavings(ctx, alice.ID, core.Money{Cents: 900}) },
		func() { _, _ = e.TransferToCustomer(ctx, alice.ID, bob.ID, core.Money{Cents: 1100}) },
		func() { _, _ = e.Deposit(ctx, bob.ID, core.Money{Cents: 300}) },
		func() { _, _ = e.TransferToCustomer(ctx, bob.ID, alice.ID, core.Money{Cents: 500}) },
	}
	for round := 0; round < 20; round++ {
		for _, op := range ops {
			wg.Add(1)
			go func(op func()) {
				defer wg.Done()
				op()
			}(op)
		}
	}
	wg.Wait()

	for _, id := range []int64{alice.ID, bob.ID} {
		c, err := store.Customer(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		for _, a := range c.Accounts {
			if a.Balance.IsNegative() {
				t.Errorf("customer %d %s balance went negative: %s", id, a.Type, a.Balance)
			}
		}
	}
}
