package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bankx/internal/core"
)

// Engine orchestrates the money-movement operations. Collaborators are
// supplied explicitly at construction; publisher may be nil.
type Engine struct {
	directory Directory
	accounts  Accounts
	history   History
	publisher NotificationPublisher
}

func NewEngine(directory Directory, accounts Accounts, history History, publisher NotificationPublisher) *Engine {
	return &Engine{
		directory: directory,
		accounts:  accounts,
		history:   history,
		publisher: publisher,
	}
}

// Onboard creates a customer with a bonus-funded Savings account and an
// empty Current account.
func (e *Engine) Onboard(ctx context.Context, name string) (core.Customer, error) {
	customer, err := e.directory.Onboard(ctx, name)
	if err != nil {
		return core.Customer{}, fmt.Errorf("onboard customer: %w", err)
	}

	slog.InfoContext(ctx, "Customer onboarded",
		"customer_id", customer.ID,
		"customer_name", customer.Name)

	return customer, nil
}

// Pay debits amount plus the 0.05% fee from the customer's Current account
// for an external payment.
func (e *Engine) Pay(ctx context.Context, customerID int64, amount core.Money) (PaymentReceipt, error) {
	if !amount.IsPositive() {
		return PaymentReceipt{}, fmt.Errorf("payment amount %s: %w", amount, core.ErrInvalidAmount)
	}

	customer, err := e.directory.Customer(ctx, customerID)
	if err != nil {
		return PaymentReceipt{}, err
	}
	current, err := customer.AccountByType(core.Current)
	if err != nil {
		return PaymentReceipt{}, err
	}

	fee := core.FeeOn(amount)
	total := amount.Add(fee)
	now := time.Now()

	var (
		newBalance core.Money
		committed  []core.Notification
	)
	err = e.accounts.Atomically(ctx, []int64{current.ID}, func(tx Tx) error {
		balance, err := tx.Balance(ctx, current.ID)
		if err != nil {
			return err
		}
		if balance.Less(total) {
			return fmt.Errorf("current account of customer %d holds %s, payment requires %s: %w",
				customer.ID, balance, total, core.ErrInsufficientFunds)
		}
		if newBalance, err = tx.ApplyDelta(ctx, current.ID, total.Neg()); err != nil {
			return err
		}
		if _, err := tx.AppendTransaction(ctx, core.Transaction{
			CustomerID: customer.ID,
			Label:      core.LabelPayment,
			Amount:     amount,
			Fee:        fee,
			Timestamp:  now,
		}); err != nil {
			return err
		}
		n, err := tx.AppendNotification(ctx, core.Notification{
			CustomerID: customer.ID,
			Message:    fmt.Sprintf("Payment of %s processed with fee: %s", amount, fee),
			Timestamp:  now,
		})
		if err != nil {
			return err
		}
		committed = append(committed, n)
		return nil
	})
	if err != nil {
		return PaymentReceipt{}, err
	}

	e.publish(ctx, committed)

	slog.InfoContext(ctx, "Payment made",
		"customer_id", customer.ID,
		"amount_cents", amount.Cents,
		"fee_cents", fee.Cents)

	return PaymentReceipt{
		CustomerID:     customer.ID,
		Amount:         amount,
		Fee:            fee,
		CurrentBalance: newBalance,
	}, nil
}

// Deposit credits amount to the customer's Current account.
func (e *Engine) Deposit(ctx context.Context, customerID int64, amount core.Money) (DepositReceipt, error) {
	if !amount.IsPositive() {
		return DepositReceipt{}, fmt.Errorf("deposit amount %s: %w", amount, core.ErrInvalidAmount)
	}

	customer, err := e.directory.Customer(ctx, customerID)
	if err != nil {
		return DepositReceipt{}, err
	}
	current, err := customer.AccountByType(core.Current)
	if err != nil {
		return DepositReceipt{}, err
	}

	now := time.Now()

	var (
		newBalance core.Money
		committed  []core.Notification
	)
	err = e.accounts.Atomically(ctx, []int64{current.ID}, func(tx Tx) error {
		var err error
		if newBalance, err = tx.ApplyDelta(ctx, current.ID, amount); err != nil {
			return err
		}
		if _, err := tx.AppendTransaction(ctx, core.Transaction{
			CustomerID: customer.ID,
			Label:      core.LabelDeposit,
			Amount:     amount,
			Timestamp:  now,
		}); err != nil {
			return err
		}
		n, err := tx.AppendNotification(ctx, core.Notification{
			CustomerID: customer.ID,
			Message:    fmt.Sprintf("Deposited %s to your Current Account", amount),
			Timestamp:  now,
		})
		if err != nil {
			return err
		}
		committed = append(committed, n)
		return nil
	})
	if err != nil {
		return DepositReceipt{}, err
	}

	e.publish(ctx, committed)

	slog.InfoContext(ctx, "Deposit made",
		"customer_id", customer.ID,
		"amount_cents", amount.Cents)

	return DepositReceipt{
		CustomerID:     customer.ID,
		Amount:         amount,
		CurrentBalance: newBalance,
	}, nil
}

// TransferToSavings moves amount from Current to Savings and credits 0.5%
// interest on top, as one atomic unit over both accounts.
func (e *Engine) TransferToSavings(ctx context.Context, customerID int64, amount core.Money) (SavingsTransferReceipt, error) {
	if !amount.IsPositive() {
		return SavingsTransferReceipt{}, fmt.Errorf("transfer amount %s: %w", amount, core.ErrInvalidAmount)
	}

	customer, err := e.directory.Customer(ctx, customerID)
	if err != nil {
		return SavingsTransferReceipt{}, err
	}
	current, err := customer.AccountByType(core.Current)
	if err != nil {
		return SavingsTransferReceipt{}, err
	}
	savings, err := customer.AccountByType(core.Savings)
	if err != nil {
		return SavingsTransferReceipt{}, err
	}

	interest := core.InterestOn(amount)
	credited := amount.Add(interest)
	now := time.Now()

	var (
		savingsBalance core.Money
		committed      []core.Notification
	)
	err = e.accounts.Atomically(ctx, []int64{current.ID, savings.ID}, func(tx Tx) error {
		balance, err := tx.Balance(ctx, current.ID)
		if err != nil {
			return err
		}
		if balance.Less(amount) {
			return fmt.Errorf("current account of customer %d holds %s, transfer requires %s: %w",
				customer.ID, balance, amount, core.ErrInsufficientFunds)
		}
		if _, err := tx.ApplyDelta(ctx, current.ID, amount.Neg()); err != nil {
			return err
		}
		if savingsBalance, err = tx.ApplyDelta(ctx, savings.ID, credited); err != nil {
			return err
		}
		if _, err := tx.AppendTransaction(ctx, core.Transaction{
			CustomerID: customer.ID,
			Label:      core.LabelTransferToSavings,
			Amount:     credited,
			Timestamp:  now,
		}); err != nil {
			return err
		}
		n, err := tx.AppendNotification(ctx, core.Notification{
			CustomerID: customer.ID,
			Message: fmt.Sprintf("Transferred %s to Savings Account with 0.5%% interest. Total credited: %s",
				amount, credited),
			Timestamp: now,
		})
		if err != nil {
			return err
		}
		committed = append(committed, n)
		return nil
	})
	if err != nil {
		return SavingsTransferReceipt{}, err
	}

	e.publish(ctx, committed)

	slog.InfoContext(ctx, "Transfer to savings made",
		"customer_id", customer.ID,
		"amount_cents", amount.Cents,
		"interest_cents", interest.Cents)

	return SavingsTransferReceipt{
		CustomerID:     customer.ID,
		Amount:         amount,
		Interest:       interest,
		Credited:       credited,
		SavingsBalance: savingsBalance,
	}, nil
}

// TransferToCustomer moves amount between two customers' Current accounts,
// debiting the sender amount plus the 0.05% fee. Both sides commit together
// or not at all.
func (e *Engine) TransferToCustomer(ctx context.Context, senderID, receiverID int64, amount core.Money) (CustomerTransferReceipt, error) {
	if !amount.IsPositive() {
		return CustomerTransferReceipt{}, fmt.Errorf("transfer amount %s: %w", amount, core.ErrInvalidAmount)
	}
	if senderID == receiverID {
		return CustomerTransferReceipt{}, fmt.Errorf("transfer to self: %w", core.ErrInvalidAmount)
	}

	sender, err := e.directory.Customer(ctx, senderID)
	if err != nil {
		return CustomerTransferReceipt{}, err
	}
	receiver, err := e.directory.Customer(ctx, receiverID)
	if err != nil {
		return CustomerTransferReceipt{}, err
	}
	senderCurrent, err := sender.AccountByType(core.Current)
	if err != nil {
		return CustomerTransferReceipt{}, err
	}
	receiverCurrent, err := receiver.AccountByType(core.Current)
	if err != nil {
		return CustomerTransferReceipt{}, err
	}

	fee := core.FeeOn(amount)
	total := amount.Add(fee)
	now := time.Now()

	var (
		senderBalance core.Money
		committed     []core.Notification
	)
	err = e.accounts.Atomically(ctx, []int64{senderCurrent.ID, receiverCurrent.ID}, func(tx Tx) error {
		balance, err := tx.Balance(ctx, senderCurrent.ID)
		if err != nil {
			return err
		}
		if balance.Less(total) {
			return fmt.Errorf("current account of customer %d holds %s, transfer requires %s: %w",
				sender.ID, balance, total, core.ErrInsufficientFunds)
		}
		if senderBalance, err = tx.ApplyDelta(ctx, senderCurrent.ID, total.Neg()); err != nil {
			return err
		}
		if _, err := tx.ApplyDelta(ctx, receiverCurrent.ID, amount); err != nil {
			return err
		}
		if _, err := tx.AppendTransaction(ctx, core.Transaction{
			CustomerID: sender.ID,
			Label:      core.TransferToLabel(receiver.Name),
			Amount:     amount,
			Fee:        fee,
			Timestamp:  now,
		}); err != nil {
			return err
		}
		if _, err := tx.AppendTransaction(ctx, core.Transaction{
			CustomerID: receiver.ID,
			Label:      core.ReceivedFromLabel(sender.Name),
			Amount:     amount,
			Timestamp:  now,
		}); err != nil {
			return err
		}
		sn, err := tx.AppendNotification(ctx, core.Notification{
			CustomerID: sender.ID,
			Message:    fmt.Sprintf("Transferred %s to %s with a fee of %s", amount, receiver.Name, fee),
			Timestamp:  now,
		})
		if err != nil {
			return err
		}
		rn, err := tx.AppendNotification(ctx, core.Notification{
			CustomerID: receiver.ID,
			Message:    fmt.Sprintf("Received %s from %s", amount, sender.Name),
			Timestamp:  now,
		})
		if err != nil {
			return err
		}
		committed = append(committed, sn, rn)
		return nil
	})
	if err != nil {
		return CustomerTransferReceipt{}, err
	}

	e.publish(ctx, committed)

	slog.InfoContext(ctx, "Transfer to customer made",
		"sender_id", sender.ID,
		"receiver_id", receiver.ID,
		"amount_cents", amount.Cents,
		"fee_cents", fee.Cents)

	return CustomerTransferReceipt{
		SenderID:      sender.ID,
		ReceiverID:    receiver.ID,
		ReceiverName:  receiver.Name,
		Amount:        amount,
		Fee:           fee,
		SenderBalance: senderBalance,
	}, nil
}

// ApplyInterest credits 0.5% of the current Savings balance. Administrative:
// not exposed on the request surface.
func (e *Engine) ApplyInterest(ctx context.Context, customerID int64) (InterestReceipt, error) {
	customer, err := e.directory.Customer(ctx, customerID)
	if err != nil {
		return InterestReceipt{}, err
	}
	savings, err := customer.AccountByType(core.Savings)
	if err != nil {
		return InterestReceipt{}, err
	}

	now := time.Now()

	var (
		interest       core.Money
		savingsBalance core.Money
		committed      []core.Notification
	)
	err = e.accounts.Atomically(ctx, []int64{savings.ID}, func(tx Tx) error {
		balance, err := tx.Balance(ctx, savings.ID)
		if err != nil {
			return err
		}
		interest = core.InterestOn(balance)
		if savingsBalance, err = tx.ApplyDelta(ctx, savings.ID, interest); err != nil {
			return err
		}
		if _, err := tx.AppendTransaction(ctx, core.Transaction{
			CustomerID: customer.ID,
			Label:      core.LabelInterestApplied,
			Amount:     interest,
			Timestamp:  now,
		}); err != nil {
			return err
		}
		n, err := tx.AppendNotification(ctx, core.Notification{
			CustomerID: customer.ID,
			Message:    fmt.Sprintf("Interest of %s credited to Savings Account", interest),
			Timestamp:  now,
		})
		if err != nil {
			return err
		}
		committed = append(committed, n)
		return nil
	})
	if err != nil {
		return InterestReceipt{}, err
	}

	e.publish(ctx, committed)

	slog.InfoContext(ctx, "Interest applied",
		"customer_id", customer.ID,
		"interest_cents", interest.Cents)

	return InterestReceipt{
		CustomerID:     customer.ID,
		Interest:       interest,
		SavingsBalance: savingsBalance,
	}, nil
}

// Transactions lists the customer's audit records in insertion order.
func (e *Engine) Transactions(ctx context.Context, customerID int64) ([]core.Transaction, error) {
	if _, err := e.directory.Customer(ctx, customerID); err != nil {
		return nil, err
	}
	return e.history.Transactions(ctx, customerID)
}

// Notifications lists the customer's notifications in insertion order.
func (e *Engine) Notifications(ctx context.Context, customerID int64) ([]core.Notification, error) {
	if _, err := e.directory.Customer(ctx, customerID); err != nil {
		return nil, err
	}
	return e.history.Notifications(ctx, customerID)
}

// DeleteCustomer purges the customer together with its accounts,
// transactions and notifications.
func (e *Engine) DeleteCustomer(ctx context.Context, customerID int64) error {
	if err := e.directory.DeleteCustomer(ctx, customerID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Customer deleted", "customer_id", customerID)
	return nil
}

// publish pushes committed notifications to the delivery pipeline. The
// operation has already committed; a publish failure is logged and left to
// the sweep worker to retry.
func (e *Engine) publish(ctx context.Context, notifications []core.Notification) {
	if e.publisher == nil {
		return
	}
	for _, n := range notifications {
		if err := e.publisher.PublishNotification(ctx, n); err != nil {
			slog.ErrorContext(ctx, "Failed to publish notification",
				"notification_id", n.ID,
				"customer_id", n.CustomerID,
				"error", err)
		}
	}
}
