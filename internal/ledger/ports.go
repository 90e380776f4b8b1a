// Package ledger implements the balance-mutation engine: the money-movement
// operations, their sufficiency checks, fee and interest computation, and the
// audit records they append. Every operation executes as one atomic unit
// against the store; either all of its balance deltas and records commit or
// none do.
package ledger

import (
	"context"

	"bankx/internal/core"
)

// Tx is the mutation surface available inside one atomic unit. Balance reads
// observe deltas already applied within the same unit.
type Tx interface {
	// Balance returns the balance of an account.
	Balance(ctx context.Context, accountID int64) (core.Money, error)

	// ApplyDelta adds delta to the account balance and returns the new
	// balance. It fails with core.ErrInsufficientFunds if the result
	// would be negative, leaving the unit free to abort.
	ApplyDelta(ctx context.Context, accountID int64, delta core.Money) (core.Money, error)

	// AppendTransaction appends an audit record and returns it with its
	// assigned id.
	AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)

	// AppendNotification appends a notification and returns it with its
	// assigned id.
	AppendNotification(ctx context.Context, n core.Notification) (core.Notification, error)
}

// Accounts is the account store. Atomically runs fn as one serializable
// unit over the named accounts: implementations either lock the accounts in
// ascending id order (two-account transfers must never deadlock) or run fn
// inside a database transaction. If fn returns an error nothing is
// committed.
type Accounts interface {
	Atomically(ctx context.Context, accountIDs []int64, fn func(tx Tx) error) error
}

// Directory maps customer identity to its two accounts.
type Directory interface {
	// Onboard creates a customer with a bonus-funded Savings account and
	// a zero-balance Current account as one atomic creation.
	Onboard(ctx context.Context, name string) (core.Customer, error)

	// Customer resolves a customer and both accounts, failing with
	// core.ErrCustomerNotFound for an unknown id.
	Customer(ctx context.Context, id int64) (core.Customer, error)

	// DeleteCustomer removes the customer together with its accounts,
	// transactions and notifications in one transaction.
	DeleteCustomer(ctx context.Context, id int64) error
}

// History is the read side of the append-only audit store. Both listings are
// insertion-ordered and reflect every previously committed append.
type History interface {
	Transactions(ctx context.Context, customerID int64) ([]core.Transaction, error)
	Notifications(ctx context.Context, customerID int64) ([]core.Notification, error)
}

// Store is the full persistence contract; the memory and sqlite backends
// implement all of it with one concrete type.
type Store interface {
	Accounts
	Directory
	History
}

// NotificationPublisher pushes committed notifications onto the delivery
// pipeline. Publishing happens after commit and is best-effort; a nil
// publisher disables it.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n core.Notification) error
}
