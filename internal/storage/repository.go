// Package storage provides the durable sqlite ledger store. Atomic units
// run inside database transactions; the connection pool is capped at one
// writer so units serialize instead of failing on SQLITE_BUSY.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bankx/internal/core"
	"bankx/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single connection: sqlite allows one writer, and a capped pool turns
	// concurrent units into queued ones instead of SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Onboard creates the customer and both accounts in one transaction.
func (r *SQLiteRepository) Onboard(ctx context.Context, name string) (core.Customer, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Customer{}, fmt.Errorf("begin onboard: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "INSERT INTO customers (name) VALUES (?)", name)
	if err != nil {
		return core.Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	customerID, err := res.LastInsertId()
	if err != nil {
		return core.Customer{}, fmt.Errorf("customer id: %w", err)
	}

	insertAccount := func(t core.AccountType, balance core.Money) (int64, error) {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO accounts (customer_id, type, balance_cents) VALUES (?, ?, ?)",
			customerID, string(t), balance.Cents)
		if err != nil {
			return 0, fmt.Errorf("insert %s account: %w", t, err)
		}
		return res.LastInsertId()
	}

	savingsID, err := insertAccount(core.Savings, core.SignupBonus)
	if err != nil {
		return core.Customer{}, err
	}
	currentID, err := insertAccount(core.Current, core.Zero)
	if err != nil {
		return core.Customer{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Customer{}, fmt.Errorf("commit onboard: %w", err)
	}

	return core.Customer{
		ID:   customerID,
		Name: name,
		Accounts: []core.Account{
			{ID: savingsID, CustomerID: customerID, Type: core.Savings, Balance: core.SignupBonus},
			{ID: currentID, CustomerID: customerID, Type: core.Current},
		},
	}, nil
}

// Customer resolves a customer with both accounts.
func (r *SQLiteRepository) Customer(ctx context.Context, id int64) (core.Customer, error) {
	customer := core.Customer{ID: id}
	err := r.db.QueryRowContext(ctx, "SELECT name FROM customers WHERE id = ?", id).Scan(&customer.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Customer{}, fmt.Errorf("customer %d: %w", id, core.ErrCustomerNotFound)
	}
	if err != nil {
		return core.Customer{}, fmt.Errorf("select customer: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, type, balance_cents FROM accounts WHERE customer_id = ? ORDER BY id", id)
	if err != nil {
		return core.Customer{}, fmt.Errorf("select accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a := core.Account{CustomerID: id}
		var typ string
		if err := rows.Scan(&a.ID, &typ, &a.Balance.Cents); err != nil {
			return core.Customer{}, fmt.Errorf("scan account: %w", err)
		}
		a.Type = core.AccountType(typ)
		customer.Accounts = append(customer.Accounts, a)
	}
	if err := rows.Err(); err != nil {
		return core.Customer{}, fmt.Errorf("iterate accounts: %w", err)
	}
	return customer, nil
}

// DeleteCustomer purges notifications, transactions, accounts and the
// customer row in one transaction.
func (r *SQLiteRepository) DeleteCustomer(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM notifications WHERE customer_id = ?",
		"DELETE FROM transactions WHERE customer_id = ?",
		"DELETE FROM accounts WHERE customer_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("purge customer %d: %w", id, err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM customers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete customer %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete customer %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("customer %d: %w", id, core.ErrCustomerNotFound)
	}

	return tx.Commit()
}

// Transactions lists the customer's audit records in insertion order.
func (r *SQLiteRepository) Transactions(ctx context.Context, customerID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, label, amount_cents, fee_cents, created_at FROM transactions WHERE customer_id = ? ORDER BY id",
		customerID)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t := core.Transaction{CustomerID: customerID}
		if err := rows.Scan(&t.ID, &t.Label, &t.Amount.Cents, &t.Fee.Cents, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Notifications lists the customer's notifications in insertion order.
func (r *SQLiteRepository) Notifications(ctx context.Context, customerID int64) ([]core.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, message, created_at FROM notifications WHERE customer_id = ? ORDER BY id",
		customerID)
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	out := []core.Notification{}
	for rows.Next() {
		n := core.Notification{CustomerID: customerID}
		if err := rows.Scan(&n.ID, &n.Message, &n.Timestamp); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Atomically runs fn inside a database transaction. The account ids are
// declared for lock-ordering stores; here the transaction itself
// serializes the unit.
func (r *SQLiteRepository) Atomically(ctx context.Context, _ []int64, fn func(tx ledger.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unit: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unit: %w", err)
	}
	return nil
}

// PendingNotifications returns undelivered notifications, oldest first.
// Used by the delivery sweep.
func (r *SQLiteRepository) PendingNotifications(ctx context.Context, limit int) ([]core.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, customer_id, message, created_at FROM notifications WHERE delivered_at IS NULL ORDER BY id LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("select pending notifications: %w", err)
	}
	defer rows.Close()

	out := []core.Notification{}
	for rows.Next() {
		var n core.Notification
		if err := rows.Scan(&n.ID, &n.CustomerID, &n.Message, &n.Timestamp); err != nil {
			return nil, fmt.Errorf("scan pending notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationDelivered stamps the delivery time on a notification.
func (r *SQLiteRepository) MarkNotificationDelivered(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET delivered_at = ? WHERE id = ? AND delivered_at IS NULL",
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("mark notification %d delivered: %w", id, err)
	}
	return nil
}

// sqlTx adapts a sql.Tx to the ledger.Tx contract.
type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Balance(ctx context.Context, accountID int64) (core.Money, error) {
	var cents int64
	err := t.tx.QueryRowContext(ctx, "SELECT balance_cents FROM accounts WHERE id = ?", accountID).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, fmt.Errorf("account %d: %w", accountID, core.ErrAccountNotFound)
	}
	if err != nil {
		return core.Money{}, fmt.Errorf("select balance: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (t *sqlTx) ApplyDelta(ctx context.Context, accountID int64, delta core.Money) (core.Money, error) {
	balance, err := t.Balance(ctx, accountID)
	if err != nil {
		return core.Money{}, err
	}
	next := balance.Add(delta)
	if next.IsNegative() {
		return core.Money{}, fmt.Errorf("account %d holds %s, delta %s: %w",
			accountID, balance, delta, core.ErrInsufficientFunds)
	}
	if _, err := t.tx.ExecContext(ctx,
		"UPDATE accounts SET balance_cents = ? WHERE id = ?", next.Cents, accountID); err != nil {
		return core.Money{}, fmt.Errorf("update balance: %w", err)
	}
	return next, nil
}

func (t *sqlTx) AppendTransaction(ctx context.Context, tr core.Transaction) (core.Transaction, error) {
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO transactions (customer_id, label, amount_cents, fee_cents, created_at) VALUES (?, ?, ?, ?, ?)",
		tr.CustomerID, tr.Label, tr.Amount.Cents, tr.Fee.Cents, tr.Timestamp)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if tr.ID, err = res.LastInsertId(); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	return tr, nil
}

func (t *sqlTx) AppendNotification(ctx context.Context, n core.Notification) (core.Notification, error) {
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO notifications (customer_id, message, created_at) VALUES (?, ?, ?)",
		n.CustomerID, n.Message, n.Timestamp)
	if err != nil {
		return core.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	if n.ID, err = res.LastInsertId(); err != nil {
		return core.Notification{}, fmt.Errorf("notification id: %w", err)
	}
	return n, nil
}
