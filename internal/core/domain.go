package core

import (
	"fmt"
	"time"
)

// AccountType discriminates the two accounts every customer owns.
type AccountType string

const (
	Savings AccountType = "SAVINGS"
	Current AccountType = "CURRENT"
)

// Valid reports whether t is one of the two known account types.
func (t AccountType) Valid() bool {
	return t == Savings || t == Current
}

// SignupBonus is credited to the Savings account at onboarding.
var SignupBonus = Money{Cents: 50000} // 500.00

// Transaction labels for the fixed operation kinds. Transfers between
// customers carry a peer-name suffix instead, see TransferToLabel and
// ReceivedFromLabel.
const (
	LabelPayment           = "Payment"
	LabelDeposit           = "Deposit"
	LabelTransferToSavings = "Transfer to Savings"
	LabelInterestApplied   = "Interest Applied"
)

// TransferToLabel is the sender-side label of a transfer to another customer.
func TransferToLabel(receiverName string) string {
	return fmt.Sprintf("Transfer to %s", receiverName)
}

// ReceivedFromLabel is the receiver-side label of a transfer from another
// customer.
func ReceivedFromLabel(senderName string) string {
	return fmt.Sprintf("Received from %s", senderName)
}

type (
	// Customer owns exactly one Savings and one Current account.
	Customer struct {
		ID       int64     `json:"id"`
		Name     string    `json:"name"`
		Accounts []Account `json:"accounts"`
	}

	// Account belongs to exactly one customer. Its balance is mutated
	// only through ledger operations and never goes negative.
	Account struct {
		ID         int64       `json:"id"`
		CustomerID int64       `json:"customer_id"`
		Type       AccountType `json:"type"`
		Balance    Money       `json:"balance"`
	}

	// Transaction is an immutable audit record of a balance mutation.
	Transaction struct {
		ID         int64     `json:"id"`
		CustomerID int64     `json:"customer_id"`
		Label      string    `json:"label"`
		Amount     Money     `json:"amount"`
		Fee        Money     `json:"fee"`
		Timestamp  time.Time `json:"timestamp"`
	}

	// Notification is an immutable human-readable message produced as a
	// side effect of every balance-affecting operation.
	Notification struct {
		ID         int64     `json:"id"`
		CustomerID int64     `json:"customer_id"`
		Message    string    `json:"message"`
		Timestamp  time.Time `json:"timestamp"`
	}
)

// AccountByType returns the customer's account of the given type. A missing
// account is an internal invariant violation, reported as ErrAccountNotFound.
func (c Customer) AccountByType(t AccountType) (Account, error) {
	for _, a := range c.Accounts {
		if a.Type == t {
			return a, nil
		}
	}
	return Account{}, fmt.Errorf("customer %d has no %s account: %w", c.ID, t, ErrAccountNotFound)
}
