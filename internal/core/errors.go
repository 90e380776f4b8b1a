package core

import "errors"

// Business error kinds surfaced by ledger operations. Callers branch on
// these with errors.Is; wrapped messages carry the who/what detail.
var (
	// ErrCustomerNotFound means the customer id is unknown.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrAccountNotFound means a customer is missing one of its two
	// accounts. Every customer owns both types, so this is an internal
	// invariant violation, not a caller mistake.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds means the debit would take a balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount means the amount is zero, negative or malformed.
	ErrInvalidAmount = errors.New("invalid amount")
)
