package ledger

import "bankx/internal/core"

// Typed operation results. The request layer renders user-facing messages
// from these instead of string-matching, so business failures stay
// distinguishable from infrastructure ones.
type (
	// PaymentReceipt reports an external payment debited from Current.
	PaymentReceipt struct {
		CustomerID     int64      `json:"customer_id"`
		Amount         core.Money `json:"amount"`
		Fee            core.Money `json:"fee"`
		CurrentBalance core.Money `json:"current_balance"`
	}

	// DepositReceipt reports a credit to Current.
	DepositReceipt struct {
		CustomerID     int64      `json:"customer_id"`
		Amount         core.Money `json:"amount"`
		CurrentBalance core.Money `json:"current_balance"`
	}

	// SavingsTransferReceipt reports an intra-customer move from Current
	// to Savings. Credited = Amount + Interest.
	SavingsTransferReceipt struct {
		CustomerID     int64      `json:"customer_id"`
		Amount         core.Money `json:"amount"`
		Interest       core.Money `json:"interest"`
		Credited       core.Money `json:"credited"`
		SavingsBalance core.Money `json:"savings_balance"`
	}

	// CustomerTransferReceipt reports a transfer between two customers'
	// Current accounts, seen from the sender's side.
	CustomerTransferReceipt struct {
		SenderID      int64      `json:"sender_id"`
		ReceiverID    int64      `json:"receiver_id"`
		ReceiverName  string     `json:"receiver_name"`
		Amount        core.Money `json:"amount"`
		Fee           core.Money `json:"fee"`
		SenderBalance core.Money `json:"sender_balance"`
	}

	// InterestReceipt reports administrative interest applied to Savings.
	InterestReceipt struct {
		CustomerID     int64      `json:"customer_id"`
		Interest       core.Money `json:"interest"`
		SavingsBalance core.Money `json:"savings_balance"`
	}
)
