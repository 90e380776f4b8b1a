package core

import (
	"errors"
	"testing"
)

func TestAccountByType(t *testing.T) {
	c := Customer{
		ID:   1,
		Name: "Alice",
		Accounts: []Account{
			{ID: 10, CustomerID: 1, Type: Savings, Balance: SignupBonus},
			{ID: 11, CustomerID: 1, Type: Current},
		},
	}

	sav, err := c.AccountByType(Savings)
	if err != nil {
		t.Fatalf("savings lookup: %v", err)
	}
	if sav.ID != 10 || sav.Balance != SignupBonus {
		t.Errorf("unexpected savings account: %+v", sav)
	}

	cur, err := c.AccountByType(Current)
	if err != nil {
		t.Fatalf("current lookup: %v", err)
	}
	if cur.ID != 11 || !cur.Balance.IsZero() {
		t.Errorf("unexpected current account: %+v", cur)
	}
}

func TestAccountByTypeMissing(t *testing.T) {
	c := Customer{ID: 2, Name: "Bob", Accounts: []Account{{ID: 20, CustomerID: 2, Type: Savings}}}
	_, err := c.AccountByType(Current)
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountTypeValid(t *testing.T) {
	if !Savings.Valid() || !Current.Valid() {
		t.Error("known types must be valid")
	}
	if AccountType("CHECKING").Valid() {
		t.Error("unknown type must be invalid")
	}
}

func TestTransferLabels(t *testing.T) {
	if got := TransferToLabel("Bob"); got != "Transfer to Bob" {
		t.Errorf("TransferToLabel = %q", got)
	}
	if got := ReceivedFromLabel("Alice"); got != "Received from Alice" {
		t.Errorf("ReceivedFromLabel = %q", got)
	}
}
