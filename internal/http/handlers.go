package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"bankx/internal/core"
	applog "bankx/internal/log"
)

// parseAmount reads a decimal form value ("100.00") into money.
func parseAmount(r *http.Request, field string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(r.Form.Get(field))
	if err != nil {
		return core.Money{}, fmt.Errorf("%s: %w", field, err)
	}
	return core.Money{Cents: cents}, nil
}

// parseID reads a positive integer form value.
func parseID(r *http.Request, field string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get(field)), 10, 64)
	return id, err == nil && id > 0
}

// pathID reads a positive integer path segment.
func pathID(r *http.Request, segment string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(segment), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	name := strings.TrimSpace(r.Form.Get("name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name must not be empty"})
		return
	}

	customer, err := s.engine.Onboard(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "customerId")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer id"})
		return
	}
	if err := s.engine.DeleteCustomer(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	customerID, ok := parseID(r, "customerId")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer id"})
		return
	}
	amount, err := parseAmount(r, "amount")
	if err != nil {
		writeError(w, r, err)
		return
	}

	receipt, err := s.engine.Pay(r.Context(), customerID, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		Receipt any    `json:"receipt"`
	}{
		Message: fmt.Sprintf("Payment of %s processed with fee %s. Current account balance: %s",
			receipt.Amount, receipt.Fee, receipt.CurrentBalance),
		Receipt: receipt,
	})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	customerID, ok := parseID(r, "customerId")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer id"})
		return
	}
	amount, err := parseAmount(r, "amount")
	if err != nil {
		writeError(w, r, err)
		return
	}

	receipt, err := s.engine.Deposit(r.Context(), customerID, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		Receipt any    `json:"receipt"`
	}{
		Message: fmt.Sprintf("%s deposited to your Current Account. Current account balance: %s",
			receipt.Amount, receipt.CurrentBalance),
		Receipt: receipt,
	})
}

func (s *Server) handleTransferToSavings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	customerID, ok := parseID(r, "customerId")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer id"})
		return
	}
	amount, err := parseAmount(r, "amount")
	if err != nil {
		writeError(w, r, err)
		return
	}

	receipt, err := s.engine.TransferToSavings(r.Context(), customerID, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		Receipt any    `json:"receipt"`
	}{
		Message: fmt.Sprintf("%s transferred to Savings with %s interest. Savings account balance: %s",
			receipt.Amount, receipt.Interest, receipt.SavingsBalance),
		Receipt: receipt,
	})
}

func (s *Server) handleTransferToCustomer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	senderID, ok := parseID(r, "senderId")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sender id"})
		return
	}
	receiverID, ok := parseID(r, "receiverId")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid receiver id"})
		return
	}
	amount, err := parseAmount(r, "amount")
	if err != nil {
		writeError(w, r, err)
		return
	}

	receipt, err := s.engine.TransferToCustomer(r.Context(), senderID, receiverID, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		Receipt any    `json:"receipt"`
	}{
		Message: fmt.Sprintf("%s transferred to %s with a fee of %s. Current account balance: %s",
			receipt.Amount, receipt.ReceiverName, receipt.Fee, receipt.SenderBalance),
		Receipt: receipt,
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "customerId")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer id"})
		return
	}

	transactions, err := s.engine.Transactions(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}

	slog.InfoContext(r.Context(), "Transactions listed",
		applog.FieldCustomerID, id,
		"count", len(transactions))
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "customerId")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer id"})
		return
	}

	notifications, err := s.engine.Notifications(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if notifications == nil {
		notifications = []core.Notification{}
	}

	slog.InfoContext(r.Context(), "Notifications listed",
		applog.FieldCustomerID, id,
		"count", len(notifications))
	writeJSON(w, http.StatusOK, notifications)
}
