// Package http is the request layer over the ledger engine. It maps the
// REST surface onto engine operations and translates typed failures to
// status codes; no business rule lives here.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bankx/internal/core"
	"bankx/internal/ledger"
	applog "bankx/internal/log"
	"bankx/internal/middleware/trace"
)

type Server struct {
	http.Server
	engine *ledger.Engine
}

// NewServer configures routes, returning a ready-to-run server.
func NewServer(addr string, engine *ledger.Engine) *Server {
	mux := http.NewServeMux()
	tracer := trace.NewMiddleware()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: tracer.Middleware(mux),
		},
		engine: engine,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("POST /api/customers", s.handleCreateCustomer)
	mux.HandleFunc("DELETE /api/customers/{customerId}", s.handleDeleteCustomer)
	mux.HandleFunc("POST /api/accounts/pay", s.handlePay)
	mux.HandleFunc("POST /api/deposit", s.handleDeposit)
	mux.HandleFunc("POST /api/accounts/transferToSavings", s.handleTransferToSavings)
	mux.HandleFunc("POST /api/transferToCustomer", s.handleTransferToCustomer)
	mux.HandleFunc("GET /api/transactions/{customerId}", s.handleTransactions)
	mux.HandleFunc("GET /api/notifications/{customerId}", s.handleNotifications)

	return s
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the business error kinds to status codes. Anything not
// recognized is an infrastructure fault.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrCustomerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInsufficientFunds):
		status = http.StatusConflict
	case errors.Is(err, core.ErrInvalidAmount):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrAccountNotFound):
		// Invariant violation: every customer owns both accounts.
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			applog.FieldError, err,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
