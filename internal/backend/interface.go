package backend

import (
	"context"

	"bankx/internal/ledger"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result contains the store, the optional notification publisher and an
// optional cleanup function.
type Result struct {
	Store     ledger.Store
	Publisher ledger.NotificationPublisher
	Cleanup   CleanupFunc
}

// Factory creates ledger stores based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Type represents the kind of backend.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
