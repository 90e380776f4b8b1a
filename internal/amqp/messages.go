package amqp

import (
	"encoding/json"
	"time"

	"bankx/internal/core"
)

// NotificationMessage is the wire form of a committed notification. The
// worker re-reads nothing: the message carries everything delivery needs.
type NotificationMessage struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewNotificationMessage converts a committed notification to its wire form.
func NewNotificationMessage(n core.Notification) *NotificationMessage {
	return &NotificationMessage{
		ID:         n.ID,
		CustomerID: n.CustomerID,
		Message:    n.Message,
		Timestamp:  n.Timestamp,
	}
}

// ToJSON converts the message to JSON bytes.
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON creates a message from JSON bytes.
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
