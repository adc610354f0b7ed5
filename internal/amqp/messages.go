package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// NotificationMessage carries one balance reminder from the splitter
// server to the delivery worker.
type NotificationMessage struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// NewNotificationMessage stamps a new message with a random id and the current time.
func NewNotificationMessage(title, body string) *NotificationMessage {
	return &NotificationMessage{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		Timestamp: time.Now(),
	}
}

// Validate rejects messages the worker cannot deliver.
func (m *NotificationMessage) Validate() error {
	if m.ID == "" {
		return errors.New("missing message id")
	}
	if m.Body == "" {
		return errors.New("missing message body")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON decodes and validates a message body.
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
