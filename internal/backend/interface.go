package backend

import (
	"context"

	"splitter/internal/gateway"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the gateway instance and optional cleanup function
type Result struct {
	Gateway gateway.Gateway
	Cleanup CleanupFunc
}

// Factory creates notifier gateways based on configuration
type Factory interface {
	CreateGateway(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for gateway creation
type Config struct {
	Type Type

	// AMQP specific
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Telegram specific
	TelegramBotToken string
	TelegramChatID   int64
}

// Type represents the kind of gateway
type Type string

const (
	MemoryBackend   Type = "memory"
	AMQPBackend     Type = "amqp"
	SheetsBackend   Type = "sheets"
	TelegramBackend Type = "telegram"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, AMQPBackend, SheetsBackend, TelegramBackend:
		return true
	default:
		return false
	}
}
