package backend

import (
	"context"
	"fmt"

	"splitter/internal/amqp"
	"splitter/internal/gateway/memory"
	"splitter/internal/gateway/sheets"
	"splitter/internal/gateway/telegram"
	"splitter/internal/log"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateGateway implements Factory.CreateGateway
func (f *DefaultFactory) CreateGateway(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryGateway()
	case AMQPBackend:
		return f.createAMQPGateway(config)
	case SheetsBackend:
		return f.createSheetsGateway(ctx, config)
	case TelegramBackend:
		return f.createTelegramGateway(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryGateway() (*Result, error) {
	f.logger.Info("Initialized memory gateway")
	return &Result{Gateway: memory.New(f.logger)}, nil
}

func (f *DefaultFactory) createAMQPGateway(config Config) (*Result, error) {
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
	}
	f.logger.Info("Initialized AMQP gateway",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return &Result{Gateway: client, Cleanup: client.Close}, nil
}

func (f *DefaultFactory) createSheetsGateway(ctx context.Context, config Config) (*Result, error) {
	cli, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		SheetName:          config.GoogleSheetName,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets gateway", "sheet", config.GoogleSheetName)
	return &Result{Gateway: cli}, nil
}

func (f *DefaultFactory) createTelegramGateway(config Config) (*Result, error) {
	cli, err := telegram.New(config.TelegramBotToken, config.TelegramChatID, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram client: %w", err)
	}
	return &Result{Gateway: cli}, nil
}
