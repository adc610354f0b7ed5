package backend

import (
	"errors"
	"fmt"

	"splitter/internal/config"
)

// NotifyConfig builds the gateway config the server publishes through.
func NotifyConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	return fromAppConfig(appConfig, Type(appConfig.NotifyBackend))
}

// DeliveryConfig builds the downstream gateway config for the delivery
// worker. The worker consumes from AMQP, so it cannot deliver back to it.
func DeliveryConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	t := Type(appConfig.DeliveryBackend)
	if t == AMQPBackend {
		return Config{}, errors.New("amqp cannot be used as delivery backend")
	}
	return fromAppConfig(appConfig, t)
}

func fromAppConfig(appConfig *config.Config, t Type) (Config, error) {
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", t)
	}
	cfg := Config{
		Type: t,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,

		TelegramBotToken: appConfig.TelegramBotToken,
		TelegramChatID:   appConfig.TelegramChatID,
	}
	return cfg, cfg.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case AMQPBackend:
		if c.AMQPURL == "" {
			return errors.New("AMQP URL is required for amqp backend")
		}
		if c.AMQPExchange == "" || c.AMQPQueue == "" {
			return errors.New("AMQP exchange and queue are required for amqp backend")
		}

	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
		if c.GoogleSheetName == "" {
			return errors.New("Google Sheet name is required for sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			return errors.New("either GoogleServiceAccountJSON or GoogleServiceAccountFile must be provided for sheets backend")
		}

	case TelegramBackend:
		if c.TelegramBotToken == "" {
			return errors.New("Telegram bot token is required for telegram backend")
		}
		if c.TelegramChatID == 0 {
			return errors.New("Telegram chat ID is required for telegram backend")
		}

	case MemoryBackend:
		// nothing to check
	}

	return nil
}

// Types returns all valid backend types
func Types() []Type {
	return []Type{MemoryBackend, AMQPBackend, SheetsBackend, TelegramBackend}
}
