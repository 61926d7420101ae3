package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/amaumene/tritonevents/internal/models"
)

// IntakeMode selects how a card whose identity is already stored is handled
type IntakeMode string

const (
	// IntakeStrict refuses cards whose identity already exists
	IntakeStrict IntakeMode = "strict"
	// IntakeReuse requeues the existing record instead
	IntakeReuse IntakeMode = "reuse"
)

// Config holds all application configuration
type Config struct {
	// Trello
	TrelloKey          string
	TrelloToken        string
	TrelloBoard        string
	TrelloAPIURL       string
	WebhookCallbackURL string
	WebhookRegister    bool
	WebhookMaxRetries  uint64 // 0 retries forever
	BoardDisabled      bool

	// Lists
	RequestsList  string
	ReadyList     string
	VerifiedLabel string
	StatusLists   map[models.Status]string // status -> list id

	// Database
	DatabaseDriver string // sqlite or postgres
	DatabaseFile   string // $CONFIG_DIR/tritonevents.db
	DatabaseURL    string

	// Broker
	BrokerDriver   string // nats or memory
	NATSURL        string
	NATSStream     string
	NATSDurable    string
	StatusPrefetch int

	// Intake
	IntakeMode       IntakeMode
	IntakeWorkers    int
	OperationTimeout time.Duration

	// Server
	ServerPort string

	// Operations
	StaleQueuedMinutes int
	TraceSampleRatio   float64
	TraceEndpoint      string // OTLP/HTTP host:port, empty disables export
	TraceInsecure      bool

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("TRELLO_API_URL", "https://api.trello.com")
	v.SetDefault("WEBHOOK_REGISTER", true)
	v.SetDefault("WEBHOOK_MAX_RETRIES", 0)
	v.SetDefault("BOARD_DISABLED", false)
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("BROKER_DRIVER", "nats")
	v.SetDefault("NATS_URL", "nats://127.0.0.1:4222")
	v.SetDefault("NATS_STREAM", "TRITON")
	v.SetDefault("NATS_DURABLE", "tritonevents")
	v.SetDefault("STATUS_PREFETCH", 100)
	v.SetDefault("INTAKE_MODE", string(IntakeStrict))
	v.SetDefault("INTAKE_WORKERS", 4)
	v.SetDefault("OPERATION_TIMEOUT", "30s")
	v.SetDefault("SERVER_PORT", "3401")
	v.SetDefault("STALE_QUEUED_MINUTES", 60)
	v.SetDefault("TRACE_SAMPLE_RATIO", 1.0)
	v.SetDefault("TRACE_INSECURE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

func fromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	configDir, err := resolveConfigDir(v.GetString("CONFIG_DIR"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		// Trello
		TrelloKey:          v.GetString("TRELLO_KEY"),
		TrelloToken:        v.GetString("TRELLO_TOKEN"),
		TrelloBoard:        v.GetString("TRELLO_BOARD"),
		TrelloAPIURL:       strings.TrimRight(v.GetString("TRELLO_API_URL"), "/"),
		WebhookCallbackURL: v.GetString("WEBHOOK_CALLBACK_URL"),
		WebhookRegister:    v.GetBool("WEBHOOK_REGISTER"),
		WebhookMaxRetries:  v.GetUint64("WEBHOOK_MAX_RETRIES"),
		BoardDisabled:      v.GetBool("BOARD_DISABLED"),

		// Lists
		RequestsList:  v.GetString("LIST_REQUESTS"),
		ReadyList:     v.GetString("LIST_READY"),
		VerifiedLabel: v.GetString("LABEL_VERIFIED"),
		StatusLists:   make(map[models.Status]string),

		// Database
		DatabaseDriver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseFile:   v.GetString("DATABASE_FILE"),
		DatabaseURL:    v.GetString("DATABASE_URL"),

		// Broker
		BrokerDriver:   strings.ToLower(v.GetString("BROKER_DRIVER")),
		NATSURL:        v.GetString("NATS_URL"),
		NATSStream:     v.GetString("NATS_STREAM"),
		NATSDurable:    v.GetString("NATS_DURABLE"),
		StatusPrefetch: v.GetInt("STATUS_PREFETCH"),

		// Intake
		IntakeMode:       IntakeMode(strings.ToLower(v.GetString("INTAKE_MODE"))),
		IntakeWorkers:    v.GetInt("INTAKE_WORKERS"),
		OperationTimeout: v.GetDuration("OPERATION_TIMEOUT"),

		// Server
		ServerPort: v.GetString("SERVER_PORT"),

		// Operations
		StaleQueuedMinutes: v.GetInt("STALE_QUEUED_MINUTES"),
		TraceSampleRatio:   v.GetFloat64("TRACE_SAMPLE_RATIO"),
		TraceEndpoint:      v.GetString("TRACE_ENDPOINT"),
		TraceInsecure:      v.GetBool("TRACE_INSECURE"),

		// Logging
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	if config.DatabaseFile == "" {
		config.DatabaseFile = filepath.Join(configDir, "tritonevents.db")
	}

	for _, status := range models.AllStatuses {
		key := "STATUS_LIST_" + strings.ToUpper(status.String())
		if listID := v.GetString(key); listID != "" {
			config.StatusLists[status] = listID
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func resolveConfigDir(configDir string) (string, error) {
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "tritonevents")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

func (c *Config) validate() error {
	// Board credentials are only needed when the board integration is on
	if !c.BoardDisabled {
		if c.TrelloKey == "" {
			return fmt.Errorf("TRELLO_KEY is required")
		}
		if c.TrelloToken == "" {
			return fmt.Errorf("TRELLO_TOKEN is required")
		}
		if c.RequestsList == "" {
			return fmt.Errorf("LIST_REQUESTS is required")
		}
		if c.ReadyList == "" {
			return fmt.Errorf("LIST_READY is required")
		}
		if c.WebhookRegister {
			if c.TrelloBoard == "" {
				return fmt.Errorf("TRELLO_BOARD is required when WEBHOOK_REGISTER is set")
			}
			if c.WebhookCallbackURL == "" {
				return fmt.Errorf("WEBHOOK_CALLBACK_URL is required when WEBHOOK_REGISTER is set")
			}
		}
	}

	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.BrokerDriver {
	case "memory":
	case "nats":
		if c.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required for the nats driver")
		}
	default:
		return fmt.Errorf("unsupported BROKER_DRIVER %q", c.BrokerDriver)
	}

	if c.IntakeMode != IntakeStrict && c.IntakeMode != IntakeReuse {
		return fmt.Errorf("unsupported INTAKE_MODE %q", c.IntakeMode)
	}
	if c.IntakeWorkers < 1 {
		return fmt.Errorf("INTAKE_WORKERS must be at least 1")
	}
	if c.StatusPrefetch < 1 {
		return fmt.Errorf("STATUS_PREFETCH must be at least 1")
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("OPERATION_TIMEOUT must be positive")
	}

	return nil
}
