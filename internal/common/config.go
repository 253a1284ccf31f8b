package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the portfolio service
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Notify      NotifyConfig    `toml:"notify"`
	Portfolio   PortfolioConfig `toml:"portfolio"`
	Auth        AuthConfig      `toml:"auth"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the portfolio store.
type StorageConfig struct {
	Backend    string `toml:"backend"` // "memory" or "surrealdb"
	Address    string `toml:"address"` // e.g. ws://localhost:8000/rpc
	Namespace  string `toml:"namespace"`
	Database   string `toml:"database"`
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	MaxRetries int    `toml:"max_retries"` // optimistic-concurrency retries per update
}

// ClientsConfig holds downstream service client configurations
type ClientsConfig struct {
	StockQuote   HTTPClientConfig `toml:"stock_quote"`
	ODM          ODMConfig        `toml:"odm"`
	TradeHistory HTTPClientConfig `toml:"trade_history"`
	Gemini       GeminiConfig     `toml:"gemini"`
}

// HTTPClientConfig holds a REST client's endpoint and limits
type HTTPClientConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *HTTPClientConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 5*time.Second)
}

// ODMConfig holds the loyalty-level business rule endpoint and basic-auth credentials
type ODMConfig struct {
	HTTPClientConfig
	ID       string `toml:"id"`
	Password string `toml:"password"`
}

// GeminiConfig holds the Gemini API configuration used for feedback sentiment
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *GeminiConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 15*time.Second)
}

// NotifyConfig holds the two notification channels.
type NotifyConfig struct {
	Redis   RedisConfig `toml:"redis"`
	Kafka   KafkaConfig `toml:"kafka"`
	Timeout string      `toml:"timeout"`
}

// GetTimeout parses and returns the per-publish timeout
func (c *NotifyConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 3*time.Second)
}

// RedisConfig configures the loyalty-change notification queue.
// An empty address leaves the queue unconfigured.
type RedisConfig struct {
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Queue    string `toml:"queue"`
}

// KafkaConfig configures the trade-event topic.
// An empty address disables trade events entirely.
type KafkaConfig struct {
	Address string `toml:"address"`
	Topic   string `toml:"topic"`
}

// PortfolioConfig holds portfolio defaults and owner policy
type PortfolioConfig struct {
	InitialBalance float64  `toml:"initial_balance"`
	DeniedOwners   []string `toml:"denied_owners"`
}

// AuthConfig holds JWT validation configuration.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	Required  bool   `toml:"required"` // reject requests without a valid bearer token
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 9080,
		},
		Storage: StorageConfig{
			Backend:    "memory",
			Address:    "ws://localhost:8000/rpc",
			Namespace:  "stocktrader",
			Database:   "portfolio",
			Username:   "root",
			Password:   "root",
			MaxRetries: 3,
		},
		Clients: ClientsConfig{
			StockQuote: HTTPClientConfig{
				BaseURL:   "http://stock-quote-service:9080/stock-quote",
				RateLimit: 20,
				Timeout:   "5s",
			},
			ODM: ODMConfig{
				HTTPClientConfig: HTTPClientConfig{
					BaseURL:   "http://odm-service:9080/DecisionService/rest/ICP_Trader_Dev_1/determineLoyalty",
					RateLimit: 10,
					Timeout:   "5s",
				},
				ID:       "odmAdmin",
				Password: "odmAdmin",
			},
			TradeHistory: HTTPClientConfig{
				BaseURL:   "http://trade-history-service:9080/trade-history",
				RateLimit: 10,
				Timeout:   "10s",
			},
			Gemini: GeminiConfig{
				Model:   "gemini-2.0-flash",
				Timeout: "15s",
			},
		},
		Notify: NotifyConfig{
			Redis: RedisConfig{
				Queue: "stocktrader:notifications",
			},
			Kafka: KafkaConfig{
				Topic: "stocktrader",
			},
			Timeout: "3s",
		},
		Portfolio: PortfolioConfig{
			InitialBalance: 50.0,
			DeniedOwners:   []string{"FAIL"},
		},
		Auth: AuthConfig{
			JWTSecret: "dev-jwt-secret-change-in-production",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// envOverride pairs an environment variable with the field it sets.
type envOverride struct {
	names []string
	set   func(string)
}

// applyEnvOverrides applies environment variable overrides to config.
// The first non-empty variable in each group wins.
func applyEnvOverrides(config *Config) {
	overrides := []envOverride{
		{[]string{"STOCKTRADER_ENV"}, func(v string) { config.Environment = v }},
		{[]string{"STOCKTRADER_HOST"}, func(v string) { config.Server.Host = v }},
		{[]string{"STOCKTRADER_PORT"}, func(v string) {
			if p, err := strconv.Atoi(v); err == nil {
				config.Server.Port = p
			}
		}},
		{[]string{"STOCKTRADER_LOG_LEVEL"}, func(v string) { config.Logging.Level = v }},
		{[]string{"STOCKTRADER_STORAGE_BACKEND"}, func(v string) { config.Storage.Backend = strings.ToLower(v) }},
		{[]string{"STOCKTRADER_STORAGE_ADDRESS"}, func(v string) { config.Storage.Address = v }},
		{[]string{"STOCKTRADER_STORAGE_USERNAME"}, func(v string) { config.Storage.Username = v }},
		{[]string{"STOCKTRADER_STORAGE_PASSWORD"}, func(v string) { config.Storage.Password = v }},
		{[]string{"STOCKTRADER_STOCK_QUOTE_URL", "STOCK_QUOTE_URL"}, func(v string) { config.Clients.StockQuote.BaseURL = v }},
		{[]string{"STOCKTRADER_ODM_URL", "ODM_URL"}, func(v string) { config.Clients.ODM.BaseURL = v }},
		{[]string{"STOCKTRADER_ODM_ID", "ODM_ID"}, func(v string) { config.Clients.ODM.ID = v }},
		{[]string{"STOCKTRADER_ODM_PWD", "ODM_PWD"}, func(v string) { config.Clients.ODM.Password = v }},
		{[]string{"STOCKTRADER_TRADE_HISTORY_URL", "TRADE_HISTORY_URL"}, func(v string) { config.Clients.TradeHistory.BaseURL = v }},
		{[]string{"STOCKTRADER_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}, func(v string) { config.Clients.Gemini.APIKey = v }},
		{[]string{"STOCKTRADER_REDIS_ADDRESS", "REDIS_ADDRESS"}, func(v string) { config.Notify.Redis.Address = v }},
		{[]string{"STOCKTRADER_KAFKA_ADDRESS", "KAFKA_ADDRESS"}, func(v string) { config.Notify.Kafka.Address = v }},
		{[]string{"STOCKTRADER_KAFKA_TOPIC", "KAFKA_TOPIC"}, func(v string) { config.Notify.Kafka.Topic = v }},
		{[]string{"STOCKTRADER_JWT_SECRET"}, func(v string) { config.Auth.JWTSecret = v }},
	}

	for _, o := range overrides {
		for _, name := range o.names {
			if v := os.Getenv(name); v != "" {
				o.set(v)
				break
			}
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
