package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Symbols   []SymbolConfig  `yaml:"symbols"`
	API       APIConfig       `yaml:"api"`
	LLM       LLMConfig       `yaml:"llm"`
	Trading   TradingConfig   `yaml:"trading"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// SymbolConfig maps a CoinGecko coin id to its ticker.
type SymbolConfig struct {
	ID     string `yaml:"id"`     // e.g. "bitcoin"
	Ticker string `yaml:"ticker"` // e.g. "BTC"
}

// APIConfig contains the base URLs of the market-data APIs.
type APIConfig struct {
	CoinGeckoBase     string `yaml:"coingecko_base"`
	CryptoCompareBase string `yaml:"cryptocompare_base"`
	FearGreedBase     string `yaml:"feargreed_base"`
}

// LLMConfig controls the analysis and advisory stages.
type LLMConfig struct {
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"` // env var holding the Gemini key
}

// TradingConfig controls the paper-trading ledger.
type TradingConfig struct {
	InitialBalance       float64 `yaml:"initial_balance"`
	AllocationPercent    float64 `yaml:"allocation_percent"`  // % of balance per trade
	AllocationNotional   float64 `yaml:"allocation_notional"` // fixed size override, 0 = disabled
	MaxLeverage          int     `yaml:"max_leverage"`
	DefaultTakeProfitPct float64 `yaml:"default_take_profit_percent"`
	DefaultStopLossPct   float64 `yaml:"default_stop_loss_percent"`
}

// SchedulerConfig holds the cron specs for the background jobs.
type SchedulerConfig struct {
	Cycle  string `yaml:"cycle"`  // full monitor→advise→execute cycle
	Update string `yaml:"update"` // price-only position update
}

// StorageConfig controls where the portfolio is persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LogConfig controls the logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config file and the .env file if present.
// Environment variables override the YAML values for the keys they cover.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// APIKey resolves the LLM API key from the environment.
func (c *Config) APIKey() string {
	return os.Getenv(c.LLM.APIKeyEnv)
}

// applyEnvOverrides overrides config values from environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

// setDefaults fills in sensible values for anything the YAML left out.
func setDefaults(cfg *Config) {
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []SymbolConfig{
			{ID: "bitcoin", Ticker: "BTC"},
			{ID: "ethereum", Ticker: "ETH"},
			{ID: "solana", Ticker: "SOL"},
		}
	}
	if cfg.API.CoinGeckoBase == "" {
		cfg.API.CoinGeckoBase = "https://api.coingecko.com/api/v3"
	}
	if cfg.API.CryptoCompareBase == "" {
		cfg.API.CryptoCompareBase = "https://min-api.cryptocompare.com"
	}
	if cfg.API.FearGreedBase == "" {
		cfg.API.FearGreedBase = "https://api.alternative.me"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-2.0-flash"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Trading.InitialBalance <= 0 {
		cfg.Trading.InitialBalance = 10000
	}
	if cfg.Trading.AllocationPercent <= 0 {
		cfg.Trading.AllocationPercent = 10
	}
	if cfg.Trading.MaxLeverage <= 0 {
		cfg.Trading.MaxLeverage = 10
	}
	if cfg.Trading.DefaultTakeProfitPct <= 0 {
		cfg.Trading.DefaultTakeProfitPct = 5
	}
	if cfg.Trading.DefaultStopLossPct <= 0 {
		cfg.Trading.DefaultStopLossPct = 5
	}
	if cfg.Scheduler.Cycle == "" {
		cfg.Scheduler.Cycle = "@every 15m"
	}
	if cfg.Scheduler.Update == "" {
		cfg.Scheduler.Update = "@every 60s"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "cryptopilot.db"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
