package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"wallet-tracker/internal/model"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Upstream data API
	APIKey       string
	APIBaseURL   string
	TradesLimit  int
	APIRateLimit float64
	HTTPTimeout  time.Duration
	EnrichTrades bool

	// Tracked wallet and base asset
	Wallet           string
	BaseAssetSymbol  string
	BaseAssetAddress string
	CheckInterval    time.Duration
	Resume           bool

	// Infrastructure
	DataDir       string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	HTTPAddr      string
	MetricsAddr   string
	LogLevel      string

	// Admin reset, guarded by TOTP
	AdminTOTPSecret string

	// Alerts
	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string
}

// Load reads configuration from the environment, after loading .env when
// one exists. Missing required keys are fatal.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return Config{
		APIKey:       mustEnv("SOLANATRACKER_API_KEY"),
		APIBaseURL:   getEnv("SOLANATRACKER_BASE_URL", "https://data.solanatracker.io"),
		TradesLimit:  getInt("TRADES_LIMIT", 100),
		APIRateLimit: getFloat("API_RATE_LIMIT", 5),
		HTTPTimeout:  getDuration("HTTP_TIMEOUT", 10*time.Second),
		EnrichTrades: getBool("ENRICH_TRADES", true),

		Wallet:           mustEnv("WALLET_ADDRESS"),
		BaseAssetSymbol:  getEnv("BASE_ASSET_SYMBOL", "SOL"),
		BaseAssetAddress: getEnv("BASE_ASSET_ADDRESS", "So11111111111111111111111111111111111111112"),
		CheckInterval:    getDuration("CHECK_INTERVAL", 4*time.Second),
		Resume:           getBool("RESUME", true),

		DataDir:       getEnv("DATA_DIR", "data"),
		SQLitePath:    os.Getenv("SQLITE_PATH"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),
		HTTPAddr:      getEnv("HTTP_ADDR", ":2020"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		AdminTOTPSecret: getEnv("ADMIN_TOTP_SECRET", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}.withDefaults()
}

// withDefaults fills values whose default depends on another key.
func (c Config) withDefaults() *Config {
	if _, set := os.LookupEnv("SQLITE_PATH"); !set {
		c.SQLitePath = filepath.Join(c.DataDir, "ledger.db")
	}
	return &c
}

// BaseAsset returns the asset trades are classified against.
func (c *Config) BaseAsset() model.Asset {
	return model.Asset{Symbol: c.BaseAssetSymbol, Address: c.BaseAssetAddress}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}
