package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string        `mapstructure:"APP_PORT"`
	Env               string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int           `mapstructure:"MAX_REQUESTS_PER_MIN"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
	CORSAllowed       string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	StaticDir         string        `mapstructure:"STATIC_DIR"`
	ShutdownTimeout   time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	// Upstream job provider.
	ActionsAPIURL      string        `mapstructure:"ACTIONS_API_URL"`
	ActionsAPIKey      string        `mapstructure:"ACTIONS_API_KEY"`
	ActionsHTTPTimeout time.Duration `mapstructure:"ACTIONS_HTTP_TIMEOUT"`
	DefaultProvider    string        `mapstructure:"DEFAULT_PROVIDER"`

	// Poll loop and stream lifecycle.
	PollInterval         time.Duration `mapstructure:"POLL_INTERVAL"`
	PollMaxAttempts      int           `mapstructure:"POLL_MAX_ATTEMPTS"`
	CloseGraceDelay      time.Duration `mapstructure:"CLOSE_GRACE_DELAY"`
	ChannelTTL           time.Duration `mapstructure:"CHANNEL_TTL"`
	ChannelSweepInterval time.Duration `mapstructure:"CHANNEL_SWEEP_INTERVAL"`
	SSEKeepAlive         time.Duration `mapstructure:"SSE_KEEPALIVE"`
	SSEBuffer            int           `mapstructure:"SSE_BUFFER"`

	// LLM collaborator.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisReceiptDB       int    `mapstructure:"REDIS_RECEIPT_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// Booking receipts and reminders.
	ReceiptBackend   string        `mapstructure:"RECEIPT_BACKEND"`
	ReceiptTTL       time.Duration `mapstructure:"RECEIPT_TTL"`
	RemindersEnabled bool          `mapstructure:"REMINDERS_ENABLED"`
	ReminderLeadTime time.Duration `mapstructure:"REMINDER_LEAD_TIME"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 60)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("STATIC_DIR", "")
	viper.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	viper.SetDefault("ACTIONS_API_URL", "http://localhost:9000")
	viper.SetDefault("ACTIONS_API_KEY", "")
	viper.SetDefault("ACTIONS_HTTP_TIMEOUT", "10s")
	viper.SetDefault("DEFAULT_PROVIDER", "")

	viper.SetDefault("POLL_INTERVAL", "2s")
	viper.SetDefault("POLL_MAX_ATTEMPTS", 60)
	viper.SetDefault("CLOSE_GRACE_DELAY", "100ms")
	viper.SetDefault("CHANNEL_TTL", "15m")
	viper.SetDefault("CHANNEL_SWEEP_INTERVAL", "1m")
	viper.SetDefault("SSE_KEEPALIVE", "15s")
	viper.SetDefault("SSE_BUFFER", 256)

	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-flash")

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_RECEIPT_DB", 0)
	viper.SetDefault("REDIS_REMINDER_QUEUE_DB", 1)

	viper.SetDefault("RECEIPT_BACKEND", "memory")
	viper.SetDefault("RECEIPT_TTL", "24h")
	viper.SetDefault("REMINDERS_ENABLED", false)
	viper.SetDefault("REMINDER_LEAD_TIME", "24h")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowed, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// UsesRedisReceipts reports whether booking receipts live in redis rather than memory.
func (c Config) UsesRedisReceipts() bool {
	return strings.EqualFold(c.ReceiptBackend, "redis")
}
