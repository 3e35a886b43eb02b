// Package config loads runtime settings from .env, an optional config.yaml and
// the environment, in that order of precedence (environment wins).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// History
	HistoryLimit = 200

	// WebSocket
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 4096
	SendBufferSize = 256

	// EventTimeout bounds the storage and provider calls made for one
	// inbound websocket event.
	EventTimeout = 15 * time.Second

	// Payments
	PaymentCurrency           = "BRL"
	DefaultPaymentDescription = "Pagamento Regimath"
)

type Config struct {
	Server   ServerConfig
	Session  SessionConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Payments PaymentsConfig
	AMQP     AMQPConfig
	Telegram TelegramConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port    int
	SiteURL string `mapstructure:"site_url"`
	Locale  string
}

type SessionConfig struct {
	Secret     string
	CookieName string `mapstructure:"cookie_name"`
	TTL        time.Duration
}

type DatabaseConfig struct {
	Driver string // sqlite, postgres, mysql
	DSN    string
	Path   string // sqlite only
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type PaymentsConfig struct {
	AccessToken string `mapstructure:"access_token"`
	Sandbox     bool
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type TelegramConfig struct {
	BotToken  string `mapstructure:"bot_token"`
	OpsChatID int64  `mapstructure:"ops_chat_id"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads the configuration. A missing .env or config.yaml is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	setDefaults(v)
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Session.TTL = v.GetDuration("session.ttl")

	if cfg.Server.SiteURL == "" {
		cfg.Server.SiteURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	cfg.Server.SiteURL = strings.TrimRight(cfg.Server.SiteURL, "/")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.site_url", "")
	v.SetDefault("server.locale", "pt-BR")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.cookie_name", "regimath_session")
	v.SetDefault("session.ttl", "72h")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.path", "data/regimath.db")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("payments.access_token", "")
	v.SetDefault("payments.sandbox", true)
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "payments")
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.ops_chat_id", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.site_url", "SITE_URL")
	v.BindEnv("server.locale", "LOCALE")
	v.BindEnv("session.secret", "SESSION_SECRET")
	v.BindEnv("session.cookie_name", "SESSION_COOKIE")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.dsn", "DB_DSN")
	v.BindEnv("database.path", "DB_PATH")
	v.BindEnv("redis.address", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("payments.access_token", "MP_ACCESS_TOKEN")
	v.BindEnv("payments.sandbox", "MP_SANDBOX")
	v.BindEnv("amqp.url", "AMQP_URL")
	v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.ops_chat_id", "TELEGRAM_OPS_CHAT_ID")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.pretty", "LOG_PRETTY")
}
