package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverPebble   = "pebble"
	StoreDriverPostgres = "postgres"

	AuthModeJWT  = "jwt"
	AuthModeNone = "none"
)

// Config - структура для хранения конфигураций приложения
type Config struct {
	ServerAddress  string        `mapstructure:"SERVER_ADDRESS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	LogFormat      string        `mapstructure:"LOG_FORMAT"`

	StoreDriver      string `mapstructure:"STORE_DRIVER"`
	PebblePath       string `mapstructure:"PEBBLE_PATH"`
	PebbleSyncWrites bool   `mapstructure:"PEBBLE_SYNC_WRITES"`
	PostgresConn     string `mapstructure:"POSTGRES_CONN"`
	PostgresUser     string `mapstructure:"POSTGRES_USERNAME"`
	PostgresPass     string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string `mapstructure:"POSTGRES_PORT"`
	PostgresDB       string `mapstructure:"POSTGRES_DATABASE"`
	MigrationURL     string `mapstructure:"MIGRATION_URL"`

	AdminID          string `mapstructure:"ADMIN_ID"`
	MaxBidders       int    `mapstructure:"MAX_BIDDERS_PER_TENDER"`
	SelectPageSize   int    `mapstructure:"SELECT_PAGE_SIZE"`
	CommitmentScheme string `mapstructure:"COMMITMENT_SCHEME"`
	CommitmentHash   string `mapstructure:"COMMITMENT_HASH"`
	SealSecret       string `mapstructure:"SEAL_SECRET"`

	AuthMode       string  `mapstructure:"AUTH_MODE"`
	JWTSecret      string  `mapstructure:"JWT_SECRET"`
	JWTIssuer      string  `mapstructure:"JWT_ISSUER"`
	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
	RedisAddr      string  `mapstructure:"REDIS_ADDR"`
	RedisPassword  string  `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int     `mapstructure:"REDIS_DB"`
}

var defaults = map[string]any{
	"SERVER_ADDRESS":         "0.0.0.0:8080",
	"REQUEST_TIMEOUT":        "5s",
	"LOG_LEVEL":              "info",
	"LOG_FORMAT":             "text",
	"STORE_DRIVER":           StoreDriverPebble,
	"PEBBLE_PATH":            "data/tenders",
	"PEBBLE_SYNC_WRITES":     false,
	"POSTGRES_CONN":          "",
	"POSTGRES_USERNAME":      "",
	"POSTGRES_PASSWORD":      "",
	"POSTGRES_HOST":          "",
	"POSTGRES_PORT":          "",
	"POSTGRES_DATABASE":      "",
	"MIGRATION_URL":          "file://migrations",
	"ADMIN_ID":               "",
	"MAX_BIDDERS_PER_TENDER": 256,
	"SELECT_PAGE_SIZE":       64,
	"COMMITMENT_SCHEME":      "hash",
	"COMMITMENT_HASH":        "sha256",
	"SEAL_SECRET":            "",
	"AUTH_MODE":              AuthModeJWT,
	"JWT_SECRET":             "",
	"JWT_ISSUER":             "sealed-tender",
	"RATE_LIMIT_RPS":         0,
	"RATE_LIMIT_BURST":       20,
	"REDIS_ADDR":             "",
	"REDIS_PASSWORD":         "",
	"REDIS_DB":               0,
}

// LoadConfig загружает конфигурацию из файла app.env в path и переменных окружения.
// Переменные окружения имеют приоритет, файл необязателен.
func LoadConfig(path string) (cfg Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}
	if err = v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// PostgresDSN возвращает строку подключения: POSTGRES_CONN либо URL, собранный из отдельных параметров.
func (c Config) PostgresDSN() string {
	if c.PostgresConn != "" {
		return c.PostgresConn
	}
	if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresUser == "" || c.PostgresDB == "" {
		return ""
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPass),
		Host:     net.JoinHostPort(c.PostgresHost, c.PostgresPort),
		Path:     "/" + c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPebble:
		if c.PebblePath == "" {
			return fmt.Errorf("PEBBLE_PATH is required for the pebble store")
		}
	case StoreDriverPostgres:
		if c.PostgresDSN() == "" {
			return fmt.Errorf("POSTGRES_CONN or POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USERNAME and POSTGRES_DATABASE are required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.AuthMode {
	case AuthModeJWT:
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 bytes in jwt auth mode")
		}
	case AuthModeNone:
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.MaxBidders <= 0 {
		return fmt.Errorf("MAX_BIDDERS_PER_TENDER must be positive")
	}
	if c.SelectPageSize <= 0 {
		return fmt.Errorf("SELECT_PAGE_SIZE must be positive")
	}
	if c.RateLimitRPS < 0 || (c.RateLimitRPS > 0 && c.RateLimitBurst <= 0) {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be non-negative, burst positive when limiting")
	}
	return nil
}
