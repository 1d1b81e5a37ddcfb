package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Port              string
	AllowedOrigin     string
	DatabaseURL       string
	MigrateOnStart    bool
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	AuthSecret        string
	AccessTokenTTL    time.Duration
	CashierPIN        string
	ManagerPIN        string
	StoreName         string
	CurrencyLabel     string
	CurrencyExponent  int32
	Location          *time.Location
	CartTTL           time.Duration
	LowStockThreshold int
	LogFormat         string
	LogLevel          string
	MetricsNamespace  string
}

// Load reads the environment, after an optional .env file. Secrets have no
// defaults; cmd/server refuses to start when they are missing or weak.
func Load() (Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	tz := valueOrDefault(k.String("TIMEZONE"), "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("TIMEZONE %q: %w", tz, err)
	}

	exponent := positiveInt(k.String("CURRENCY_EXPONENT"), 2)
	if k.String("CURRENCY_EXPONENT") == "0" {
		exponent = 0
	}

	return Config{
		Port:              valueOrDefault(k.String("PORT"), "8080"),
		AllowedOrigin:     valueOrDefault(k.String("ALLOWED_ORIGIN"), "http://127.0.0.1:3000"),
		DatabaseURL:       strings.TrimSpace(k.String("DATABASE_URL")),
		MigrateOnStart:    parseBool(k.String("MIGRATE_ON_START"), true),
		RedisAddr:         strings.TrimSpace(k.String("REDIS_ADDR")),
		RedisPassword:     k.String("REDIS_PASSWORD"),
		RedisDB:           positiveInt(k.String("REDIS_DB"), 0),
		AuthSecret:        strings.TrimSpace(k.String("AUTH_SECRET")),
		AccessTokenTTL:    time.Duration(positiveInt(k.String("ACCESS_TOKEN_TTL_MINUTES"), 480)) * time.Minute,
		CashierPIN:        strings.TrimSpace(k.String("CASHIER_PIN")),
		ManagerPIN:        strings.TrimSpace(k.String("MANAGER_PIN")),
		StoreName:         valueOrDefault(k.String("STORE_NAME"), "Kedai POS"),
		CurrencyLabel:     valueOrDefault(k.String("CURRENCY_LABEL"), "Rp"),
		CurrencyExponent:  int32(exponent),
		Location:          loc,
		CartTTL:           time.Duration(positiveInt(k.String("CART_TTL_HOURS"), 12)) * time.Hour,
		LowStockThreshold: positiveInt(k.String("LOW_STOCK_THRESHOLD"), 5),
		LogFormat:         valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:          valueOrDefault(k.String("LOG_LEVEL"), "info"),
		MetricsNamespace:  valueOrDefault(k.String("METRICS_NAMESPACE"), "kedaipos"),
	}, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func valueOrDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func positiveInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
