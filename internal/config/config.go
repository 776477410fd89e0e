package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries everything main() needs to wire the process. Every field
// has a local-development default so the server starts with no environment.
type Config struct {
	HTTPAddr        string
	LogMode         string
	MySQLDSN        string
	RedisAddr       string
	RedisChannel    string
	CheckoutLogPath string
	JWTSecret       string
	ShutdownTimeout time.Duration
}

func Load() Config {
	return Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		LogMode:         getEnv("LOG_MODE", "dev"),
		MySQLDSN:        getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/storefront?parseTime=true"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisChannel:    getEnv("REDIS_CHANNEL", "catalog"),
		CheckoutLogPath: getEnv("CHECKOUT_LOG_PATH", "./data/checkout.db"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret"),
		ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SEC", 5)) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
