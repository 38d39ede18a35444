package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the process configuration read from the environment.
type Config struct {
	// RPC client settings
	RPCUrl         string
	HTTPTimeout    time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	RPCRateLimit   float64
	RPCBurst       int
	ConfirmTimeout time.Duration

	// Signing key, used when no --keyfile is given
	PrivateKey string

	// Redis trade journal; empty disables it
	RedisAddr string

	// ClickHouse trade store; empty addr disables it
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// Quote server
	APIAddr      string
	APIKey       string
	APIRateLimit float64

	// Pools and fees
	PoolConfigPath string
	FeeNumerator   uint64
	FeeDenominator uint64

	LogLevel string
}

func Load() *Config {
	return &Config{
		// RPC
		RPCUrl:         getEnv("SOLANA_RPC_URL", ""),
		HTTPTimeout:    getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:     getIntEnv("MAX_RETRIES", 3),
		RetryBackoff:   getDurationEnv("RETRY_BACKOFF", 500*time.Millisecond),
		RPCRateLimit:   getFloatEnv("RPC_RATE_LIMIT", 10),
		RPCBurst:       getIntEnv("RPC_BURST", 5),
		ConfirmTimeout: getDurationEnv("CONFIRM_TIMEOUT", 60*time.Second),

		PrivateKey: getEnv("WALLET_PRIVATE_KEY", ""),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", ""),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "wmgr"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// Server
		APIAddr:      getEnv("API_ADDR", ":8080"),
		APIKey:       getEnv("API_KEY", ""),
		APIRateLimit: getFloatEnv("API_RATE_LIMIT", 20),

		// Pools
		PoolConfigPath: getEnv("POOL_CONFIG", ""),
		FeeNumerator:   getUintEnv("FEE_NUMERATOR", 25),
		FeeDenominator: getUintEnv("FEE_DENOMINATOR", 10000),

		LogLevel: getEnv("WMGR_LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getUintEnv(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseUint(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
