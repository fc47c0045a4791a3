// Package config provides configuration loading and management for the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Bacon-labs/88mph-frontend/internal/dashboard"
	"github.com/Bacon-labs/88mph-frontend/internal/fee"
	"github.com/Bacon-labs/88mph-frontend/internal/num"
	"github.com/Bacon-labs/88mph-frontend/internal/rate"
	"github.com/Bacon-labs/88mph-frontend/internal/types"
)

// DefaultSubgraphURL is the protocol's hosted subgraph.
const DefaultSubgraphURL = "https://api.thegraph.com/subgraphs/name/bacon-labs/eighty-eight-mph"

// Config holds all application configuration
type Config struct {
	// HTTP server port
	Port string

	// Query service endpoint
	SubgraphURL string

	// Ordered pool table and the pools excluded from best-rate selection
	Pools         types.Registry
	ExcludedPools []common.Address

	// Protocol constants
	ProtocolFee      num.Num
	UIRMultiplier    num.Num
	MinDepositPeriod time.Duration
	TokenDecimals    int32

	// OpenTelemetry endpoint for observability
	OtelEndpoint string

	// Refresh cadence and query timeout
	PollInterval   time.Duration
	RequestTimeout time.Duration

	// Snapshot guard settings
	MaxInterestRate   num.Num
	MaxDepositChange  num.Num
	CircuitResetDelay time.Duration

	// HTTP rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load creates a new Config from environment variables
func Load() (Config, error) {
	pools, err := types.ParseRegistry(GetEnvOrDefault("POOLS", types.DefaultPoolSpec))
	if err != nil {
		return Config{}, fmt.Errorf("invalid POOLS: %w", err)
	}
	excluded, err := types.ParseAddresses(GetEnvOrDefault("EXCLUDED_POOLS", ""))
	if err != nil {
		return Config{}, fmt.Errorf("invalid EXCLUDED_POOLS: %w", err)
	}

	decimals := GetEnvAsInt("TOKEN_DECIMALS", 18)
	if decimals < 0 || decimals > int(num.DivPrecision) {
		return Config{}, fmt.Errorf("TOKEN_DECIMALS must be in [0, %d], got %d", num.DivPrecision, decimals)
	}

	cfg := Config{
		Port:              GetEnvOrDefault("PORT", "8080"),
		SubgraphURL:       GetEnvOrDefault("SUBGRAPH_URL", DefaultSubgraphURL),
		Pools:             pools,
		ExcludedPools:     excluded,
		ProtocolFee:       GetEnvAsNum("PROTOCOL_FEE", fee.DefaultRate),
		UIRMultiplier:     GetEnvAsNum("UIR_MULTIPLIER", rate.DefaultUIRMultiplier),
		MinDepositPeriod:  GetEnvAsDuration("MIN_DEPOSIT_PERIOD", dashboard.DefaultMinDepositPeriod),
		TokenDecimals:     int32(decimals),
		OtelEndpoint:      GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		PollInterval:      GetEnvAsDuration("POLL_INTERVAL", 5*time.Minute),
		RequestTimeout:    GetEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		MaxInterestRate:   GetEnvAsNum("MAX_INTEREST_RATE", num.One),
		MaxDepositChange:  GetEnvAsNum("MAX_DEPOSIT_CHANGE", num.MustParse("0.5")), // 50% max change between refreshes
		CircuitResetDelay: GetEnvAsDuration("CIRCUIT_RESET_DELAY", 5*time.Minute),
		RateLimitRPS:      GetEnvAsFloat("RATE_LIMIT_RPS", 10.0),
		RateLimitBurst:    GetEnvAsInt("RATE_LIMIT_BURST", 20),
	}

	if !cfg.ProtocolFee.GreaterThanOrEqual(num.Zero) || !cfg.ProtocolFee.LessThan(num.One) {
		return Config{}, fmt.Errorf("PROTOCOL_FEE must be in [0, 1), got %s", cfg.ProtocolFee)
	}
	if !cfg.UIRMultiplier.GreaterThan(num.Zero) {
		return Config{}, fmt.Errorf("UIR_MULTIPLIER must be positive, got %s", cfg.UIRMultiplier)
	}
	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	return cfg, nil
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsNum retrieves an environment variable as a decimal with a default value
func GetEnvAsNum(key string, defaultValue num.Num) num.Num {
	if value, exists := GetEnv(key); exists {
		if n := num.FromString(strings.TrimSpace(value)); !n.IsNaN() {
			return n
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return duration
		}
	}
	return defaultValue
}
