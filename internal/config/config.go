package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration. Money values are cents.
type Config struct {
	// Server
	Port     string
	Env      string // "development", "production" or "test"
	LogLevel string

	// Storage
	StoreBackend string // "redis" or "memory"
	RedisURL     string
	RedisPass    string
	RedisDB      int

	// Auth
	JWTSecret     string
	JWTExpiry     time.Duration
	SessionMaxAge time.Duration

	// Dealer commentary
	GeminiAPIKey      string
	GeminiModel       string
	GeminiBaseURL     string
	CommentaryTimeout time.Duration

	// Economy
	StartingFree      int64
	StartingChallenge int64
	RefillBonus       int64
	MaxBet            int64

	// Leaderboard day boundary
	LeaderboardTimezone *time.Location

	// Ball animation
	BallTick time.Duration

	// Stale mine rounds
	MinesMaxIdle time.Duration
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", "redis")),
		RedisURL:     getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:    os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	if cfg.JWTExpiry, err = getDuration("JWT_EXPIRY", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionMaxAge, err = getDuration("SESSION_MAX_AGE", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CommentaryTimeout, err = getDuration("COMMENTARY_TIMEOUT", 4*time.Second); err != nil {
		return nil, err
	}
	if cfg.BallTick, err = getDuration("BALL_TICK", 16*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.MinesMaxIdle, err = getDuration("MINES_MAX_IDLE", 30*time.Minute); err != nil {
		return nil, err
	}

	if cfg.StartingFree, err = getCoins("STARTING_FREE_BALANCE", "5000"); err != nil {
		return nil, err
	}
	if cfg.StartingChallenge, err = getCoins("STARTING_CHALLENGE_BALANCE", "1000"); err != nil {
		return nil, err
	}
	if cfg.RefillBonus, err = getCoins("REFILL_BONUS", "5000"); err != nil {
		return nil, err
	}
	if cfg.MaxBet, err = getCoins("MAX_BET", "100000"); err != nil {
		return nil, err
	}

	tz := getEnv("LEADERBOARD_TIMEZONE", "America/Los_Angeles")
	if cfg.LeaderboardTimezone, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid LEADERBOARD_TIMEZONE %q: %w", tz, err)
	}

	if cfg.StoreBackend != "redis" && cfg.StoreBackend != "memory" {
		return nil, fmt.Errorf("STORE_BACKEND must be redis or memory, got %q", cfg.StoreBackend)
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getCoins parses a whole or fractional coin amount into cents.
func getCoins(key, fallback string) (int64, error) {
	amount, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if amount.IsNegative() {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return amount.Shift(2).Round(0).IntPart(), nil
}
