package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("STARTING_FREE_BALANCE", "")
	t.Setenv("LEADERBOARD_TIMEZONE", "")
	t.Setenv("ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.StoreBackend)
	assert.Equal(t, int64(500000), cfg.StartingFree)
	assert.Equal(t, int64(100000), cfg.StartingChallenge)
	assert.Equal(t, int64(500000), cfg.RefillBonus)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 4*time.Second, cfg.CommentaryTimeout)
	assert.Equal(t, "America/Los_Angeles", cfg.LeaderboardTimezone.String())
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("STORE_BACKEND", "MEMORY")
	t.Setenv("STARTING_FREE_BALANCE", "12.5")
	t.Setenv("BALL_TICK", "20ms")
	t.Setenv("LEADERBOARD_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, int64(1250), cfg.StartingFree)
	assert.Equal(t, 20*time.Millisecond, cfg.BallTick)
	assert.Equal(t, time.UTC, cfg.LeaderboardTimezone)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("ENV", "test")

	t.Run("backend", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "postgres")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("timezone", func(t *testing.T) {
		t.Setenv("LEADERBOARD_TIMEZONE", "Mars/Olympus")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("negative balance", func(t *testing.T) {
		t.Setenv("REFILL_BONUS", "-5")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("production secret", func(t *testing.T) {
		t.Setenv("ENV", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.Error(t, err)
	})
}
