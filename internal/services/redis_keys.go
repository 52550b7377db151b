package services

import "time"

const (
	KeyAccount         = "account:%s"
	KeyAccountEmail    = "account:email:%s"
	KeyUserSession     = "session:%s"
	KeySettlement      = "settled:%s"
	KeyLeaderboard     = "leaderboard:%s"
	KeyLeaderboardDate = "leaderboard:last_reset"
	KeyRateLimit       = "ratelimit:%s:%s"

	TTLUserSession = 24 * time.Hour
	TTLSettlement  = 30 * 24 * time.Hour // 30 days

	DefaultRateLimitBets    = 30  // Max 30 bets per minute
	DefaultRateLimitReveals = 120 // Max 120 reveals per minute
)
