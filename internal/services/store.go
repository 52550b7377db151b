package services

import (
	"context"
	"time"

	"zenith-casino/internal/models"
)

// AccountStore holds account records. Every mutation is an atomic
// read-modify-write and returns the account as it is after the change.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)

	// Debit fails with models.ErrInsufficientFunds and leaves the balance untouched.
	Debit(ctx context.Context, accountID string, mode models.Mode, amount int64) (*models.Account, error)
	// Credit applies at most once per non-empty ref. applied is false for a repeat.
	Credit(ctx context.Context, accountID string, mode models.Mode, amount int64, ref string) (account *models.Account, applied bool, err error)
	RecordPayout(ctx context.Context, accountID string, game models.Game, amount int64) (*models.Account, error)
}

type SessionStore interface {
	StoreUserSession(ctx context.Context, session *models.UserSession, expiry time.Duration) error
	GetUserSession(ctx context.Context, sessionID string) (*models.UserSession, error)
	DeleteUserSession(ctx context.Context, sessionID string) error
}

// LeaderboardStore keeps the four score tables and their shared reset date.
// Both calls clear every table first when today differs from the stored date.
type LeaderboardStore interface {
	RecordScore(ctx context.Context, key models.TableKey, email string, score int64, today string) (reset bool, err error)
	TopScores(ctx context.Context, key models.TableKey, n int, today string) (entries []models.LeaderboardEntry, reset bool, err error)
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, accountID, action string, limit int, window time.Duration) (bool, error)
}

type Store interface {
	AccountStore
	SessionStore
	LeaderboardStore
	RateLimiter
	Close() error
}
