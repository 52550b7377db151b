package models

import (
	"fmt"
	"strings"
	"time"
)

type Mode string

const (
	ModeFree      Mode = "FREE"
	ModeChallenge Mode = "CHALLENGE"
)

var Modes = []Mode{ModeFree, ModeChallenge}

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeFree, "":
		return ModeFree, nil
	case ModeChallenge:
		return ModeChallenge, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidMode, s)
	}
}

// Refillable reports whether the holder may top the balance up manually.
func (m Mode) Refillable() bool {
	return m == ModeFree
}

// Account is the durable per-identity record. Balances and payouts are in cents.
type Account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`

	Balances       map[Mode]int64 `json:"balances"`
	HighestPayouts map[Game]int64 `json:"highest_payouts"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

func NewAccount(id, email, passwordHash string, freeBalance, challengeBalance int64) *Account {
	now := time.Now().Unix()
	return &Account{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Balances: map[Mode]int64{
			ModeFree:      freeBalance,
			ModeChallenge: challengeBalance,
		},
		HighestPayouts: map[Game]int64{
			GamePlinko: 0,
			GameMines:  0,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (a *Account) Balance(mode Mode) int64 {
	return a.Balances[mode]
}

func (a *Account) HighestPayout(game Game) int64 {
	return a.HighestPayouts[game]
}

// DisplayName is the local part of the login email.
func (a *Account) DisplayName() string {
	return DisplayName(a.Email)
}

func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Balances = make(map[Mode]int64, len(a.Balances))
	for k, v := range a.Balances {
		c.Balances[k] = v
	}
	c.HighestPayouts = make(map[Game]int64, len(a.HighestPayouts))
	for k, v := range a.HighestPayouts {
		c.HighestPayouts[k] = v
	}
	return &c
}

func DisplayName(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserSession is the persisted current-session identity record behind a token.
type UserSession struct {
	SessionID    string    `json:"session_id"`
	AccountID    string    `json:"account_id"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

type AccountView struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	DisplayName    string          `json:"display_name"`
	Balances       map[Mode]string `json:"balances"`
	HighestPayouts map[Game]string `json:"highest_payouts"`
}

func NewAccountView(a *Account) AccountView {
	v := AccountView{
		ID:             a.ID,
		Email:          a.Email,
		DisplayName:    a.DisplayName(),
		Balances:       make(map[Mode]string, len(a.Balances)),
		HighestPayouts: make(map[Game]string, len(a.HighestPayouts)),
	}
	for k, c := range a.Balances {
		v.Balances[k] = FormatCoins(c)
	}
	for k, c := range a.HighestPayouts {
		v.HighestPayouts[k] = FormatCoins(c)
	}
	return v
}
