package services

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"zenith-casino/internal/models"
)

// EconomyManager owns the balance ledger. Amounts are cents.
type EconomyManager struct {
	accounts    AccountStore
	refillBonus int64
}

func NewEconomyManager(accounts AccountStore, refillBonus int64) *EconomyManager {
	return &EconomyManager{
		accounts:    accounts,
		refillBonus: refillBonus,
	}
}

// Bet debits amount from the mode's balance before any game session starts.
// A rejected bet leaves the ledger untouched.
func (e *EconomyManager) Bet(ctx context.Context, accountID string, mode models.Mode, amount int64) (*models.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: wager must be positive", models.ErrInvalidWager)
	}

	account, err := e.accounts.Debit(ctx, accountID, mode, amount)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientFunds) {
			log.WithFields(log.Fields{
				"account_id": accountID,
				"mode":       mode,
				"amount":     amount,
			}).Info("Bet rejected: insufficient balance")
		}
		return nil, err
	}
	return account, nil
}

// Credit adds amount to the mode's balance. Zero is a valid credit.
// A non-empty ref makes the credit apply at most once.
func (e *EconomyManager) Credit(ctx context.Context, accountID string, mode models.Mode, amount int64, ref string) (*models.Account, error) {
	if amount < 0 {
		return nil, fmt.Errorf("credit must not be negative, got %d", amount)
	}
	account, applied, err := e.accounts.Credit(ctx, accountID, mode, amount, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to credit account: %w", err)
	}
	if !applied {
		log.WithFields(log.Fields{
			"account_id": accountID,
			"ref":        ref,
		}).Warn("Duplicate settlement ignored")
	}
	return account, nil
}

// RecordPayout raises the account's best payout for game when amount beats it.
func (e *EconomyManager) RecordPayout(ctx context.Context, accountID string, game models.Game, amount int64) (*models.Account, error) {
	account, err := e.accounts.RecordPayout(ctx, accountID, game, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to record payout: %w", err)
	}
	return account, nil
}

// Settle credits a resolved wager and records its payout. ref is the bet id.
func (e *EconomyManager) Settle(ctx context.Context, accountID string, mode models.Mode, game models.Game, payout int64, ref string) (*models.Account, error) {
	if _, err := e.Credit(ctx, accountID, mode, payout, ref); err != nil {
		return nil, err
	}
	account, err := e.RecordPayout(ctx, accountID, game, payout)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"account_id": accountID,
		"game":       game,
		"mode":       mode,
		"payout":     payout,
		"ref":        ref,
	}).Debug("Wager settled")

	return account, nil
}

// Refill tops up the free balance. Challenge balances cannot be refilled.
func (e *EconomyManager) Refill(ctx context.Context, accountID string, mode models.Mode) (*models.Account, error) {
	if !mode.Refillable() {
		return nil, models.ErrRefillNotAllowed
	}
	return e.Credit(ctx, accountID, mode, e.refillBonus, "")
}

func (e *EconomyManager) Account(ctx context.Context, accountID string) (*models.Account, error) {
	return e.accounts.GetAccount(ctx, accountID)
}
