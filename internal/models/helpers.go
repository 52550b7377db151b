package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func GenerateAccountID() string {
	return uuid.New().String()
}

func GenerateGameID() string {
	return uuid.New().String()
}

func GenerateSessionID() string {
	return uuid.New().String()
}

// CoinsToCents converts a whole/fractional coin amount into ledger cents.
func CoinsToCents(coins decimal.Decimal) int64 {
	return coins.Shift(2).Round(0).IntPart()
}

func CentsToCoins(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func FormatCoins(cents int64) string {
	return CentsToCoins(cents).StringFixed(2)
}

// CalculatePayout applies a multiplier to a wager, rounding half away from zero to the cent.
func CalculatePayout(wager int64, multiplier float64) int64 {
	return decimal.NewFromInt(wager).
		Mul(decimal.NewFromFloat(multiplier)).
		Round(0).
		IntPart()
}

// ValidateWager converts a requested coin amount into cents. maxBet of zero means unlimited.
func ValidateWager(amount decimal.Decimal, maxBet int64) (int64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: wager must be positive", ErrInvalidWager)
	}
	shifted := amount.Shift(2)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("%w: wager has more than two decimal places", ErrInvalidWager)
	}
	cents := shifted.IntPart()
	if maxBet > 0 && cents > maxBet {
		return 0, fmt.Errorf("%w: maximum bet is %s", ErrInvalidWager, FormatCoins(maxBet))
	}
	return cents, nil
}
