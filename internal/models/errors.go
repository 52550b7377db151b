package models

import "errors"

var (
	ErrInsufficientFunds     = errors.New("insufficient balance")
	ErrInvalidWager          = errors.New("invalid wager")
	ErrDuplicateIdentity     = errors.New("user already exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrCommentaryUnavailable = errors.New("commentary unavailable")

	ErrAccountNotFound   = errors.New("account not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrGameNotFound      = errors.New("game not found")
	ErrGameActive        = errors.New("a game is already in progress")
	ErrGameNotActive     = errors.New("game is not active")
	ErrInvalidCell       = errors.New("invalid cell")
	ErrNothingToCashOut  = errors.New("reveal at least one cell before cashing out")
	ErrRefillNotAllowed  = errors.New("refill is only available in free mode")
	ErrInvalidGrid       = errors.New("invalid grid configuration")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrInvalidSignup     = errors.New("email and password are required")
	ErrInvalidMode       = errors.New("invalid game mode")
	ErrInvalidGame       = errors.New("invalid game")
)
