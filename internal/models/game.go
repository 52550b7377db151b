package models

import (
	"fmt"
	"strings"
	"time"

	"zenith-casino/internal/gamemath"
)

type Game string

const (
	GamePlinko Game = "plinko"
	GameMines  Game = "mines"
)

var Games = []Game{GamePlinko, GameMines}

func ParseGame(s string) (Game, error) {
	switch Game(strings.ToLower(strings.TrimSpace(s))) {
	case GamePlinko:
		return GamePlinko, nil
	case GameMines:
		return GameMines, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidGame, s)
	}
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToUpper(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium, "":
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownDifficulty, s)
	}
}

// Rows is the ball-drop board height for the tier.
func (d Difficulty) Rows() int {
	switch d {
	case DifficultyEasy:
		return 8
	case DifficultyHard:
		return 16
	default:
		return 12
	}
}

// MinesPreset returns the grid dimension and mine count for the tier.
func (d Difficulty) MinesPreset() (gridSize, mineCount int) {
	switch d {
	case DifficultyEasy:
		return 3, 2
	case DifficultyHard:
		return 8, 15
	default:
		return 5, 5
	}
}

const (
	MinGridSize = 2
	MaxGridSize = 10
)

// ValidateGrid accepts a gridSize x gridSize board when the first safe reveal
// already pays more than the wager.
func ValidateGrid(gridSize, mineCount int) error {
	if gridSize < MinGridSize || gridSize > MaxGridSize {
		return fmt.Errorf("%w: grid size must be between %d and %d, got %d", ErrInvalidGrid, MinGridSize, MaxGridSize, gridSize)
	}
	total := gridSize * gridSize
	if mineCount < 1 || mineCount >= total {
		return fmt.Errorf("%w: mine count must be between 1 and %d, got %d", ErrInvalidGrid, total-1, mineCount)
	}
	if gamemath.HouseEdge*float64(total) <= float64(total-mineCount) {
		return fmt.Errorf("%w: %d mines on a %dx%d grid pay nothing for a safe reveal", ErrInvalidGrid, mineCount, gridSize, gridSize)
	}
	return nil
}

type MinesState string

const (
	MinesIdle     MinesState = "IDLE"
	MinesActive   MinesState = "ACTIVE"
	MinesResolved MinesState = "RESOLVED"
)

type MinesOutcome string

const (
	OutcomeBust        MinesOutcome = "bust"
	OutcomeCashOut     MinesOutcome = "cashout"
	OutcomeAutoCashOut MinesOutcome = "auto_cashout"
	OutcomeExpired     MinesOutcome = "expired"
)

type Cell struct {
	IsMine   bool `json:"is_mine"`
	Revealed bool `json:"revealed"`
}

// CellView hides the mine flag of unrevealed cells while a session is active.
type CellView struct {
	Index    int   `json:"index"`
	Revealed bool  `json:"revealed"`
	Mine     *bool `json:"mine,omitempty"`
}

type MinesSnapshot struct {
	ID             string       `json:"id"`
	AccountID      string       `json:"account_id"`
	Mode           Mode         `json:"mode"`
	Wager          int64        `json:"wager"`
	GridSize       int          `json:"grid_size"`
	MineCount      int          `json:"mine_count"`
	Cells          []CellView   `json:"cells"`
	RevealedCount  int          `json:"revealed_count"`
	State          MinesState   `json:"state"`
	Multiplier     float64      `json:"multiplier"`
	NextMultiplier float64      `json:"next_multiplier,omitempty"`
	Payout         int64        `json:"payout"`
	Outcome        MinesOutcome `json:"outcome,omitempty"`
	ServerSeedHash string       `json:"server_seed_hash"`
	StartedAt      time.Time    `json:"started_at"`
	EndedAt        time.Time    `json:"ended_at,omitempty"`
}

type BallSnapshot struct {
	ID             string     `json:"id"`
	AccountID      string     `json:"account_id"`
	Mode           Mode       `json:"mode"`
	Wager          int64      `json:"wager"`
	Difficulty     Difficulty `json:"difficulty"`
	Rows           int        `json:"rows"`
	Path           []int      `json:"path"`
	Row            int        `json:"row"`
	X              float64    `json:"x"`
	Y              float64    `json:"y"`
	Landed         bool       `json:"landed"`
	Bucket         int        `json:"bucket"`
	Multiplier     float64    `json:"multiplier"`
	Payout         int64      `json:"payout"`
	ServerSeedHash string     `json:"server_seed_hash"`
}

// Resolution is reported once per finished mine session or landed ball.
type Resolution struct {
	Ref       string
	AccountID string
	Email     string
	Game      Game
	Mode      Mode
	Wager     int64
	Payout    int64
	Balance   int64
}

func (r Resolution) Outcome() string {
	if r.Payout > 0 {
		return "win"
	}
	return "loss"
}

type CommentaryRequest struct {
	Game    Game
	Outcome string
	Amount  int64
	Balance int64
}

type VerificationData struct {
	ServerSeedHash     string `json:"server_seed_hash"`
	PreviousSeedHash   string `json:"previous_seed_hash,omitempty"`
	PreviousServerSeed string `json:"previous_server_seed,omitempty"`
	NextRotation       string `json:"next_rotation,omitempty"`
}

type VerifyRequest struct {
	ServerSeed string     `json:"server_seed" binding:"required"`
	Ref        string     `json:"ref" binding:"required"`
	Game       Game       `json:"game" binding:"required"`
	GridSize   int        `json:"grid_size"`
	MineCount  int        `json:"mine_count"`
	Difficulty Difficulty `json:"difficulty"`
}

type VerifyResult struct {
	ServerSeedHash string  `json:"server_seed_hash"`
	Ref            string  `json:"ref"`
	Game           Game    `json:"game"`
	Mines          []int   `json:"mines,omitempty"`
	Path           []int   `json:"path,omitempty"`
	Bucket         int     `json:"bucket,omitempty"`
	Multiplier     float64 `json:"multiplier,omitempty"`
}

// MinesStartRequest sizes a round by difficulty unless GridSize and MineCount are both set.
type MinesStartRequest struct {
	Mode       Mode       `json:"mode"`
	Wager      int64      `json:"-"`
	Difficulty Difficulty `json:"difficulty"`
	GridSize   int        `json:"grid_size"`
	MineCount  int        `json:"mine_count"`
}

type DropRequest struct {
	Mode       Mode       `json:"mode"`
	Wager      int64      `json:"-"`
	Difficulty Difficulty `json:"difficulty"`
}
