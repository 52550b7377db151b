package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"zenith-casino/internal/models"
	"zenith-casino/internal/services"
)

type GameHandler struct {
	gameEngine *services.GameEngine
	maxBet     int64
}

func NewGameHandler(gameEngine *services.GameEngine, maxBet int64) *GameHandler {
	return &GameHandler{
		gameEngine: gameEngine,
		maxBet:     maxBet,
	}
}

type minesStartRequest struct {
	Mode       string          `json:"mode"`
	Wager      decimal.Decimal `json:"wager"`
	Difficulty string          `json:"difficulty"`
	GridSize   int             `json:"grid_size"`
	MineCount  int             `json:"mine_count"`
}

type revealRequest struct {
	Cell *int `json:"cell" binding:"required"`
}

type dropRequest struct {
	Mode       string          `json:"mode"`
	Wager      decimal.Decimal `json:"wager"`
	Difficulty string          `json:"difficulty"`
}

// parseWager resolves the shared mode, difficulty and wager fields of a bet.
func (h *GameHandler) parseWager(mode, difficulty string, wager decimal.Decimal) (models.Mode, models.Difficulty, int64, error) {
	m, err := models.ParseMode(mode)
	if err != nil {
		return "", "", 0, err
	}
	d, err := models.ParseDifficulty(difficulty)
	if err != nil {
		return "", "", 0, err
	}
	cents, err := models.ValidateWager(wager, h.maxBet)
	if err != nil {
		return "", "", 0, err
	}
	return m, d, cents, nil
}

func (h *GameHandler) StartMines(c *gin.Context) {
	var req minesStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	mode, difficulty, wager, err := h.parseWager(req.Mode, req.Difficulty, req.Wager)
	if err != nil {
		respondError(c, err)
		return
	}

	snap, err := h.gameEngine.Mines.Start(c.Request.Context(), accountID(c), models.MinesStartRequest{
		Mode:       mode,
		Wager:      wager,
		Difficulty: difficulty,
		GridSize:   req.GridSize,
		MineCount:  req.MineCount,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game":    snap,
	})
}

func (h *GameHandler) RevealMine(c *gin.Context) {
	var req revealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	snap, err := h.gameEngine.Mines.Reveal(c.Request.Context(), accountID(c), *req.Cell)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game":    snap,
	})
}

func (h *GameHandler) CashoutMines(c *gin.Context) {
	snap, err := h.gameEngine.Mines.CashOut(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game":    snap,
		"payout":  models.FormatCoins(snap.Payout),
	})
}

func (h *GameHandler) GetActiveMines(c *gin.Context) {
	snap, err := h.gameEngine.Mines.Active(accountID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game":    snap,
	})
}

func (h *GameHandler) DropBall(c *gin.Context) {
	var req dropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	mode, difficulty, wager, err := h.parseWager(req.Mode, req.Difficulty, req.Wager)
	if err != nil {
		respondError(c, err)
		return
	}

	snap, err := h.gameEngine.Plinko.Drop(c.Request.Context(), accountID(c), models.DropRequest{
		Mode:       mode,
		Wager:      wager,
		Difficulty: difficulty,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"ball":    snap,
	})
}

func (h *GameHandler) GetBalls(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balls":   h.gameEngine.Plinko.Balls(accountID(c)),
	})
}

func (h *GameHandler) GetVerificationData(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"verification": h.gameEngine.GetVerificationData(),
	})
}

// VerifyGame replays a round from a disclosed server seed so players can
// check that mines or a ball path were fixed before the bet.
func (h *GameHandler) VerifyGame(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	difficulty, err := models.ParseDifficulty(string(req.Difficulty))
	if err != nil {
		respondError(c, err)
		return
	}
	req.Difficulty = difficulty

	result, err := h.gameEngine.VerifyGameResult(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}
