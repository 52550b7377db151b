package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zenith-casino/internal/models"
	"zenith-casino/internal/services"
)

const maxLeaderboardLimit = 100

type LeaderboardHandler struct {
	leaderboard *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboard *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	game, err := models.ParseGame(c.Param("game"))
	if err != nil {
		respondError(c, err)
		return
	}
	mode, err := models.ParseMode(c.Param("mode"))
	if err != nil {
		respondError(c, err)
		return
	}

	limit := models.DefaultLeaderboardSize
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "limit must be a positive integer",
				"code":    "INVALID_REQUEST",
			})
			return
		}
		if limit > maxLeaderboardLimit {
			limit = maxLeaderboardLimit
		}
	}

	table, err := h.leaderboard.TopN(c.Request.Context(), models.TableKey{Game: game, Mode: mode}, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"table":     table.Key.String(),
		"date":      table.Date,
		"resets_at": table.ResetsAt,
		"entries":   table.Rows(),
	})
}
