package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zenith-casino/internal/models"
	"zenith-casino/internal/services"
)

type UserHandler struct {
	auth        *services.AuthService
	economy     *services.EconomyManager
	dealer      *services.DealerService
	broadcaster services.Broadcaster
}

func NewUserHandler(auth *services.AuthService, economy *services.EconomyManager, dealer *services.DealerService, broadcaster services.Broadcaster) *UserHandler {
	return &UserHandler{
		auth:        auth,
		economy:     economy,
		dealer:      dealer,
		broadcaster: broadcaster,
	}
}

type refillRequest struct {
	Mode string `json:"mode"`
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	account, err := h.economy.Account(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    models.NewAccountView(account),
		"session": gin.H{
			"session_id": c.GetString("session_id"),
		},
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), c.GetString("session_id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (h *UserHandler) GetBalance(c *gin.Context) {
	mode, err := models.ParseMode(c.Query("mode"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	account, err := h.economy.Account(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"mode":           mode,
		"balance":        models.FormatCoins(account.Balance(mode)),
		"balance_cents":  account.Balance(mode),
		"highest_payout": models.NewAccountView(account).HighestPayouts,
	})
}

func (h *UserHandler) Refill(c *gin.Context) {
	var req refillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	mode, err := models.ParseMode(req.Mode)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	id := accountID(c)
	account, err := h.economy.Refill(c.Request.Context(), id, mode)
	if err != nil {
		respondError(c, err)
		return
	}

	h.broadcaster.BroadcastBalance(id, mode, account.Balance(mode))
	h.dealer.Say(id, services.RefillMessage)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"mode":    mode,
		"balance": models.FormatCoins(account.Balance(mode)),
		"dealer":  services.RefillMessage,
	})
}
