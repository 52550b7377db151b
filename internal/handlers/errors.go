package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"zenith-casino/internal/models"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{models.ErrInsufficientFunds, http.StatusPaymentRequired, "INSUFFICIENT_FUNDS"},
	{models.ErrInvalidWager, http.StatusBadRequest, "INVALID_WAGER"},
	{models.ErrDuplicateIdentity, http.StatusConflict, "DUPLICATE_IDENTITY"},
	{models.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{models.ErrSessionNotFound, http.StatusUnauthorized, "SESSION_NOT_FOUND"},
	{models.ErrAccountNotFound, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
	{models.ErrGameNotFound, http.StatusNotFound, "GAME_NOT_FOUND"},
	{models.ErrGameActive, http.StatusConflict, "GAME_ACTIVE"},
	{models.ErrGameNotActive, http.StatusConflict, "GAME_NOT_ACTIVE"},
	{models.ErrNothingToCashOut, http.StatusConflict, "NOTHING_TO_CASH_OUT"},
	{models.ErrInvalidCell, http.StatusBadRequest, "INVALID_CELL"},
	{models.ErrInvalidGrid, http.StatusBadRequest, "INVALID_GRID"},
	{models.ErrUnknownDifficulty, http.StatusBadRequest, "UNKNOWN_DIFFICULTY"},
	{models.ErrInvalidSignup, http.StatusBadRequest, "INVALID_SIGNUP"},
	{models.ErrRefillNotAllowed, http.StatusBadRequest, "REFILL_NOT_ALLOWED"},
	{models.ErrInvalidMode, http.StatusBadRequest, "INVALID_MODE"},
	{models.ErrInvalidGame, http.StatusBadRequest, "INVALID_GAME"},
}

// respondError writes the JSON error body for err. Unknown errors are logged
// and reported as 500 without their details.
func respondError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{
				"success": false,
				"error":   err.Error(),
				"code":    m.code,
			})
			return
		}
	}

	log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "Internal server error",
		"code":    "INTERNAL",
	})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   "Invalid request",
		"details": err.Error(),
		"code":    "INVALID_REQUEST",
	})
}

func accountID(c *gin.Context) string {
	return c.GetString("account_id")
}
