package handlers

import (
	"github.com/gin-gonic/gin"

	"zenith-casino/internal/middleware"
	"zenith-casino/internal/services"
)

type RouterDeps struct {
	Auth        *services.AuthService
	Economy     *services.EconomyManager
	Leaderboard *services.LeaderboardService
	Dealer      *services.DealerService
	GameEngine  *services.GameEngine
	Limiter     services.RateLimiter
	WebSocket   *WebSocketHandler
	MaxBet      int64
}

func NewRouter(deps RouterDeps) *gin.Engine {
	authHandler := NewAuthHandler(deps.Auth)
	userHandler := NewUserHandler(deps.Auth, deps.Economy, deps.Dealer, deps.WebSocket)
	gameHandler := NewGameHandler(deps.GameEngine, deps.MaxBet)
	leaderboardHandler := NewLeaderboardHandler(deps.Leaderboard)

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	auth := router.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/recover", authHandler.Recover)
	}

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(deps.Auth))
	protected.Use(middleware.RateLimitMiddleware(deps.Limiter))
	{
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.POST("/logout", userHandler.Logout)
		protected.GET("/balance", userHandler.GetBalance)
		protected.POST("/refill", userHandler.Refill)

		protected.GET("/ws", deps.WebSocket.HandleWebSocket)

		protected.GET("/leaderboards/:game/:mode", leaderboardHandler.GetLeaderboard)

		games := protected.Group("/games")
		{
			games.GET("/verification", gameHandler.GetVerificationData)
			games.POST("/verify", gameHandler.VerifyGame)

			mines := games.Group("/mines")
			{
				mines.POST("/start", gameHandler.StartMines)
				mines.POST("/reveal", gameHandler.RevealMine)
				mines.POST("/cashout", gameHandler.CashoutMines)
				mines.GET("/active", gameHandler.GetActiveMines)
			}

			plinko := games.Group("/plinko")
			{
				plinko.POST("/drop", gameHandler.DropBall)
				plinko.GET("/balls", gameHandler.GetBalls)
			}
		}
	}

	return router
}
