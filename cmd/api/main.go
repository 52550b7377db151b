package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"zenith-casino/internal/config"
	"zenith-casino/internal/handlers"
	"zenith-casino/internal/services"
)

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func openStore(ctx context.Context, cfg *config.Config) (services.Store, error) {
	if cfg.StoreBackend == "memory" {
		log.Warn("Using in-memory store, state is lost on restart")
		return services.NewMemoryStore(), nil
	}
	return services.NewRedisService(ctx, cfg)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	authService := services.NewAuthService(store, store, jwtService, cfg.StartingFree, cfg.StartingChallenge, cfg.SessionMaxAge)
	economy := services.NewEconomyManager(store, cfg.RefillBonus)
	leaderboard := services.NewLeaderboardService(store, cfg.LeaderboardTimezone)

	wsHandler := handlers.NewWebSocketHandler(economy)

	var commentator services.Commentator
	if cfg.GeminiAPIKey != "" {
		commentator = services.NewGeminiCommentator(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
	} else {
		log.Warn("GEMINI_API_KEY not set, dealer will use fallback lines")
	}
	dealer := services.NewDealerService(commentator, cfg.CommentaryTimeout, wsHandler)

	gameEngine := services.NewGameEngine(economy, leaderboard, dealer, wsHandler)

	go gameEngine.Plinko.Run(ctx, cfg.BallTick)

	go func() {
		cleanup := time.NewTicker(5 * time.Minute)
		rotation := time.NewTicker(services.DefaultSeedRotation)
		defer cleanup.Stop()
		defer rotation.Stop()

		for {
			select {
			case <-cleanup.C:
				gameEngine.CleanupStaleGames(ctx, cfg.MinesMaxIdle)
			case <-rotation.C:
				gameEngine.RotateServerSeed()
			case <-ctx.Done():
				return
			}
		}
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Auth:        authService,
		Economy:     economy,
		Leaderboard: leaderboard,
		Dealer:      dealer,
		GameEngine:  gameEngine,
		Limiter:     store,
		WebSocket:   wsHandler,
		MaxBet:      cfg.MaxBet,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.WithFields(log.Fields{
			"port":  cfg.Port,
			"store": cfg.StoreBackend,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
