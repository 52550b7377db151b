package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"zenith-casino/internal/gamemath"
	"zenith-casino/internal/models"
)

const DefaultSeedRotation = 24 * time.Hour

// GameEngine owns the provably-fair server seed and both game engines, and
// fans settled rounds out to the leaderboard, clients and the dealer.
type GameEngine struct {
	economy     *EconomyManager
	leaderboard *LeaderboardService
	dealer      *DealerService
	broadcaster Broadcaster

	seedMu       sync.RWMutex
	serverSeed   string
	previousSeed string
	rotatedAt    time.Time
	rotation     time.Duration

	Mines  *MinesEngine
	Plinko *BallDropEngine
}

func NewGameEngine(economy *EconomyManager, leaderboard *LeaderboardService, dealer *DealerService, broadcaster Broadcaster) *GameEngine {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	ge := &GameEngine{
		economy:     economy,
		leaderboard: leaderboard,
		dealer:      dealer,
		broadcaster: broadcaster,
		serverSeed:  gamemath.GenerateServerSeed(),
		rotatedAt:   time.Now(),
		rotation:    DefaultSeedRotation,
	}
	ge.Mines = NewMinesEngine(economy, ge.source, ge.handleResolution)
	ge.Plinko = NewBallDropEngine(economy, ge.source, ge.handleResolution, broadcaster)
	return ge
}

// source derives a round's randomness from HMAC-SHA256(serverSeed, ref).
func (ge *GameEngine) source(ref string) (gamemath.Source, string) {
	ge.seedMu.RLock()
	seed := ge.serverSeed
	ge.seedMu.RUnlock()
	return gamemath.NewHMACSource(seed, ref), gamemath.ServerSeedHash(seed)
}

func (ge *GameEngine) GetServerHash() string {
	ge.seedMu.RLock()
	defer ge.seedMu.RUnlock()
	return gamemath.ServerSeedHash(ge.serverSeed)
}

// RotateServerSeed installs a fresh seed and returns the retired one.
func (ge *GameEngine) RotateServerSeed() string {
	ge.seedMu.Lock()
	defer ge.seedMu.Unlock()

	retired := ge.serverSeed
	ge.previousSeed = retired
	ge.serverSeed = gamemath.GenerateServerSeed()
	ge.rotatedAt = time.Now()

	log.WithField("retired_hash", gamemath.ServerSeedHash(retired)).Info("Server seed rotated")
	return retired
}

// GetVerificationData publishes the current seed hash. The retired seed is
// only disclosed once no unfinished mines round depends on it.
func (ge *GameEngine) GetVerificationData() *models.VerificationData {
	ge.seedMu.RLock()
	current := ge.serverSeed
	previous := ge.previousSeed
	next := ge.rotatedAt.Add(ge.rotation)
	ge.seedMu.RUnlock()

	data := &models.VerificationData{
		ServerSeedHash: gamemath.ServerSeedHash(current),
		NextRotation:   next.UTC().Format(time.RFC3339),
	}
	if previous != "" {
		data.PreviousSeedHash = gamemath.ServerSeedHash(previous)
		if !ge.Mines.UsesSeed(data.PreviousSeedHash) {
			data.PreviousServerSeed = previous
		}
	}
	return data
}

// VerifyGameResult replays a round from a disclosed seed and its bet id.
func (ge *GameEngine) VerifyGameResult(req models.VerifyRequest) (*models.VerifyResult, error) {
	src := gamemath.NewHMACSource(req.ServerSeed, req.Ref)
	result := &models.VerifyResult{
		ServerSeedHash: gamemath.ServerSeedHash(req.ServerSeed),
		Ref:            req.Ref,
		Game:           req.Game,
	}

	switch req.Game {
	case models.GameMines:
		gridSize, mineCount := req.GridSize, req.MineCount
		if gridSize == 0 && mineCount == 0 {
			gridSize, mineCount = req.Difficulty.MinesPreset()
		}
		if err := models.ValidateGrid(gridSize, mineCount); err != nil {
			return nil, err
		}
		mines, err := gamemath.PlaceMines(src, gridSize*gridSize, mineCount)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidGrid, err)
		}
		result.Mines = mines

	case models.GamePlinko:
		rows := req.Difficulty.Rows()
		path, err := gamemath.CommitPath(src, rows)
		if err != nil {
			return nil, err
		}
		table, err := gamemath.BucketTable(rows)
		if err != nil {
			return nil, err
		}
		idx, multiplier, err := gamemath.ResolveBucket(path, table)
		if err != nil {
			return nil, err
		}
		result.Path = path.Ints()
		result.Bucket = idx
		result.Multiplier = multiplier

	default:
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidGame, req.Game)
	}

	return result, nil
}

func (ge *GameEngine) handleResolution(ctx context.Context, res models.Resolution) {
	ge.broadcaster.BroadcastBalance(res.AccountID, res.Mode, res.Balance)

	if res.Payout > 0 && ge.leaderboard != nil {
		key := models.TableKey{Game: res.Game, Mode: res.Mode}
		if err := ge.leaderboard.RecordScore(ctx, key, res.Email, res.Payout); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"ref":   res.Ref,
				"table": key.String(),
			}).Error("Failed to record leaderboard score")
		}
	}

	if ge.dealer != nil {
		ge.dealer.Announce(res.AccountID, models.CommentaryRequest{
			Game:    res.Game,
			Outcome: res.Outcome(),
			Amount:  res.Payout,
			Balance: res.Balance,
		})
	}
}

func (ge *GameEngine) CleanupStaleGames(ctx context.Context, maxAge time.Duration) {
	ge.Mines.CleanupStale(ctx, maxAge)
}
