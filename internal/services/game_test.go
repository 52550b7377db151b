package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenith-casino/internal/gamemath"
	"zenith-casino/internal/models"
	"zenith-casino/internal/services"
)

func newTestGameEngine(t *testing.T) (*services.GameEngine, *services.LeaderboardService, *recordingBroadcaster) {
	t.Helper()
	economy, store := newTestEconomy(t)
	lb, _ := newTestLeaderboard(t, store)
	bc := &recordingBroadcaster{}
	return services.NewGameEngine(economy, lb, nil, bc), lb, bc
}

// finishMines plays a round to completion so its mine layout is visible.
func finishMines(t *testing.T, ge *services.GameEngine) *models.MinesSnapshot {
	t.Helper()
	ctx := context.Background()
	snap, err := ge.Mines.Reveal(ctx, testAccountID, 0)
	require.NoError(t, err)
	if snap.State == models.MinesActive {
		snap, err = ge.Mines.CashOut(ctx, testAccountID)
		require.NoError(t, err)
	}
	require.Equal(t, models.MinesResolved, snap.State)
	return snap
}

func TestGameEngineVerifiesMines(t *testing.T) {
	ctx := context.Background()
	ge, _, _ := newTestGameEngine(t)
	hash := ge.GetServerHash()

	started, err := ge.Mines.Start(ctx, testAccountID, easyRound(1000))
	require.NoError(t, err)
	assert.Equal(t, hash, started.ServerSeedHash)

	ge.RotateServerSeed()
	data := ge.GetVerificationData()
	assert.Equal(t, hash, data.PreviousSeedHash)
	assert.Empty(t, data.PreviousServerSeed, "seed stays secret while a round dealt from it is open")
	assert.NotEqual(t, hash, data.ServerSeedHash)

	snap := finishMines(t, ge)
	var mines []int
	for _, cell := range snap.Cells {
		require.NotNil(t, cell.Mine)
		if *cell.Mine {
			mines = append(mines, cell.Index)
		}
	}

	data = ge.GetVerificationData()
	require.NotEmpty(t, data.PreviousServerSeed)
	assert.Equal(t, hash, gamemath.ServerSeedHash(data.PreviousServerSeed))

	result, err := ge.VerifyGameResult(models.VerifyRequest{
		ServerSeed: data.PreviousServerSeed,
		Ref:        snap.ID,
		Game:       models.GameMines,
		Difficulty: models.DifficultyEasy,
	})
	require.NoError(t, err)
	assert.Equal(t, hash, result.ServerSeedHash)
	assert.ElementsMatch(t, mines, result.Mines)
}

func TestGameEngineVerifiesBallDrop(t *testing.T) {
	ctx := context.Background()
	ge, _, _ := newTestGameEngine(t)

	dropped, err := ge.Plinko.Drop(ctx, testAccountID, models.DropRequest{
		Mode:       models.ModeFree,
		Wager:      1000,
		Difficulty: models.DifficultyHard,
	})
	require.NoError(t, err)
	landed := tickUntilIdle(t, ge.Plinko)
	require.Len(t, landed, 1)

	seed := ge.RotateServerSeed()
	result, err := ge.VerifyGameResult(models.VerifyRequest{
		ServerSeed: seed,
		Ref:        dropped.ID,
		Game:       models.GamePlinko,
		Difficulty: models.DifficultyHard,
	})
	require.NoError(t, err)
	assert.Equal(t, dropped.Path, result.Path)
	assert.Equal(t, landed[0].Bucket, result.Bucket)
	assert.Equal(t, landed[0].Multiplier, result.Multiplier)

	_, err = ge.VerifyGameResult(models.VerifyRequest{ServerSeed: seed, Ref: dropped.ID, Game: "roulette"})
	assert.ErrorIs(t, err, models.ErrInvalidGame)

	_, err = ge.VerifyGameResult(models.VerifyRequest{ServerSeed: seed, Ref: dropped.ID, Game: models.GameMines, GridSize: 1 << 31, MineCount: 1})
	assert.ErrorIs(t, err, models.ErrInvalidGrid)
}

func TestGameEngineRecordsWins(t *testing.T) {
	ctx := context.Background()
	ge, lb, bc := newTestGameEngine(t)

	// the smallest easy-board multiplier is 0.2, so every drop pays something
	_, err := ge.Plinko.Drop(ctx, testAccountID, models.DropRequest{
		Mode:       models.ModeFree,
		Wager:      1000,
		Difficulty: models.DifficultyEasy,
	})
	require.NoError(t, err)
	landed := tickUntilIdle(t, ge.Plinko)
	require.Len(t, landed, 1)
	require.Positive(t, landed[0].Payout)

	table, err := lb.TopN(ctx, plinkoFree, 10)
	require.NoError(t, err)
	assert.Equal(t, []models.LeaderboardEntry{{Email: testEmail, Score: landed[0].Payout}}, table.Entries)

	bc.mu.Lock()
	defer bc.mu.Unlock()
	require.NotEmpty(t, bc.balance)
	assert.Equal(t, int64(500000)-1000+landed[0].Payout, bc.balance[len(bc.balance)-1])
}

func TestGameEngineCleanup(t *testing.T) {
	ctx := context.Background()
	ge, lb, _ := newTestGameEngine(t)

	_, err := ge.Mines.Start(ctx, testAccountID, easyRound(1000))
	require.NoError(t, err)

	ge.CleanupStaleGames(ctx, 0)
	_, err = ge.Mines.Active(testAccountID)
	assert.ErrorIs(t, err, models.ErrGameNotFound)

	table, err := lb.TopN(ctx, models.TableKey{Game: models.GameMines, Mode: models.ModeFree}, 10)
	require.NoError(t, err)
	assert.Empty(t, table.Entries, "expired rounds pay nothing")
}
