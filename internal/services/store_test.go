package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenith-casino/internal/gamemath"
	"zenith-casino/internal/models"
	"zenith-casino/internal/services"
)

const (
	testAccountID = "acc-1"
	testEmail     = "player@example.com"
)

type zeroSource struct{}

func (zeroSource) IntN(n int) int { return 0 }

func zeroSources(ref string) (gamemath.Source, string) {
	return zeroSource{}, "test-seed-hash"
}

func newRedisStore(t *testing.T) (*services.RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := services.NewRedisServiceFromClient(client)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

// storeFactories runs the same behaviour checks against every backend.
func storeFactories() map[string]func(t *testing.T) services.Store {
	return map[string]func(t *testing.T) services.Store{
		"memory": func(t *testing.T) services.Store {
			return services.NewMemoryStore()
		},
		"redis": func(t *testing.T) services.Store {
			store, _ := newRedisStore(t)
			return store
		},
	}
}

func seedAccount(t *testing.T, store services.AccountStore, id, email string) *models.Account {
	t.Helper()
	account := models.NewAccount(id, email, "hash", 500000, 100000)
	require.NoError(t, store.CreateAccount(context.Background(), account))
	return account
}

func TestStoreAccounts(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)
			seedAccount(t, store, testAccountID, testEmail)

			account, err := store.GetAccount(ctx, testAccountID)
			require.NoError(t, err)
			assert.Equal(t, testEmail, account.Email)
			assert.Equal(t, int64(500000), account.Balance(models.ModeFree))
			assert.Equal(t, int64(100000), account.Balance(models.ModeChallenge))

			byEmail, err := store.GetAccountByEmail(ctx, testEmail)
			require.NoError(t, err)
			assert.Equal(t, testAccountID, byEmail.ID)

			err = store.CreateAccount(ctx, models.NewAccount("acc-2", testEmail, "other", 1, 1))
			assert.ErrorIs(t, err, models.ErrDuplicateIdentity)

			unchanged, err := store.GetAccount(ctx, testAccountID)
			require.NoError(t, err)
			assert.Equal(t, "hash", unchanged.PasswordHash)

			_, err = store.GetAccount(ctx, "missing")
			assert.ErrorIs(t, err, models.ErrAccountNotFound)
			_, err = store.GetAccountByEmail(ctx, "nobody@example.com")
			assert.ErrorIs(t, err, models.ErrAccountNotFound)
		})
	}
}

func TestStoreDebitCredit(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)
			seedAccount(t, store, testAccountID, testEmail)

			account, err := store.Debit(ctx, testAccountID, models.ModeFree, 10000)
			require.NoError(t, err)
			assert.Equal(t, int64(490000), account.Balance(models.ModeFree))
			assert.Equal(t, int64(100000), account.Balance(models.ModeChallenge))

			_, err = store.Debit(ctx, testAccountID, models.ModeChallenge, 100001)
			assert.ErrorIs(t, err, models.ErrInsufficientFunds)

			_, err = store.Debit(ctx, testAccountID, models.ModeFree, 0)
			assert.ErrorIs(t, err, models.ErrInvalidWager)

			account, applied, err := store.Credit(ctx, testAccountID, models.ModeFree, 12600, "bet-1")
			require.NoError(t, err)
			assert.True(t, applied)
			assert.Equal(t, int64(502600), account.Balance(models.ModeFree))

			account, applied, err = store.Credit(ctx, testAccountID, models.ModeFree, 12600, "bet-1")
			require.NoError(t, err)
			assert.False(t, applied)
			assert.Equal(t, int64(502600), account.Balance(models.ModeFree))

			account, applied, err = store.Credit(ctx, testAccountID, models.ModeFree, 0, "")
			require.NoError(t, err)
			assert.True(t, applied)
			assert.Equal(t, int64(502600), account.Balance(models.ModeFree))

			_, err = store.Debit(ctx, "missing", models.ModeFree, 1)
			assert.ErrorIs(t, err, models.ErrAccountNotFound)
			_, _, err = store.Credit(ctx, "missing", models.ModeFree, 1, "")
			assert.ErrorIs(t, err, models.ErrAccountNotFound)
		})
	}
}

func TestStoreConcurrentDebits(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)
			require.NoError(t, store.CreateAccount(ctx, models.NewAccount(testAccountID, testEmail, "hash", 1000, 0)))

			var wg sync.WaitGroup
			var mu sync.Mutex
			accepted := 0
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := store.Debit(ctx, testAccountID, models.ModeFree, 100); err == nil {
						mu.Lock()
						accepted++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			account, err := store.GetAccount(ctx, testAccountID)
			require.NoError(t, err)
			assert.Equal(t, 10, accepted)
			assert.Equal(t, int64(0), account.Balance(models.ModeFree))
		})
	}
}

func TestStoreRecordPayout(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)
			seedAccount(t, store, testAccountID, testEmail)

			account, err := store.RecordPayout(ctx, testAccountID, models.GameMines, 500)
			require.NoError(t, err)
			assert.Equal(t, int64(500), account.HighestPayout(models.GameMines))

			account, err = store.RecordPayout(ctx, testAccountID, models.GameMines, 300)
			require.NoError(t, err)
			assert.Equal(t, int64(500), account.HighestPayout(models.GameMines))
			assert.Equal(t, int64(0), account.HighestPayout(models.GamePlinko))
		})
	}
}

func TestStoreSessions(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			session := &models.UserSession{
				SessionID: "sess-1",
				AccountID: testAccountID,
				Email:     testEmail,
				CreatedAt: time.Now(),
			}
			require.NoError(t, store.StoreUserSession(ctx, session, time.Hour))

			got, err := store.GetUserSession(ctx, "sess-1")
			require.NoError(t, err)
			assert.Equal(t, testAccountID, got.AccountID)
			assert.False(t, got.LastAccessed.IsZero())

			require.NoError(t, store.DeleteUserSession(ctx, "sess-1"))
			_, err = store.GetUserSession(ctx, "sess-1")
			assert.ErrorIs(t, err, models.ErrSessionNotFound)
		})
	}
}

func TestStoreLeaderboard(t *testing.T) {
	plinkoFree := models.TableKey{Game: models.GamePlinko, Mode: models.ModeFree}
	minesFree := models.TableKey{Game: models.GameMines, Mode: models.ModeFree}

	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)
			day1 := "2026-10-16"

			reset, err := store.RecordScore(ctx, plinkoFree, "a@example.com", 300, day1)
			require.NoError(t, err)
			assert.True(t, reset, "first write stamps the date")

			reset, err = store.RecordScore(ctx, plinkoFree, "b@example.com", 500, day1)
			require.NoError(t, err)
			assert.False(t, reset)

			_, err = store.RecordScore(ctx, plinkoFree, "a@example.com", 100, day1)
			require.NoError(t, err)
			_, err = store.RecordScore(ctx, minesFree, "a@example.com", 900, day1)
			require.NoError(t, err)

			entries, reset, err := store.TopScores(ctx, plinkoFree, 10, day1)
			require.NoError(t, err)
			assert.False(t, reset)
			assert.Equal(t, []models.LeaderboardEntry{
				{Email: "b@example.com", Score: 500},
				{Email: "a@example.com", Score: 300},
			}, entries)

			entries, _, err = store.TopScores(ctx, plinkoFree, 1, day1)
			require.NoError(t, err)
			assert.Len(t, entries, 1)

			entries, reset, err = store.TopScores(ctx, minesFree, 10, "2026-10-17")
			require.NoError(t, err)
			assert.True(t, reset)
			assert.Empty(t, entries)

			entries, reset, err = store.TopScores(ctx, plinkoFree, 10, "2026-10-17")
			require.NoError(t, err)
			assert.False(t, reset)
			assert.Empty(t, entries, "all tables clear together")
		})
	}
}

func TestStoreRateLimit(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			for i := 0; i < 3; i++ {
				allowed, err := store.CheckRateLimit(ctx, testAccountID, "bet", 3, time.Minute)
				require.NoError(t, err)
				assert.True(t, allowed)
			}
			allowed, err := store.CheckRateLimit(ctx, testAccountID, "bet", 3, time.Minute)
			require.NoError(t, err)
			assert.False(t, allowed)

			allowed, err = store.CheckRateLimit(ctx, testAccountID, "reveal", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		})
	}
}

func TestRedisSessionExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.StoreUserSession(ctx, &models.UserSession{SessionID: "sess-1", AccountID: testAccountID}, time.Minute))
	_, err := store.GetUserSession(ctx, "sess-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = store.GetUserSession(ctx, "sess-1")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}
