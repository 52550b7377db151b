package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"zenith-casino/internal/config"
	"zenith-casino/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisService is the Redis-backed Store. Account records are JSON documents
// mutated only through Lua scripts so each change is a single atomic step.
type RedisService struct {
	client *redis.Client
}

func NewRedisService(ctx context.Context, cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisServiceFromClient(client), nil
}

func NewRedisServiceFromClient(client *redis.Client) *RedisService {
	return &RedisService{client: client}
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// Script errors are matched by substring; some Redis versions prefix "ERR".
func mapScriptError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "DUPLICATE_IDENTITY"):
		return models.ErrDuplicateIdentity
	case strings.Contains(msg, "INSUFFICIENT_FUNDS"):
		return models.ErrInsufficientFunds
	case strings.Contains(msg, "INVALID_WAGER"):
		return models.ErrInvalidWager
	case strings.Contains(msg, "ACCOUNT_NOT_FOUND"):
		return models.ErrAccountNotFound
	}
	return err
}

func decodeAccount(data string) (*models.Account, error) {
	var account models.Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &account, nil
}

var createAccountScript = redis.NewScript(`
	local emailKey = KEYS[1]
	local accountKey = KEYS[2]

	if redis.call("EXISTS", emailKey) == 1 then
		return redis.error_reply("DUPLICATE_IDENTITY")
	end

	redis.call("SET", emailKey, ARGV[1])
	redis.call("SET", accountKey, ARGV[2])
	return "OK"
`)

func (s *RedisService) CreateAccount(ctx context.Context, account *models.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	keys := []string{
		fmt.Sprintf(KeyAccountEmail, account.Email),
		fmt.Sprintf(KeyAccount, account.ID),
	}
	err = createAccountScript.Run(ctx, s.client, keys, account.ID, string(data)).Err()
	if err = mapScriptError(err); err != nil {
		if errors.Is(err, models.ErrDuplicateIdentity) {
			return fmt.Errorf("%w: %s", models.ErrDuplicateIdentity, account.Email)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *RedisService) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(KeyAccount, accountID)).Result()
	if err == redis.Nil {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return decodeAccount(data)
}

func (s *RedisService) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	id, err := s.client.Get(ctx, fmt.Sprintf(KeyAccountEmail, email)).Result()
	if err == redis.Nil {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	return s.GetAccount(ctx, id)
}

var debitScript = redis.NewScript(`
	local key = KEYS[1]
	local mode = ARGV[1]
	local amount = tonumber(ARGV[2])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("ACCOUNT_NOT_FOUND")
	end
	if amount <= 0 then
		return redis.error_reply("INVALID_WAGER")
	end

	local account = cjson.decode(data)
	local balance = tonumber(account.balances[mode] or 0)
	if balance < amount then
		return redis.error_reply("INSUFFICIENT_FUNDS")
	end

	account.balances[mode] = balance - amount
	account.updated_at = tonumber(ARGV[3])

	local updated = cjson.encode(account)
	redis.call("SET", key, updated)
	return updated
`)

func (s *RedisService) Debit(ctx context.Context, accountID string, mode models.Mode, amount int64) (*models.Account, error) {
	key := fmt.Sprintf(KeyAccount, accountID)
	data, err := debitScript.Run(ctx, s.client, []string{key}, string(mode), amount, time.Now().Unix()).Text()
	if err = mapScriptError(err); err != nil {
		if errors.Is(err, models.ErrInsufficientFunds) {
			return nil, fmt.Errorf("%w: need %s", models.ErrInsufficientFunds, models.FormatCoins(amount))
		}
		return nil, err
	}
	return decodeAccount(data)
}

var creditScript = redis.NewScript(`
	local key = KEYS[1]
	local settledKey = KEYS[2]
	local mode = ARGV[1]
	local amount = tonumber(ARGV[2])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("ACCOUNT_NOT_FOUND")
	end

	if settledKey ~= "" then
		local fresh = redis.call("SET", settledKey, "1", "NX", "EX", ARGV[4])
		if not fresh then
			return {0, data}
		end
	end

	local account = cjson.decode(data)
	account.balances[mode] = tonumber(account.balances[mode] or 0) + amount
	account.updated_at = tonumber(ARGV[3])

	local updated = cjson.encode(account)
	redis.call("SET", key, updated)
	return {1, updated}
`)

func (s *RedisService) Credit(ctx context.Context, accountID string, mode models.Mode, amount int64, ref string) (*models.Account, bool, error) {
	settledKey := ""
	if ref != "" {
		settledKey = fmt.Sprintf(KeySettlement, ref)
	}
	keys := []string{fmt.Sprintf(KeyAccount, accountID), settledKey}

	res, err := creditScript.Run(ctx, s.client, keys,
		string(mode), amount, time.Now().Unix(), int64(TTLSettlement.Seconds())).Slice()
	if err = mapScriptError(err); err != nil {
		return nil, false, err
	}
	if len(res) != 2 {
		return nil, false, fmt.Errorf("unexpected credit reply: %v", res)
	}

	applied, _ := res[0].(int64)
	data, _ := res[1].(string)
	account, err := decodeAccount(data)
	if err != nil {
		return nil, false, err
	}
	return account, applied == 1, nil
}

var recordPayoutScript = redis.NewScript(`
	local key = KEYS[1]
	local game = ARGV[1]
	local amount = tonumber(ARGV[2])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("ACCOUNT_NOT_FOUND")
	end

	local account = cjson.decode(data)
	if amount > tonumber(account.highest_payouts[game] or 0) then
		account.highest_payouts[game] = amount
		account.updated_at = tonumber(ARGV[3])
		data = cjson.encode(account)
		redis.call("SET", key, data)
	end
	return data
`)

func (s *RedisService) RecordPayout(ctx context.Context, accountID string, game models.Game, amount int64) (*models.Account, error) {
	key := fmt.Sprintf(KeyAccount, accountID)
	data, err := recordPayoutScript.Run(ctx, s.client, []string{key}, string(game), amount, time.Now().Unix()).Text()
	if err = mapScriptError(err); err != nil {
		return nil, err
	}
	return decodeAccount(data)
}

func (s *RedisService) StoreUserSession(ctx context.Context, session *models.UserSession, expiry time.Duration) error {
	key := fmt.Sprintf(KeyUserSession, session.SessionID)

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, key, data, expiry).Err()
}

func (s *RedisService) GetUserSession(ctx context.Context, sessionID string) (*models.UserSession, error) {
	key := fmt.Sprintf(KeyUserSession, sessionID)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session models.UserSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}

	session.LastAccessed = time.Now()
	if updated, err := json.Marshal(session); err == nil {
		s.client.Set(ctx, key, updated, redis.KeepTTL)
	}

	return &session, nil
}

func (s *RedisService) DeleteUserSession(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyUserSession, sessionID)).Err()
}

// KEYS[1] is the date stamp and KEYS[2] the target table; KEYS[3..] are all
// four tables, cleared together when the stored date is not today.
const leaderboardRollover = `
	local reset = 0
	if redis.call("GET", KEYS[1]) ~= ARGV[1] then
		for i = 3, #KEYS do
			redis.call("DEL", KEYS[i])
		end
		redis.call("SET", KEYS[1], ARGV[1])
		reset = 1
	end
`

var recordScoreScript = redis.NewScript(leaderboardRollover + `
	local current = redis.call("ZSCORE", KEYS[2], ARGV[2])
	if not current or tonumber(ARGV[3]) > tonumber(current) then
		redis.call("ZADD", KEYS[2], ARGV[3], ARGV[2])
	end
	return reset
`)

var topScoresScript = redis.NewScript(leaderboardRollover + `
	local n = tonumber(ARGV[2])
	if n <= 0 then
		return {reset, {}}
	end
	return {reset, redis.call("ZREVRANGE", KEYS[2], 0, n - 1, "WITHSCORES")}
`)

func leaderboardKeys(key models.TableKey) []string {
	keys := []string{KeyLeaderboardDate, fmt.Sprintf(KeyLeaderboard, key)}
	for _, k := range models.AllTables() {
		keys = append(keys, fmt.Sprintf(KeyLeaderboard, k))
	}
	return keys
}

func (s *RedisService) RecordScore(ctx context.Context, key models.TableKey, email string, score int64, today string) (bool, error) {
	reset, err := recordScoreScript.Run(ctx, s.client, leaderboardKeys(key), today, email, score).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to record score: %w", err)
	}
	return reset == 1, nil
}

func (s *RedisService) TopScores(ctx context.Context, key models.TableKey, n int, today string) ([]models.LeaderboardEntry, bool, error) {
	res, err := topScoresScript.Run(ctx, s.client, leaderboardKeys(key), today, n).Slice()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	if len(res) != 2 {
		return nil, false, fmt.Errorf("unexpected leaderboard reply: %v", res)
	}

	reset, _ := res[0].(int64)
	flat, _ := res[1].([]interface{})
	entries := make([]models.LeaderboardEntry, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		email, _ := flat[i].(string)
		raw, _ := flat[i+1].(string)
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false, fmt.Errorf("invalid leaderboard score %q: %w", raw, err)
		}
		entries = append(entries, models.LeaderboardEntry{Email: email, Score: int64(score)})
	}
	return entries, reset == 1, nil
}

func (s *RedisService) CheckRateLimit(ctx context.Context, accountID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, accountID, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}
