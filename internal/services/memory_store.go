package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"zenith-casino/internal/models"
)

// MemoryStore is a process-local Store. A single mutex makes every call atomic.
type MemoryStore struct {
	mu sync.Mutex

	accounts map[string]*models.Account
	byEmail  map[string]string
	settled  map[string]struct{}
	sessions map[string]memorySession

	boards    map[models.TableKey][]models.LeaderboardEntry
	boardDate string

	rateCounts map[string]rateWindow
	now        func() time.Time
}

type memorySession struct {
	session   models.UserSession
	expiresAt time.Time
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:   make(map[string]*models.Account),
		byEmail:    make(map[string]string),
		settled:    make(map[string]struct{}),
		sessions:   make(map[string]memorySession),
		boards:     make(map[models.TableKey][]models.LeaderboardEntry),
		rateCounts: make(map[string]rateWindow),
		now:        time.Now,
	}
}

func (s *MemoryStore) CreateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[account.Email]; exists {
		return fmt.Errorf("%w: %s", models.ErrDuplicateIdentity, account.Email)
	}
	s.accounts[account.ID] = account.Clone()
	s.byEmail[account.Email] = account.ID
	return nil
}

func (s *MemoryStore) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return account.Clone(), nil
}

func (s *MemoryStore) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return s.accounts[id].Clone(), nil
}

func (s *MemoryStore) Debit(ctx context.Context, accountID string, mode models.Mode, amount int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	if amount <= 0 {
		return nil, models.ErrInvalidWager
	}
	if account.Balances[mode] < amount {
		return nil, fmt.Errorf("%w: have %s, need %s", models.ErrInsufficientFunds,
			models.FormatCoins(account.Balances[mode]), models.FormatCoins(amount))
	}
	account.Balances[mode] -= amount
	account.UpdatedAt = s.now().Unix()
	return account.Clone(), nil
}

func (s *MemoryStore) Credit(ctx context.Context, accountID string, mode models.Mode, amount int64, ref string) (*models.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, false, models.ErrAccountNotFound
	}
	if ref != "" {
		if _, done := s.settled[ref]; done {
			return account.Clone(), false, nil
		}
		s.settled[ref] = struct{}{}
	}
	account.Balances[mode] += amount
	account.UpdatedAt = s.now().Unix()
	return account.Clone(), true, nil
}

func (s *MemoryStore) RecordPayout(ctx context.Context, accountID string, game models.Game, amount int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	if amount > account.HighestPayouts[game] {
		account.HighestPayouts[game] = amount
		account.UpdatedAt = s.now().Unix()
	}
	return account.Clone(), nil
}

func (s *MemoryStore) StoreUserSession(ctx context.Context, session *models.UserSession, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.SessionID] = memorySession{
		session:   *session,
		expiresAt: s.now().Add(expiry),
	}
	return nil
}

func (s *MemoryStore) GetUserSession(ctx context.Context, sessionID string) (*models.UserSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.sessions, sessionID)
		return nil, models.ErrSessionNotFound
	}
	entry.session.LastAccessed = s.now()
	s.sessions[sessionID] = entry
	session := entry.session
	return &session, nil
}

func (s *MemoryStore) DeleteUserSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) RecordScore(ctx context.Context, key models.TableKey, email string, score int64, today string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reset := s.rollover(today)
	entries := s.boards[key]
	found := false
	for i := range entries {
		if entries[i].Email == email {
			found = true
			if score > entries[i].Score {
				entries[i].Score = score
			}
			break
		}
	}
	if !found {
		entries = append(entries, models.LeaderboardEntry{Email: email, Score: score})
	}
	sortEntries(entries)
	s.boards[key] = entries
	return reset, nil
}

func (s *MemoryStore) TopScores(ctx context.Context, key models.TableKey, n int, today string) ([]models.LeaderboardEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reset := s.rollover(today)
	entries := s.boards[key]
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]models.LeaderboardEntry, n)
	copy(out, entries[:n])
	return out, reset, nil
}

func (s *MemoryStore) rollover(today string) bool {
	if s.boardDate == today {
		return false
	}
	for _, key := range models.AllTables() {
		delete(s.boards, key)
	}
	s.boardDate = today
	return true
}

// sortEntries orders by score descending, ties by email descending like a Redis ZREVRANGE.
func sortEntries(entries []models.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Email > entries[j].Email
	})
}

func (s *MemoryStore) CheckRateLimit(ctx context.Context, accountID, action string, limit int, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf(KeyRateLimit, accountID, action)
	now := s.now()
	w := s.rateCounts[key]
	if now.After(w.resetAt) {
		w = rateWindow{resetAt: now.Add(window)}
	}
	w.count++
	s.rateCounts[key] = w
	return w.count <= limit, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
