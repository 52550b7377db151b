package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"zenith-casino/internal/models"
)

const leaderboardDateLayout = "2006-01-02"

// LeaderboardService ranks best payouts per (game, mode). The day turns over
// at midnight in loc, whatever the caller's own clock zone is.
type LeaderboardService struct {
	store LeaderboardStore
	loc   *time.Location
	now   func() time.Time
}

func NewLeaderboardService(store LeaderboardStore, loc *time.Location) *LeaderboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &LeaderboardService{
		store: store,
		loc:   loc,
		now:   time.Now,
	}
}

// WithClock replaces the wall clock. Used by tests and replays.
func (s *LeaderboardService) WithClock(now func() time.Time) *LeaderboardService {
	s.now = now
	return s
}

// Today is the current date in the reference timezone.
func (s *LeaderboardService) Today() string {
	return s.now().In(s.loc).Format(leaderboardDateLayout)
}

// NextReset is the next local midnight in the reference timezone.
func (s *LeaderboardService) NextReset() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, s.loc)
}

func (s *LeaderboardService) RecordScore(ctx context.Context, key models.TableKey, email string, score int64) error {
	reset, err := s.store.RecordScore(ctx, key, email, score, s.Today())
	if err != nil {
		return err
	}
	if reset {
		log.WithField("date", s.Today()).Info("Daily leaderboard reset")
	}
	return nil
}

// TopN returns at most n entries, best first.
func (s *LeaderboardService) TopN(ctx context.Context, key models.TableKey, n int) (*models.LeaderboardTable, error) {
	if n <= 0 {
		return nil, fmt.Errorf("leaderboard size must be positive, got %d", n)
	}

	today := s.Today()
	entries, reset, err := s.store.TopScores(ctx, key, n, today)
	if err != nil {
		return nil, err
	}
	if reset {
		log.WithField("date", today).Info("Daily leaderboard reset")
	}

	return &models.LeaderboardTable{
		Key:      key,
		Date:     today,
		Entries:  entries,
		ResetsAt: s.NextReset().Format(time.RFC3339),
		WasReset: reset,
	}, nil
}
