package services

import "zenith-casino/internal/models"

// Broadcaster pushes state changes to an account's connected clients.
type Broadcaster interface {
	BroadcastBalance(accountID string, mode models.Mode, balance int64)
	BroadcastBalls(accountID string, balls []models.BallSnapshot)
	BroadcastBallLanded(accountID string, ball models.BallSnapshot)
	BroadcastDealerMessage(accountID, message string)
}

type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastBalance(string, models.Mode, int64) {}
func (NopBroadcaster) BroadcastBalls(string, []models.BallSnapshot) {}
func (NopBroadcaster) BroadcastBallLanded(string, models.BallSnapshot) {}
func (NopBroadcaster) BroadcastDealerMessage(string, string) {}
