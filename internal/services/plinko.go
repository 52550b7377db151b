package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"zenith-casino/internal/gamemath"
	"zenith-casino/internal/models"
)

// Board geometry for the animation. Positions are cosmetic; the payout comes
// from the committed path alone.
const (
	boardStartY  = 60.0
	pegSpacingY  = 35.0
	pegSpacingX  = 40.0
	ballSpawnY   = 20.0
	ballFallStep = 2.5
)

// BallDropEngine keeps every in-flight ball and advances them together on
// each tick. Balls never interact.
type BallDropEngine struct {
	mu          sync.Mutex
	economy     *EconomyManager
	sources     gamemath.SourceFactory
	onResolve   ResolutionHandler
	broadcaster Broadcaster
	balls       map[string]*ball
	seq         uint64
}

type ball struct {
	id         string
	seq        uint64
	accountID  string
	mode       models.Mode
	wager      int64
	difficulty models.Difficulty
	path       gamemath.Path
	table      []float64
	seedHash   string
	row        int
	x, y       float64
	targetX    float64
	landed     bool
	bucket     int
	multiplier float64
	payout     int64
}

func NewBallDropEngine(economy *EconomyManager, sources gamemath.SourceFactory, onResolve ResolutionHandler, broadcaster Broadcaster) *BallDropEngine {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &BallDropEngine{
		economy:     economy,
		sources:     sources,
		onResolve:   onResolve,
		broadcaster: broadcaster,
		balls:       make(map[string]*ball),
	}
}

// Drop debits the wager, commits the ball's full path and admits it. It does
// not wait for the ball to land.
func (be *BallDropEngine) Drop(ctx context.Context, accountID string, req models.DropRequest) (*models.BallSnapshot, error) {
	rows := req.Difficulty.Rows()
	table, err := gamemath.BucketTable(rows)
	if err != nil {
		return nil, err
	}

	id := models.GenerateGameID()
	src, seedHash := be.sources(id)
	path, err := gamemath.CommitPath(src, rows)
	if err != nil {
		return nil, err
	}

	be.mu.Lock()
	defer be.mu.Unlock()

	if _, err := be.economy.Bet(ctx, accountID, req.Mode, req.Wager); err != nil {
		return nil, err
	}

	be.seq++
	b := &ball{
		id:         id,
		seq:        be.seq,
		accountID:  accountID,
		mode:       req.Mode,
		wager:      req.Wager,
		difficulty: req.Difficulty,
		path:       path,
		table:      table,
		seedHash:   seedHash,
		y:          ballSpawnY,
	}
	be.balls[id] = b

	log.WithFields(log.Fields{
		"ball_id":    id,
		"account_id": accountID,
		"mode":       req.Mode,
		"wager":      req.Wager,
		"rows":       rows,
	}).Debug("Ball dropped")

	return b.snapshot(), nil
}

// Tick advances every ball by one frame and settles the ones that cross the
// last row. It returns the balls that landed on this tick.
func (be *BallDropEngine) Tick(ctx context.Context) []models.BallSnapshot {
	be.mu.Lock()
	defer be.mu.Unlock()

	var landed []models.BallSnapshot
	for _, b := range be.ordered() {
		if !b.landed {
			b.advance()
		}
		if !b.landed {
			continue
		}
		if err := be.settle(ctx, b); err != nil {
			// retried next tick; settlement is keyed by ball id
			log.WithError(err).WithField("ball_id", b.id).Error("Failed to settle ball")
			continue
		}
		delete(be.balls, b.id)
		landed = append(landed, *b.snapshot())
	}
	return landed
}

// Run ticks until ctx is cancelled, pushing frames to the broadcaster.
func (be *BallDropEngine) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, snap := range be.Tick(ctx) {
				be.broadcaster.BroadcastBallLanded(snap.AccountID, snap)
			}
			for accountID, balls := range be.inFlightByAccount() {
				be.broadcaster.BroadcastBalls(accountID, balls)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Balls lists the account's in-flight balls in drop order.
func (be *BallDropEngine) Balls(accountID string) []models.BallSnapshot {
	be.mu.Lock()
	defer be.mu.Unlock()

	out := []models.BallSnapshot{}
	for _, b := range be.ordered() {
		if b.accountID == accountID {
			out = append(out, *b.snapshot())
		}
	}
	return out
}

func (be *BallDropEngine) InFlight() int {
	be.mu.Lock()
	defer be.mu.Unlock()
	return len(be.balls)
}

func (be *BallDropEngine) inFlightByAccount() map[string][]models.BallSnapshot {
	be.mu.Lock()
	defer be.mu.Unlock()

	byAccount := make(map[string][]models.BallSnapshot)
	for _, b := range be.ordered() {
		byAccount[b.accountID] = append(byAccount[b.accountID], *b.snapshot())
	}
	return byAccount
}

func (be *BallDropEngine) ordered() []*ball {
	out := make([]*ball, 0, len(be.balls))
	for _, b := range be.balls {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (be *BallDropEngine) settle(ctx context.Context, b *ball) error {
	idx, multiplier, err := gamemath.ResolveBucket(b.path, b.table)
	if err != nil {
		return err
	}
	payout := models.CalculatePayout(b.wager, multiplier)

	account, err := be.economy.Settle(ctx, b.accountID, b.mode, models.GamePlinko, payout, b.id)
	if err != nil {
		return fmt.Errorf("failed to settle ball: %w", err)
	}
	b.bucket = idx
	b.multiplier = multiplier
	b.payout = payout

	log.WithFields(log.Fields{
		"ball_id":    b.id,
		"account_id": b.accountID,
		"bucket":     idx,
		"multiplier": multiplier,
		"payout":     payout,
	}).Info("Ball landed")

	if be.onResolve != nil {
		be.onResolve(ctx, models.Resolution{
			Ref:       b.id,
			AccountID: b.accountID,
			Email:     account.Email,
			Game:      models.GamePlinko,
			Mode:      b.mode,
			Wager:     b.wager,
			Payout:    payout,
			Balance:   account.Balance(b.mode),
		})
	}
	return nil
}

// advance moves the ball down one frame. Crossing a peg row applies that
// row's committed step to the horizontal target.
func (b *ball) advance() {
	rows := len(b.path)
	b.y += ballFallStep
	for b.row < rows && b.y >= boardStartY+float64(b.row)*pegSpacingY {
		b.targetX += float64(b.path[b.row]) * pegSpacingX / 2
		b.row++
	}
	b.x += (b.targetX - b.x) * 0.25
	if b.y >= boardStartY+float64(rows)*pegSpacingY {
		b.x = b.targetX
		b.landed = true
	}
}

func (b *ball) snapshot() *models.BallSnapshot {
	return &models.BallSnapshot{
		ID:             b.id,
		AccountID:      b.accountID,
		Mode:           b.mode,
		Wager:          b.wager,
		Difficulty:     b.difficulty,
		Rows:           len(b.path),
		Path:           b.path.Ints(),
		Row:            b.row,
		X:              b.x,
		Y:              b.y,
		Landed:         b.landed,
		Bucket:         b.bucket,
		Multiplier:     b.multiplier,
		Payout:         b.payout,
		ServerSeedHash: b.seedHash,
	}
}
