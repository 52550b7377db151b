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

// ResolutionHandler is told about every settled round after its payout has been credited.
type ResolutionHandler func(ctx context.Context, res models.Resolution)

// MinesEngine runs at most one mine-sweep round per account. All state
// transitions happen under a single lock, including the ledger calls.
type MinesEngine struct {
	mu        sync.Mutex
	economy   *EconomyManager
	sources   gamemath.SourceFactory
	onResolve ResolutionHandler
	rounds    map[string]*minesRound // by account id
	now       func() time.Time
}

type minesRound struct {
	id         string
	accountID  string
	mode       models.Mode
	wager      int64
	gridSize   int
	mineCount  int
	cells      []models.Cell
	revealed   int
	state      models.MinesState
	payout     int64
	outcome    models.MinesOutcome
	seedHash   string
	startedAt  time.Time
	lastUpdate time.Time
	endedAt    time.Time
}

func NewMinesEngine(economy *EconomyManager, sources gamemath.SourceFactory, onResolve ResolutionHandler) *MinesEngine {
	return &MinesEngine{
		economy:   economy,
		sources:   sources,
		onResolve: onResolve,
		rounds:    make(map[string]*minesRound),
		now:       time.Now,
	}
}

// Start places the mines, debits the wager and opens the round. A rejected
// debit leaves no round behind.
func (me *MinesEngine) Start(ctx context.Context, accountID string, req models.MinesStartRequest) (*models.MinesSnapshot, error) {
	gridSize, mineCount := req.GridSize, req.MineCount
	if gridSize == 0 && mineCount == 0 {
		gridSize, mineCount = req.Difficulty.MinesPreset()
	}
	if err := models.ValidateGrid(gridSize, mineCount); err != nil {
		return nil, err
	}

	me.mu.Lock()
	defer me.mu.Unlock()

	if current, ok := me.rounds[accountID]; ok && current.state == models.MinesActive {
		return nil, models.ErrGameActive
	}

	id := models.GenerateGameID()
	src, seedHash := me.sources(id)
	total := gridSize * gridSize
	mines, err := gamemath.PlaceMines(src, total, mineCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidGrid, err)
	}

	if _, err := me.economy.Bet(ctx, accountID, req.Mode, req.Wager); err != nil {
		return nil, err
	}

	cells := make([]models.Cell, total)
	for _, idx := range mines {
		cells[idx].IsMine = true
	}

	now := me.now()
	round := &minesRound{
		id:         id,
		accountID:  accountID,
		mode:       req.Mode,
		wager:      req.Wager,
		gridSize:   gridSize,
		mineCount:  mineCount,
		cells:      cells,
		state:      models.MinesActive,
		seedHash:   seedHash,
		startedAt:  now,
		lastUpdate: now,
	}
	me.rounds[accountID] = round

	log.WithFields(log.Fields{
		"game_id":    id,
		"account_id": accountID,
		"mode":       req.Mode,
		"wager":      req.Wager,
		"grid":       gridSize,
		"mines":      mineCount,
	}).Info("Mines round started")

	return round.snapshot(), nil
}

// Reveal uncovers one cell. Revealing a cell twice, or any cell of a finished
// round, changes nothing.
func (me *MinesEngine) Reveal(ctx context.Context, accountID string, cell int) (*models.MinesSnapshot, error) {
	me.mu.Lock()
	defer me.mu.Unlock()

	round, ok := me.rounds[accountID]
	if !ok {
		return nil, models.ErrGameNotFound
	}
	if cell < 0 || cell >= len(round.cells) {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidCell, cell)
	}
	if round.state != models.MinesActive || round.cells[cell].Revealed {
		return round.snapshot(), nil
	}

	round.lastUpdate = me.now()

	if round.cells[cell].IsMine {
		if err := me.resolve(ctx, round, 0, models.OutcomeBust); err != nil {
			return nil, err
		}
		return round.snapshot(), nil
	}

	round.cells[cell].Revealed = true
	round.revealed++

	if round.revealed == len(round.cells)-round.mineCount {
		payout, err := round.currentPayout()
		if err != nil {
			return nil, err
		}
		if err := me.resolve(ctx, round, payout, models.OutcomeAutoCashOut); err != nil {
			round.cells[cell].Revealed = false
			round.revealed--
			return nil, err
		}
	}

	return round.snapshot(), nil
}

func (me *MinesEngine) CashOut(ctx context.Context, accountID string) (*models.MinesSnapshot, error) {
	me.mu.Lock()
	defer me.mu.Unlock()

	round, ok := me.rounds[accountID]
	if !ok {
		return nil, models.ErrGameNotFound
	}
	if round.state != models.MinesActive {
		return nil, models.ErrGameNotActive
	}
	if round.revealed == 0 {
		return nil, models.ErrNothingToCashOut
	}

	payout, err := round.currentPayout()
	if err != nil {
		return nil, err
	}
	if err := me.resolve(ctx, round, payout, models.OutcomeCashOut); err != nil {
		return nil, err
	}
	return round.snapshot(), nil
}

// Active returns the account's current or most recently finished round.
func (me *MinesEngine) Active(accountID string) (*models.MinesSnapshot, error) {
	me.mu.Lock()
	defer me.mu.Unlock()

	round, ok := me.rounds[accountID]
	if !ok {
		return nil, models.ErrGameNotFound
	}
	return round.snapshot(), nil
}

// UsesSeed reports whether an unfinished round was dealt from the seed with this hash.
func (me *MinesEngine) UsesSeed(seedHash string) bool {
	me.mu.Lock()
	defer me.mu.Unlock()

	for _, round := range me.rounds {
		if round.state == models.MinesActive && round.seedHash == seedHash {
			return true
		}
	}
	return false
}

// CleanupStale settles idle active rounds as lost and forgets finished rounds
// older than maxIdle.
func (me *MinesEngine) CleanupStale(ctx context.Context, maxIdle time.Duration) int {
	me.mu.Lock()
	defer me.mu.Unlock()

	cutoff := me.now().Add(-maxIdle)
	evicted := 0
	for accountID, round := range me.rounds {
		if round.lastUpdate.After(cutoff) {
			continue
		}
		if round.state == models.MinesActive {
			if err := me.resolve(ctx, round, 0, models.OutcomeExpired); err != nil {
				log.WithError(err).WithField("game_id", round.id).Error("Failed to expire mines round")
				continue
			}
		}
		delete(me.rounds, accountID)
		evicted++
	}
	if evicted > 0 {
		log.WithField("count", evicted).Info("Evicted stale mines rounds")
	}
	return evicted
}

// resolve settles the round and only then marks it resolved, so a failed
// credit leaves the round active and the call can be retried.
func (me *MinesEngine) resolve(ctx context.Context, round *minesRound, payout int64, outcome models.MinesOutcome) error {
	account, err := me.economy.Settle(ctx, round.accountID, round.mode, models.GameMines, payout, round.id)
	if err != nil {
		log.WithError(err).WithField("game_id", round.id).Error("Failed to settle mines round")
		return fmt.Errorf("failed to settle round: %w", err)
	}

	round.state = models.MinesResolved
	round.payout = payout
	round.outcome = outcome
	round.endedAt = me.now()
	round.lastUpdate = round.endedAt
	if outcome == models.OutcomeBust || outcome == models.OutcomeExpired {
		for i := range round.cells {
			round.cells[i].Revealed = true
		}
	}

	log.WithFields(log.Fields{
		"game_id":    round.id,
		"account_id": round.accountID,
		"outcome":    outcome,
		"revealed":   round.revealed,
		"payout":     payout,
	}).Info("Mines round resolved")

	if me.onResolve != nil {
		me.onResolve(ctx, models.Resolution{
			Ref:       round.id,
			AccountID: round.accountID,
			Email:     account.Email,
			Game:      models.GameMines,
			Mode:      round.mode,
			Wager:     round.wager,
			Payout:    payout,
			Balance:   account.Balance(round.mode),
		})
	}
	return nil
}

func (r *minesRound) total() int {
	return r.gridSize * r.gridSize
}

func (r *minesRound) currentPayout() (int64, error) {
	m, err := gamemath.MineMultiplier(r.total(), r.mineCount, r.revealed)
	if err != nil {
		return 0, err
	}
	return models.CalculatePayout(r.wager, m), nil
}

func (r *minesRound) snapshot() *models.MinesSnapshot {
	finished := r.state == models.MinesResolved
	cells := make([]models.CellView, len(r.cells))
	for i, c := range r.cells {
		cells[i] = models.CellView{Index: i, Revealed: c.Revealed}
		if c.Revealed || finished {
			mine := c.IsMine
			cells[i].Mine = &mine
		}
	}

	multiplier, _ := gamemath.MineMultiplier(r.total(), r.mineCount, r.revealed)
	snap := &models.MinesSnapshot{
		ID:             r.id,
		AccountID:      r.accountID,
		Mode:           r.mode,
		Wager:          r.wager,
		GridSize:       r.gridSize,
		MineCount:      r.mineCount,
		Cells:          cells,
		RevealedCount:  r.revealed,
		State:          r.state,
		Multiplier:     multiplier,
		Payout:         r.payout,
		Outcome:        r.outcome,
		ServerSeedHash: r.seedHash,
		StartedAt:      r.startedAt,
		EndedAt:        r.endedAt,
	}
	if r.state == models.MinesActive {
		snap.NextMultiplier, _ = gamemath.MineMultiplier(r.total(), r.mineCount, r.revealed+1)
	}
	return snap
}
