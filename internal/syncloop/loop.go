package syncloop

import (
	"context"
	"errors"
	"fmt"
	"statusboard/internal/board"
	"statusboard/internal/domain"
	"statusboard/internal/monitoring"
	"statusboard/internal/source"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// ErrCycleInProgress is returned when a cycle is skipped because another
// one, here or on another replica, has not finished yet.
var ErrCycleInProgress = errors.New("a refresh cycle is already running")

const (
	// lockGrace keeps the shared lock alive slightly past the fetch timeout.
	lockGrace    = 5 * time.Second
	storeTimeout = 5 * time.Second
)

// Fetcher retrieves the current records from the source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.StatusRecord, error)
}

// SnapshotStore keeps the latest successful board across restarts.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap board.Snapshot) error
	LoadSnapshot(ctx context.Context) (board.Snapshot, bool, error)
}

// CycleLock serializes cycles across replicas.
type CycleLock interface {
	TryLock(ctx context.Context, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, token string) error
}

// CycleRecorder keeps a history of cycles.
type CycleRecorder interface {
	RecordCycle(ctx context.Context, c domain.Cycle) error
}

type Config struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	Location     *time.Location
}

// Loop refreshes the board from the source on a fixed period.
type Loop struct {
	cfg       Config
	fetcher   Fetcher
	board     *board.Board
	snapshots SnapshotStore
	lock      CycleLock
	history   CycleRecorder
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
	pollEvery time.Duration

	running atomic.Bool
	wg      sync.WaitGroup
}

type Option func(*Loop)

func WithSnapshotStore(s SnapshotStore) Option { return func(l *Loop) { l.snapshots = s } }

func WithCycleLock(cl CycleLock) Option { return func(l *Loop) { l.lock = cl } }

func WithCycleRecorder(r CycleRecorder) Option { return func(l *Loop) { l.history = r } }

func WithClock(now func() time.Time) Option { return func(l *Loop) { l.now = now } }

func New(cfg Config, f Fetcher, b *board.Board, m *monitoring.Metrics, logger *zap.Logger, opts ...Option) (*Loop, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("syncloop: interval must be > 0")
	}
	if cfg.FetchTimeout <= 0 {
		return nil, errors.New("syncloop: fetch timeout must be > 0")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	l := &Loop{
		cfg:     cfg,
		fetcher: f,
		board:   b,
		metrics: m,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return ulid.Make().String() },

		pollEvery: time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// RefreshHeaders writes the labels of the next two months into the board
// headers.
func (l *Loop) RefreshHeaders() {
	next, afterNext, ok := l.board.ApplyMonthHeaders(l.now().In(l.cfg.Location))
	if !ok {
		l.logger.Warn("could not find enough table headers to update month names",
			zap.Int("headers", len(l.board.Headers())))
		return
	}
	l.logger.Info("table headers updated",
		zap.String("next_month", next),
		zap.String("month_after_next", afterNext))
}

// Restore seeds the board with the cached snapshot, if any.
func (l *Loop) Restore(ctx context.Context) {
	if l.snapshots == nil {
		return
	}
	snap, ok, err := l.snapshots.LoadSnapshot(ctx)
	if err != nil {
		l.logger.Warn("failed to load cached snapshot", zap.Error(err))
		return
	}
	if ok && l.board.Restore(snap) {
		l.logger.Info("board restored from cached snapshot",
			zap.String("cycle_id", snap.CycleID),
			zap.Time("updated_at", snap.UpdatedAt))
	}
}

// FetchAndRender runs one cycle: fetch, then replace the board body with
// rows, the placeholder or an error row. The fetch error, if any, is
// returned after it has been rendered.
func (l *Loop) FetchAndRender(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		l.skip("in_process")
		return ErrCycleInProgress
	}
	defer l.running.Store(false)

	cycle := domain.Cycle{ID: l.newID(), StartedAt: l.now()}

	if l.lock != nil {
		acquired, err := l.lock.TryLock(ctx, cycle.ID, l.cfg.FetchTimeout+lockGrace)
		switch {
		case err != nil:
			l.logger.Warn("cycle lock unavailable, running unlocked", zap.Error(err))
		case !acquired:
			l.skip("locked")
			l.followLockHolder(ctx)
			return ErrCycleInProgress
		default:
			defer func() {
				if err := l.lock.Unlock(context.WithoutCancel(ctx), cycle.ID); err != nil {
					l.logger.Warn("failed to release cycle lock", zap.String("cycle_id", cycle.ID), zap.Error(err))
				}
			}()
		}
	}

	start := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, l.cfg.FetchTimeout)
	records, err := l.fetcher.Fetch(fetchCtx)
	cancel()
	elapsed := time.Since(start)
	cycle.DurationMS = elapsed.Milliseconds()

	if err != nil && ctx.Err() != nil {
		l.logger.Info("refresh cycle cancelled, board left unchanged",
			zap.String("cycle_id", cycle.ID),
			zap.Error(err))
		return fmt.Errorf("refresh cycle cancelled: %w", ctx.Err())
	}

	if err != nil {
		cycle.Outcome = outcomeOf(err)
		cycle.Error = err.Error()
		l.board.SetError(cycle.ID, l.now(), err)
		l.logger.Error("failed to load table data",
			zap.String("cycle_id", cycle.ID),
			zap.String("outcome", cycle.Outcome),
			zap.Error(err))
	} else {
		rows := board.BuildRows(records)
		l.board.SetRows(cycle.ID, l.now(), rows)
		cycle.RowCount = len(rows)
		cycle.Outcome = domain.OutcomeOK
		if len(rows) == 0 {
			cycle.Outcome = domain.OutcomeEmpty
		}
		l.metrics.SetRows(len(rows))
		l.logger.Info("table data rendered",
			zap.String("cycle_id", cycle.ID),
			zap.Int("rows", len(rows)),
			zap.Duration("took", elapsed))
		l.saveSnapshot(ctx)
	}

	l.metrics.ObserveCycle(cycle.Outcome, elapsed)
	l.recordCycle(ctx, cycle)
	return err
}

// Start refreshes the headers once, runs a cycle immediately and then one
// per interval until ctx is cancelled. A tick that fires while a cycle is
// still running is skipped. Start returns once in-flight cycles are done.
func (l *Loop) Start(ctx context.Context) {
	l.logger.Info("sync loop started", zap.Duration("interval", l.cfg.Interval))
	l.RefreshHeaders()
	l.spawn(ctx)

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.wg.Wait()
			l.logger.Info("sync loop stopped")
			return
		case <-ticker.C:
			l.spawn(ctx)
		}
	}
}

func (l *Loop) spawn(ctx context.Context) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		// errors are rendered and logged inside the cycle
		_ = l.FetchAndRender(ctx)
	}()
}

// followLockHolder adopts the board cached by the replica that holds the
// cycle lock: what is cached now, then the result of the running cycle once
// it lands or the lock would have expired.
func (l *Loop) followLockHolder(ctx context.Context) {
	if l.snapshots == nil {
		return
	}
	seen := l.adoptCached(ctx)

	go func() {
		ctx, cancel := context.WithTimeout(ctx, l.cfg.FetchTimeout+lockGrace)
		defer cancel()
		ticker := time.NewTicker(l.pollEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if id := l.adoptCached(ctx); id != "" && id != seen {
					return
				}
			}
		}
	}()
}

// adoptCached loads the cached snapshot, adopts it when newer than the board
// and returns its cycle id.
func (l *Loop) adoptCached(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	snap, ok, err := l.snapshots.LoadSnapshot(ctx)
	if err != nil {
		l.logger.Debug("failed to load cached snapshot", zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	if l.board.Adopt(snap) {
		l.logger.Info("board adopted snapshot from another replica",
			zap.String("cycle_id", snap.CycleID),
			zap.Time("updated_at", snap.UpdatedAt))
	}
	return snap.CycleID
}

func (l *Loop) skip(reason string) {
	l.metrics.IncSkipped()
	l.logger.Warn("skipping refresh cycle, previous one still running", zap.String("reason", reason))
}

func (l *Loop) saveSnapshot(ctx context.Context) {
	if l.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := l.snapshots.SaveSnapshot(ctx, l.board.Snapshot()); err != nil {
		l.logger.Warn("failed to cache snapshot", zap.Error(err))
	}
}

func (l *Loop) recordCycle(ctx context.Context, c domain.Cycle) {
	if l.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := l.history.RecordCycle(ctx, c); err != nil {
		l.logger.Warn("failed to record cycle", zap.String("cycle_id", c.ID), zap.Error(err))
	}
}

func outcomeOf(err error) string {
	var formatErr *source.FormatError
	if errors.As(err, &formatErr) {
		return domain.OutcomeFormatError
	}
	return domain.OutcomeFetchError
}
