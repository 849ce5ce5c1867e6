package mirror

import (
	"context"
	"sync"
	"time"

	"deck-mirror/core/deck"
	"deck-mirror/feature/mirror/models"
	"deck-mirror/feature/mirror/reconcile"
	"deck-mirror/feature/mirror/schedule"

	"go.uber.org/zap"
)

// Service drives the mirror: it owns the tree, runs the poll loop, feeds
// snapshots to the reconciler, and keeps the scheduler armed. The tree is
// written only from the poll loop; readers go through View or the
// accessors, which take the read lock.
type Service struct {
	client   deck.Client
	rec      *reconcile.Reconciler
	sched    *schedule.Scheduler
	log      *zap.Logger
	cooldown time.Duration

	mu       sync.RWMutex
	tree     *models.Tree
	lastSync time.Time
	lastErr  error
	polls    int64
	failures int64

	refresh chan struct{}
}

// NewService creates a mirror service around the given transport client.
func NewService(client deck.Client, cfg Config, log *zap.Logger) *Service {
	return &Service{
		client:   client,
		rec:      reconcile.New(client, log),
		sched:    schedule.New(log),
		log:      log,
		cooldown: cfg.Cooldown(),
		tree:     models.NewTree(),
		refresh:  make(chan struct{}, 1),
	}
}

// Subscribe registers a callback invoked whenever a card's due time is
// reached.
func (s *Service) Subscribe(cb schedule.Callback) {
	s.sched.Subscribe(cb)
}

// ForceRefresh requests an immediate poll cycle, shortening the current
// cooldown wait. Multiple pending requests collapse into one.
func (s *Service) ForceRefresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// CurrentTree returns the mirror tree. The returned tree and everything
// reachable from it must be treated as read-only; use View for reads that
// must not interleave with a reconciliation pass.
func (s *Service) CurrentTree() *models.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

// View runs fn against the tree under the read lock, guaranteeing a
// consistent point-in-time read.
func (s *Service) View(fn func(*models.Tree) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.tree)
}

// NextDue returns the due event currently armed, if any.
func (s *Service) NextDue() (schedule.Event, bool) {
	return s.sched.NextDue()
}

// Status summarizes the mirror's health for the status endpoint.
type Status struct {
	Boards   int             `json:"boards"`
	Cards    int             `json:"cards"`
	Users    int             `json:"users"`
	Polls    int64           `json:"polls"`
	Failures int64           `json:"failures"`
	LastSync *time.Time      `json:"last_sync,omitempty"`
	LastErr  string          `json:"last_error,omitempty"`
	NextDue  *schedule.Event `json:"next_due,omitempty"`
}

// Status returns a snapshot of the mirror's health counters.
func (s *Service) Status() Status {
	s.mu.RLock()
	st := Status{
		Boards:   len(s.tree.Boards),
		Cards:    s.tree.CardCount(),
		Users:    s.tree.Users.Len(),
		Polls:    s.polls,
		Failures: s.failures,
	}
	if !s.lastSync.IsZero() {
		t := s.lastSync
		st.LastSync = &t
	}
	if s.lastErr != nil {
		st.LastErr = s.lastErr.Error()
	}
	s.mu.RUnlock()

	if ev, ok := s.sched.NextDue(); ok {
		st.NextDue = &ev
	}
	return st
}

// Run starts the scheduler worker and executes the poll loop until the
// context is cancelled. The first poll happens immediately; afterwards the
// loop waits out the cooldown, shortened by ForceRefresh requests.
func (s *Service) Run(ctx context.Context) {
	go s.sched.Run(ctx)

	s.log.Info("starting mirror poller", zap.Duration("cooldown", s.cooldown))
	s.poll(ctx)

	for {
		select {
		case <-time.After(s.cooldown):
		case <-s.refresh:
			s.log.Debug("explicit refresh requested")
		case <-ctx.Done():
			return
		}
		s.poll(ctx)
	}
}

// poll executes one cycle: fetch, plan, commit, re-arm. Fetch and
// validation errors skip the cycle and leave the tree at its last
// known-good state; the next tick retries.
func (s *Service) poll(ctx context.Context) {
	snap, err := s.client.Snapshot(ctx)
	if err != nil {
		s.recordFailure(err)
		s.log.Warn("snapshot fetch failed, retrying on next tick", zap.Error(err))
		return
	}

	// Planning reads the tree but never writes it, and the poll loop is
	// the only writer, so no lock is needed yet.
	plan, err := s.rec.Plan(ctx, s.tree, snap)
	if err != nil {
		s.recordFailure(err)
		s.log.Warn("reconciliation pass aborted, tree unchanged", zap.Error(err))
		return
	}

	s.mu.Lock()
	changed := s.rec.Commit(s.tree, plan)
	s.polls++
	s.lastSync = time.Now()
	s.lastErr = nil
	s.mu.Unlock()

	if changed {
		s.sched.Update(s.project())
	}
	s.log.Debug("poll cycle finished", zap.Bool("changed", changed))
}

func (s *Service) recordFailure(err error) {
	s.mu.Lock()
	s.polls++
	s.failures++
	s.lastErr = err
	s.mu.Unlock()
}

// project derives the scheduler's event list from the tree.
func (s *Service) project() []schedule.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cards := s.tree.DueCards()
	events := make([]schedule.Event, 0, len(cards))
	for _, c := range cards {
		events = append(events, schedule.Event{
			CardID:  c.ID,
			StackID: c.StackID,
			BoardID: c.BoardID,
			Title:   c.Title,
			Due:     *c.Due,
		})
	}
	return events
}
