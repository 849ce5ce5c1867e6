package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is the derived projection of a due-dated card. The scheduler only
// ever sees these, never the tree itself.
type Event struct {
	CardID  int64     `json:"card_id"`
	StackID int64     `json:"stack_id"`
	BoardID int64     `json:"board_id"`
	Title   string    `json:"title"`
	Due     time.Time `json:"due"`
}

// Callback is invoked when an event's deadline is reached.
type Callback func(Event)

// Scheduler waits for the nearest upcoming deadline among the known events
// and dispatches callbacks when it is reached. It is re-armed through
// Update whenever reconciliation changes the event set.
//
// The target is the event with the earliest due time still in the future,
// ties broken by card id. A deadline that slipped into the past without
// ever firing (clock skew, startup after a pause) fires immediately. Each
// (card, due time) pair fires at most once; a card becomes eligible again
// only when its due time changes.
type Scheduler struct {
	log *zap.Logger

	mu        sync.Mutex
	events    []Event
	fired     map[int64]time.Time
	callbacks []Callback

	wake chan struct{}
	now  func() time.Time
}

// New creates an idle scheduler with no events.
func New(log *zap.Logger) *Scheduler {
	return &Scheduler{
		log:   log,
		fired: make(map[int64]time.Time),
		wake:  make(chan struct{}, 1),
		now:   time.Now,
	}
}

// Subscribe registers a callback for every deadline firing.
func (s *Scheduler) Subscribe(cb Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

// Update replaces the event set. If the resulting target differs from the
// one currently waited on, the running wait is interrupted so Run can
// re-arm; an unchanged target leaves the wait undisturbed.
func (s *Scheduler) Update(events []Event) {
	s.mu.Lock()
	prev, prevOK := s.nextLocked()

	s.events = sortEvents(events)

	// Drop firing records for cards that vanished or whose due time
	// moved; a moved deadline must be able to fire again.
	fired := make(map[int64]time.Time)
	for _, ev := range s.events {
		if t, ok := s.fired[ev.CardID]; ok && t.Equal(ev.Due) {
			fired[ev.CardID] = t
		}
	}
	s.fired = fired

	next, nextOK := s.nextLocked()
	s.mu.Unlock()

	if prevOK == nextOK && (!nextOK || (prev.CardID == next.CardID && prev.Due.Equal(next.Due))) {
		return
	}

	if nextOK {
		s.log.Info("next due event changed", zap.Int64("card_id", next.CardID), zap.Time("due", next.Due))
	} else {
		s.log.Info("next due event gone")
	}

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// NextDue returns the event currently targeted, if any.
func (s *Scheduler) NextDue() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextLocked()
}

// nextLocked picks the target. Events are kept sorted by (due, card id),
// so the scan returns the earliest future event, or an earlier past one
// that never fired.
func (s *Scheduler) nextLocked() (Event, bool) {
	now := s.now()
	for _, ev := range s.events {
		if ev.Due.After(now) {
			return ev, true
		}
		if !s.fired[ev.CardID].Equal(ev.Due) {
			return ev, true
		}
	}
	return Event{}, false
}

// Run executes the wait loop until the context is cancelled. With no
// eligible event it blocks indefinitely on the wake signal; otherwise it
// waits out the armed deadline, firing without delay when the deadline is
// already in the past by the time it is armed.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("starting due-event scheduler")

	for {
		s.mu.Lock()
		target, armed := s.nextLocked()
		s.mu.Unlock()

		if !armed {
			select {
			case <-s.wake:
				continue
			case <-ctx.Done():
				return
			}
		}

		delay := target.Due.Sub(s.now())
		if delay <= 0 {
			s.fire(target)
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
			s.fire(target)
		case <-s.wake:
			timer.Stop()
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (s *Scheduler) fire(ev Event) {
	s.mu.Lock()
	s.fired[ev.CardID] = ev.Due
	callbacks := make([]Callback, len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()

	s.log.Info("due event reached",
		zap.Int64("card_id", ev.CardID),
		zap.String("title", ev.Title),
		zap.Time("due", ev.Due),
	)
	for _, cb := range callbacks {
		cb(ev)
	}
}

func sortEvents(events []Event) []Event {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Due.Equal(sorted[j].Due) {
			return sorted[i].CardID < sorted[j].CardID
		}
		return sorted[i].Due.Before(sorted[j].Due)
	})
	return sorted
}
