package analysis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/matchpick/matchpick/pkg/pick"
	"github.com/matchpick/matchpick/pkg/provider"
)

const defaultSweepInterval = 5 * time.Minute

// Scheduler periodically pre-computes picks for popular matches so that user
// requests hit the cache. Each run covers today's slate and tomorrow's early
// kickoffs.
type Scheduler struct {
	service  *Service
	provider provider.ContextProvider
	interval time.Duration
	loc      *time.Location
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	Service  *Service
	Provider provider.ContextProvider
	Interval time.Duration  // defaults to 5m
	Location *time.Location // defaults to time.Local
}

// NewScheduler creates a sweep scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		service:  cfg.Service,
		provider: cfg.Provider,
		interval: cfg.Interval,
		loc:      cfg.Location,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	if s.interval <= 0 {
		s.interval = defaultSweepInterval
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	return s
}

// Start launches the sweep loop. It returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	go s.loop(ctx, stopCh)
	return nil
}

// Stop stops the sweep loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		close(s.stopCh)
		s.running = false
	}
}

func (s *Scheduler) loop(ctx context.Context, stopCh chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			s.SweepMissingPicks(ctx, s.now())
		}
	}
}

// SweepMissingPicks analyzes every popular match that does not yet have a
// usable pick. Per-match failures are logged and skipped so one broken match
// cannot stall the slate.
func (s *Scheduler) SweepMissingPicks(ctx context.Context, asOf time.Time) {
	local := asOf.In(s.loc)

	s.sweepDate(ctx, local.Format("2006-01-02"), false)
	s.sweepDate(ctx, local.AddDate(0, 0, 1).Format("2006-01-02"), true)
}

// startsBeforeNoon reports whether a kickoff falls before local noon. Matches
// without a known start time are not warmed ahead of their day.
func (s *Scheduler) startsBeforeNoon(start time.Time) bool {
	return !start.IsZero() && start.In(s.loc).Hour() < 12
}

func (s *Scheduler) sweepDate(ctx context.Context, date string, tomorrow bool) {
	trigger := "today"
	if tomorrow {
		trigger = "tomorrow"
	}
	s.service.metrics.SweepRuns.WithLabelValues(trigger).Inc()

	matches, err := s.provider.PopularMatches(ctx, date, tomorrow)
	if err != nil {
		log.Printf("[Sweep] list popular matches for %s: %v", date, err)
		s.service.metrics.SweepFailures.Inc()
		return
	}

	for _, m := range matches {
		if ctx.Err() != nil {
			return
		}
		// Tomorrow's pass only warms morning kickoffs; afternoon and evening
		// matches wait for their day-of sweep.
		if tomorrow && !s.startsBeforeNoon(m.StartTime) {
			continue
		}
		if s.hasPick(ctx, m.MatchID) {
			continue
		}
		if _, err := s.service.GetOrCreate(ctx, m.MatchID, m.SportsType, pick.AllMarkets(), false, nil); err != nil {
			log.Printf("[Sweep] match %d (%s vs %s): %v", m.MatchID, m.HomeTeamName, m.AwayTeamName, err)
			s.service.metrics.SweepFailures.Inc()
		}
	}
}

func (s *Scheduler) hasPick(ctx context.Context, matchID int64) bool {
	rec, err := s.service.store.FindLatest(ctx, matchID, "")
	if err != nil {
		return false
	}
	return HasPrimaryPick(rec)
}
