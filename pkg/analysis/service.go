package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/matchpick/matchpick/pkg/metrics"
	"github.com/matchpick/matchpick/pkg/odds"
	"github.com/matchpick/matchpick/pkg/oracle"
	"github.com/matchpick/matchpick/pkg/pick"
	"github.com/matchpick/matchpick/pkg/provider"
	"github.com/matchpick/matchpick/pkg/store"
)

const defaultRetryWait = time.Second

// PromptFunc renders the oracle prompt for one match.
type PromptFunc func(*provider.MatchContext, *odds.Snapshot, pick.RequestedMarkets) string

// Config wires the service's collaborators.
type Config struct {
	Provider provider.ContextProvider
	Oracle   oracle.Client
	Store    store.Store
	InFlight *InFlightSet
	Metrics  *metrics.EngineMetrics

	// RetryWait is how long a request blocked by an in-flight analysis of
	// the same match waits before re-checking the store. Defaults to 1s.
	RetryWait time.Duration

	// PromptFunc overrides the default prompt builder, mainly for tests.
	PromptFunc PromptFunc
}

// Graded is an analysis outcome with its verdict at read time. Record is nil
// when the analysis is still running elsewhere and the caller should retry.
type Graded struct {
	Record  *store.Record
	Result  *pick.Result
	Verdict pick.Verdict
}

// Service is the decision engine.
type Service struct {
	provider  provider.ContextProvider
	oracle    oracle.Client
	store     store.Store
	inflight  *InFlightSet
	metrics   *metrics.EngineMetrics
	retryWait time.Duration
	prompt    PromptFunc
	onCreate  []func(*store.Record)
}

// NewService creates the engine from a config, filling in defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Provider == nil || cfg.Oracle == nil || cfg.Store == nil {
		return nil, errors.New("analysis: provider, oracle and store are required")
	}
	s := &Service{
		provider:  cfg.Provider,
		oracle:    cfg.Oracle,
		store:     cfg.Store,
		inflight:  cfg.InFlight,
		metrics:   cfg.Metrics,
		retryWait: cfg.RetryWait,
		prompt:    cfg.PromptFunc,
	}
	if s.inflight == nil {
		s.inflight = NewInFlightSet()
	}
	if s.metrics == nil {
		s.metrics = metrics.Default()
	}
	if s.retryWait <= 0 {
		s.retryWait = defaultRetryWait
	}
	if s.prompt == nil {
		s.prompt = oracle.BuildPrompt
	}
	return s, nil
}

// OnRecordCreated registers a callback invoked after each new record is
// persisted. Callbacks run synchronously on the creating goroutine.
func (s *Service) OnRecordCreated(fn func(*store.Record)) {
	s.onCreate = append(s.onCreate, fn)
}

// GetOrCreate returns the analysis for a match. If a record exists for the
// current odds state it is served from the store; otherwise the oracle is
// consulted once and the outcome persisted as a new version. With refresh set
// the cache is bypassed and a new version is always created.
func (s *Service) GetOrCreate(ctx context.Context, matchID int64, sportsType string, req pick.RequestedMarkets, refresh bool, ov *provider.Overrides) (*Graded, error) {
	mc, err := s.provider.MatchContext(ctx, matchID, sportsType, ov)
	if err != nil {
		return nil, fmt.Errorf("match context: %w", err)
	}

	snap := odds.BuildSnapshot(mc.OddsRaw)
	hash := snap.Hash()

	if !refresh {
		rec, err := s.store.FindLatest(ctx, matchID, hash)
		switch {
		case err == nil:
			s.metrics.CacheLookups.WithLabelValues("hit").Inc()
			return s.gradeStored(rec, mc), nil
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("cache lookup: %w", err)
		}
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
	} else {
		s.metrics.CacheLookups.WithLabelValues("refresh").Inc()
	}

	if !s.inflight.TryAdd(matchID) {
		return s.awaitInFlight(ctx, matchID, hash, mc)
	}
	defer s.inflight.Remove(matchID)
	s.metrics.InFlight.Inc()
	defer s.metrics.InFlight.Dec()

	result, err := s.consultOracle(ctx, mc, &snap, req)
	if err != nil {
		return nil, err
	}

	maxVersion, err := s.store.MaxVersion(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("max version: %w", err)
	}
	rec := &store.Record{
		ID:           uuid.NewString(),
		MatchID:      matchID,
		SportsType:   sportsType,
		Markets:      req,
		OddsSnapshot: snap,
		OddsHash:     hash,
		Result:       result,
		Version:      maxVersion + 1,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	s.metrics.RecordsCreated.Inc()
	log.Printf("[Analysis] match %d: created record v%d (hash %.12s)", matchID, rec.Version, hash)

	for _, fn := range s.onCreate {
		fn(rec)
	}

	verdict := pick.Grade(result.PrimaryPick, mc.Score, mc.Status)
	s.metrics.Verdicts.WithLabelValues(verdict.String()).Inc()
	return &Graded{Record: rec, Result: result, Verdict: verdict}, nil
}

// GetExisting returns the latest stored analysis for a match without ever
// consulting the oracle. Overrides supply the score and status to grade
// against. Returns store.ErrNotFound when the match has no records.
func (s *Service) GetExisting(ctx context.Context, matchID int64, ov *provider.Overrides) (*Graded, error) {
	rec, err := s.store.FindLatest(ctx, matchID, "")
	if err != nil {
		return nil, err
	}
	verdict := pick.VerdictNeutral
	if rec.Result != nil {
		verdict = pick.Grade(rec.Result.PrimaryPick, ov.Score(), statusFrom(ov))
	}
	s.metrics.Verdicts.WithLabelValues(verdict.String()).Inc()
	return &Graded{Record: rec, Result: rec.Result, Verdict: verdict}, nil
}

// awaitInFlight handles a request that lost the race: wait briefly, then
// serve whatever the winner stored. When nothing shows up the pick is
// withheld rather than running a second oracle call.
func (s *Service) awaitInFlight(ctx context.Context, matchID int64, hash string, mc *provider.MatchContext) (*Graded, error) {
	s.metrics.InFlightSkips.Inc()
	log.Printf("[Analysis] match %d: analysis already running, waiting %s", matchID, s.retryWait)

	timer := time.NewTimer(s.retryWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	rec, err := s.store.FindLatest(ctx, matchID, hash)
	switch {
	case err == nil:
		return s.gradeStored(rec, mc), nil
	case errors.Is(err, store.ErrNotFound):
		log.Printf("[Analysis] match %d: still analyzing, withholding pick", matchID)
		return &Graded{Verdict: pick.VerdictNeutral}, nil
	default:
		return nil, fmt.Errorf("retry lookup: %w", err)
	}
}

// gradeStored adapts a cached record to the score known now. Records whose
// result arrived as unparsed text are normalized on the way out.
func (s *Service) gradeStored(rec *store.Record, mc *provider.MatchContext) *Graded {
	result := rec.Result
	if result != nil && result.RawText != "" && result.PrimaryPick == nil {
		result = pick.SelectPrimaryPick(pick.ParseResultText(result.RawText), &rec.OddsSnapshot)
	}
	verdict := pick.VerdictNeutral
	if result != nil {
		verdict = pick.Grade(result.PrimaryPick, mc.Score, mc.Status)
	}
	s.metrics.Verdicts.WithLabelValues(verdict.String()).Inc()
	return &Graded{Record: rec, Result: result, Verdict: verdict}
}

func (s *Service) consultOracle(ctx context.Context, mc *provider.MatchContext, snap *odds.Snapshot, req pick.RequestedMarkets) (*pick.Result, error) {
	prompt := s.prompt(mc, snap, req)

	start := time.Now()
	text, err := s.oracle.Complete(ctx, prompt)
	s.metrics.OracleLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.OracleCalls.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("oracle: %w", err)
	}
	s.metrics.OracleCalls.WithLabelValues("ok").Inc()

	return pick.SelectPrimaryPick(pick.ParseResultText(text), snap), nil
}

// HasPrimaryPick reports whether a record carries a usable primary pick,
// looking through unparsed raw text if needed.
func HasPrimaryPick(rec *store.Record) bool {
	if rec == nil || rec.Result == nil {
		return false
	}
	if rec.Result.PrimaryPick != nil {
		return true
	}
	if rec.Result.RawText == "" {
		return false
	}
	res := pick.SelectPrimaryPick(pick.ParseResultText(rec.Result.RawText), &rec.OddsSnapshot)
	return res != nil && res.PrimaryPick != nil
}

func statusFrom(ov *provider.Overrides) string {
	if ov == nil {
		return ""
	}
	return ov.Status
}
