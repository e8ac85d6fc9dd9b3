package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/ports"
	"CompetitorWatch/internal/ratelimit"
)

// CycleReport is the aggregate outcome of one scrape cycle. Throttled
// sources are retryable and counted apart from real failures.
type CycleReport struct {
	Success   int
	Failed    int
	Throttled int
	Total     int
}

// SchedulerDeps wires the scheduler's collaborators and cadences.
type SchedulerDeps struct {
	Storage        ports.Storage
	Processor      *Processor
	Digests        *DigestGenerator
	Notifier       ports.Notifier
	Logger         *slog.Logger
	ScrapeInterval time.Duration
	DigestInterval time.Duration
	Workers        int
}

// Scheduler drives the two independent cadences: the scrape cycle across
// all due sources and the weekly digest cycle. Manual triggers call the
// same RunScrapeCycle/RunDigestCycle used by the timers.
type Scheduler struct {
	storage        ports.Storage
	processor      *Processor
	digests        *DigestGenerator
	notifier       ports.Notifier
	logger         *slog.Logger
	scrapeInterval time.Duration
	digestInterval time.Duration
	workers        int

	mu   sync.Mutex
	stop chan struct{}
}

// NewScheduler constructs the scheduling component.
func NewScheduler(deps SchedulerDeps) *Scheduler {
	workers := deps.Workers
	if workers <= 0 {
		workers = 3
	}
	scrapeInterval := deps.ScrapeInterval
	if scrapeInterval <= 0 {
		scrapeInterval = 6 * time.Hour
	}
	digestInterval := deps.DigestInterval
	if digestInterval <= 0 {
		digestInterval = 168 * time.Hour
	}

	return &Scheduler{
		storage:        deps.Storage,
		processor:      deps.Processor,
		digests:        deps.Digests,
		notifier:       deps.Notifier,
		logger:         deps.Logger,
		scrapeInterval: scrapeInterval,
		digestInterval: digestInterval,
		workers:        workers,
	}
}

// Start registers both cadences. The scrape cycle runs immediately since
// the due predicate makes it idempotent; the digest cycle waits for its
// first tick so a restart never re-delivers the trailing window. The
// startup notice is best-effort and sent outside the lock; its failure
// never aborts initialization. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	if err := s.notifier.NotifySystem(ctx, ports.SeverityInfo, "competitor monitoring started"); err != nil {
		s.log().Warn("startup notice failed", "error", err)
	}

	go s.runCadence(ctx, stop, s.scrapeInterval, true, func() {
		if _, err := s.RunScrapeCycle(ctx); err != nil {
			s.log().Error("scrape cycle aborted", "error", err)
		}
	})
	go s.runCadence(ctx, stop, s.digestInterval, false, func() {
		if err := s.RunDigestCycle(ctx); err != nil {
			s.log().Error("digest cycle aborted", "error", err)
		}
	})

	return nil
}

// Stop cancels both cadences without blocking on in-flight fetches; those
// finish or time out on their own bounded clocks. Safe to call when never
// started or already stopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}

func (s *Scheduler) runCadence(ctx context.Context, stop chan struct{}, interval time.Duration, immediate bool, run func()) {
	select {
	case <-ctx.Done():
		return
	case <-stop:
		return
	default:
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if immediate {
		run()
	}
	for {
		select {
		case <-ticker.C:
			run()
		case <-ctx.Done():
			return
		case <-stop:
			return
		}
	}
}

// RunScrapeCycle processes every active, due source with bounded
// concurrency. A failure on one source never halts the batch; only a
// failure to enumerate sources at all is fatal. Manual triggers use this
// exact path.
func (s *Scheduler) RunScrapeCycle(ctx context.Context) (CycleReport, error) {
	sources, err := s.storage.GetActiveSources(ctx)
	if err != nil {
		return CycleReport{}, fmt.Errorf("enumerate sources: %w", err)
	}

	now := time.Now().UTC()
	var due []domain.Source
	for _, src := range sources {
		if src.Due(now) {
			due = append(due, src)
		}
	}

	var (
		mu     sync.Mutex
		report = CycleReport{Total: len(due)}
		wg     sync.WaitGroup
		sem    = make(chan struct{}, s.workers)
	)

	for _, src := range due {
		wg.Add(1)
		go func(src domain.Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := s.processor.ProcessSource(ctx, src)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Success++
			case errors.Is(err, ratelimit.ErrRateLimited):
				// Retryable: the source stays due and is retried next
				// cycle without tripping the failure notice.
				report.Throttled++
				s.log().Debug("source throttled", "source", src.ID)
			default:
				report.Failed++
				s.log().Warn("source processing failed", "source", src.ID, "error", err)
			}
		}(src)
	}
	wg.Wait()

	s.log().Info("scrape cycle finished",
		"success", report.Success, "failed", report.Failed,
		"throttled", report.Throttled, "total", report.Total)

	if report.Failed > 0 {
		message := fmt.Sprintf("scrape cycle: %d of %d sources failed", report.Failed, report.Total)
		if err := s.notifier.NotifySystem(ctx, ports.SeverityWarning, message); err != nil {
			s.log().Warn("cycle warning notice failed", "error", err)
		}
	}

	return report, nil
}

// RunDigestCycle generates and dispatches the digest for the trailing
// window. An empty window is a reported skip, not an error. Manual
// triggers use this exact path.
func (s *Scheduler) RunDigestCycle(ctx context.Context) error {
	end := time.Now().UTC()
	start := end.Add(-s.digestInterval)

	digest, err := s.digests.Generate(ctx, start, end)
	if err != nil {
		return fmt.Errorf("digest cycle: %w", err)
	}
	if digest == nil {
		s.log().Info("digest cycle skipped, empty window",
			"window_start", start, "window_end", end)
		return nil
	}

	s.log().Info("digest generated",
		"digest", digest.ID, "updates", digest.TotalUpdates, "high_impact", digest.HighImpactCount,
		"delivered", digest.Delivered)
	return nil
}

func (s *Scheduler) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
