package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"sitewatch/internal/domain"
	"sitewatch/internal/metrics"
	"sitewatch/internal/notify"
	"sitewatch/internal/probe"
	"sitewatch/internal/repo"
)

// Alerter is the downstream notification path; *notify.Dispatcher
// satisfies it.
type Alerter interface {
	Dispatch(ctx context.Context, tr domain.Transition) []notify.Delivery
}

// Scheduler runs one check cycle goroutine per monitored site. Cycles are
// fully independent: a slow or hung probe on one site never delays
// another, and a site's next idle period starts when its previous check
// finishes. Track/Forget tie cycle lifetime to registry membership.
type Scheduler struct {
	logger       *zap.Logger
	sites        repo.SiteStore
	checker      probe.Checker
	detector     *Detector
	alerter      Alerter
	probeTimeout time.Duration

	mu         sync.Mutex
	baseCtx    context.Context
	baseCancel context.CancelFunc
	quiesce    chan struct{}
	stopped    bool
	running    map[domain.SiteID]*cycle
	wg         sync.WaitGroup
}

type cycle struct {
	cancel context.CancelFunc
}

func New(
	logger *zap.Logger,
	sites repo.SiteStore,
	checker probe.Checker,
	detector *Detector,
	alerter Alerter,
	probeTimeout time.Duration,
) *Scheduler {
	if probeTimeout <= 0 {
		probeTimeout = 10 * time.Second
	}
	return &Scheduler{
		logger:       logger,
		sites:        sites,
		checker:      checker,
		detector:     detector,
		alerter:      alerter,
		probeTimeout: probeTimeout,
		quiesce:      make(chan struct{}),
		running:      make(map[domain.SiteID]*cycle),
	}
}

// Start launches a cycle for every registered site. Each cycle runs its
// first check immediately; a fresh site's unknown status makes that first
// check a transition, which seeds the alerting baseline.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	// Cycles must outlive the caller's (typically signal-bound) context:
	// shutdown goes through Stop's grace period so in-flight probes and
	// webhook deliveries can finish instead of being cut off mid-send.
	s.baseCtx, s.baseCancel = context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Unlock()

	sites, err := s.sites.List(ctx)
	if err != nil {
		return err
	}
	for i := range sites {
		s.Track(&sites[i])
	}
	s.logger.Info("scheduler_started", zap.Int("sites", len(sites)))
	return nil
}

// Track starts an independent check cycle for a site. No-op when the site
// is already being monitored.
func (s *Scheduler) Track(site *domain.Site) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.baseCtx == nil {
		s.baseCtx, s.baseCancel = context.WithCancel(context.Background())
	}
	if _, ok := s.running[site.ID]; ok {
		return
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	c := &cycle{cancel: cancel}
	s.running[site.ID] = c
	s.wg.Add(1)
	go s.loop(ctx, c, site.ID, site.URL, site.Interval.Std())
}

// Forget cancels a site's cycle. An in-flight probe is aborted and its
// outcome discarded; a probe that already returned still gets its history
// row recorded, it just no longer produces an alert.
func (s *Scheduler) Forget(id domain.SiteID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.running[id]; ok {
		c.cancel()
		delete(s.running, id)
	}
}

// Stop winds the scheduler down in two phases: cycles immediately stop
// scheduling new checks, then in-flight probes and webhook deliveries get
// up to grace to finish before the remaining work is cancelled outright.
func (s *Scheduler) Stop(grace time.Duration) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.wg.Wait()
		return
	}
	s.stopped = true
	close(s.quiesce)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		s.logger.Warn("shutdown_grace_expired", zap.Duration("grace", grace))
	}

	s.mu.Lock()
	for id, c := range s.running {
		c.cancel()
		delete(s.running, id)
	}
	if s.baseCancel != nil {
		s.baseCancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Info("scheduler_stopped")
}

func (s *Scheduler) loop(ctx context.Context, c *cycle, id domain.SiteID, url string, interval time.Duration) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		// only clear our own registration; the site may have been
		// forgotten and re-tracked while we were winding down
		if s.running[id] == c {
			delete(s.running, id)
		}
		s.mu.Unlock()
	}()

	if interval < domain.MinInterval {
		interval = domain.MinInterval
	}
	s.logger.Info("cycle_started",
		zap.String("site_id", string(id)),
		zap.String("url", url),
		zap.Duration("interval", interval),
	)

	// Fires immediately; afterwards the timer is reset from the end of
	// each check, so slow probes shift the next wakeup instead of piling
	// up against a fixed slot.
	timer := time.NewTimer(0)
	defer timer.Stop()

	persistFailures := 0
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("cycle_stopped", zap.String("site_id", string(id)))
			return
		case <-s.quiesce:
			s.logger.Info("cycle_stopped", zap.String("site_id", string(id)))
			return
		case <-timer.C:
		}

		err := s.checkOnce(ctx, id)
		switch {
		case err == nil:
			persistFailures = 0
			timer.Reset(interval)
		case errors.Is(err, repo.ErrNotFound):
			// site deleted; nothing left to schedule
			s.logger.Info("cycle_stopped", zap.String("site_id", string(id)))
			return
		case ctx.Err() != nil:
			s.logger.Info("cycle_stopped", zap.String("site_id", string(id)))
			return
		default:
			// Persistence trouble: stretch the idle period instead of
			// hammering a failing store. Caps at 8x the interval.
			if persistFailures < 3 {
				persistFailures++
			}
			idle := interval << persistFailures
			s.logger.Warn("cycle_backoff",
				zap.String("site_id", string(id)),
				zap.Duration("idle", idle),
				zap.Error(err),
			)
			timer.Reset(idle)
		}
	}
}

// checkOnce probes the site once, records the result, and dispatches the
// alert when a transition occurred. Dispatch happens synchronously inside
// the site's own cycle, so a site's alerts always leave in transition
// order.
func (s *Scheduler) checkOnce(ctx context.Context, id domain.SiteID) error {
	site, err := s.sites.Get(ctx, id)
	if err != nil {
		return err
	}

	pctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	start := time.Now()
	out := s.checker.Check(pctx, site.URL)
	cancel()

	if ctx.Err() != nil {
		// shutting down or forgotten mid-probe; the aborted outcome is
		// not a real data point
		return ctx.Err()
	}

	metrics.ChecksTotal.WithLabelValues(string(out.Status)).Inc()
	metrics.CheckDuration.WithLabelValues(string(out.Status)).Observe(time.Since(start).Seconds())
	s.logger.Debug("site_checked",
		zap.String("site_id", string(id)),
		zap.String("url", site.URL),
		zap.String("status", string(out.Status)),
		zap.Int("http_status", out.StatusCode),
		zap.String("error", out.Err),
	)

	tr, err := s.detector.Process(ctx, site, out)
	if err != nil {
		return err
	}
	if tr != nil && s.alerter != nil {
		s.alerter.Dispatch(ctx, *tr)
	}
	return nil
}
