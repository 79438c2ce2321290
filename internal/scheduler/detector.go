package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sitewatch/internal/domain"
	"sitewatch/internal/metrics"
	"sitewatch/internal/probe"
	"sitewatch/internal/repo"
)

// Detector turns probe outcomes into persisted state and transitions.
// It is the only code path that mutates a site's current_status and
// last_status_change; per-site serialization comes from the scheduler
// running one cycle goroutine per site.
type Detector struct {
	Logger *zap.Logger
	Sites  repo.SiteStore
	Checks repo.CheckStore
}

func NewDetector(logger *zap.Logger, sites repo.SiteStore, checks repo.CheckStore) *Detector {
	return &Detector{Logger: logger, Sites: sites, Checks: checks}
}

// Process appends the check to history, advances the site's timestamps,
// and returns a Transition when the status changed. The first check on a
// fresh site (current_status unknown) always transitions. A nil, nil
// return means "recorded, nothing to alert".
//
// Failure rules:
//   - history append fails: the site's status is NOT advanced, so the
//     stored state never diverges from the recorded history; the error is
//     returned for the caller to back off on.
//   - site deleted mid-cycle: the history record stays, no transition,
//     no error.
func (d *Detector) Process(ctx context.Context, site *domain.Site, out probe.Outcome) (*domain.Transition, error) {
	now := time.Now().UTC()
	cr := domain.CheckResult{
		SiteID:    site.ID,
		Status:    out.Status,
		LatencyMS: out.LatencyMS,
		Error:     out.Err,
		CheckedAt: now,
	}
	if err := d.Checks.Append(ctx, &cr); err != nil {
		return nil, fmt.Errorf("append check: %w", err)
	}

	changed := out.Status != site.CurrentStatus
	var changedAt *time.Time
	if changed {
		changedAt = &now
	}
	if err := d.Sites.UpdateStatus(ctx, site.ID, out.Status, now, changedAt); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			d.Logger.Debug("site_gone_mid_check", zap.String("site_id", string(site.ID)))
			return nil, nil
		}
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !changed {
		return nil, nil
	}

	tr := &domain.Transition{
		Site:   *site,
		From:   site.CurrentStatus,
		To:     out.Status,
		Result: cr,
	}
	if tr.Recovered() && site.LastStatusChange != nil {
		tr.Downtime = now.Sub(*site.LastStatusChange)
	}
	metrics.TransitionsTotal.WithLabelValues(string(out.Status)).Inc()
	d.Logger.Info("status_transition",
		zap.String("site_id", string(site.ID)),
		zap.String("url", site.URL),
		zap.String("from", string(tr.From)),
		zap.String("to", string(tr.To)),
		zap.String("error", out.Err),
	)
	return tr, nil
}
