package repo

import (
	"context"
	"errors"
	"time"

	"sitewatch/internal/domain"
)

var (
	// ErrNotFound is returned when a site or webhook does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a site URL is already registered.
	ErrDuplicate = errors.New("duplicate")
)

// Ports (interfaces) — swap in any storage adapter.

// SiteStore is the registry of monitored sites. The scheduler and detector
// read it; the management API is the only other writer (create/delete).
type SiteStore interface {
	Add(ctx context.Context, s *domain.Site) error
	Get(ctx context.Context, id domain.SiteID) (*domain.Site, error)
	GetByURL(ctx context.Context, url string) (*domain.Site, error)
	List(ctx context.Context) ([]domain.Site, error)
	// UpdateStatus advances last_checked and, when changedAt is non-nil,
	// current_status and last_status_change as well.
	UpdateStatus(ctx context.Context, id domain.SiteID, status domain.Status, checkedAt time.Time, changedAt *time.Time) error
	Delete(ctx context.Context, id domain.SiteID) error
}

// CheckStore is the append-only log of check outcomes.
type CheckStore interface {
	Append(ctx context.Context, r *domain.CheckResult) error
	// ListBySite returns checks newest-first.
	ListBySite(ctx context.Context, id domain.SiteID, offset, limit int) ([]domain.CheckResult, error)
	LastBySite(ctx context.Context, id domain.SiteID) (*domain.CheckResult, error)
}

// WebhookStore holds the alert destinations, read-only from the core.
type WebhookStore interface {
	AddWebhook(ctx context.Context, w *domain.WebhookTarget) error
	ListWebhooks(ctx context.Context) ([]domain.WebhookTarget, error)
}
