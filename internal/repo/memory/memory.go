package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sitewatch/internal/domain"
	"sitewatch/internal/repo"
)

// Store keeps everything in process memory. Default when no DATABASE_URL
// is configured; also the backing store for most tests.
type Store struct {
	mu       sync.RWMutex
	sites    map[domain.SiteID]*domain.Site
	checks   map[domain.SiteID][]domain.CheckResult
	webhooks []domain.WebhookTarget
}

func New() *Store {
	return &Store{
		sites:  make(map[domain.SiteID]*domain.Site),
		checks: make(map[domain.SiteID][]domain.CheckResult),
	}
}

// ---- SiteStore ----

func (m *Store) Add(ctx context.Context, s *domain.Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.sites {
		if existing.URL == s.URL {
			return repo.ErrDuplicate
		}
	}
	if s.ID == "" {
		s.ID = domain.SiteID(uuid.NewString())
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.CurrentStatus == "" {
		s.CurrentStatus = domain.StatusUnknown
	}
	cp := *s
	m.sites[s.ID] = &cp
	return nil
}

func (m *Store) Get(ctx context.Context, id domain.SiteID) (*domain.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sites[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Store) GetByURL(ctx context.Context, url string) (*domain.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sites {
		if s.URL == url {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *Store) List(ctx context.Context) ([]domain.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Site, 0, len(m.sites))
	for _, s := range m.sites {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Store) UpdateStatus(ctx context.Context, id domain.SiteID, status domain.Status, checkedAt time.Time, changedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[id]
	if !ok {
		return repo.ErrNotFound
	}
	ca := checkedAt
	s.LastChecked = &ca
	if changedAt != nil {
		s.CurrentStatus = status
		cg := *changedAt
		s.LastStatusChange = &cg
	}
	return nil
}

func (m *Store) Delete(ctx context.Context, id domain.SiteID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sites[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.sites, id)
	return nil
}

// ---- CheckStore ----

func (m *Store) Append(ctx context.Context, r *domain.CheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[r.SiteID] = append(m.checks[r.SiteID], *r)
	return nil
}

func (m *Store) ListBySite(ctx context.Context, id domain.SiteID, offset, limit int) ([]domain.CheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.checks[id]
	n := len(rows)
	out := make([]domain.CheckResult, 0, limit)
	// newest first: walk the append-only slice backwards
	for i := n - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}

func (m *Store) LastBySite(ctx context.Context, id domain.SiteID) (*domain.CheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.checks[id]
	if len(rows) == 0 {
		return nil, repo.ErrNotFound
	}
	cp := rows[len(rows)-1]
	return &cp, nil
}

// ---- WebhookStore ----

func (m *Store) AddWebhook(ctx context.Context, w *domain.WebhookTarget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.webhooks {
		if existing.URL == w.URL {
			return repo.ErrDuplicate
		}
	}
	if w.ID == "" {
		w.ID = domain.WebhookID(uuid.NewString())
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	m.webhooks = append(m.webhooks, *w)
	return nil
}

func (m *Store) ListWebhooks(ctx context.Context) ([]domain.WebhookTarget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.WebhookTarget, len(m.webhooks))
	copy(out, m.webhooks)
	return out, nil
}
