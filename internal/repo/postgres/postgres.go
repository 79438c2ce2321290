package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sitewatch/internal/domain"
	"sitewatch/internal/repo"
)

var _ repo.SiteStore = (*Store)(nil)
var _ repo.CheckStore = (*Store)(nil)
var _ repo.WebhookStore = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- SiteStore ----

func (s *Store) Add(ctx context.Context, t *domain.Site) error {
	if t.ID == "" {
		t.ID = domain.SiteID(uuid.NewString())
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.CurrentStatus == "" {
		t.CurrentStatus = domain.StatusUnknown
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sites (id, url, name, check_interval_seconds, current_status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		string(t.ID), t.URL, t.Name, int64(t.Interval.Std()/time.Second), string(t.CurrentStatus), t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrDuplicate
		}
		return fmt.Errorf("insert site: %w", err)
	}
	return nil
}

const siteColumns = `id, url, name, check_interval_seconds, current_status, last_checked, last_status_change, created_at`

func (s *Store) Get(ctx context.Context, id domain.SiteID) (*domain.Site, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id = $1`, string(id))
	return scanSite(row)
}

func (s *Store) GetByURL(ctx context.Context, url string) (*domain.Site, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE url = $1`, url)
	return scanSite(row)
}

func (s *Store) List(ctx context.Context) ([]domain.Site, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+siteColumns+` FROM sites ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var out []domain.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *site)
	}
	return out, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id domain.SiteID, status domain.Status, checkedAt time.Time, changedAt *time.Time) error {
	var tag interface{ RowsAffected() int64 }
	var err error
	if changedAt != nil {
		tag, err = s.pool.Exec(ctx,
			`UPDATE sites SET current_status=$2, last_checked=$3, last_status_change=$4 WHERE id=$1`,
			string(id), string(status), checkedAt, *changedAt)
	} else {
		tag, err = s.pool.Exec(ctx,
			`UPDATE sites SET last_checked=$2 WHERE id=$1`,
			string(id), checkedAt)
	}
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id domain.SiteID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sites WHERE id=$1`, string(id))
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ---- CheckStore ----

func (s *Store) Append(ctx context.Context, r *domain.CheckResult) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO status_checks (site_id, status, response_time_ms, error_message, checked_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		string(r.SiteID), string(r.Status), r.LatencyMS, nullIfEmpty(r.Error), r.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("insert check: %w", err)
	}
	return nil
}

func (s *Store) ListBySite(ctx context.Context, id domain.SiteID, offset, limit int) ([]domain.CheckResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT site_id, status, response_time_ms, error_message, checked_at
		   FROM status_checks
		  WHERE site_id = $1
		  ORDER BY checked_at DESC, id DESC
		  OFFSET $2 LIMIT $3`,
		string(id), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CheckResult, 0, limit)
	for rows.Next() {
		cr, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cr)
	}
	return out, rows.Err()
}

func (s *Store) LastBySite(ctx context.Context, id domain.SiteID) (*domain.CheckResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT site_id, status, response_time_ms, error_message, checked_at
		   FROM status_checks
		  WHERE site_id = $1
		  ORDER BY checked_at DESC, id DESC
		  LIMIT 1`, string(id))
	return scanCheck(row)
}

// ---- WebhookStore ----

func (s *Store) AddWebhook(ctx context.Context, w *domain.WebhookTarget) error {
	if w.ID == "" {
		w.ID = domain.WebhookID(uuid.NewString())
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO webhook_configs (id, url, name, created_at) VALUES ($1, $2, $3, $4)`,
		string(w.ID), w.URL, w.Name, w.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrDuplicate
		}
		return fmt.Errorf("insert webhook: %w", err)
	}
	return nil
}

func (s *Store) ListWebhooks(ctx context.Context) ([]domain.WebhookTarget, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, url, name, created_at FROM webhook_configs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	var out []domain.WebhookTarget
	for rows.Next() {
		var w domain.WebhookTarget
		var id, url, name string
		if err := rows.Scan(&id, &url, &name, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		w.ID = domain.WebhookID(id)
		w.URL = url
		w.Name = name
		out = append(out, w)
	}
	return out, rows.Err()
}

// ---- scan helpers ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (*domain.Site, error) {
	var (
		t            domain.Site
		id, st       string
		name         string
		intervalSecs int64
	)
	err := row.Scan(&id, &t.URL, &name, &intervalSecs, &st, &t.LastChecked, &t.LastStatusChange, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("scan site: %w", err)
	}
	t.ID = domain.SiteID(id)
	t.Name = name
	t.Interval = domain.Duration(time.Duration(intervalSecs) * time.Second)
	t.CurrentStatus = domain.Status(st)
	return &t, nil
}

func scanCheck(row rowScanner) (*domain.CheckResult, error) {
	var (
		r       domain.CheckResult
		id, st  string
		errText *string
	)
	err := row.Scan(&id, &st, &r.LatencyMS, &errText, &r.CheckedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("scan check: %w", err)
	}
	r.SiteID = domain.SiteID(id)
	r.Status = domain.Status(st)
	if errText != nil {
		r.Error = *errText
	}
	return &r, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isUniqueViolation matches postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
