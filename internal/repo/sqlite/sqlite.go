package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"sitewatch/internal/domain"
	"sitewatch/internal/repo"
)

var _ repo.SiteStore = (*Store)(nil)
var _ repo.CheckStore = (*Store)(nil)
var _ repo.WebhookStore = (*Store)(nil)

// Store implements the repo ports on a local sqlite file. The schema is
// created on open, so a fresh deployment needs no separate migration step.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite is single-writer; serialize through one connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS sites (
	id                     TEXT PRIMARY KEY,
	url                    TEXT NOT NULL UNIQUE,
	name                   TEXT NOT NULL DEFAULT '',
	check_interval_seconds INTEGER NOT NULL,
	current_status         TEXT NOT NULL,
	last_checked           TEXT,
	last_status_change     TEXT,
	created_at             TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS status_checks (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id          TEXT NOT NULL,
	status           TEXT NOT NULL,
	response_time_ms REAL,
	error_message    TEXT,
	checked_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_status_checks_site_checked
	ON status_checks (site_id, checked_at DESC);

CREATE TABLE IF NOT EXISTS webhook_configs (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
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
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sites (id, url, name, check_interval_seconds, current_status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(t.ID), t.URL, t.Name, int64(t.Interval.Std()/time.Second),
		string(t.CurrentStatus), fmtTime(t.CreatedAt))
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
	row := s.db.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id = ?`, string(id))
	return scanSite(row)
}

func (s *Store) GetByURL(ctx context.Context, url string) (*domain.Site, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE url = ?`, url)
	return scanSite(row)
}

func (s *Store) List(ctx context.Context) ([]domain.Site, error) {
	rows, err := s.db.QueryContext(ctx,
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
	var res sql.Result
	var err error
	if changedAt != nil {
		res, err = s.db.ExecContext(ctx,
			`UPDATE sites SET current_status=?, last_checked=?, last_status_change=? WHERE id=?`,
			string(status), fmtTime(checkedAt), fmtTime(*changedAt), string(id))
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE sites SET last_checked=? WHERE id=?`,
			fmtTime(checkedAt), string(id))
	}
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id domain.SiteID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sites WHERE id=?`, string(id))
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ---- CheckStore ----

func (s *Store) Append(ctx context.Context, r *domain.CheckResult) error {
	var errText *string
	if r.Error != "" {
		errText = &r.Error
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO status_checks (site_id, status, response_time_ms, error_message, checked_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(r.SiteID), string(r.Status), r.LatencyMS, errText, fmtTime(r.CheckedAt))
	if err != nil {
		return fmt.Errorf("insert check: %w", err)
	}
	return nil
}

func (s *Store) ListBySite(ctx context.Context, id domain.SiteID, offset, limit int) ([]domain.CheckResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT site_id, status, response_time_ms, error_message, checked_at
		   FROM status_checks
		  WHERE site_id = ?
		  ORDER BY checked_at DESC, id DESC
		  LIMIT ? OFFSET ?`,
		string(id), limit, offset)
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
	row := s.db.QueryRowContext(ctx,
		`SELECT site_id, status, response_time_ms, error_message, checked_at
		   FROM status_checks
		  WHERE site_id = ?
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
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO webhook_configs (id, url, name, created_at) VALUES (?, ?, ?, ?)`,
		string(w.ID), w.URL, w.Name, fmtTime(w.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrDuplicate
		}
		return fmt.Errorf("insert webhook: %w", err)
	}
	return nil
}

func (s *Store) ListWebhooks(ctx context.Context) ([]domain.WebhookTarget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, name, created_at FROM webhook_configs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	var out []domain.WebhookTarget
	for rows.Next() {
		var w domain.WebhookTarget
		var id, createdAt string
		if err := rows.Scan(&id, &w.URL, &w.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		w.ID = domain.WebhookID(id)
		w.CreatedAt = parseTime(createdAt)
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
		t                    domain.Site
		id, st, createdAt    string
		lastChecked, lastChg *string
		intervalSecs         int64
	)
	err := row.Scan(&id, &t.URL, &t.Name, &intervalSecs, &st, &lastChecked, &lastChg, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("scan site: %w", err)
	}
	t.ID = domain.SiteID(id)
	t.Interval = domain.Duration(time.Duration(intervalSecs) * time.Second)
	t.CurrentStatus = domain.Status(st)
	t.CreatedAt = parseTime(createdAt)
	if lastChecked != nil {
		v := parseTime(*lastChecked)
		t.LastChecked = &v
	}
	if lastChg != nil {
		v := parseTime(*lastChg)
		t.LastStatusChange = &v
	}
	return &t, nil
}

func scanCheck(row rowScanner) (*domain.CheckResult, error) {
	var (
		r            domain.CheckResult
		id, st, when string
		errText      *string
	)
	err := row.Scan(&id, &st, &r.LatencyMS, &errText, &when)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("scan check: %w", err)
	}
	r.SiteID = domain.SiteID(id)
	r.Status = domain.Status(st)
	r.CheckedAt = parseTime(when)
	if errText != nil {
		r.Error = *errText
	}
	return &r, nil
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
