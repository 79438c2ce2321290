package domain

import "time"

type SiteID string

// Status is a site's recorded availability state.
type Status string

const (
	StatusUp      Status = "up"
	StatusDown    Status = "down"
	StatusUnknown Status = "unknown" // before the first check completes
)

// MinInterval is the smallest check interval a site may be created with.
const MinInterval = 5 * time.Second

type Site struct {
	ID               SiteID     `json:"id"`
	URL              string     `json:"url"`
	Name             string     `json:"name,omitempty"`
	Interval         Duration   `json:"check_interval"`
	CurrentStatus    Status     `json:"current_status"`
	LastChecked      *time.Time `json:"last_checked"`
	LastStatusChange *time.Time `json:"last_status_change"`
	CreatedAt        time.Time  `json:"created_at"`
}

// DisplayName is the label used in alerts: the name when set, else the URL.
func (s *Site) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.URL
}

type CheckResult struct {
	SiteID    SiteID    `json:"site_id"`
	Status    Status    `json:"status"`
	LatencyMS *float64  `json:"response_time_ms"` // nil when no response arrived
	Error     string    `json:"error_message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

type WebhookID string

type WebhookTarget struct {
	ID        WebhookID `json:"id"`
	URL       string    `json:"url"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
