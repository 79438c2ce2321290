package probe

import (
	"context"

	"sitewatch/internal/domain"
)

// Outcome is the classified result of a single probe.
//
// Fields:
// - StatusCode: HTTP status code when a response arrived; 0 for transport errors.
// - LatencyMS: round-trip time when a response arrived; nil otherwise.
// - Err: human-readable failure description, set only when Status is DOWN.
type Outcome struct {
	Status     domain.Status
	StatusCode int
	LatencyMS  *float64
	Err        string
}

// Checker performs a single availability probe against a target URL.
// Implementations never retry: one failed probe is a real data point.
type Checker interface {
	Check(ctx context.Context, target string) Outcome
}
