package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"sitewatch/internal/domain"
)

// timeoutMessage is the error text recorded when a probe runs out of time.
const timeoutMessage = "Request timeout"

type HTTPChecker struct {
	Client *http.Client
	Policy StatusPolicy
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPChecker{
		Client: &http.Client{Timeout: timeout},
		Policy: DefaultPolicy(),
	}
}

func (h *HTTPChecker) Check(ctx context.Context, target string) Outcome {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Outcome{Status: domain.StatusDown, Err: err.Error()}
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return Outcome{Status: domain.StatusDown, Err: classify(err)}
	}
	defer resp.Body.Close()

	if !h.policy()(resp.StatusCode) {
		return Outcome{
			Status:     domain.StatusDown,
			StatusCode: resp.StatusCode,
			LatencyMS:  &latency,
			Err:        fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return Outcome{
		Status:     domain.StatusUp,
		StatusCode: resp.StatusCode,
		LatencyMS:  &latency,
	}
}

func (h *HTTPChecker) policy() StatusPolicy {
	if h.Policy != nil {
		return h.Policy
	}
	return DefaultPolicy()
}

// classify maps transport-level errors to the recorded failure text.
// Deadline errors collapse to a fixed message; everything else (DNS,
// connection refused, TLS) keeps its own description.
func classify(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return timeoutMessage
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return timeoutMessage
	}
	return err.Error()
}
