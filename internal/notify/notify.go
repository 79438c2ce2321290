package notify

import (
	"context"

	"sitewatch/internal/domain"
)

// Notifier delivers one rendered alert to one destination. A single call
// is a single attempt; retries live in the Dispatcher.
type Notifier interface {
	Send(ctx context.Context, target domain.WebhookTarget, message string) error
}
