package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"sitewatch/internal/domain"
	"sitewatch/internal/metrics"
	"sitewatch/internal/repo"
)

// Delivery is the outcome of sending one alert to one webhook after all
// retry attempts. Err is nil on success.
type Delivery struct {
	Webhook  domain.WebhookTarget
	Attempts int
	Err      error
}

// Dispatcher fans a transition alert out to every configured webhook.
// Each webhook is delivered independently with bounded retries; one slow
// or broken endpoint never blocks the others. Exhausted retries are logged
// and reported, never raised as fatal, and never alter check or site state.
type Dispatcher struct {
	Logger   *zap.Logger
	Webhooks repo.WebhookStore
	Notifier Notifier
	Attempts int           // per webhook; default 3
	Backoff  time.Duration // delay before the 2nd attempt, doubling after
}

func NewDispatcher(logger *zap.Logger, webhooks repo.WebhookStore, notifier Notifier, attempts int, backoff time.Duration) *Dispatcher {
	if attempts < 1 {
		attempts = 3
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Dispatcher{
		Logger:   logger,
		Webhooks: webhooks,
		Notifier: notifier,
		Attempts: attempts,
		Backoff:  backoff,
	}
}

// Dispatch renders the alert once and delivers it to all webhooks,
// returning per-webhook outcomes. It blocks until every webhook has
// succeeded or exhausted its attempts, which keeps alerts for one site
// in transition order (the caller invokes it from the site's check cycle).
func (d *Dispatcher) Dispatch(ctx context.Context, tr domain.Transition) []Delivery {
	hooks, err := d.Webhooks.ListWebhooks(ctx)
	if err != nil {
		d.Logger.Error("webhook_list_error", zap.Error(err))
		return nil
	}
	if len(hooks) == 0 {
		return nil
	}

	message := RenderMessage(tr)

	out := make([]Delivery, len(hooks))
	var wg sync.WaitGroup
	for i, hook := range hooks {
		wg.Add(1)
		go func(i int, hook domain.WebhookTarget) {
			defer wg.Done()
			out[i] = d.deliver(ctx, hook, message)
		}(i, hook)
	}
	wg.Wait()

	for _, dv := range out {
		if dv.Err != nil {
			metrics.WebhookDeliveries.WithLabelValues("exhausted").Inc()
			d.Logger.Error("webhook_delivery_failed",
				zap.String("webhook", dv.Webhook.URL),
				zap.String("site", string(tr.Site.ID)),
				zap.Int("attempts", dv.Attempts),
				zap.Error(dv.Err),
			)
		} else {
			metrics.WebhookDeliveries.WithLabelValues("delivered").Inc()
			d.Logger.Info("webhook_delivered",
				zap.String("webhook", dv.Webhook.URL),
				zap.String("site", string(tr.Site.ID)),
				zap.String("to", string(tr.To)),
				zap.Int("attempts", dv.Attempts),
			)
		}
	}
	return out
}

func (d *Dispatcher) deliver(ctx context.Context, hook domain.WebhookTarget, message string) Delivery {
	dv := Delivery{Webhook: hook}
	backoff := d.Backoff

	for attempt := 1; attempt <= d.Attempts; attempt++ {
		dv.Attempts = attempt
		dv.Err = d.Notifier.Send(ctx, hook, message)
		if dv.Err == nil {
			return dv
		}
		d.Logger.Warn("webhook_attempt_failed",
			zap.String("webhook", hook.URL),
			zap.Int("attempt", attempt),
			zap.Error(dv.Err),
		)
		if attempt == d.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			dv.Err = ctx.Err()
			return dv
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return dv
}
