package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"sitewatch/internal/domain"
)

type memWebhooks struct {
	hooks []domain.WebhookTarget
}

func (m *memWebhooks) AddWebhook(ctx context.Context, w *domain.WebhookTarget) error {
	m.hooks = append(m.hooks, *w)
	return nil
}

func (m *memWebhooks) ListWebhooks(ctx context.Context) ([]domain.WebhookTarget, error) {
	return m.hooks, nil
}

// flakyNotifier fails a set number of times per webhook before succeeding.
type flakyNotifier struct {
	mu       sync.Mutex
	failures map[string]int // webhook URL -> remaining failures
	sent     map[string]int // webhook URL -> successful sends
	messages []string
}

func (f *flakyNotifier) Send(ctx context.Context, target domain.WebhookTarget, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = map[string]int{}
	}
	if f.failures[target.URL] > 0 {
		f.failures[target.URL]--
		return errors.New("boom")
	}
	f.sent[target.URL]++
	f.messages = append(f.messages, message)
	return nil
}

func downTransition() domain.Transition {
	return domain.Transition{
		Site: domain.Site{ID: "S1", URL: "https://example.com", Name: "Example"},
		From: domain.StatusUp,
		To:   domain.StatusDown,
		Result: domain.CheckResult{
			SiteID:    "S1",
			Status:    domain.StatusDown,
			Error:     "HTTP 500",
			CheckedAt: time.Now().UTC(),
		},
	}
}

func TestDispatcher_ThirdAttemptSucceeds(t *testing.T) {
	hooks := &memWebhooks{hooks: []domain.WebhookTarget{
		{ID: "W1", URL: "https://hooks.example/flaky"},
		{ID: "W2", URL: "https://hooks.example/healthy"},
	}}
	nt := &flakyNotifier{failures: map[string]int{"https://hooks.example/flaky": 2}}
	d := NewDispatcher(zap.NewNop(), hooks, nt, 3, time.Millisecond)

	out := d.Dispatch(context.Background(), downTransition())
	if len(out) != 2 {
		t.Fatalf("want 2 deliveries, got %d", len(out))
	}
	for _, dv := range out {
		if dv.Err != nil {
			t.Fatalf("delivery to %s failed: %v", dv.Webhook.URL, dv.Err)
		}
	}

	// flaky endpoint: exactly one successful delivery, on the 3rd attempt
	if nt.sent["https://hooks.example/flaky"] != 1 {
		t.Fatalf("want 1 delivery to flaky hook, got %d", nt.sent["https://hooks.example/flaky"])
	}
	// healthy endpoint got exactly one copy, no duplicates from the retries
	if nt.sent["https://hooks.example/healthy"] != 1 {
		t.Fatalf("want 1 delivery to healthy hook, got %d", nt.sent["https://hooks.example/healthy"])
	}
	for _, dv := range out {
		if dv.Webhook.URL == "https://hooks.example/flaky" && dv.Attempts != 3 {
			t.Fatalf("want 3 attempts on flaky hook, got %d", dv.Attempts)
		}
		if dv.Webhook.URL == "https://hooks.example/healthy" && dv.Attempts != 1 {
			t.Fatalf("want 1 attempt on healthy hook, got %d", dv.Attempts)
		}
	}
}

func TestDispatcher_ExhaustedRetriesReported(t *testing.T) {
	hooks := &memWebhooks{hooks: []domain.WebhookTarget{
		{ID: "W1", URL: "https://hooks.example/dead"},
		{ID: "W2", URL: "https://hooks.example/healthy"},
	}}
	nt := &flakyNotifier{failures: map[string]int{"https://hooks.example/dead": 99}}
	d := NewDispatcher(zap.NewNop(), hooks, nt, 3, time.Millisecond)

	out := d.Dispatch(context.Background(), downTransition())

	var dead, healthy *Delivery
	for i := range out {
		switch out[i].Webhook.URL {
		case "https://hooks.example/dead":
			dead = &out[i]
		case "https://hooks.example/healthy":
			healthy = &out[i]
		}
	}
	if dead == nil || dead.Err == nil || dead.Attempts != 3 {
		t.Fatalf("dead hook should exhaust 3 attempts with an error: %+v", dead)
	}
	// the dead webhook must not block or fail the healthy one
	if healthy == nil || healthy.Err != nil {
		t.Fatalf("healthy hook should still receive the alert: %+v", healthy)
	}
}

func TestDispatcher_NoWebhooksIsNoop(t *testing.T) {
	d := NewDispatcher(zap.NewNop(), &memWebhooks{}, &flakyNotifier{}, 3, time.Millisecond)
	if out := d.Dispatch(context.Background(), downTransition()); out != nil {
		t.Fatalf("want nil deliveries with no webhooks, got %+v", out)
	}
}

func TestWebhook_PostsJSONContent(t *testing.T) {
	var got webhookPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("want POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("want json content type, got %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(200)
	}))
	defer ts.Close()

	w := NewWebhook(2 * time.Second)
	err := w.Send(context.Background(), domain.WebhookTarget{URL: ts.URL}, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.Content != "hello" {
		t.Fatalf("payload content mismatch: %+v", got)
	}
}

func TestWebhook_Non2xxIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	w := NewWebhook(2 * time.Second)
	err := w.Send(context.Background(), domain.WebhookTarget{URL: ts.URL}, "x")
	if err == nil {
		t.Fatalf("expected error on non-2xx")
	}
}
