package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sitewatch/internal/domain"
)

func TestHTTPChecker_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}))
	defer s.Close()

	chk := NewHTTPChecker(2 * time.Second)
	out := chk.Check(context.Background(), s.URL)
	if out.Status != domain.StatusUp {
		t.Fatalf("want up, got %+v", out)
	}
	if out.StatusCode != 200 {
		t.Fatalf("want status 200, got %d", out.StatusCode)
	}
	if out.LatencyMS == nil || *out.LatencyMS < 0 {
		t.Fatalf("latency should be set and >= 0, got %v", out.LatencyMS)
	}
	if out.Err != "" {
		t.Fatalf("want empty error on up, got %q", out.Err)
	}
}

func TestHTTPChecker_Status500(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 500)
	}))
	defer s.Close()

	chk := NewHTTPChecker(2 * time.Second)
	out := chk.Check(context.Background(), s.URL)
	if out.Status != domain.StatusDown {
		t.Fatalf("want down, got %+v", out)
	}
	if out.Err != "HTTP 500" {
		t.Fatalf("want error %q, got %q", "HTTP 500", out.Err)
	}
	if out.LatencyMS == nil {
		t.Fatalf("latency should still be measured when a response arrived")
	}
}

func TestHTTPChecker_RedirectCountsAsUp(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(302)
	}))
	defer s.Close()

	chk := NewHTTPChecker(2 * time.Second)
	chk.Client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	out := chk.Check(context.Background(), s.URL)
	if out.Status != domain.StatusUp {
		t.Fatalf("3xx should be up under the default policy, got %+v", out)
	}
	if out.StatusCode != 302 {
		t.Fatalf("want status 302, got %d", out.StatusCode)
	}
}

func TestHTTPChecker_TimeoutMessage(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer s.Close()

	chk := NewHTTPChecker(50 * time.Millisecond)
	out := chk.Check(context.Background(), s.URL)
	if out.Status != domain.StatusDown {
		t.Fatalf("want down on timeout, got %+v", out)
	}
	if out.Err != "Request timeout" {
		t.Fatalf("want %q, got %q", "Request timeout", out.Err)
	}
	if out.StatusCode != 0 {
		t.Fatalf("want status 0 on transport error, got %d", out.StatusCode)
	}
	if out.LatencyMS != nil {
		t.Fatalf("latency should be nil when no response arrived")
	}
}

func TestHTTPChecker_ConnectionRefused(t *testing.T) {
	// Grab a port nobody listens on.
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := s.URL
	s.Close()

	chk := NewHTTPChecker(time.Second)
	out := chk.Check(context.Background(), url)
	if out.Status != domain.StatusDown {
		t.Fatalf("want down, got %+v", out)
	}
	if out.Err == "" {
		t.Fatalf("want a failure description")
	}
}

func TestHTTPChecker_CustomPolicy(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(302)
	}))
	defer s.Close()

	chk := NewHTTPChecker(2 * time.Second)
	chk.Policy = AcceptRange(200, 299)
	chk.Client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	out := chk.Check(context.Background(), s.URL)
	if out.Status != domain.StatusDown || out.Err != "HTTP 302" {
		t.Fatalf("strict policy should reject 302, got %+v", out)
	}
}
