package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDurationJSONSeconds(t *testing.T) {
	b, err := json.Marshal(Duration(90 * time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "90" {
		t.Fatalf("marshal=%s want 90", b)
	}

	var d Duration
	if err := json.Unmarshal([]byte("300"), &d); err != nil {
		t.Fatal(err)
	}
	if d.Std() != 300*time.Second {
		t.Fatalf("unmarshal=%v want 300s", d.Std())
	}
}

func TestDisplayName(t *testing.T) {
	s := &Site{URL: "https://example.com"}
	if s.DisplayName() != "https://example.com" {
		t.Fatalf("got %q", s.DisplayName())
	}
	s.Name = "Example"
	if s.DisplayName() != "Example" {
		t.Fatalf("got %q", s.DisplayName())
	}
}

func TestRecovered(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusDown, StatusUp, true},
		{StatusUnknown, StatusUp, false},
		{StatusUp, StatusDown, false},
	}
	for _, c := range cases {
		tr := Transition{From: c.from, To: c.to}
		if tr.Recovered() != c.want {
			t.Fatalf("Recovered(%s->%s)=%v want %v", c.from, c.to, tr.Recovered(), c.want)
		}
	}
}
