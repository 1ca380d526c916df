package scanner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetStatus_FailSafeAfterRetries(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewStatusClient(srv.URL, nil)
	var delays []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	status := c.GetStatus(context.Background())

	if status.TradingDay {
		t.Error("fail-safe status must not be a trading day")
	}
	if status.Close.Hour != 15 || status.Close.Minute != 0 {
		t.Errorf("fail-safe close = %s, want 15:00", status.Close)
	}
	if attempts != 5 {
		t.Errorf("expected 5 attempts, got %d", attempts)
	}
	want := []time.Duration{10 * time.Second, 20 * time.Second, 40 * time.Second, 80 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %d", len(want), len(delays))
	}
	for i, d := range delays {
		if d != want[i] {
			t.Errorf("delay %d = %v, want %v", i, d, want[i])
		}
	}
}

func TestGetStatus_RecoversMidRetry(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"isTradingDay":true,"todayCloseTime":"16:00"}`))
	}))
	defer srv.Close()

	c := NewStatusClient(srv.URL, nil)
	c.sleep = func(_ context.Context, _ time.Duration) error { return nil }

	status := c.GetStatus(context.Background())
	if !status.TradingDay {
		t.Error("expected trading day after recovery")
	}
	if status.Close.Hour != 16 || status.Close.Minute != 0 {
		t.Errorf("close = %s, want 16:00", status.Close)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestGetStatus_WaitsForUpdateWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/update-status":
			w.Write([]byte(`{"isUpdating":false}`))
		case "/api/market-status":
			w.Write([]byte(`{"isTradingDay":true,"todayCloseTime":"15:00"}`))
		}
	}))
	defer srv.Close()

	mon := NewUpdateMonitor(srv.URL)
	mon.PollInterval = time.Millisecond
	mon.Set()

	c := NewStatusClient(srv.URL, mon)
	status := c.GetStatus(context.Background())

	if !status.TradingDay {
		t.Error("expected trading day")
	}
	if mon.IsPotentiallyUpdating() {
		t.Error("update flag should be cleared after confirmation")
	}
}

func TestParseCloseTime(t *testing.T) {
	tests := []struct {
		in           string
		hour, minute int
	}{
		{"15:00", 15, 0},
		{"16:30", 16, 30},
		{"", 15, 0},
		{"garbage", 15, 0},
		{"25:99", 15, 0},
	}
	for _, tt := range tests {
		got := ParseCloseTime(tt.in)
		if got.Hour != tt.hour || got.Minute != tt.minute {
			t.Errorf("ParseCloseTime(%q) = %s, want %02d:%02d", tt.in, got, tt.hour, tt.minute)
		}
	}
}
