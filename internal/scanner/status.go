package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"Thufir/internal/model"
)

const (
	maxStatusRetries  = 5
	initialRetryDelay = 10 * time.Second
	backoffMultiplier = 2
)

// failSafeClose is assumed whenever the close time is unknown.
var failSafeClose = model.TimeOfDay{Hour: 15, Minute: 0}

// StatusClient fetches the market status from the option scanner with
// retry and a fail-safe default. Ambiguity about market state is never
// interpreted as "proceed with trading".
type StatusClient struct {
	BaseURL string
	Client  *http.Client
	Monitor *UpdateMonitor

	sleep func(ctx context.Context, d time.Duration) error
}

// NewStatusClient creates a status client that consults the update monitor
// before every fetch.
func NewStatusClient(baseURL string, monitor *UpdateMonitor) *StatusClient {
	return &StatusClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Monitor: monitor,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

type marketStatusResponse struct {
	IsTradingDay   bool   `json:"isTradingDay"`
	TodayCloseTime string `json:"todayCloseTime"`
}

// GetStatus fetches the market status, retrying up to 5 times with
// exponential backoff. After exhausting all attempts it returns the
// fail-safe status: not a trading day, close 15:00.
func (c *StatusClient) GetStatus(ctx context.Context) model.MarketStatus {
	if c.Monitor != nil && c.Monitor.IsPotentiallyUpdating() {
		c.Monitor.WaitForCompletion(ctx)
	}

	delay := initialRetryDelay
	for attempt := 1; attempt <= maxStatusRetries; attempt++ {
		status, err := c.fetchOnce(ctx)
		if err == nil {
			log.Printf("[INFO] fetched market status on attempt %d", attempt)
			return status
		}
		log.Printf("[WARN] market status attempt %d/%d failed: %v", attempt, maxStatusRetries, err)

		if attempt < maxStatusRetries {
			if err := c.sleep(ctx, delay); err != nil {
				log.Printf("[WARN] market status retry interrupted: %v", err)
				break
			}
			delay *= backoffMultiplier
		}
	}

	log.Printf("[ERROR] all %d market status attempts failed, assuming NOT a trading day for safety", maxStatusRetries)
	return model.MarketStatus{TradingDay: false, Close: failSafeClose}
}

func (c *StatusClient) fetchOnce(ctx context.Context) (model.MarketStatus, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/api/market-status", nil)
	if err != nil {
		return model.MarketStatus{}, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return model.MarketStatus{}, fmt.Errorf("fetch market status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return model.MarketStatus{}, fmt.Errorf("option scanner unavailable (503)")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return model.MarketStatus{}, fmt.Errorf("fetch market status: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result marketStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.MarketStatus{}, fmt.Errorf("decode market status: %w", err)
	}
	return model.MarketStatus{
		TradingDay: result.IsTradingDay,
		Close:      ParseCloseTime(result.TodayCloseTime),
	}, nil
}

// ParseCloseTime parses an "HH:MM" close time, falling back to 15:00 on
// blank or unparsable input rather than failing.
func ParseCloseTime(s string) model.TimeOfDay {
	if s == "" {
		log.Println("[WARN] blank close time, defaulting to 15:00")
		return failSafeClose
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		log.Printf("[WARN] unparsable close time %q, defaulting to 15:00", s)
		return failSafeClose
	}
	return model.TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}
