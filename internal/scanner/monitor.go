package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"
)

// UpdateMonitor tracks whether the option scanner may be mid-refresh. The
// flag is set once a day by the scheduler and cleared here once a poll
// confirms the scanner is done. One instance per process.
type UpdateMonitor struct {
	potentiallyUpdating atomic.Bool

	BaseURL string
	Client  *http.Client

	// Poll pacing; overridable for tests.
	PollInterval time.Duration
	MaxAttempts  int
}

// NewUpdateMonitor creates a monitor polling the given scanner base URL.
func NewUpdateMonitor(baseURL string) *UpdateMonitor {
	return &UpdateMonitor{
		BaseURL:      baseURL,
		Client:       &http.Client{Timeout: 30 * time.Second},
		PollInterval: 60 * time.Second,
		MaxAttempts:  60,
	}
}

// IsPotentiallyUpdating is a non-blocking read of the shared flag.
func (m *UpdateMonitor) IsPotentiallyUpdating() bool {
	return m.potentiallyUpdating.Load()
}

// Set flags the start of the scanner's daily update window.
func (m *UpdateMonitor) Set() {
	m.potentiallyUpdating.Store(true)
	log.Println("[INFO] option scanner update window flagged, calls will check status first")
}

// Clear marks the update window as over.
func (m *UpdateMonitor) Clear() {
	m.potentiallyUpdating.Store(false)
	log.Println("[INFO] option scanner update flag cleared")
}

// WaitForCompletion returns immediately if the flag is unset; otherwise it
// polls the scanner's update-status endpoint until it reports not-updating
// or the attempt bound is hit. Hitting the bound returns anyway rather than
// stalling forever; data fetched right after that may be stale.
func (m *UpdateMonitor) WaitForCompletion(ctx context.Context) {
	if !m.IsPotentiallyUpdating() {
		return
	}

	for attempt := 1; attempt <= m.MaxAttempts; attempt++ {
		updating, err := m.checkUpdateStatus(ctx)
		if err != nil {
			log.Printf("[WARN] check scanner update status: %v", err)
		} else if !updating {
			log.Printf("[INFO] scanner update completed after %d attempts, proceeding", attempt)
			m.Clear()
			return
		}

		if attempt == m.MaxAttempts {
			break
		}
		log.Printf("[INFO] scanner still updating (attempt %d/%d), waiting %v",
			attempt, m.MaxAttempts, m.PollInterval)

		select {
		case <-ctx.Done():
			log.Println("[WARN] interrupted while waiting for scanner update")
			return
		case <-time.After(m.PollInterval):
		}
	}

	log.Printf("[WARN] max poll attempts (%d) reached, scanner still updating, proceeding with caution", m.MaxAttempts)
}

func (m *UpdateMonitor) checkUpdateStatus(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", m.BaseURL+"/api/update-status", nil)
	if err != nil {
		return false, err
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("fetch update status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("fetch update status: status %d", resp.StatusCode)
	}
	var result struct {
		IsUpdating bool `json:"isUpdating"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode update status: %w", err)
	}
	return result.IsUpdating, nil
}
