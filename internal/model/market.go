package model

import "time"

// MarketStatus is the option scanner's answer to "is today a trading day".
// Produced fresh on every fetch; never persisted.
type MarketStatus struct {
	TradingDay bool
	Close      TimeOfDay
}

// TimeOfDay is a wall-clock time without a date, e.g. a market close time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// After reports whether d falls after the time-of-day of t.
func (d TimeOfDay) After(t time.Time) bool {
	h, m, _ := t.Clock()
	if h != d.Hour {
		return h < d.Hour
	}
	return m < d.Minute
}

func (d TimeOfDay) String() string {
	return time.Date(0, 1, 1, d.Hour, d.Minute, 0, 0, time.UTC).Format("15:04")
}
