package decision

import (
	"errors"
	"testing"

	"Thufir/internal/model"

	"github.com/shopspring/decimal"
)

func TestParse_Hold(t *testing.T) {
	raw := `{"action":"hold","rationale":"committed cash at 40%, no attractive premium"}`
	d, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Action != model.ActionHold {
		t.Errorf("action = %s, want hold", d.Action)
	}
	if d.Raw != raw {
		t.Error("raw payload must be preserved")
	}
}

func TestParse_SellPutComplete(t *testing.T) {
	raw := `{"action":"sell_put","ticker":"TSLA","strike":250,"expiry":"2025-03-21",
		"quantity":1,"limit_price":3.55,"rationale":"high IV, support at 250",
		"probability_success":0.72,"expected_monthly_return_pct":2.5}`
	d, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Ticker != "TSLA" || d.Quantity != 1 {
		t.Errorf("bad order fields: ticker=%s qty=%d", d.Ticker, d.Quantity)
	}
	if !d.Strike.Equal(dec("250")) || !d.LimitPrice.Equal(dec("3.55")) {
		t.Errorf("bad prices: strike=%s limit=%s", d.Strike, d.LimitPrice)
	}
	if d.ProbabilitySuccess == nil || *d.ProbabilitySuccess != 0.72 {
		t.Error("probability_success not carried through")
	}
	if d.ExpectedReturnPct != "2.5%" {
		t.Errorf("expected return = %q, want 2.5%%", d.ExpectedReturnPct)
	}
	if got := d.OptionSymbol(); got != "TSLA 250321P250" {
		t.Errorf("option symbol = %q, want TSLA 250321P250", got)
	}
}

func TestParse_SellCallSymbol(t *testing.T) {
	raw := `{"action":"sell_call","ticker":"NVDA","strike":130,"expiry":"2025-06-20",
		"quantity":2,"limit_price":1.20,"rationale":"covered calls on assigned shares"}`
	d, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := d.OptionSymbol(); got != "NVDA 250620C130" {
		t.Errorf("option symbol = %q, want NVDA 250620C130", got)
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "I think we should hold today."},
		{"unknown action", `{"action":"buy_the_dip","rationale":"yolo"}`},
		{"missing rationale", `{"action":"hold"}`},
		{"sell without ticker", `{"action":"sell_put","strike":250,"expiry":"2025-03-21","quantity":1,"limit_price":3.5,"rationale":"r"}`},
		{"sell without strike", `{"action":"sell_put","ticker":"TSLA","expiry":"2025-03-21","quantity":1,"limit_price":3.5,"rationale":"r"}`},
		{"negative quantity", `{"action":"sell_put","ticker":"TSLA","strike":250,"expiry":"2025-03-21","quantity":-1,"limit_price":3.5,"rationale":"r"}`},
		{"bad expiry", `{"action":"sell_put","ticker":"TSLA","strike":250,"expiry":"03/21/2025","quantity":1,"limit_price":3.5,"rationale":"r"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			if err == nil {
				t.Fatal("expected parse error")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if perr.Raw != tt.raw {
				t.Error("ParseError must carry the offending raw text")
			}
		})
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
