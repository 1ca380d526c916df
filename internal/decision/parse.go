package decision

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"Thufir/internal/model"

	"github.com/shopspring/decimal"
)

// ParseError reports an oracle response that could not be turned into a
// decision. It carries the raw payload so it can be surfaced in alerts.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse oracle decision: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decision is the fully validated oracle output for one cycle.
type Decision struct {
	Action             model.Action
	Ticker             string
	Strike             decimal.Decimal
	Expiry             string // YYYY-MM-DD
	Quantity           int64
	LimitPrice         decimal.Decimal
	Rationale          string
	ProbabilitySuccess *float64
	ExpectedReturnPct  string
	Raw                string
}

type payload struct {
	Action             string           `json:"action"`
	Ticker             *string          `json:"ticker"`
	Strike             *decimal.Decimal `json:"strike"`
	Expiry             *string          `json:"expiry"`
	Quantity           *int64           `json:"quantity"`
	PremiumTarget      *decimal.Decimal `json:"premium_target"`
	LimitPrice         *decimal.Decimal `json:"limit_price"`
	Rationale          string           `json:"rationale"`
	ProbabilitySuccess *float64         `json:"probability_success"`
	ExpectedReturnPct  *float64         `json:"expected_monthly_return_pct"`
}

// Parse validates a raw oracle response as a single well-formed decision
// object. Nothing is silently defaulted: an unknown action, missing
// rationale, or missing order fields on a sell action all fail with a
// ParseError carrying the offending text.
func Parse(raw string) (*Decision, error) {
	var p payload
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&p); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	action := model.Action(p.Action)
	if !model.KnownAction(action) {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("unknown action %q", p.Action)}
	}
	if strings.TrimSpace(p.Rationale) == "" {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("missing rationale")}
	}

	d := &Decision{
		Action:             action,
		Rationale:          p.Rationale,
		ProbabilitySuccess: p.ProbabilitySuccess,
		Raw:                raw,
	}
	if p.Ticker != nil {
		d.Ticker = *p.Ticker
	}
	if p.ExpectedReturnPct != nil {
		d.ExpectedReturnPct = fmt.Sprintf("%g%%", *p.ExpectedReturnPct)
	}

	if action == model.ActionSellPut || action == model.ActionSellCall {
		if err := fillOrderFields(d, &p); err != nil {
			return nil, &ParseError{Raw: raw, Err: err}
		}
	}
	return d, nil
}

func fillOrderFields(d *Decision, p *payload) error {
	if d.Ticker == "" {
		return fmt.Errorf("sell action without ticker")
	}
	if p.Strike == nil || !p.Strike.IsPositive() {
		return fmt.Errorf("sell action without positive strike")
	}
	if p.Quantity == nil || *p.Quantity <= 0 {
		return fmt.Errorf("sell action without positive quantity")
	}
	if p.Expiry == nil {
		return fmt.Errorf("sell action without expiry")
	}
	if _, err := time.Parse("2006-01-02", *p.Expiry); err != nil {
		return fmt.Errorf("bad expiry %q: %w", *p.Expiry, err)
	}
	if p.LimitPrice == nil || !p.LimitPrice.IsPositive() {
		return fmt.Errorf("sell action without positive limit price")
	}
	d.Strike = *p.Strike
	d.Expiry = *p.Expiry
	d.Quantity = *p.Quantity
	d.LimitPrice = *p.LimitPrice
	return nil
}

// Record converts a parsed decision into its persisted form.
func (d *Decision) Record(id string, ts time.Time) *model.TradeDecision {
	return &model.TradeDecision{
		ID:                 id,
		Timestamp:          ts,
		Action:             d.Action,
		Ticker:             d.Ticker,
		Rationale:          d.Rationale,
		DetailsJSON:        d.Raw,
		ProbabilitySuccess: d.ProbabilitySuccess,
		ExpectedReturn:     d.ExpectedReturnPct,
	}
}

// OptionSymbol builds the brokerage option symbol for a sell decision,
// e.g. "TSLA 250321P250".
func (d *Decision) OptionSymbol() string {
	yymmdd := strings.ReplaceAll(d.Expiry, "-", "")[2:]
	optType := "P"
	if d.Action == model.ActionSellCall {
		optType = "C"
	}
	return fmt.Sprintf("%s %s%s%s", d.Ticker, yymmdd, optType, d.Strike.Round(0).String())
}
