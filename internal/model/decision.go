package model

import "time"

// Action is the kind of move the oracle decided on for one cycle.
type Action string

const (
	ActionHalt            Action = "halt"
	ActionHold            Action = "hold"
	ActionSellPut         Action = "sell_put"
	ActionSellCall        Action = "sell_call"
	ActionSellSharesLimit Action = "sell_shares_limit"
)

// KnownAction reports whether a is one of the defined action values.
func KnownAction(a Action) bool {
	switch a {
	case ActionHalt, ActionHold, ActionSellPut, ActionSellCall, ActionSellSharesLimit:
		return true
	}
	return false
}

// TradeDecision is the persisted record of one cycle's decision.
// Immutable after creation; owned by the store.
type TradeDecision struct {
	ID                 string
	Timestamp          time.Time
	Action             Action
	Ticker             string
	Rationale          string
	DetailsJSON        string
	ProbabilitySuccess *float64
	ExpectedReturn     string
}
