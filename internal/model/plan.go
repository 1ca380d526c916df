package model

import "github.com/shopspring/decimal"

// BuyRecommendation is one step of a sequential funding plan. Transient;
// only the orders it leads to are persisted.
type BuyRecommendation struct {
	Category      string
	Symbol        string
	Quantity      decimal.Decimal
	PriceUsed     decimal.Decimal
	EstimatedCost decimal.Decimal
	IsCrypto      bool
}

// BuyPlan is the full output of one allocation planning run.
type BuyPlan struct {
	Recommendations []BuyRecommendation
	TotalToDeploy   decimal.Decimal
	CashRemaining   decimal.Decimal
	Message         string
}

// HasRecommendations reports whether the plan contains at least one buy.
func (p *BuyPlan) HasRecommendations() bool {
	return len(p.Recommendations) > 0
}
