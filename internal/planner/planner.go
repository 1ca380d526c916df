package planner

import (
	"fmt"
	"log"

	"Thufir/internal/model"

	"github.com/shopspring/decimal"
)

// CategoryKind selects the buy-sizing rule for a category.
type CategoryKind string

const (
	KindEquity   CategoryKind = "equity"
	KindCrypto   CategoryKind = "crypto"
	KindCombined CategoryKind = "combined" // two interchangeable symbols
	KindBasket   CategoryKind = "basket"   // minor symbols rolled up together
)

// Category is one entry of the fixed priority list. Target value is the
// profit goal times Multiplier.
type Category struct {
	Name       string
	Kind       CategoryKind
	Symbols    []string
	Multiplier int64
}

// DefaultCategories is the funding priority order used when the config
// does not override it.
var DefaultCategories = []Category{
	{Name: "NVDA", Kind: KindEquity, Symbols: []string{"NVDA"}, Multiplier: 1},
	{Name: "BTC", Kind: KindCrypto, Symbols: []string{"BTC"}, Multiplier: 1},
	{Name: "RKLB", Kind: KindEquity, Symbols: []string{"RKLB"}, Multiplier: 1},
	{Name: "TSLA", Kind: KindEquity, Symbols: []string{"TSLA"}, Multiplier: 2},
	{Name: "ETH", Kind: KindCrypto, Symbols: []string{"ETH"}, Multiplier: 1},
	{Name: "DOGE", Kind: KindCrypto, Symbols: []string{"DOGE"}, Multiplier: 1},
	{Name: "GOOGL/GOOG", Kind: KindCombined, Symbols: []string{"GOOGL", "GOOG"}, Multiplier: 1},
	{Name: "NIKL", Kind: KindEquity, Symbols: []string{"NIKL"}, Multiplier: 1},
	{Name: "OTHER_BASKET", Kind: KindBasket, Symbols: []string{"SOFI", "PLTR", "HOOD", "LUNR", "ASTS"}, Multiplier: 1},
}

// minCash is the floor below which no further buys are planned.
var minCash = decimal.NewFromInt(10)

// cryptoBlockThreshold: above it, crypto buy blocks shrink by 10 for every
// further 10x in price.
var cryptoBlockThreshold = decimal.NewFromInt(318)

var ten = decimal.NewFromInt(10)

// Plan computes the sequential funding plan: walk the categories in priority
// order and fund the first under-target one, repeating until a category
// cannot be fully funded or cash runs out. Later categories are never funded
// before an earlier one is satisfied.
func Plan(goal *model.ProfitGoal, cash decimal.Decimal, prices map[string]decimal.Decimal,
	holdings []model.Position, categories []Category) *model.BuyPlan {

	if goal == nil || !goal.Amount.IsPositive() {
		return &model.BuyPlan{
			CashRemaining: cash,
			Message:       "Profit goal not set. Define P before planning buys.",
		}
	}
	if cash.LessThan(minCash) {
		return &model.BuyPlan{
			CashRemaining: cash,
			Message:       fmt.Sprintf("Available cash $%s is below the $10 floor. Nothing to deploy.", cash.StringFixed(2)),
		}
	}
	if len(categories) == 0 {
		categories = DefaultCategories
	}

	values := map[string]decimal.Decimal{}
	for _, h := range holdings {
		values[h.Symbol] = values[h.Symbol].Add(h.MarketValue)
	}

	cashLeft := cash
	total := decimal.Zero
	var recs []model.BuyRecommendation

	for _, cat := range categories {
		target := goal.Amount.Mul(decimal.NewFromInt(cat.Multiplier))
		current := categoryValue(cat, values)
		if current.GreaterThanOrEqual(target) {
			continue
		}
		gap := target.Sub(current)

		rec, ok := buyFor(cat, gap, cashLeft, prices, values)
		if !ok {
			// Strict sequencing: an unfundable category stops the whole pass.
			log.Printf("[INFO] allocation stopped at %s (no affordable buy)", cat.Name)
			break
		}

		recs = append(recs, rec)
		cashLeft = cashLeft.Sub(rec.EstimatedCost)
		total = total.Add(rec.EstimatedCost)

		if current.Add(rec.EstimatedCost).LessThan(target) {
			// Partial fill means cash is exhausted for sequencing purposes.
			log.Printf("[INFO] allocation stopped at %s (partial fill)", cat.Name)
			break
		}
		if cashLeft.LessThan(minCash) {
			break
		}
	}

	plan := &model.BuyPlan{
		Recommendations: recs,
		TotalToDeploy:   total,
		CashRemaining:   cashLeft,
	}
	if len(recs) == 0 {
		plan.Message = "All categories at target or first gap unaffordable. Nothing to deploy."
	} else {
		plan.Message = fmt.Sprintf("Deploy $%s across %d buy(s); $%s cash remaining.",
			total.StringFixed(2), len(recs), cashLeft.StringFixed(2))
	}
	return plan
}

func categoryValue(cat Category, values map[string]decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, sym := range cat.Symbols {
		sum = sum.Add(values[sym])
	}
	return sum
}

func buyFor(cat Category, gap, cashLeft decimal.Decimal,
	prices map[string]decimal.Decimal, values map[string]decimal.Decimal) (model.BuyRecommendation, bool) {

	var symbol string
	switch cat.Kind {
	case KindCombined:
		symbol = pickCombined(cat, prices, values)
	case KindBasket:
		symbol = pickCheapest(cat.Symbols, prices)
	default:
		symbol = cat.Symbols[0]
	}
	if symbol == "" {
		return model.BuyRecommendation{}, false
	}
	price, ok := prices[symbol]
	if !ok || !price.IsPositive() {
		return model.BuyRecommendation{}, false
	}

	var quantity, cost decimal.Decimal
	if cat.Kind == KindCrypto {
		// Fractional buys in blocks; unit is the cost of one block.
		block := blockSize(price)
		unit := price.Mul(block)
		blocks := gap.Div(unit).Ceil()
		if blocks.Mul(unit).GreaterThan(cashLeft) {
			blocks = cashLeft.Div(unit).Floor()
		}
		if blocks.IsZero() {
			return model.BuyRecommendation{}, false
		}
		quantity = blocks.Mul(block)
		cost = quantity.Mul(price)
	} else {
		// Whole shares; round up to the target, cap to cash.
		quantity = gap.Div(price).Ceil()
		cost = quantity.Mul(price)
		if cost.GreaterThan(cashLeft) {
			quantity = cashLeft.Div(price).Floor()
			cost = quantity.Mul(price)
		}
		if quantity.IsZero() {
			return model.BuyRecommendation{}, false
		}
	}

	return model.BuyRecommendation{
		Category:      cat.Name,
		Symbol:        symbol,
		Quantity:      quantity,
		PriceUsed:     price,
		EstimatedCost: cost,
		IsCrypto:      cat.Kind == KindCrypto,
	}, true
}

// pickCombined chooses the cheaper of the pair unless its holdings already
// outweigh the other side by more than one share of the costlier symbol,
// which keeps the pair roughly balanced over time.
func pickCombined(cat Category, prices, values map[string]decimal.Decimal) string {
	if len(cat.Symbols) != 2 {
		return ""
	}
	a, b := cat.Symbols[0], cat.Symbols[1]
	pa, okA := prices[a]
	pb, okB := prices[b]
	switch {
	case okA && !okB:
		return a
	case okB && !okA:
		return b
	case !okA && !okB:
		return ""
	}

	cheap, costly := a, b
	if pb.LessThan(pa) {
		cheap, costly = b, a
	}
	costlyPrice := prices[costly]
	if values[cheap].GreaterThan(values[costly].Add(costlyPrice)) {
		return costly
	}
	return cheap
}

func pickCheapest(symbols []string, prices map[string]decimal.Decimal) string {
	best := ""
	var bestPrice decimal.Decimal
	for _, sym := range symbols {
		p, ok := prices[sym]
		if !ok || !p.IsPositive() {
			continue
		}
		if best == "" || p.LessThan(bestPrice) {
			best, bestPrice = sym, p
		}
	}
	return best
}

// blockSize returns the crypto buy block: 1 up to the threshold, then a
// tenth of that for every further decade of price.
func blockSize(price decimal.Decimal) decimal.Decimal {
	block := decimal.NewFromInt(1)
	limit := cryptoBlockThreshold
	for price.GreaterThan(limit) {
		block = block.Div(ten)
		limit = limit.Mul(ten)
	}
	return block
}
