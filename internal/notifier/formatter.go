package notifier

import (
	"fmt"
	"strings"
	"time"

	"Thufir/internal/model"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) string {
	f, _ := d.Float64()
	return humanize.CommafWithDigits(f, 2)
}

func signedMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + money(d.Neg())
	}
	return "+$" + money(d)
}

// FormatBuyPlan renders a buy sequence plan for the operator.
func FormatBuyPlan(plan *model.BuyPlan, cash decimal.Decimal) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("**Daily Buy Sequence** | %s\n\n", time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Available cash: $%s\n", money(cash)))

	if !plan.HasRecommendations() {
		b.WriteString(plan.Message + "\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Deploying: $%s across %d buy(s) | Remaining after: $%s\n\n",
		money(plan.TotalToDeploy), len(plan.Recommendations), money(plan.CashRemaining)))

	for i, rec := range plan.Recommendations {
		b.WriteString(fmt.Sprintf("%d. **%s**: %s x%s ~ $%s (at $%s)\n",
			i+1, rec.Category, rec.Symbol, rec.Quantity.String(),
			money(rec.EstimatedCost), money(rec.PriceUsed)))
	}
	return b.String()
}

// FormatRecentDecisions renders the latest cycle decisions, newest first.
func FormatRecentDecisions(decisions []model.TradeDecision) string {
	if len(decisions) == 0 {
		return "No decisions recorded yet."
	}
	var b strings.Builder
	b.WriteString("**Recent Decisions**\n\n")
	for _, d := range decisions {
		line := fmt.Sprintf("• %s  %s", d.Timestamp.Format("01-02 15:04"), d.Action)
		if d.Ticker != "" {
			line += " " + d.Ticker
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// FormatPendingTransfers renders goals awaiting a funds transfer.
func FormatPendingTransfers(pending []model.ProfitGoal) string {
	var b strings.Builder
	b.WriteString("**Pending Profit Transfers**\n\n")
	for _, g := range pending {
		taken := "unknown"
		if g.ProfitTakenAt != nil {
			taken = g.ProfitTakenAt.Format("2006-01-02 15:04")
		}
		b.WriteString(fmt.Sprintf("• Goal %d | Amount: $%s | Taken: %s\n", g.ID, money(g.Amount), taken))
	}
	b.WriteString("\nTransfer complete? Reply to confirm.")
	return b.String()
}

// FormatEveningStatus renders the end-of-day account summary. Categories
// with no holdings are omitted.
func FormatEveningStatus(goal *model.ProfitGoal, balances *model.Balances, positions []model.Position) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**Evening Status** | %s\n\n", time.Now().Format("2006-01-02")))

	if goal == nil {
		b.WriteString("Setup required: Profit goal not defined\n")
	} else {
		b.WriteString(fmt.Sprintf("**Current Profit Goal** = **$%s**\n", money(goal.Amount)))
	}
	b.WriteString(fmt.Sprintf("Available cash: $%s | Net liq: $%s\n",
		money(balances.Cash), money(balances.NetLiq)))

	if len(positions) == 0 {
		b.WriteString("\nNo current positions. Ready to begin sequential funding when capital is added.\n")
		return b.String()
	}

	b.WriteString("\n**Positions**\n")
	for _, p := range positions {
		if !p.Quantity.IsPositive() {
			continue
		}
		cost := p.AveragePrice.Mul(p.Quantity)
		gain := p.MarketValue.Sub(cost)
		b.WriteString(fmt.Sprintf("**%s**   Qty: %s   Cost: $%s   Value: $%s   Gain: %s\n",
			p.Symbol, p.Quantity.String(), money(cost), money(p.MarketValue), signedMoney(gain)))
	}
	return b.String()
}
