package oracle

import (
	"fmt"
	"time"
)

// CyclePrompt anchors the oracle to the current time and pins down the
// decision JSON contract for one wheel cycle.
func CyclePrompt(now time.Time) string {
	return fmt.Sprintf(`Current time: %s CST

Execute one wheel cycle. Handle any data failures by recommending halt with
the failure in the rationale.

Cycle steps:
1. Review current volatility and account risk posture
2. Compute committed cash across open cash-secured puts vs available cash
3. Review exposures, unique underlyings, assigned shares
4. If safe: pick put candidates and their chains, or covered calls for
   assigned shares
5. Choose ONE best move: a contract to sell, a share limit order, or hold

Output ONLY a single valid JSON object:
{
  "action": "halt" | "hold" | "sell_put" | "sell_call" | "sell_shares_limit",
  "ticker": null | string,
  "strike": null | number,
  "expiry": null | "YYYY-MM-DD",
  "quantity": null | integer,
  "premium_target": null | number,
  "limit_price": null | number,
  "rationale": "step-by-step reasoning for this decision or hold",
  "probability_success": null | 0.0-1.0,
  "expected_monthly_return_pct": null | number
}`, now.Format("2006-01-02 15:04:05"))
}

// PlanPrompt asks the oracle to turn a buy-sequence plan into a readable
// notification. The plan JSON is the only source of truth.
func PlanPrompt(planJSON string) string {
	return fmt.Sprintf(`You just received the daily buy sequence recommendation object:

%s

Current time: pre-market.

Format a clear, scannable message:
- If there are no recommendations, write a calm one-line status update.
- Otherwise lead with a summary (total deploying, number of buys, cash
  remaining) and list each buy numbered with category, symbol, quantity,
  approximate cost, and price used.

Anchor strictly to the object data. Do not recommend executing anything.
Reply with the message text only.`, planJSON)
}
