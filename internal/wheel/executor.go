package wheel

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"Thufir/internal/broker"
	"Thufir/internal/decision"
	"Thufir/internal/model"
	"Thufir/internal/notifier"
	"Thufir/internal/oracle"
	"Thufir/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatusSource gates the daily loop on market status.
type StatusSource interface {
	GetStatus(ctx context.Context) model.MarketStatus
}

// riskCashMultiple caps approximate assignment risk at 110% of cash.
var riskCashMultiple = decimal.NewFromFloat(1.1)

// Executor drives the daily wheel cycles: gate on market status, then one
// decision cycle every interval until market close. One executor runs at
// most one loop at a time; the scheduler triggers it once per day.
type Executor struct {
	Status   StatusSource
	Oracle   oracle.Oracle
	Broker   broker.Gateway
	Store    store.Store
	Notifier notifier.Notifier
	Interval time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor running on the given location's clock.
func NewExecutor(status StatusSource, o oracle.Oracle, b broker.Gateway,
	s store.Store, n notifier.Notifier, interval time.Duration, loc *time.Location) *Executor {
	return &Executor{
		Status:   status,
		Oracle:   o,
		Broker:   b,
		Store:    s,
		Notifier: n,
		Interval: interval,
		now:      func() time.Time { return time.Now().In(loc) },
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		},
	}
}

// RunDailyCycles is the per-trading-day loop. Failures inside one cycle are
// contained to that cycle; only an interrupted sleep ends the day early.
func (e *Executor) RunDailyCycles(ctx context.Context) {
	status := e.Status.GetStatus(ctx)
	if !status.TradingDay {
		log.Println("[INFO] not a trading day, skipping cycles")
		return
	}
	log.Printf("[INFO] trading day detected, starting cycles until %s", status.Close)

	for status.Close.After(e.now()) {
		e.runCycle(ctx)

		if err := e.sleep(ctx, e.Interval); err != nil {
			log.Printf("[WARN] cycle loop interrupted: %v", err)
			break
		}
	}
	log.Println("[INFO] daily cycles finished")
}

func (e *Executor) runCycle(ctx context.Context) {
	now := e.now()
	log.Printf("[INFO] executing wheel cycle at %s", now.Format(time.RFC3339))

	raw, err := e.Oracle.Chat(ctx, oracle.CyclePrompt(now))
	if err != nil {
		log.Printf("[ERROR] oracle call failed: %v", err)
		e.tryNotify(ctx, fmt.Sprintf("Wheel cycle oracle call failed: %v", err), true, "CYCLE_ORACLE_ERROR")
		return
	}
	log.Printf("[INFO] raw decision: %s", raw)

	dec, err := decision.Parse(raw)
	if err != nil {
		log.Printf("[ERROR] decision parse failed: %v", err)
		e.tryNotify(ctx,
			fmt.Sprintf("CRITICAL: wheel cycle decision parsing failed\nRaw response:\n%s\nError: %v", raw, err),
			true, "CYCLE_CRITICAL_ERROR")
		return
	}

	record := dec.Record(uuid.NewString(), now)
	if err := e.Store.SaveDecision(record); err != nil {
		log.Printf("[ERROR] persist decision: %v", err)
		e.tryNotify(ctx, fmt.Sprintf("CRITICAL: could not persist trade decision: %v", err), true, "CYCLE_CRITICAL_ERROR")
		return
	}
	log.Printf("[INFO] decision persisted: action=%s, ticker=%s", dec.Action, dec.Ticker)

	switch dec.Action {
	case model.ActionHalt, model.ActionHold:
		label := "CYCLE_" + strings.ToUpper(string(dec.Action))
		e.tryNotify(ctx,
			fmt.Sprintf("Cycle result: %s\n%s", strings.ToUpper(string(dec.Action)), dec.Rationale),
			dec.Action == model.ActionHalt, label)
		return
	case model.ActionSellPut, model.ActionSellCall:
		e.execute(ctx, dec)
	default:
		log.Printf("[WARN] unsupported action %q, no order submitted", dec.Action)
	}
}

// execute runs the pre-execution risk check and submits at most one order.
func (e *Executor) execute(ctx context.Context, dec *decision.Decision) {
	balances, err := e.Broker.Balances(ctx)
	if err != nil {
		log.Printf("[ERROR] fetch balances for risk check: %v", err)
		e.tryNotify(ctx,
			fmt.Sprintf("PRE-EXECUTION HALT: could not fetch balances for %s\nRationale: %s", dec.Ticker, dec.Rationale),
			true, "TRADE_HALT_RISK")
		return
	}

	approxRisk := dec.Strike.Mul(decimal.NewFromInt(100)).Mul(decimal.NewFromInt(dec.Quantity))
	if approxRisk.GreaterThan(balances.Cash.Mul(riskCashMultiple)) {
		log.Printf("[WARN] pre-execution risk check failed: risk $%s vs cash $%s",
			approxRisk.StringFixed(2), balances.Cash.StringFixed(2))
		e.tryNotify(ctx,
			fmt.Sprintf("PRE-EXECUTION HALT: Insufficient cash or risk too high for %s\nRationale: %s", dec.Ticker, dec.Rationale),
			true, "TRADE_HALT_RISK")
		return
	}

	order := &broker.Order{
		TimeInForce: "Day",
		OrderType:   "Limit",
		Price:       dec.LimitPrice,
		PriceEffect: "Credit",
		Legs: []broker.OrderLeg{{
			InstrumentType: "Equity Option",
			Symbol:         dec.OptionSymbol(),
			Quantity:       dec.Quantity,
			Action:         "Sell to Open",
			Effect:         "Open",
		}},
	}

	if _, err := e.Broker.PlaceOrder(ctx, order); err != nil {
		log.Printf("[ERROR] order submission failed: %v", err)
		e.tryNotify(ctx,
			fmt.Sprintf("Order rejected for %s: %v\nRationale: %s", dec.Ticker, err, dec.Rationale),
			true, "ORDER_REJECTED")
		return
	}

	e.tryNotify(ctx, fmt.Sprintf(
		"SANDBOX TRADE EXECUTED\nAction: %s\nTicker: %s\nStrike/Expiry: %s / %s\nQuantity: %d\nRationale excerpt: %s",
		dec.Action, dec.Ticker, dec.Strike.String(), dec.Expiry, dec.Quantity, excerpt(dec.Rationale, 200)),
		false, "TRADE_EXEC_SANDBOX")
}

func (e *Executor) tryNotify(ctx context.Context, content string, urgent bool, label string) {
	if err := e.Notifier.Notify(ctx, content, urgent, label); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}

// excerpt truncates to at most n bytes without splitting a rune.
func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
