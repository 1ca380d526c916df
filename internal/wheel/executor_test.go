package wheel

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"Thufir/internal/broker"
	"Thufir/internal/model"
	"Thufir/internal/oracle"

	"github.com/shopspring/decimal"
)

type fakeStatus struct{ status model.MarketStatus }

func (f *fakeStatus) GetStatus(_ context.Context) model.MarketStatus { return f.status }

type fakeStore struct{ decisions []*model.TradeDecision }

func (f *fakeStore) SaveDecision(d *model.TradeDecision) error {
	f.decisions = append(f.decisions, d)
	return nil
}
func (f *fakeStore) RecentDecisions(_ int) ([]model.TradeDecision, error) { return nil, nil }
func (f *fakeStore) ActiveGoal() (*model.ProfitGoal, error)               { return nil, nil }
func (f *fakeStore) InsertGoal(_ *model.ProfitGoal) error                 { return nil }
func (f *fakeStore) UpdateGoal(_ *model.ProfitGoal) error                 { return nil }
func (f *fakeStore) PendingTransferGoals() ([]model.ProfitGoal, error)    { return nil, nil }
func (f *fakeStore) Close() error                                         { return nil }

type sentMessage struct {
	content string
	urgent  bool
	label   string
}

type fakeNotifier struct{ sent []sentMessage }

func (f *fakeNotifier) Notify(_ context.Context, content string, urgent bool, label string) error {
	f.sent = append(f.sent, sentMessage{content, urgent, label})
	return nil
}

type fakeBroker struct {
	cash   decimal.Decimal
	orders []*broker.Order
}

func (f *fakeBroker) Balances(_ context.Context) (*model.Balances, error) {
	return &model.Balances{Cash: f.cash, NetLiq: f.cash}, nil
}
func (f *fakeBroker) Positions(_ context.Context) ([]model.Position, error) { return nil, nil }
func (f *fakeBroker) MarkPrices(_ context.Context, _ []string) (map[string]decimal.Decimal, error) {
	return nil, nil
}
func (f *fakeBroker) PlaceOrder(_ context.Context, o *broker.Order) (map[string]any, error) {
	f.orders = append(f.orders, o)
	return map[string]any{"id": "1"}, nil
}

func newTestExecutor(orc oracle.Oracle, bk *fakeBroker, st *fakeStore, nt *fakeNotifier, tradingDay bool) *Executor {
	status := &fakeStatus{status: model.MarketStatus{
		TradingDay: tradingDay,
		Close:      model.TimeOfDay{Hour: 15, Minute: 0},
	}}
	e := NewExecutor(status, orc, bk, st, nt, 5*time.Minute, time.UTC)
	clock := time.Date(2025, 3, 20, 14, 50, 0, 0, time.UTC)
	e.now = func() time.Time { return clock }
	e.sleep = func(_ context.Context, d time.Duration) error {
		clock = clock.Add(d)
		return nil
	}
	return e
}

func TestRunDailyCycles_NotTradingDay(t *testing.T) {
	orc := &oracle.Mock{}
	st := &fakeStore{}
	nt := &fakeNotifier{}
	e := newTestExecutor(orc, &fakeBroker{cash: decimal.NewFromInt(2000)}, st, nt, false)

	e.RunDailyCycles(context.Background())

	if len(st.decisions) != 0 || len(nt.sent) != 0 {
		t.Error("no cycles should run on a non-trading day")
	}
}

func TestRunCycle_HoldPersistsAndNotifies(t *testing.T) {
	orc := &oracle.Mock{Responses: []string{`{"action":"hold","rationale":"nothing attractive today"}`}}
	st := &fakeStore{}
	nt := &fakeNotifier{}
	bk := &fakeBroker{cash: decimal.NewFromInt(2000)}
	e := newTestExecutor(orc, bk, st, nt, true)

	e.runCycle(context.Background())

	if len(st.decisions) != 1 {
		t.Fatalf("expected 1 persisted decision, got %d", len(st.decisions))
	}
	if st.decisions[0].Action != model.ActionHold {
		t.Errorf("persisted action = %s, want hold", st.decisions[0].Action)
	}
	if len(nt.sent) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(nt.sent))
	}
	if nt.sent[0].urgent {
		t.Error("hold notification must not be urgent")
	}
	if len(bk.orders) != 0 {
		t.Error("hold must not submit an order")
	}
}

func TestRunCycle_HaltIsUrgent(t *testing.T) {
	orc := &oracle.Mock{Responses: []string{`{"action":"halt","rationale":"volatility data unavailable"}`}}
	st := &fakeStore{}
	nt := &fakeNotifier{}
	e := newTestExecutor(orc, &fakeBroker{cash: decimal.NewFromInt(2000)}, st, nt, true)

	e.runCycle(context.Background())

	if len(nt.sent) != 1 || !nt.sent[0].urgent {
		t.Fatal("halt must produce one urgent notification")
	}
}

func TestRunCycle_UnparsableAlertsAndContinues(t *testing.T) {
	raw := "Sorry, I cannot produce JSON right now."
	orc := &oracle.Mock{Responses: []string{raw}}
	st := &fakeStore{}
	nt := &fakeNotifier{}
	e := newTestExecutor(orc, &fakeBroker{cash: decimal.NewFromInt(2000)}, st, nt, true)

	// Loop runs 14:50 and 14:55 cycles, then the clock passes close.
	e.RunDailyCycles(context.Background())

	if len(st.decisions) != 0 {
		t.Errorf("unparsable responses must persist nothing, got %d", len(st.decisions))
	}
	if len(nt.sent) != 2 {
		t.Fatalf("expected the loop to continue past the first failure (2 alerts), got %d", len(nt.sent))
	}
	for _, msg := range nt.sent {
		if !msg.urgent {
			t.Error("parse failure alert must be urgent")
		}
		if !strings.Contains(msg.content, raw) {
			t.Error("alert must contain the raw unparsable payload")
		}
	}
}

func TestRunCycle_RiskCheckBlocksOrder(t *testing.T) {
	orc := &oracle.Mock{Responses: []string{
		`{"action":"sell_put","ticker":"TSLA","strike":250,"expiry":"2025-03-21","quantity":1,"limit_price":3.5,"rationale":"r"}`,
	}}
	st := &fakeStore{}
	nt := &fakeNotifier{}
	bk := &fakeBroker{cash: decimal.NewFromInt(2000)} // risk 25000 > 2200
	e := newTestExecutor(orc, bk, st, nt, true)

	e.runCycle(context.Background())

	if len(bk.orders) != 0 {
		t.Error("risk check failure must block the order")
	}
	if len(nt.sent) != 1 || !nt.sent[0].urgent || nt.sent[0].label != "TRADE_HALT_RISK" {
		t.Fatalf("expected one urgent TRADE_HALT_RISK alert, got %+v", nt.sent)
	}
	if len(st.decisions) != 1 {
		t.Error("the decision itself is still persisted for audit")
	}
}

func TestRunCycle_SellPutSubmitsOrder(t *testing.T) {
	longRationale := strings.Repeat("premium is rich and support holds. ", 10)
	orc := &oracle.Mock{Responses: []string{
		`{"action":"sell_put","ticker":"TSLA","strike":25,"expiry":"2025-03-21","quantity":1,"limit_price":0.85,"rationale":"` + longRationale + `"}`,
	}}
	st := &fakeStore{}
	nt := &fakeNotifier{}
	bk := &fakeBroker{cash: decimal.NewFromInt(5000)} // risk 2500 <= 5500
	e := newTestExecutor(orc, bk, st, nt, true)

	e.runCycle(context.Background())

	if len(bk.orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(bk.orders))
	}
	order := bk.orders[0]
	if order.Legs[0].Symbol != "TSLA 250321P25" {
		t.Errorf("order symbol = %q", order.Legs[0].Symbol)
	}
	if order.Legs[0].Action != "Sell to Open" {
		t.Errorf("order leg action = %q", order.Legs[0].Action)
	}
	if len(nt.sent) != 1 || nt.sent[0].label != "TRADE_EXEC_SANDBOX" {
		t.Fatalf("expected one TRADE_EXEC_SANDBOX notification, got %+v", nt.sent)
	}
	// Truncated excerpt, not the whole rationale.
	if strings.Contains(nt.sent[0].content, longRationale) {
		t.Error("notification must carry only a 200-char rationale excerpt")
	}
}

func TestExcerpt_KeepsRuneBoundaries(t *testing.T) {
	short := "plain ascii"
	if got := excerpt(short, 200); got != short {
		t.Errorf("short input must pass through, got %q", got)
	}

	long := strings.Repeat("риск на уровне поддержки держится. ", 10)
	got := excerpt(long, 200)
	if len(got) > 200 {
		t.Errorf("excerpt length %d exceeds the limit", len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("excerpt split a multi-byte rune")
	}
	if !strings.HasPrefix(long, got) {
		t.Error("excerpt must be a prefix of the input")
	}
}

func TestRunCycle_UnsupportedActionNoOrder(t *testing.T) {
	orc := &oracle.Mock{Responses: []string{
		`{"action":"sell_shares_limit","ticker":"NVDA","rationale":"trim assigned shares"}`,
	}}
	st := &fakeStore{}
	nt := &fakeNotifier{}
	bk := &fakeBroker{cash: decimal.NewFromInt(5000)}
	e := newTestExecutor(orc, bk, st, nt, true)

	e.runCycle(context.Background())

	if len(bk.orders) != 0 {
		t.Error("sell_shares_limit must not submit an option order")
	}
	if len(st.decisions) != 1 {
		t.Error("decision is still recorded")
	}
}
