package store

import (
	"path/filepath"
	"testing"
	"time"

	"Thufir/internal/model"

	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "thufir.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndListDecisions(t *testing.T) {
	s := newTestStore(t)

	prob := 0.8
	first := &model.TradeDecision{
		ID:                 "d1",
		Timestamp:          time.Unix(1000, 0),
		Action:             model.ActionHold,
		Rationale:          "waiting",
		DetailsJSON:        `{"action":"hold"}`,
		ProbabilitySuccess: &prob,
	}
	second := &model.TradeDecision{
		ID:          "d2",
		Timestamp:   time.Unix(2000, 0),
		Action:      model.ActionSellPut,
		Ticker:      "TSLA",
		Rationale:   "rich premium",
		DetailsJSON: `{"action":"sell_put"}`,
	}
	if err := s.SaveDecision(first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveDecision(second); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.RecentDecisions(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(got))
	}
	if got[0].ID != "d2" {
		t.Errorf("expected newest first, got %s", got[0].ID)
	}
	if got[1].ProbabilitySuccess == nil || *got[1].ProbabilitySuccess != 0.8 {
		t.Error("probability not round-tripped")
	}
	if got[1].Action != model.ActionHold {
		t.Errorf("action = %s, want hold", got[1].Action)
	}
}

func TestGoalLifecycleRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if g, err := s.ActiveGoal(); err != nil || g != nil {
		t.Fatalf("expected no active goal on fresh store, got %v, %v", g, err)
	}

	now := time.Unix(5000, 0)
	g := &model.ProfitGoal{Amount: decimal.RequireFromString("3000"), CreatedAt: now, UpdatedAt: now}
	if err := s.InsertGoal(g); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if g.ID == 0 {
		t.Fatal("insert must assign an id")
	}

	active, err := s.ActiveGoal()
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active == nil || !active.Amount.Equal(decimal.RequireFromString("3000")) {
		t.Fatalf("active goal mismatch: %+v", active)
	}

	takenAt := time.Unix(6000, 0)
	active.ProfitTaken = true
	active.ProfitTakenAt = &takenAt
	active.UpdatedAt = takenAt
	if err := s.UpdateGoal(active); err != nil {
		t.Fatalf("update: %v", err)
	}

	if g2, _ := s.ActiveGoal(); g2 != nil {
		t.Error("taken goal must no longer be active")
	}

	pending, err := s.PendingTransferGoals()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending transfer, got %d", len(pending))
	}
	if pending[0].ProfitTakenAt == nil || !pending[0].ProfitTakenAt.Equal(takenAt) {
		t.Error("profit taken timestamp not round-tripped")
	}
}
