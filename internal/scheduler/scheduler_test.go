package scheduler

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"Thufir/internal/goal"
	"Thufir/internal/model"
	"Thufir/internal/store"
)

func newCommandScheduler(t *testing.T) (*Scheduler, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "thufir.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	s := NewScheduler(context.Background(), nil, nil, nil, goal.NewService(st), st, nil, nil, nil)
	return s, st
}

func TestHandleCommand_GoalLifecycle(t *testing.T) {
	s, _ := newCommandScheduler(t)

	reply := s.HandleCommand("set goal 3000")
	if !strings.Contains(reply, "$3000.00") {
		t.Errorf("set goal reply = %q", reply)
	}
	current, err := s.Goals.Current()
	if err != nil || current == nil {
		t.Fatalf("expected an active goal after the command, got %v, %v", current, err)
	}

	reply = s.HandleCommand("profit taken")
	if !strings.Contains(reply, "transferred") {
		t.Errorf("profit taken reply should prompt for the transfer, got %q", reply)
	}
	if g, _ := s.Goals.Current(); g != nil {
		t.Error("goal must no longer be active after profit taken")
	}

	reply = s.HandleCommand("transferred")
	if !strings.Contains(reply, "closed out") {
		t.Errorf("transferred reply = %q", reply)
	}
	pending, err := s.Goals.PendingTransfers()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending transfers after confirmation, got %d", len(pending))
	}
}

func TestHandleCommand_GoalErrors(t *testing.T) {
	s, _ := newCommandScheduler(t)

	if reply := s.HandleCommand("set goal lots"); !strings.Contains(reply, "Could not read") {
		t.Errorf("bad amount reply = %q", reply)
	}
	if reply := s.HandleCommand("set goal -50"); !strings.Contains(reply, "Could not set") {
		t.Errorf("negative amount reply = %q", reply)
	}
	if reply := s.HandleCommand("profit taken"); !strings.Contains(reply, "No active profit goal") {
		t.Errorf("no-goal reply = %q", reply)
	}
	if reply := s.HandleCommand("transferred"); !strings.Contains(reply, "Could not confirm") {
		t.Errorf("nothing-pending reply = %q", reply)
	}
}

func TestHandleCommand_Decisions(t *testing.T) {
	s, st := newCommandScheduler(t)

	if reply := s.HandleCommand("decisions"); !strings.Contains(reply, "No decisions recorded") {
		t.Errorf("empty history reply = %q", reply)
	}

	err := st.SaveDecision(&model.TradeDecision{
		ID:        "d1",
		Timestamp: time.Unix(1700000000, 0),
		Action:    model.ActionSellPut,
		Ticker:    "TSLA",
		Rationale: "rich premium",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	reply := s.HandleCommand("decisions")
	if !strings.Contains(reply, "sell_put") || !strings.Contains(reply, "TSLA") {
		t.Errorf("decision history reply = %q", reply)
	}
}

func TestHandleCommand_UnknownShowsHelp(t *testing.T) {
	s, _ := newCommandScheduler(t)
	reply := s.HandleCommand("do something")
	if !strings.Contains(reply, "set goal") || !strings.Contains(reply, "transferred") {
		t.Errorf("expected the help text, got %q", reply)
	}
}
