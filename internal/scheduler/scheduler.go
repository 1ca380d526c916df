package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"Thufir/internal/broker"
	"Thufir/internal/goal"
	"Thufir/internal/notifier"
	"Thufir/internal/oracle"
	"Thufir/internal/planner"
	"Thufir/internal/scanner"
	"Thufir/internal/store"
	"Thufir/internal/wheel"

	"github.com/shopspring/decimal"

	"github.com/robfig/cron/v3"
)

// Schedule holds the cron expressions for all timed entry points.
type Schedule struct {
	Cycle        string
	Plan         string
	UpdateWindow string
	PreMarket    string
	PostMarket   string
	Evening      string
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron       *cron.Cron
	Executor   *wheel.Executor
	Monitor    *scanner.UpdateMonitor
	Broker     broker.Gateway
	Goals      *goal.Service
	Store      store.Store
	Oracle     oracle.Oracle
	Notifier   notifier.Notifier
	Categories []planner.Category
	Ctx        context.Context

	cycleRunning atomic.Bool
}

// NewScheduler creates a new Scheduler with cron seconds resolution.
func NewScheduler(ctx context.Context, ex *wheel.Executor, mon *scanner.UpdateMonitor,
	bk broker.Gateway, goals *goal.Service, st store.Store, o oracle.Oracle, n notifier.Notifier,
	cats []planner.Category, opts ...cron.Option) *Scheduler {
	opts = append([]cron.Option{cron.WithSeconds()}, opts...)
	return &Scheduler{
		Cron:       cron.New(opts...),
		Executor:   ex,
		Monitor:    mon,
		Broker:     bk,
		Goals:      goals,
		Store:      st,
		Oracle:     o,
		Notifier:   n,
		Categories: cats,
		Ctx:        ctx,
	}
}

// RegisterAll registers every timed entry point.
func (s *Scheduler) RegisterAll(sched Schedule) error {
	if _, err := s.Cron.AddFunc(sched.Cycle, s.cycleTask); err != nil {
		return fmt.Errorf("register cycle task: %w", err)
	}
	if _, err := s.Cron.AddFunc(sched.Plan, s.dailyPlanTask); err != nil {
		return fmt.Errorf("register plan task: %w", err)
	}
	if _, err := s.Cron.AddFunc(sched.UpdateWindow, s.Monitor.Set); err != nil {
		return fmt.Errorf("register update window task: %w", err)
	}
	if _, err := s.Cron.AddFunc(sched.PreMarket, func() { s.transferCheck("Pre-Market Update") }); err != nil {
		return fmt.Errorf("register pre-market task: %w", err)
	}
	if _, err := s.Cron.AddFunc(sched.PostMarket, func() { s.transferCheck("Post-Market Update") }); err != nil {
		return fmt.Errorf("register post-market task: %w", err)
	}
	if _, err := s.Cron.AddFunc(sched.Evening, s.eveningStatusTask); err != nil {
		return fmt.Errorf("register evening task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunCyclesNow starts the daily cycle loop immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunCyclesNow() {
	s.cycleTask()
}

// cycleTask runs the bounded intraday loop. Exactly one loop may run at a
// time; an overlapping trigger is dropped.
func (s *Scheduler) cycleTask() {
	if !s.cycleRunning.CompareAndSwap(false, true) {
		log.Println("[WARN] cycle loop already running, skipping trigger")
		return
	}
	defer s.cycleRunning.Store(false)

	log.Println("[INFO] starting daily wheel cycles")
	s.Executor.RunDailyCycles(s.Ctx)
}

// dailyPlanTask computes the sequential buy plan before market open and
// sends it to the operator, letting the oracle phrase the message when it
// is reachable.
func (s *Scheduler) dailyPlanTask() {
	log.Println("[INFO] running daily buy sequence check")

	current, err := s.Goals.Current()
	if err != nil {
		log.Printf("[ERROR] daily plan: load profit goal: %v", err)
		return
	}
	balances, err := s.Broker.Balances(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] daily plan: fetch balances: %v", err)
		s.tryNotify(fmt.Sprintf("Daily buy sequence aborted: could not fetch balances: %v", err), true, "DAILY_BUY_SEQUENCE")
		return
	}
	positions, err := s.Broker.Positions(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] daily plan: fetch positions: %v", err)
		s.tryNotify(fmt.Sprintf("Daily buy sequence aborted: could not fetch positions: %v", err), true, "DAILY_BUY_SEQUENCE")
		return
	}
	prices, err := s.Broker.MarkPrices(s.Ctx, categorySymbols(s.Categories))
	if err != nil {
		log.Printf("[ERROR] daily plan: fetch mark prices: %v", err)
		s.tryNotify(fmt.Sprintf("Daily buy sequence aborted: could not fetch prices: %v", err), true, "DAILY_BUY_SEQUENCE")
		return
	}

	plan := planner.Plan(current, balances.Cash, prices, positions, s.Categories)

	// Prefer the oracle's phrasing; fall back to the plain formatter.
	message := ""
	if planJSON, err := json.Marshal(plan); err == nil {
		if reply, err := s.Oracle.Chat(s.Ctx, oracle.PlanPrompt(string(planJSON))); err == nil {
			message = reply
		} else {
			log.Printf("[WARN] oracle unavailable for plan message: %v", err)
		}
	}
	if message == "" {
		message = notifier.FormatBuyPlan(plan, balances.Cash)
	}

	s.tryNotify(message, true, "DAILY_BUY_SEQUENCE")
}

func (s *Scheduler) transferCheck(label string) {
	pending, err := s.Goals.PendingTransfers()
	if err != nil {
		log.Printf("[ERROR] %s: load pending transfers: %v", label, err)
		return
	}
	if len(pending) == 0 {
		return
	}
	s.tryNotify(notifier.FormatPendingTransfers(pending), true, label+"_PENDING_TRANSFER")
}

func (s *Scheduler) eveningStatusTask() {
	log.Println("[INFO] running evening status update")

	current, err := s.Goals.Current()
	if err != nil {
		log.Printf("[ERROR] evening status: load profit goal: %v", err)
		return
	}
	balances, err := s.Broker.Balances(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] evening status: fetch balances: %v", err)
		return
	}
	positions, err := s.Broker.Positions(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] evening status: fetch positions: %v", err)
		return
	}

	s.tryNotify(notifier.FormatEveningStatus(current, balances, positions), false, "EVENING_STATUS")
}

const commandHelp = "Available commands:\n" +
	"• set goal <amount>\n" +
	"• profit taken\n" +
	"• transferred\n" +
	"• decisions\n" +
	"• plan"

// HandleCommand processes an operator command and returns a reply. The
// profit goal lifecycle is driven entirely from here: set the target,
// confirm profit taken, confirm the funds transfer.
func (s *Scheduler) HandleCommand(command string) string {
	cmd := strings.ToLower(strings.TrimSpace(command))
	switch {
	case strings.HasPrefix(cmd, "set goal "):
		return s.setGoalCommand(strings.TrimPrefix(cmd, "set goal "))
	case cmd == "profit taken":
		current, err := s.Goals.Current()
		if err != nil {
			return fmt.Sprintf("Could not load the active goal: %v", err)
		}
		if current == nil {
			return "No active profit goal to mark as taken."
		}
		if err := s.Goals.MarkProfitTaken(); err != nil {
			return fmt.Sprintf("Could not mark profit taken: %v", err)
		}
		return fmt.Sprintf("Profit taken on goal %d ($%s). Transfer the funds and reply 'transferred'.",
			current.ID, current.Amount.StringFixed(2))
	case cmd == "transferred":
		closed, err := s.Goals.MarkFundsTransferred()
		if err != nil {
			return fmt.Sprintf("Could not confirm transfer: %v", err)
		}
		return fmt.Sprintf("Goal %d closed out. Set a new goal to keep the wheel turning.", closed.ID)
	case cmd == "decisions":
		recent, err := s.Store.RecentDecisions(10)
		if err != nil {
			return fmt.Sprintf("Could not load decisions: %v", err)
		}
		return notifier.FormatRecentDecisions(recent)
	case cmd == "plan":
		go s.dailyPlanTask()
		return ""
	default:
		return commandHelp
	}
}

func (s *Scheduler) setGoalCommand(arg string) string {
	amount, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(arg), "$"))
	if err != nil {
		return fmt.Sprintf("Could not read %q as an amount. Try: set goal 3000", arg)
	}
	g, err := s.Goals.SetGoal(amount)
	if err != nil {
		return fmt.Sprintf("Could not set goal: %v", err)
	}
	return fmt.Sprintf("Profit goal set to $%s (goal %d).", g.Amount.StringFixed(2), g.ID)
}

func (s *Scheduler) tryNotify(content string, urgent bool, label string) {
	if err := s.Notifier.Notify(s.Ctx, content, urgent, label); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}

func categorySymbols(cats []planner.Category) []string {
	var symbols []string
	for _, c := range cats {
		symbols = append(symbols, c.Symbols...)
	}
	return symbols
}
