package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Thufir/internal/broker"
	"Thufir/internal/config"
	"Thufir/internal/goal"
	"Thufir/internal/notifier"
	"Thufir/internal/oracle"
	"Thufir/internal/planner"
	"Thufir/internal/scanner"
	"Thufir/internal/scheduler"
	"Thufir/internal/store"
	"Thufir/internal/wheel"

	"github.com/robfig/cron/v3"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] Thufir starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		log.Fatalf("[FATAL] load timezone %q: %v", cfg.Schedule.Timezone, err)
	}

	// Init store
	var st store.Store
	if cfg.Database.SQLitePath != "" {
		ss, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite store failed, using noop: %v", err)
			st = store.NewNoopStore()
		} else {
			st = ss
			defer ss.Close()
		}
	} else {
		st = store.NewNoopStore()
	}

	// Init option scanner clients
	monitor := scanner.NewUpdateMonitor(cfg.Scanner.BaseURL)
	statusClient := scanner.NewStatusClient(cfg.Scanner.BaseURL, monitor)

	// Init brokerage client
	bk := broker.NewClient(cfg.Broker.BaseURL, cfg.Broker.Username, cfg.Broker.Password, cfg.Broker.AccountNumber)

	// Init oracle
	orc := oracle.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.Model)

	// Init Discord notifier
	dn := notifier.NewDiscordNotifier(cfg.Discord.WebhookURL)

	goals := goal.NewService(st)
	categories := resolveCategories(cfg.Trading.Categories)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interval := time.Duration(cfg.Trading.CycleIntervalMinutes) * time.Minute
	executor := wheel.NewExecutor(statusClient, orc, bk, st, dn, interval, loc)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, executor, monitor, bk, goals, st, orc, dn, categories, cron.WithLocation(loc))
	if err := sched.RegisterAll(scheduler.Schedule{
		Cycle:        cfg.Schedule.CycleCron,
		Plan:         cfg.Schedule.PlanCron,
		UpdateWindow: cfg.Schedule.UpdateWindowCron,
		PreMarket:    cfg.Schedule.PreMarketCron,
		PostMarket:   cfg.Schedule.PostMarketCron,
		Evening:      cfg.Schedule.EveningCron,
	}); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start command polling so the operator can drive the goal lifecycle
	if cfg.Discord.BotToken != "" && cfg.Discord.CommandChannelID != "" {
		poller := notifier.NewCommandPoller(cfg.Discord.BotToken, cfg.Discord.CommandChannelID)
		go poller.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Discord command polling started")
	} else {
		log.Println("[WARN] Discord bot token or command channel not set, operator commands disabled")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, starting daily cycles now")
		go sched.RunCyclesNow()
	}

	log.Println("[INFO] Thufir is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] Thufir stopped")
}

func resolveCategories(fromConfig []config.Category) []planner.Category {
	if len(fromConfig) == 0 {
		return planner.DefaultCategories
	}
	cats := make([]planner.Category, 0, len(fromConfig))
	for _, c := range fromConfig {
		mult := c.Multiplier
		if mult <= 0 {
			mult = 1
		}
		cats = append(cats, planner.Category{
			Name:       c.Name,
			Kind:       planner.CategoryKind(c.Kind),
			Symbols:    c.Symbols,
			Multiplier: mult,
		})
	}
	return cats
}
