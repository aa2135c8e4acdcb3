package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TrendBacktest/internal/config"
	"TrendBacktest/internal/loader"
	"TrendBacktest/internal/recorder"
	"TrendBacktest/internal/report"
	"TrendBacktest/internal/scheduler"
	"TrendBacktest/internal/sim"

	"github.com/google/uuid"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := flag.String("config", "configs/config.yaml", "path to config file")
	showTx := flag.Bool("transactions", false, "print the full transaction journal")
	flag.Parse()
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		*cfgPath = v
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	runOnce := func() {
		symbols, err := loader.LoadDir(cfg.Data.QuotesDir)
		if err != nil {
			log.Printf("[ERROR] load quotes: %v", err)
			return
		}
		driver, err := sim.NewDriver(cfg, symbols)
		if err != nil {
			log.Printf("[ERROR] init driver: %v", err)
			return
		}

		started := time.Now()
		res := driver.Run()

		fmt.Print(report.FormatSummary(&res.Summary))
		if *showTx {
			fmt.Print(report.FormatTransactions(res.Transactions))
		}

		runID := uuid.NewString()
		if err := rec.RecordRun(&recorder.RunRecord{
			ID:         runID,
			StartedAt:  started,
			ConfigPath: *cfgPath,
			Interval:   cfg.Simulation.Interval,
			Summary:    res.Summary,
		}); err != nil {
			log.Printf("[ERROR] record run: %v", err)
			return
		}
		if err := rec.RecordTransactions(runID, res.Transactions); err != nil {
			log.Printf("[ERROR] record transactions: %v", err)
		}
	}

	runOnce()

	if cfg.Schedule.WatchCron == "" {
		return
	}

	// Watch mode: keep re-running as new data lands.
	sched := scheduler.NewScheduler(runOnce)
	if err := sched.Register(cfg.Schedule.WatchCron); err != nil {
		log.Fatalf("[FATAL] register watch cron: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	log.Println("[INFO] watch mode active, press Ctrl+C to stop")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("[INFO] shutdown signal received, stopping")
}
