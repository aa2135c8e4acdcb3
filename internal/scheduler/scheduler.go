// Package scheduler drives watch mode: re-running the backtest on a cron
// spec as new quote files land in the data directory.
package scheduler

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron runner around a backtest task.
type Scheduler struct {
	Cron *cron.Cron
	task func()
}

// NewScheduler creates a scheduler for the given task.
func NewScheduler(task func()) *Scheduler {
	return &Scheduler{
		Cron: cron.New(cron.WithSeconds()),
		task: task,
	}
}

// Register registers the task under the given cron spec (with seconds).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() {
		log.Println("[INFO] scheduled run starting")
		s.task()
	}); err != nil {
		return fmt.Errorf("register watch task: %w", err)
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
