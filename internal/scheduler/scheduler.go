// Package scheduler provides cron-based scheduling for Serene.
//
// The daemon uses it to announce, at local midnight, that the free daily
// session has become available again.
package scheduler

import (
	"github.com/robfig/cron/v3"
)

// MidnightSpec fires at 00:00 local time every day.
const MidnightSpec = "0 0 * * *"

// Scheduler provides cron-based job scheduling.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts a cron scheduler.
func NewScheduler() *Scheduler {
	// Standard 5-field cron parser (min, hour, dom, month, dow) with panic recovery
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules a task using the provided cron expression.
// It returns an error if the expression is invalid.
func (s *Scheduler) AddJob(expr string, task func()) error {
	_, err := s.cron.AddFunc(expr, task)
	return err
}

// AddDailyMidnightJob schedules a task for local midnight every day.
func (s *Scheduler) AddDailyMidnightJob(task func()) error {
	return s.AddJob(MidnightSpec, task)
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
