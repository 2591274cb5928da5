package scheduler

import "testing"

func TestSchedulerAddJob(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	if err := s.AddJob("* * * * *", func() {}); err != nil {
		t.Errorf("expected no error adding job, got %v", err)
	}
	if err := s.AddDailyMidnightJob(func() {}); err != nil {
		t.Errorf("expected no error adding midnight job, got %v", err)
	}
}

func TestSchedulerRejectsInvalidExpression(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	if err := s.AddJob("not a cron expr", func() {}); err == nil {
		t.Error("expected an error for an invalid cron expression")
	}
}
