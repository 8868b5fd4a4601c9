// Package reminder periodically checks study status and nudges the user
// when cards are due or the daily goal is unmet.
package reminder

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/tango/internal/trainer"
	"github.com/go-co-op/gocron"
)

// DefaultInterval is how often the status is checked.
const DefaultInterval = time.Hour

// Status reports the current study status.
type Status interface {
	Summary() trainer.Summary
}

// Notifier delivers a reminder.
type Notifier interface {
	Remind(sum trainer.Summary) error
}

// Reminder runs the periodic check.
type Reminder struct {
	scheduler *gocron.Scheduler
	status    Status
	notifier  Notifier
	interval  time.Duration
	log       *slog.Logger
}

// New creates a reminder. A non-positive interval uses DefaultInterval.
func New(status Status, notifier Notifier, interval time.Duration, logger *slog.Logger) *Reminder {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reminder{
		scheduler: gocron.NewScheduler(time.UTC),
		status:    status,
		notifier:  notifier,
		interval:  interval,
		log:       logger,
	}
}

// Start schedules the check and runs the scheduler in the background.
func (r *Reminder) Start() error {
	// the first run is one interval from now; the deck is usually still loading
	_, err := r.scheduler.Every(r.interval).WaitForSchedule().Do(r.Check)
	if err != nil {
		return fmt.Errorf("failed to schedule reminder: %w", err)
	}
	r.scheduler.StartAsync()
	r.log.Info("Reminder started", "interval", r.interval)
	return nil
}

// Stop terminates the scheduler.
func (r *Reminder) Stop() {
	r.scheduler.Stop()
}

// Check reads the status, which also rolls the daily goal over, and sends a
// reminder if anything is left to do. It reports whether one was sent.
func (r *Reminder) Check() bool {
	sum := r.status.Summary()
	if sum.Cards == 0 {
		return false
	}
	if sum.Due == 0 && sum.Daily.Done >= sum.Daily.Goal {
		r.log.Debug("Nothing to remind", "day", sum.Day)
		return false
	}
	if err := r.notifier.Remind(sum); err != nil {
		r.log.Warn("Failed to send reminder", "error", err)
		return false
	}
	return true
}

// LogNotifier writes reminders to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Remind logs the due count and daily progress.
func (n LogNotifier) Remind(sum trainer.Summary) error {
	log := n.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("Study reminder",
		"due", sum.Due,
		"daily_done", sum.Daily.Done,
		"daily_goal", sum.Daily.Goal,
		"learned", sum.Learned,
		"cards", sum.Cards,
	)
	return nil
}
