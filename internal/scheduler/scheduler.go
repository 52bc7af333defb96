package scheduler

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/vocabsrs/pkg/models"
)

// Default window for review reminders. Outside these hours the hourly
// check runs but stays silent.
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// DueSource exposes the cards currently waiting for review.
type DueSource interface {
	DueCards(today time.Time) []models.ReviewCard
}

// Notifier delivers a reminder that cards are waiting.
type Notifier interface {
	SendReminder(count int, preview []models.ReviewCard) error
}

// Scheduler runs the hourly due-card reminder check.
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    DueSource
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a scheduler over the given due-card source and notifier.
func New(source DueSource, notifier Notifier, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		source:    source,
		notifier:  notifier,
		logger:    logger.With("component", "scheduler"),
		now:       time.Now,
	}
}

// Start begins the hourly reminder check without blocking.
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminder)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendReminder sends a reminder when cards are due and the
// current hour falls inside the notification window.
func (s *Scheduler) checkAndSendReminder() {
	now := s.now()
	currentHour := now.Hour()

	startHour := envHour("NOTIFICATION_START_HOUR", DefaultNotificationStartHour)
	endHour := envHour("NOTIFICATION_END_HOUR", DefaultNotificationEndHour)

	if currentHour < startHour || currentHour > endHour {
		s.logger.Debug("outside notification hours, skipping reminder",
			"hour", currentHour, "start", startHour, "end", endHour)
		return
	}

	if err := s.RunManualCheck(now); err != nil {
		s.logger.Warn("failed to send reminder", "error", err)
	}
}

// RunManualCheck sends a reminder immediately if any cards are due,
// ignoring the notification window.
func (s *Scheduler) RunManualCheck(now time.Time) error {
	due := s.source.DueCards(now)
	if len(due) == 0 {
		return nil
	}

	// Preview at most a handful of cards in the reminder body.
	preview := due
	if len(preview) > 5 {
		preview = preview[:5]
	}
	return s.notifier.SendReminder(len(due), preview)
}

// envHour reads an hour-of-day override from the environment, keeping
// the fallback when unset or out of range.
func envHour(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	if h, err := strconv.Atoi(raw); err == nil && h >= 0 && h <= 23 {
		return h
	}
	return fallback
}
