package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/vocabsrs/pkg/models"
)

// StatisticsRepository keeps per-day review counters. It implements the
// engine's ReviewRecorder interface; the engine never depends on its
// results, so a failed write only costs a statistics data point.
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository creates a repository over an open connection.
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// RecordReview increments the day's review counters.
func (r *StatisticsRepository) RecordReview(ctx context.Context, day time.Time, correct bool) error {
	correctInc := 0
	if correct {
		correctInc = 1
	}
	query := r.db.Rebind(`
		INSERT INTO review_stats (day, reviews, correct, cards_added)
		VALUES (?, 1, ?, 0)
		ON CONFLICT (day) DO UPDATE SET
			reviews = review_stats.reviews + 1,
			correct = review_stats.correct + excluded.correct
	`)
	if _, err := r.db.ExecContext(ctx, query, models.DayKey(day), correctInc); err != nil {
		return fmt.Errorf("failed to record review: %v", err)
	}
	return nil
}

// RecordCardsAdded increments the day's new-card counter.
func (r *StatisticsRepository) RecordCardsAdded(ctx context.Context, day time.Time, count int) error {
	query := r.db.Rebind(`
		INSERT INTO review_stats (day, reviews, correct, cards_added)
		VALUES (?, 0, 0, ?)
		ON CONFLICT (day) DO UPDATE SET
			cards_added = review_stats.cards_added + excluded.cards_added
	`)
	if _, err := r.db.ExecContext(ctx, query, models.DayKey(day), count); err != nil {
		return fmt.Errorf("failed to record added cards: %v", err)
	}
	return nil
}

// Day returns the counters for one date, zeroed when nothing was
// recorded yet.
func (r *StatisticsRepository) Day(ctx context.Context, day time.Time) (models.DailyReviewStats, error) {
	query := r.db.Rebind(`
		SELECT day, reviews, correct, cards_added
		FROM review_stats WHERE day = ?
	`)
	var stats models.DailyReviewStats
	if err := r.db.GetContext(ctx, &stats, query, models.DayKey(day)); err != nil {
		// No row yet for this day; report zeros.
		return models.DailyReviewStats{Day: models.DayKey(day)}, nil
	}
	return stats, nil
}

// Range returns the recorded days between from and to inclusive,
// oldest first. Days with no activity have no row.
func (r *StatisticsRepository) Range(ctx context.Context, from, to time.Time) ([]models.DailyReviewStats, error) {
	query := r.db.Rebind(`
		SELECT day, reviews, correct, cards_added
		FROM review_stats
		WHERE day >= ? AND day <= ?
		ORDER BY day
	`)
	var stats []models.DailyReviewStats
	if err := r.db.SelectContext(ctx, &stats, query, models.DayKey(from), models.DayKey(to)); err != nil {
		return nil, fmt.Errorf("failed to read statistics range: %v", err)
	}
	return stats, nil
}

// DeleteAll clears the statistics. Used by the full data reset.
func (r *StatisticsRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM review_stats`); err != nil {
		return fmt.Errorf("failed to clear statistics: %v", err)
	}
	return nil
}
