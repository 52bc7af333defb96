package models

import "time"

// CollectionStats summarizes the state of the whole card collection.
// It is recomputed on demand, never cached.
type CollectionStats struct {
	TotalCards        int     `json:"total_cards"`
	DueToday          int     `json:"due_today"`
	NewCards          int     `json:"new_cards"`
	LearningCards     int     `json:"learning_cards"`
	FamiliarCards     int     `json:"familiar_cards"`
	ProficientCards   int     `json:"proficient_cards"`
	MasteredCards     int     `json:"mastered_cards"`
	AverageEaseFactor float64 `json:"average_ease_factor"`
	AverageAccuracy   float64 `json:"average_accuracy"`
}

// CollectionStatsFrom computes stats over a set of cards. Average
// accuracy only considers cards that have been reviewed at least once.
func CollectionStatsFrom(cards []ReviewCard, today time.Time) CollectionStats {
	stats := CollectionStats{TotalCards: len(cards)}
	if len(cards) == 0 {
		return stats
	}

	var totalEase float64
	var accuracySum float64
	var reviewed int
	for i := range cards {
		c := &cards[i]
		if c.IsDue(today) {
			stats.DueToday++
		}
		switch c.Mastery() {
		case MasteryNew:
			stats.NewCards++
		case MasteryLearning:
			stats.LearningCards++
		case MasteryFamiliar:
			stats.FamiliarCards++
		case MasteryProficient:
			stats.ProficientCards++
		case MasteryMastered:
			stats.MasteredCards++
		}
		totalEase += c.EaseFactor
		if c.TotalReviews > 0 {
			reviewed++
			accuracySum += c.AccuracyRate()
		}
	}

	stats.AverageEaseFactor = totalEase / float64(len(cards))
	if reviewed > 0 {
		stats.AverageAccuracy = accuracySum / float64(reviewed)
	}
	return stats
}

// DayKey formats a timestamp as the ISO date key used for daily
// statistics rows.
func DayKey(t time.Time) string {
	return DateOf(t).Format("2006-01-02")
}

// DailyReviewStats holds per-day review counters maintained by the
// statistics collaborator. Day is an ISO date (YYYY-MM-DD).
type DailyReviewStats struct {
	Day        string `json:"day" db:"day"`
	Reviews    int    `json:"reviews" db:"reviews"`
	Correct    int    `json:"correct" db:"correct"`
	CardsAdded int    `json:"cards_added" db:"cards_added"`
}

// Accuracy returns the day's review accuracy as a percentage.
func (d *DailyReviewStats) Accuracy() float64 {
	if d.Reviews == 0 {
		return 0
	}
	return float64(d.Correct) / float64(d.Reviews) * 100
}
