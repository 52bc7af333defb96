package models

import (
	"math"
	"time"
)

// Default SM-2 values for a freshly created card
const (
	InitialEaseFactor = 2.5
	MinEaseFactor     = 1.3
	MaxEaseFactor     = 2.5
)

// Thresholds for the weak-card predicate
const (
	WeakEaseThreshold     = 2.0
	WeakAccuracyThreshold = 60.0
)

// ReviewCard is a single scheduled vocabulary item. One card exists per
// distinct (lesson, source word) pair and is keyed by WordID.
type ReviewCard struct {
	WordID          string `json:"word_id" db:"word_id"`
	SourceWord      string `json:"source_word" db:"source_word"`
	TargetWord      string `json:"target_word" db:"target_word"`
	LanguagePair    string `json:"language_pair" db:"language_pair"` // e.g. "en_to_pt_br"
	Level           string `json:"level" db:"level"`                 // CEFR level (A1-C2)
	LessonID        string `json:"lesson_id" db:"lesson_id"`
	Pronunciation   string `json:"pronunciation,omitempty" db:"pronunciation"`
	ExampleSentence string `json:"example_sentence,omitempty" db:"example_sentence"`

	// SM-2 scheduling state
	EaseFactor     float64    `json:"ease_factor" db:"ease_factor"`
	Interval       int        `json:"interval" db:"interval"` // days until next review
	Repetitions    int        `json:"repetitions" db:"repetitions"`
	NextReviewDate time.Time  `json:"next_review_date" db:"next_review_date"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty" db:"last_reviewed_at"`
	LastQuality    int        `json:"last_quality" db:"last_quality"` // 0 until first review

	// Performance counters
	TotalReviews   int       `json:"total_reviews" db:"total_reviews"`
	CorrectReviews int       `json:"correct_reviews" db:"correct_reviews"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// NewReviewCard creates a card with default SM-2 state. The card is due
// immediately: interval 0 and next review on the creation date.
func NewReviewCard(wordID, sourceWord, targetWord, languagePair, level, lessonID string, today time.Time) ReviewCard {
	return ReviewCard{
		WordID:         wordID,
		SourceWord:     sourceWord,
		TargetWord:     targetWord,
		LanguagePair:   languagePair,
		Level:          level,
		LessonID:       lessonID,
		EaseFactor:     InitialEaseFactor,
		Interval:       0,
		Repetitions:    0,
		NextReviewDate: today,
		CreatedAt:      today,
	}
}

// IsDue reports whether the card's next review date has arrived or passed.
func (c *ReviewCard) IsDue(today time.Time) bool {
	return !c.NextReviewDate.After(today)
}

// AccuracyRate returns the percentage of correct reviews. A card that has
// never been reviewed has an accuracy of 0.
func (c *ReviewCard) AccuracyRate() float64 {
	if c.TotalReviews == 0 {
		return 0
	}
	return float64(c.CorrectReviews) / float64(c.TotalReviews) * 100
}

// IsWeak reports whether the card needs extra attention: low ease factor
// or low accuracy. Note that a never-reviewed card has accuracy 0 and is
// therefore always weak.
func (c *ReviewCard) IsWeak() bool {
	return c.EaseFactor < WeakEaseThreshold || c.AccuracyRate() < WeakAccuracyThreshold
}

// MasteryLevel classifies how well a card is known.
type MasteryLevel string

const (
	MasteryNew        MasteryLevel = "New"
	MasteryLearning   MasteryLevel = "Learning"
	MasteryFamiliar   MasteryLevel = "Familiar"
	MasteryProficient MasteryLevel = "Proficient"
	MasteryMastered   MasteryLevel = "Mastered"
)

// Mastery derives the card's mastery level from its repetition count and
// ease factor. Clauses are evaluated in order; the first match wins, and
// cards with many repetitions but a low ease factor fall back to Learning.
func (c *ReviewCard) Mastery() MasteryLevel {
	switch {
	case c.Repetitions == 0:
		return MasteryNew
	case c.Repetitions <= 2:
		return MasteryLearning
	case c.Repetitions <= 5 && c.EaseFactor >= 2.0:
		return MasteryFamiliar
	case c.Repetitions <= 10 && c.EaseFactor >= 2.2:
		return MasteryProficient
	case c.Repetitions > 10 && c.EaseFactor >= 2.4:
		return MasteryMastered
	default:
		return MasteryLearning
	}
}

// ClampEaseFactor bounds an ease factor to the valid SM-2 range.
func ClampEaseFactor(ef float64) float64 {
	return math.Min(MaxEaseFactor, math.Max(MinEaseFactor, ef))
}
