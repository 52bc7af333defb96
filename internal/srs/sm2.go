// Package srs implements the SM-2 spaced-repetition scheduling
// algorithm. Review is a pure function: it never reads the clock and
// never touches storage, so the same inputs always produce the same
// schedule.
package srs

import (
	"math"
	"time"

	"github.com/example/vocabsrs/pkg/models"
)

// Quality is the recall grade the learner gives after seeing a card.
// The UI exposes four grades; 3 is the success threshold.
type Quality int

const (
	// QualityForgot means the answer could not be recalled.
	QualityForgot Quality = 1
	// QualityHard means a correct answer with serious difficulty.
	QualityHard Quality = 3
	// QualityGood means a correct answer after some hesitation.
	QualityGood Quality = 4
	// QualityEasy means a perfect, immediate answer.
	QualityEasy Quality = 5
)

// IsSuccessful reports whether the grade counts as a successful recall.
func (q Quality) IsSuccessful() bool {
	return q >= QualityHard
}

// Valid reports whether the grade is inside the 1-5 range the
// algorithm is defined for.
func (q Quality) Valid() bool {
	return q >= 1 && q <= 5
}

// String returns the label the grade is shown under.
func (q Quality) String() string {
	switch q {
	case QualityForgot:
		return "Forgot"
	case QualityHard:
		return "Hard"
	case QualityGood:
		return "Good"
	case QualityEasy:
		return "Easy"
	default:
		return "Unknown"
	}
}

// SM2 holds the tunable parameters of the algorithm. The zero value is
// not usable; construct with New.
type SM2 struct {
	// PassThreshold is the lowest quality that counts as success.
	PassThreshold Quality
	// FailurePenalty is subtracted from the ease factor on a failed
	// recall.
	FailurePenalty float64
	// SecondInterval is the interval in days after the second
	// consecutive success. The first success always schedules one day
	// out.
	SecondInterval int
}

// New returns an SM2 instance with the standard parameters.
func New() *SM2 {
	return &SM2{
		PassThreshold:  QualityHard,
		FailurePenalty: 0.2,
		SecondInterval: 6,
	}
}

// Review applies one review outcome to a card and returns the updated
// card. The input card is not modified. today is the calendar date of
// the review; it is an explicit parameter so callers control the clock.
func (s *SM2) Review(card models.ReviewCard, quality Quality, today time.Time) models.ReviewCard {
	success := quality >= s.PassThreshold

	if success {
		card.Repetitions++
		switch card.Repetitions {
		case 1:
			card.Interval = 1
		case 2:
			card.Interval = s.SecondInterval
		default:
			// Grow the interval by the ease factor as it stood before
			// this review.
			card.Interval = int(math.Round(float64(card.Interval) * card.EaseFactor))
		}

		delta := 0.1 - float64(5-quality)*(0.08+float64(5-quality)*0.02)
		card.EaseFactor = models.ClampEaseFactor(card.EaseFactor + delta)
	} else {
		card.Repetitions = 0
		card.Interval = 1
		card.EaseFactor = models.ClampEaseFactor(card.EaseFactor - s.FailurePenalty)
	}

	card.NextReviewDate = today.AddDate(0, 0, card.Interval)
	reviewedAt := today
	card.LastReviewedAt = &reviewedAt
	card.LastQuality = int(quality)
	card.TotalReviews++
	if success {
		card.CorrectReviews++
	}

	return card
}
