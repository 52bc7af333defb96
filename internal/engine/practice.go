package engine

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/example/vocabsrs/pkg/models"
)

// PracticeSession is an ad-hoc quiz over a random subset of the
// collection. Practice is deliberately separate from scheduled review:
// answers are tallied in the session only and never reach the
// scheduling algorithm or the stored cards.
type PracticeSession struct {
	ID        string
	StartedAt time.Time

	cards    []models.ReviewCard
	answered map[string]bool // word id -> correct
}

// PracticeSummary reports how a practice session went.
type PracticeSummary struct {
	SessionID string
	Total     int
	Answered  int
	Correct   int
	Accuracy  float64
}

// NewPracticeSession draws count random cards from the store, or every
// card when count is zero, negative or larger than the collection. The
// drawn cards are copies; mutating them has no effect on the schedule.
func (e *Engine) NewPracticeSession(count int) *PracticeSession {
	cards := e.AllCards()

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	rnd.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	if count > 0 && count < len(cards) {
		cards = cards[:count]
	}

	return &PracticeSession{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		cards:     cards,
		answered:  make(map[string]bool),
	}
}

// Cards returns the drawn cards in quiz order.
func (s *PracticeSession) Cards() []models.ReviewCard {
	return s.cards
}

// Record stores the outcome for one card. Re-answering a card
// overwrites the earlier outcome.
func (s *PracticeSession) Record(wordID string, correct bool) {
	s.answered[wordID] = correct
}

// Summary tallies the session so far.
func (s *PracticeSession) Summary() PracticeSummary {
	summary := PracticeSummary{
		SessionID: s.ID,
		Total:     len(s.cards),
		Answered:  len(s.answered),
	}
	for _, correct := range s.answered {
		if correct {
			summary.Correct++
		}
	}
	if summary.Answered > 0 {
		summary.Accuracy = float64(summary.Correct) / float64(summary.Answered) * 100
	}
	return summary
}
