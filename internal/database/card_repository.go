package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/vocabsrs/pkg/models"
)

// CardRepository is the durable side of the review-card store. Each
// card is one keyed row, so persisting a review rewrites a single row
// rather than the whole collection.
type CardRepository struct {
	db *sqlx.DB
}

// NewCardRepository creates a repository over an open connection.
func NewCardRepository(db *sqlx.DB) *CardRepository {
	return &CardRepository{db: db}
}

const cardColumns = `word_id, source_word, target_word, language_pair, level, lesson_id,
	pronunciation, example_sentence, ease_factor, interval, repetitions,
	next_review_date, last_reviewed_at, last_quality, total_reviews,
	correct_reviews, created_at`

// LoadAll returns every persisted card, oldest first.
func (r *CardRepository) LoadAll(ctx context.Context) ([]models.ReviewCard, error) {
	query := `SELECT ` + cardColumns + ` FROM cards ORDER BY created_at, word_id`
	var cards []models.ReviewCard
	if err := r.db.SelectContext(ctx, &cards, query); err != nil {
		return nil, fmt.Errorf("failed to load cards: %v", err)
	}
	return cards, nil
}

// SaveCard inserts or replaces the row for the card's word id.
func (r *CardRepository) SaveCard(ctx context.Context, card models.ReviewCard) error {
	query := r.db.Rebind(`
		INSERT INTO cards (` + cardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (word_id) DO UPDATE SET
			ease_factor = excluded.ease_factor,
			interval = excluded.interval,
			repetitions = excluded.repetitions,
			next_review_date = excluded.next_review_date,
			last_reviewed_at = excluded.last_reviewed_at,
			last_quality = excluded.last_quality,
			total_reviews = excluded.total_reviews,
			correct_reviews = excluded.correct_reviews
	`)
	_, err := r.db.ExecContext(ctx, query,
		card.WordID,
		card.SourceWord,
		card.TargetWord,
		card.LanguagePair,
		card.Level,
		card.LessonID,
		card.Pronunciation,
		card.ExampleSentence,
		card.EaseFactor,
		card.Interval,
		card.Repetitions,
		card.NextReviewDate,
		card.LastReviewedAt,
		card.LastQuality,
		card.TotalReviews,
		card.CorrectReviews,
		card.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save card %s: %v", card.WordID, err)
	}
	return nil
}

// DeleteCard removes one card row. Deleting a missing id is a no-op.
func (r *CardRepository) DeleteCard(ctx context.Context, wordID string) error {
	query := r.db.Rebind(`DELETE FROM cards WHERE word_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, wordID); err != nil {
		return fmt.Errorf("failed to delete card %s: %v", wordID, err)
	}
	return nil
}

// DeleteAll clears the card table. Used by the full data reset.
func (r *CardRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cards`); err != nil {
		return fmt.Errorf("failed to clear cards: %v", err)
	}
	return nil
}
