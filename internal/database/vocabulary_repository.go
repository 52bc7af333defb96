package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/vocabsrs/pkg/models"
)

// ErrNotFound is returned when a lookup references a missing row.
var ErrNotFound = errors.New("not found")

// VocabularyRepository stores the catalogue of encountered words. The
// in_schedule flag is never stored: it is computed per query from the
// presence of a matching card row, keeping the catalogue a pure read
// model over the scheduler.
type VocabularyRepository struct {
	db *sqlx.DB
}

// NewVocabularyRepository creates a repository over an open connection.
func NewVocabularyRepository(db *sqlx.DB) *VocabularyRepository {
	return &VocabularyRepository{db: db}
}

const vocabularySelect = `
	SELECT v.word_id, v.source, v.target, v.pronunciation, v.example_sentence,
		v.example_translation, v.notes, v.lesson_id, v.level, v.language_pair,
		v.category, v.added_at,
		EXISTS (SELECT 1 FROM cards c WHERE c.word_id = v.word_id) AS in_schedule
	FROM vocabulary v`

// Upsert inserts a catalogue entry or refreshes its content fields.
// Provenance (lesson, level, language pair) is kept from the first
// insert.
func (r *VocabularyRepository) Upsert(ctx context.Context, item models.VocabularyItem) error {
	query := r.db.Rebind(`
		INSERT INTO vocabulary (word_id, source, target, pronunciation, example_sentence,
			example_translation, notes, lesson_id, level, language_pair, category, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (word_id) DO UPDATE SET
			pronunciation = excluded.pronunciation,
			example_sentence = excluded.example_sentence,
			example_translation = excluded.example_translation,
			notes = excluded.notes,
			category = excluded.category
	`)
	_, err := r.db.ExecContext(ctx, query,
		item.WordID,
		item.Source,
		item.Target,
		item.Pronunciation,
		item.ExampleSentence,
		item.ExampleTranslation,
		item.Notes,
		item.LessonID,
		item.Level,
		item.LanguagePair,
		item.Category,
		item.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert vocabulary item %s: %v", item.WordID, err)
	}
	return nil
}

// Get returns one catalogue entry.
func (r *VocabularyRepository) Get(ctx context.Context, wordID string) (*models.VocabularyItem, error) {
	query := r.db.Rebind(vocabularySelect + ` WHERE v.word_id = ?`)
	var item models.VocabularyItem
	err := r.db.GetContext(ctx, &item, query, wordID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vocabulary item %s: %w", wordID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vocabulary item: %v", err)
	}
	return &item, nil
}

// All returns the whole catalogue, oldest first.
func (r *VocabularyRepository) All(ctx context.Context) ([]models.VocabularyItem, error) {
	query := vocabularySelect + ` ORDER BY v.added_at, v.word_id`
	var items []models.VocabularyItem
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("failed to list vocabulary: %v", err)
	}
	return items, nil
}

// Search matches the query against source and target words.
func (r *VocabularyRepository) Search(ctx context.Context, search string) ([]models.VocabularyItem, error) {
	pattern := "%" + search + "%"
	query := r.db.Rebind(vocabularySelect + `
		WHERE v.source LIKE ? OR v.target LIKE ?
		ORDER BY v.source`)
	var items []models.VocabularyItem
	if err := r.db.SelectContext(ctx, &items, query, pattern, pattern); err != nil {
		return nil, fmt.Errorf("failed to search vocabulary: %v", err)
	}
	return items, nil
}

// ByLesson returns the catalogue entries a lesson introduced.
func (r *VocabularyRepository) ByLesson(ctx context.Context, lessonID string) ([]models.VocabularyItem, error) {
	query := r.db.Rebind(vocabularySelect + ` WHERE v.lesson_id = ? ORDER BY v.source`)
	var items []models.VocabularyItem
	if err := r.db.SelectContext(ctx, &items, query, lessonID); err != nil {
		return nil, fmt.Errorf("failed to list vocabulary by lesson: %v", err)
	}
	return items, nil
}

// ByLevel returns the catalogue entries for a CEFR level.
func (r *VocabularyRepository) ByLevel(ctx context.Context, level string) ([]models.VocabularyItem, error) {
	query := r.db.Rebind(vocabularySelect + ` WHERE v.level = ? ORDER BY v.source`)
	var items []models.VocabularyItem
	if err := r.db.SelectContext(ctx, &items, query, level); err != nil {
		return nil, fmt.Errorf("failed to list vocabulary by level: %v", err)
	}
	return items, nil
}

// ByCategory returns the catalogue entries with a category tag.
func (r *VocabularyRepository) ByCategory(ctx context.Context, category models.VocabularyCategory) ([]models.VocabularyItem, error) {
	query := r.db.Rebind(vocabularySelect + ` WHERE v.category = ? ORDER BY v.source`)
	var items []models.VocabularyItem
	if err := r.db.SelectContext(ctx, &items, query, category); err != nil {
		return nil, fmt.Errorf("failed to list vocabulary by category: %v", err)
	}
	return items, nil
}

// NotInSchedule returns catalogue entries that have no review card yet,
// i.e. candidates for promotion into the scheduler.
func (r *VocabularyRepository) NotInSchedule(ctx context.Context) ([]models.VocabularyItem, error) {
	query := vocabularySelect + `
		WHERE NOT EXISTS (SELECT 1 FROM cards c WHERE c.word_id = v.word_id)
		ORDER BY v.added_at, v.word_id`
	var items []models.VocabularyItem
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("failed to list unscheduled vocabulary: %v", err)
	}
	return items, nil
}

// Delete removes a catalogue entry. Deleting a missing id is a no-op.
func (r *VocabularyRepository) Delete(ctx context.Context, wordID string) error {
	query := r.db.Rebind(`DELETE FROM vocabulary WHERE word_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, wordID); err != nil {
		return fmt.Errorf("failed to delete vocabulary item %s: %v", wordID, err)
	}
	return nil
}

// DeleteAll clears the catalogue. Used by the full data reset.
func (r *VocabularyRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM vocabulary`); err != nil {
		return fmt.Errorf("failed to clear vocabulary: %v", err)
	}
	return nil
}
