package models

import (
	"strings"
	"time"
)

// VocabularyCategory is a rough part-of-speech / usage tag for a
// catalogue entry.
type VocabularyCategory string

const (
	CategoryNoun       VocabularyCategory = "noun"
	CategoryVerb       VocabularyCategory = "verb"
	CategoryAdjective  VocabularyCategory = "adjective"
	CategoryAdverb     VocabularyCategory = "adverb"
	CategoryPhrase     VocabularyCategory = "phrase"
	CategoryExpression VocabularyCategory = "expression"
	CategoryIdiom      VocabularyCategory = "idiom"
	CategoryGrammar    VocabularyCategory = "grammar"
	CategoryOther      VocabularyCategory = "other"
)

// Categories lists all known vocabulary categories.
func Categories() []VocabularyCategory {
	return []VocabularyCategory{
		CategoryNoun, CategoryVerb, CategoryAdjective, CategoryAdverb,
		CategoryPhrase, CategoryExpression, CategoryIdiom,
		CategoryGrammar, CategoryOther,
	}
}

// VocabularyItem is a catalogue entry for a word the learner has
// encountered. It never carries scheduling state: InSchedule is a read
// model computed from the presence of a ReviewCard with the same WordID.
type VocabularyItem struct {
	WordID             string             `json:"word_id" db:"word_id"`
	Source             string             `json:"source" db:"source"`
	Target             string             `json:"target" db:"target"`
	Pronunciation      string             `json:"pronunciation,omitempty" db:"pronunciation"`
	ExampleSentence    string             `json:"example_sentence,omitempty" db:"example_sentence"`
	ExampleTranslation string             `json:"example_translation,omitempty" db:"example_translation"`
	Notes              string             `json:"notes,omitempty" db:"notes"`
	LessonID           string             `json:"lesson_id" db:"lesson_id"`
	Level              string             `json:"level" db:"level"`
	LanguagePair       string             `json:"language_pair" db:"language_pair"`
	Category           VocabularyCategory `json:"category" db:"category"`
	InSchedule         bool               `json:"in_schedule" db:"in_schedule"`
	AddedAt            time.Time          `json:"added_at" db:"added_at"`
}

// NewVocabularyItem creates a catalogue entry with the given provenance.
func NewVocabularyItem(wordID, source, target, lessonID, level, languagePair string, category VocabularyCategory, today time.Time) VocabularyItem {
	if category == "" {
		category = CategoryOther
	}
	return VocabularyItem{
		WordID:       wordID,
		Source:       source,
		Target:       target,
		LessonID:     lessonID,
		Level:        level,
		LanguagePair: languagePair,
		Category:     category,
		AddedAt:      today,
	}
}

// Matches reports whether the item matches a free-text search query
// against the source or target word.
func (v *VocabularyItem) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(v.Source), q) ||
		strings.Contains(strings.ToLower(v.Target), q)
}

// NewCardFromVocabulary promotes a catalogue item into a review card
// with default scheduling state.
func NewCardFromVocabulary(item VocabularyItem, today time.Time) ReviewCard {
	card := NewReviewCard(item.WordID, item.Source, item.Target, item.LanguagePair, item.Level, item.LessonID, today)
	card.Pronunciation = item.Pronunciation
	card.ExampleSentence = item.ExampleSentence
	return card
}
