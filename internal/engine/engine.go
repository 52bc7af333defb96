// Package engine owns the review-card collection and everything that
// mutates it: lesson ingestion, scheduled reviews, removal and reset.
// Derived views (due, weak, mastery breakdown) are recomputed on demand
// from the in-memory store, which is the source of truth for the
// running process. Durable storage and the statistics recorder are
// injected collaborators; their failures are logged and never corrupt
// in-memory state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/vocabsrs/internal/srs"
	"github.com/example/vocabsrs/pkg/models"
)

var (
	// ErrCardNotFound is returned when a review or removal references a
	// word id the store does not hold.
	ErrCardNotFound = errors.New("review card not found")
	// ErrInvalidQuality is returned for a grade outside the 1-5 range.
	ErrInvalidQuality = errors.New("invalid review quality")
)

// Storage persists the card collection. Cards are written one row at a
// time keyed by word id, so a single review does not rewrite the whole
// collection.
type Storage interface {
	LoadAll(ctx context.Context) ([]models.ReviewCard, error)
	SaveCard(ctx context.Context, card models.ReviewCard) error
	DeleteCard(ctx context.Context, wordID string) error
	DeleteAll(ctx context.Context) error
}

// ReviewRecorder is notified of review outcomes and newly added cards
// for downstream reporting. The engine never depends on its results.
type ReviewRecorder interface {
	RecordReview(ctx context.Context, day time.Time, correct bool) error
	RecordCardsAdded(ctx context.Context, day time.Time, count int) error
}

// LessonEntry is one vocabulary item supplied by a completed lesson.
type LessonEntry struct {
	Source             string
	Target             string
	Pronunciation      string
	Example            string
	ExampleTranslation string
	Category           models.VocabularyCategory
}

// IngestReport summarizes one ingestion batch. Entry-level problems are
// collected here instead of aborting the batch.
type IngestReport struct {
	Added   int
	Skipped int
	Errors  []string
}

// LoadReport describes the result of loading persisted state.
type LoadReport struct {
	Loaded    int
	Recovered bool // storage was unreadable and the engine fell back to empty
}

// Engine ties the store, the scheduling algorithm and the injected
// collaborators together. All exported methods are safe for concurrent
// use; a single mutex serializes the lookup-review-update sequence.
type Engine struct {
	mu        sync.Mutex
	store     *Store
	alg       *srs.SM2
	storage   Storage
	recorder  ReviewRecorder
	listeners []Listener
	logger    *slog.Logger
}

// New creates an engine backed by the given storage. The recorder may
// be nil when no statistics collaborator is attached.
func New(storage Storage, recorder ReviewRecorder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    NewStore(),
		alg:      srs.New(),
		storage:  storage,
		recorder: recorder,
		logger:   logger.With("component", "engine"),
	}
}

// AddListener registers a change listener. Not safe to call
// concurrently with mutations.
func (e *Engine) AddListener(l Listener) {
	e.listeners = append(e.listeners, l)
}

// Load reads the persisted collection into the store. Malformed or
// unreadable storage is a data-loss event, not a fatal one: the engine
// logs a warning and starts from an empty collection.
func (e *Engine) Load(ctx context.Context) LoadReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Clear()
	cards, err := e.storage.LoadAll(ctx)
	if err != nil {
		e.logger.Warn("failed to load persisted cards, starting with an empty collection",
			"error", err)
		return LoadReport{Recovered: true}
	}
	for _, card := range cards {
		e.store.InsertIfAbsent(card)
	}
	e.logger.Info("loaded review cards", "count", e.store.Len())
	return LoadReport{Loaded: e.store.Len()}
}

// CardID derives the stable word id for a (lesson, source word) pair.
// The derivation is deterministic so re-ingesting a lesson dedupes
// against existing cards.
func CardID(lessonID, source string) string {
	slug := strings.ToLower(strings.TrimSpace(source))
	slug = strings.Join(strings.Fields(slug), "_")
	var b strings.Builder
	for _, r := range slug {
		if r == '_' || r == '-' || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') || r > 127 {
			b.WriteRune(r)
		}
	}
	return lessonID + "_" + b.String()
}

// AddCard inserts a card unless its word id is already scheduled.
// Repeated ingestion is a silent no-op. The new card is flushed to
// storage; a write failure is logged and the in-memory state stands.
func (e *Engine) AddCard(ctx context.Context, card models.ReviewCard) (bool, error) {
	if card.WordID == "" {
		return false, fmt.Errorf("add card: empty word id")
	}

	e.mu.Lock()
	added := e.store.InsertIfAbsent(card)
	e.mu.Unlock()
	if !added {
		return false, nil
	}

	e.flush(ctx, card)
	e.recordAdded(ctx, card.CreatedAt, 1)
	e.notify(ChangeEvent{Kind: ChangeCardsAdded, WordIDs: []string{card.WordID}, At: time.Now()})
	return true, nil
}

// AddCardsFromLesson creates one card per lesson entry with the
// standard creation defaults. A bad entry is reported and skipped, it
// never aborts the batch.
func (e *Engine) AddCardsFromLesson(ctx context.Context, lessonID, languagePair, level string, entries []LessonEntry, today time.Time) IngestReport {
	report := IngestReport{}
	var addedIDs []string

	for i, entry := range entries {
		if strings.TrimSpace(entry.Source) == "" || strings.TrimSpace(entry.Target) == "" {
			report.Errors = append(report.Errors, fmt.Sprintf("entry %d: missing source or target word", i+1))
			continue
		}

		card := models.NewReviewCard(CardID(lessonID, entry.Source), entry.Source, entry.Target, languagePair, level, lessonID, today)
		card.Pronunciation = entry.Pronunciation
		card.ExampleSentence = entry.Example

		e.mu.Lock()
		added := e.store.InsertIfAbsent(card)
		e.mu.Unlock()
		if !added {
			report.Skipped++
			continue
		}

		e.flush(ctx, card)
		report.Added++
		addedIDs = append(addedIDs, card.WordID)
	}

	if report.Added > 0 {
		e.recordAdded(ctx, today, report.Added)
		e.notify(ChangeEvent{Kind: ChangeCardsAdded, WordIDs: addedIDs, At: time.Now()})
	}
	return report
}

// PromoteItem schedules a catalogue word for review. Promoting a word
// that already has a card is a no-op.
func (e *Engine) PromoteItem(ctx context.Context, item models.VocabularyItem, today time.Time) (bool, error) {
	return e.AddCard(ctx, models.NewCardFromVocabulary(item, today))
}

// Review applies a quality grade to a scheduled card and returns the
// updated card. Unknown word ids yield ErrCardNotFound so one stale
// reference cannot take down a review session.
func (e *Engine) Review(ctx context.Context, wordID string, quality srs.Quality, today time.Time) (models.ReviewCard, error) {
	if !quality.Valid() {
		return models.ReviewCard{}, fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}

	e.mu.Lock()
	card, ok := e.store.Get(wordID)
	if !ok {
		e.mu.Unlock()
		return models.ReviewCard{}, fmt.Errorf("%w: %s", ErrCardNotFound, wordID)
	}
	updated := e.alg.Review(card, quality, today)
	e.store.Update(wordID, updated)
	e.mu.Unlock()

	e.flush(ctx, updated)
	if e.recorder != nil {
		if err := e.recorder.RecordReview(ctx, models.DateOf(today), quality.IsSuccessful()); err != nil {
			e.logger.Warn("statistics recorder rejected review", "word_id", wordID, "error", err)
		}
	}
	e.notify(ChangeEvent{Kind: ChangeCardReviewed, WordIDs: []string{wordID}, At: time.Now()})
	return updated, nil
}

// RemoveCard deletes a card from the schedule. Removing an unknown id
// is an error so callers can distinguish it from a successful delete.
func (e *Engine) RemoveCard(ctx context.Context, wordID string) error {
	e.mu.Lock()
	removed := e.store.Remove(wordID)
	e.mu.Unlock()
	if !removed {
		return fmt.Errorf("%w: %s", ErrCardNotFound, wordID)
	}

	if err := e.storage.DeleteCard(ctx, wordID); err != nil {
		e.logger.Warn("failed to delete persisted card", "word_id", wordID, "error", err)
	}
	e.notify(ChangeEvent{Kind: ChangeCardRemoved, WordIDs: []string{wordID}, At: time.Now()})
	return nil
}

// Reset drops the entire collection, in memory and in storage.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	e.store.Clear()
	e.mu.Unlock()

	if err := e.storage.DeleteAll(ctx); err != nil {
		e.logger.Warn("failed to clear persisted cards", "error", err)
	}
	e.notify(ChangeEvent{Kind: ChangeReset, At: time.Now()})
	return nil
}

// Card returns a single card by word id.
func (e *Engine) Card(wordID string) (models.ReviewCard, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Get(wordID)
}

// AllCards returns the full collection in insertion order.
func (e *Engine) AllCards() []models.ReviewCard {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.All()
}

// DueCards returns every card whose next review date is today or
// earlier. A freshly created card is due immediately.
func (e *Engine) DueCards(today time.Time) []models.ReviewCard {
	e.mu.Lock()
	defer e.mu.Unlock()

	var due []models.ReviewCard
	for _, card := range e.store.All() {
		if card.IsDue(today) {
			due = append(due, card)
		}
	}
	return due
}

// WeakCards returns cards with a low ease factor or low accuracy.
// A never-reviewed card has accuracy 0 and is always included; see the
// weak-card predicate on models.ReviewCard.
func (e *Engine) WeakCards() []models.ReviewCard {
	e.mu.Lock()
	defer e.mu.Unlock()

	var weak []models.ReviewCard
	for _, card := range e.store.All() {
		if card.IsWeak() {
			weak = append(weak, card)
		}
	}
	return weak
}

// NewCards returns cards that have never been reviewed.
func (e *Engine) NewCards() []models.ReviewCard {
	e.mu.Lock()
	defer e.mu.Unlock()

	var fresh []models.ReviewCard
	for _, card := range e.store.All() {
		if card.TotalReviews == 0 {
			fresh = append(fresh, card)
		}
	}
	return fresh
}

// Stats computes the collection summary for the given date.
func (e *Engine) Stats(today time.Time) models.CollectionStats {
	return models.CollectionStatsFrom(e.AllCards(), today)
}

// SortByPriority orders cards for a review session: due cards first,
// then harder cards (lower ease factor) before easier ones.
func SortByPriority(cards []models.ReviewCard, today time.Time) {
	sort.SliceStable(cards, func(i, j int) bool {
		iDue, jDue := cards[i].IsDue(today), cards[j].IsDue(today)
		if iDue != jDue {
			return iDue
		}
		return cards[i].EaseFactor < cards[j].EaseFactor
	})
}

// flush writes one card to storage. Persistence is best effort: the
// in-memory store stays authoritative and a failed write only costs
// the most recent changes on the next launch.
func (e *Engine) flush(ctx context.Context, card models.ReviewCard) {
	if err := e.storage.SaveCard(ctx, card); err != nil {
		e.logger.Warn("failed to persist card", "word_id", card.WordID, "error", err)
	}
}

func (e *Engine) recordAdded(ctx context.Context, day time.Time, count int) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordCardsAdded(ctx, models.DateOf(day), count); err != nil {
		e.logger.Warn("statistics recorder rejected card count", "error", err)
	}
}

func (e *Engine) notify(event ChangeEvent) {
	for _, l := range e.listeners {
		l.CardsChanged(event)
	}
}
