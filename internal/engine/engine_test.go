package engine

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocabsrs/internal/srs"
	"github.com/example/vocabsrs/pkg/models"
)

// fakeStorage is an in-memory Storage used so the engine is testable
// without a database.
type fakeStorage struct {
	cards   map[string]models.ReviewCard
	loadErr error
	saveErr error
	saves   int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{cards: make(map[string]models.ReviewCard)}
}

func (f *fakeStorage) LoadAll(context.Context) ([]models.ReviewCard, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make([]models.ReviewCard, 0, len(f.cards))
	for _, c := range f.cards {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStorage) SaveCard(_ context.Context, card models.ReviewCard) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.cards[card.WordID] = card
	return nil
}

func (f *fakeStorage) DeleteCard(_ context.Context, wordID string) error {
	delete(f.cards, wordID)
	return nil
}

func (f *fakeStorage) DeleteAll(context.Context) error {
	f.cards = make(map[string]models.ReviewCard)
	return nil
}

type fakeRecorder struct {
	reviews    int
	correct    int
	cardsAdded int
	err        error
}

func (f *fakeRecorder) RecordReview(_ context.Context, _ time.Time, correct bool) error {
	if f.err != nil {
		return f.err
	}
	f.reviews++
	if correct {
		f.correct++
	}
	return nil
}

func (f *fakeRecorder) RecordCardsAdded(_ context.Context, _ time.Time, count int) error {
	if f.err != nil {
		return f.err
	}
	f.cardsAdded += count
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeStorage, *fakeRecorder) {
	t.Helper()
	storage := newFakeStorage()
	recorder := &fakeRecorder{}
	eng := New(storage, recorder, slog.Default())
	return eng, storage, recorder
}

func entries() []LessonEntry {
	return []LessonEntry{
		{Source: "hello", Target: "olá", Pronunciation: "oh-LAH"},
		{Source: "goodbye", Target: "tchau"},
		{Source: "thank you", Target: "obrigado", Example: "Obrigado pela ajuda."},
	}
}

func TestAddCardsFromLesson(t *testing.T) {
	eng, storage, recorder := newTestEngine(t)
	ctx := context.Background()

	report := eng.AddCardsFromLesson(ctx, "lesson_01", "en_to_pt_br", "A1", entries(), day(1))

	assert.Equal(t, 3, report.Added)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 3, len(eng.AllCards()))
	assert.Equal(t, 3, len(storage.cards), "new cards must be flushed to storage")
	assert.Equal(t, 3, recorder.cardsAdded)

	card, ok := eng.Card(CardID("lesson_01", "thank you"))
	require.True(t, ok)
	assert.Equal(t, "thank you", card.SourceWord)
	assert.Equal(t, "Obrigado pela ajuda.", card.ExampleSentence)
	assert.True(t, card.IsDue(day(1)))
}

func TestIngestionIsIdempotent(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	first := eng.AddCardsFromLesson(ctx, "lesson_01", "en_to_pt_br", "A1", entries(), day(1))
	require.Equal(t, 3, first.Added)

	// Review one card so we can prove re-ingestion does not reset it.
	wordID := CardID("lesson_01", "hello")
	_, err := eng.Review(ctx, wordID, srs.QualityGood, day(1))
	require.NoError(t, err)

	second := eng.AddCardsFromLesson(ctx, "lesson_01", "en_to_pt_br", "A1", entries(), day(2))
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 3, second.Skipped)
	assert.Equal(t, 3, len(eng.AllCards()))

	card, _ := eng.Card(wordID)
	assert.Equal(t, 1, card.Repetitions, "re-ingestion must not touch existing schedule state")
}

func TestBadEntryDoesNotAbortBatch(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	bad := []LessonEntry{
		{Source: "hello", Target: "olá"},
		{Source: "", Target: "vazio"},
		{Source: "goodbye", Target: "tchau"},
	}
	report := eng.AddCardsFromLesson(context.Background(), "lesson_01", "en_to_pt_br", "A1", bad, day(1))

	assert.Equal(t, 2, report.Added)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "entry 2")
}

func TestReviewUpdatesScheduleAndCollaborators(t *testing.T) {
	eng, storage, recorder := newTestEngine(t)
	ctx := context.Background()
	eng.AddCardsFromLesson(ctx, "lesson_01", "en_to_pt_br", "A1", entries(), day(1))
	wordID := CardID("lesson_01", "hello")

	var events []ChangeEvent
	eng.AddListener(ListenerFunc(func(ev ChangeEvent) { events = append(events, ev) }))

	updated, err := eng.Review(ctx, wordID, srs.QualityGood, day(1))
	require.NoError(t, err)

	assert.Equal(t, 1, updated.Repetitions)
	assert.Equal(t, 1, updated.Interval)
	assert.Equal(t, day(2), updated.NextReviewDate)

	persisted := storage.cards[wordID]
	assert.Equal(t, updated, persisted, "review must be flushed to storage")
	assert.Equal(t, 1, recorder.reviews)
	assert.Equal(t, 1, recorder.correct)

	require.Len(t, events, 1)
	assert.Equal(t, ChangeCardReviewed, events[0].Kind)
	assert.Equal(t, []string{wordID}, events[0].WordIDs)
}

func TestReviewUnknownCard(t *testing.T) {
	eng, _, recorder := newTestEngine(t)

	_, err := eng.Review(context.Background(), "nope", srs.QualityGood, day(1))
	assert.ErrorIs(t, err, ErrCardNotFound)
	assert.Equal(t, 0, recorder.reviews)
}

func TestReviewInvalidQuality(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	eng.AddCardsFromLesson(context.Background(), "lesson_01", "en_to_pt_br", "A1", entries(), day(1))

	_, err := eng.Review(context.Background(), CardID("lesson_01", "hello"), srs.Quality(0), day(1))
	assert.ErrorIs(t, err, ErrInvalidQuality)
}

func TestPersistenceFailureKeepsMemoryAuthoritative(t *testing.T) {
	eng, storage, _ := newTestEngine(t)
	ctx := context.Background()
	eng.AddCardsFromLesson(ctx, "lesson_01", "en_to_pt_br", "A1", entries(), day(1))
	wordID := CardID("lesson_01", "hello")

	storage.saveErr = errors.New("disk full")
	updated, err := eng.Review(ctx, wordID, srs.QualityGood, day(1))
	require.NoError(t, err, "a storage write failure must not fail the review")

	inMemory, _ := eng.Card(wordID)
	assert.Equal(t, updated, inMemory)
	assert.Equal(t, 1, inMemory.Repetitions)
}

func TestLoadRecoversFromCorruptStorage(t *testing.T) {
	storage := newFakeStorage()
	storage.loadErr = errors.New("unparseable collection")
	eng := New(storage, nil, slog.Default())

	report := eng.Load(context.Background())

	assert.True(t, report.Recovered)
	assert.Equal(t, 0, report.Loaded)
	assert.Empty(t, eng.AllCards())
}

func TestLoadRestoresPersistedCards(t *testing.T) {
	storage := newFakeStorage()
	eng := New(storage, nil, slog.Default())
	eng.AddCardsFromLesson(context.Background(), "lesson_01", "en_to_pt_br", "A1", entries(), day(1))

	reloaded := New(storage, nil, slog.Default())
	report := reloaded.Load(context.Background())

	assert.False(t, report.Recovered)
	assert.Equal(t, 3, report.Loaded)
	assert.Equal(t, 3, len(reloaded.AllCards()))
}

func TestDueCards(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()
	eng.AddCardsFromLesson(ctx, "lesson_01", "en_to_pt_br", "A1", entries(), day(1))

	// All cards are new, so all are due on creation day.
	assert.Len(t, eng.DueCards(day(1)), 3)

	// A successful review pushes one card out past today.
	_, err := eng.Review(ctx, CardID("lesson_01", "hello"), srs.QualityGood, day(1))
	require.NoError(t, err)

	due := eng.DueCards(day(1))
	assert.Len(t, due, 2)
	for _, c := range due {
		assert.True(t, c.IsDue(day(1)))
	}

	// The reviewed card becomes due again the next day.
	assert.Len(t, eng.DueCards(day(2)), 3)
}

func TestWeakCardsIncludesNeverReviewed(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()
	eng.AddCardsFromLesson(ctx, "lesson_01", "en_to_pt_br", "A1", entries(), day(1))

	// Every never-reviewed card has accuracy 0 and counts as weak.
	assert.Len(t, eng.WeakCards(), 3)

	// One good review lifts a card out of the weak set.
	_, err := eng.Review(ctx, CardID("lesson_01", "hello"), srs.QualityGood, day(1))
	require.NoError(t, err)
	assert.Len(t, eng.WeakCards(), 2)
}

func TestRemoveCard(t *testing.T) {
	eng, storage, _ := newTestEngine(t)
	ctx := context.Background()
	eng.AddCardsFromLesson(ctx, "lesson_01", "en_to_pt_br", "A1", entries(), day(1))
	wordID := CardID("lesson_01", "hello")

	require.NoError(t, eng.RemoveCard(ctx, wordID))
	_, ok := eng.Card(wordID)
	assert.False(t, ok)
	_, persisted := storage.cards[wordID]
	assert.False(t, persisted)

	assert.ErrorIs(t, eng.RemoveCard(ctx, wordID), ErrCardNotFound)
}

func TestReset(t *testing.T) {
	eng, storage, _ := newTestEngine(t)
	ctx := context.Background()
	eng.AddCardsFromLesson(ctx, "lesson_01", "en_to_pt_br", "A1", entries(), day(1))

	require.NoError(t, eng.Reset(ctx))
	assert.Empty(t, eng.AllCards())
	assert.Empty(t, storage.cards)
}

func TestPromoteItem(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	item := models.NewVocabularyItem("lesson_02_bom_dia", "bom dia", "good morning", "lesson_02", "A1", "pt_br_to_en", models.CategoryExpression, day(3))
	added, err := eng.PromoteItem(ctx, item, day(3))
	require.NoError(t, err)
	assert.True(t, added)

	again, err := eng.PromoteItem(ctx, item, day(4))
	require.NoError(t, err)
	assert.False(t, again, "promoting an already scheduled word is a no-op")
}

func TestStatsAndPriority(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()
	eng.AddCardsFromLesson(ctx, "lesson_01", "en_to_pt_br", "A1", entries(), day(1))
	_, err := eng.Review(ctx, CardID("lesson_01", "hello"), srs.QualityGood, day(1))
	require.NoError(t, err)

	stats := eng.Stats(day(1))
	assert.Equal(t, 3, stats.TotalCards)
	assert.Equal(t, 2, stats.DueToday)
	assert.Equal(t, 2, stats.NewCards)
	assert.Equal(t, 1, stats.LearningCards)

	cards := eng.AllCards()
	cards[1].EaseFactor = 1.5 // make one due card clearly harder
	SortByPriority(cards, day(1))
	assert.True(t, cards[0].IsDue(day(1)))
	assert.Equal(t, 1.5, cards[0].EaseFactor, "hardest due card comes first")
}

func TestCardID(t *testing.T) {
	assert.Equal(t, "lesson_01_hello", CardID("lesson_01", "hello"))
	assert.Equal(t, "lesson_01_thank_you", CardID("lesson_01", " Thank  You "))
	assert.Equal(t, CardID("lesson_01", "Hello"), CardID("lesson_01", "hello"),
		"derivation must be deterministic and case-insensitive")
	assert.Equal(t, "lesson_02_olá", CardID("lesson_02", "olá"))
}
