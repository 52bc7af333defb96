package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocabsrs/pkg/models"
)

func sampleItem(wordID, source, target string) models.VocabularyItem {
	return models.NewVocabularyItem(wordID, source, target, "lesson_01", "A1", "en_to_pt_br", models.CategoryPhrase, day(15))
}

func TestVocabularyUpsertAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewVocabularyRepository(db)
	ctx := context.Background()

	item := sampleItem("lesson_01_hello", "hello", "olá")
	item.Notes = "greeting"
	require.NoError(t, repo.Upsert(ctx, item))

	got, err := repo.Get(ctx, "lesson_01_hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Source)
	assert.Equal(t, "greeting", got.Notes)
	assert.Equal(t, models.CategoryPhrase, got.Category)
	assert.False(t, got.InSchedule)

	// Upserting again refreshes content without duplicating the row.
	item.Notes = "informal greeting"
	require.NoError(t, repo.Upsert(ctx, item))
	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "informal greeting", all[0].Notes)
}

func TestVocabularyGetMissing(t *testing.T) {
	repo := NewVocabularyRepository(testDB(t))

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVocabularyInScheduleIsDerivedFromCards(t *testing.T) {
	db := testDB(t)
	vocab := NewVocabularyRepository(db)
	cards := NewCardRepository(db)
	ctx := context.Background()

	require.NoError(t, vocab.Upsert(ctx, sampleItem("lesson_01_hello", "hello", "olá")))
	require.NoError(t, vocab.Upsert(ctx, sampleItem("lesson_01_goodbye", "goodbye", "tchau")))

	// Scheduling one word flips its in_schedule flag without any write
	// to the vocabulary table.
	require.NoError(t, cards.SaveCard(ctx, sampleCard("lesson_01_hello")))

	hello, err := vocab.Get(ctx, "lesson_01_hello")
	require.NoError(t, err)
	assert.True(t, hello.InSchedule)

	goodbye, err := vocab.Get(ctx, "lesson_01_goodbye")
	require.NoError(t, err)
	assert.False(t, goodbye.InSchedule)

	unscheduled, err := vocab.NotInSchedule(ctx)
	require.NoError(t, err)
	require.Len(t, unscheduled, 1)
	assert.Equal(t, "lesson_01_goodbye", unscheduled[0].WordID)

	// Removing the card reverts the read model.
	require.NoError(t, cards.DeleteCard(ctx, "lesson_01_hello"))
	hello, err = vocab.Get(ctx, "lesson_01_hello")
	require.NoError(t, err)
	assert.False(t, hello.InSchedule)
}

func TestVocabularySearch(t *testing.T) {
	repo := NewVocabularyRepository(testDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, sampleItem("w1", "good morning", "bom dia")))
	require.NoError(t, repo.Upsert(ctx, sampleItem("w2", "goodbye", "tchau")))
	require.NoError(t, repo.Upsert(ctx, sampleItem("w3", "hello", "olá")))

	matches, err := repo.Search(ctx, "good")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	// Target-side matches count too.
	matches, err = repo.Search(ctx, "tchau")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "w2", matches[0].WordID)
}

func TestVocabularyByLessonAndLevel(t *testing.T) {
	repo := NewVocabularyRepository(testDB(t))
	ctx := context.Background()

	a1 := sampleItem("w1", "hello", "olá")
	b2 := sampleItem("w2", "nevertheless", "contudo")
	b2.LessonID = "lesson_09"
	b2.Level = "B2"
	require.NoError(t, repo.Upsert(ctx, a1))
	require.NoError(t, repo.Upsert(ctx, b2))

	byLesson, err := repo.ByLesson(ctx, "lesson_09")
	require.NoError(t, err)
	require.Len(t, byLesson, 1)
	assert.Equal(t, "w2", byLesson[0].WordID)

	byLevel, err := repo.ByLevel(ctx, "A1")
	require.NoError(t, err)
	require.Len(t, byLevel, 1)
	assert.Equal(t, "w1", byLevel[0].WordID)
}

func TestVocabularyByCategory(t *testing.T) {
	repo := NewVocabularyRepository(testDB(t))
	ctx := context.Background()

	phrase := sampleItem("w1", "bom dia", "good morning")
	noun := sampleItem("w2", "casa", "house")
	noun.Category = models.CategoryNoun
	require.NoError(t, repo.Upsert(ctx, phrase))
	require.NoError(t, repo.Upsert(ctx, noun))

	nouns, err := repo.ByCategory(ctx, models.CategoryNoun)
	require.NoError(t, err)
	require.Len(t, nouns, 1)
	assert.Equal(t, "w2", nouns[0].WordID)
}
