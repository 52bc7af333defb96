package engine

import "github.com/example/vocabsrs/pkg/models"

// Store is the in-memory collection of review cards, keyed by word id.
// It preserves insertion order for enumeration, though that order
// carries no scheduling meaning. The store is the source of truth for
// the running process; durable storage trails it.
//
// Store itself is not goroutine safe; the Engine serializes access.
type Store struct {
	order []string
	cards map[string]models.ReviewCard
}

// NewStore creates an empty card store.
func NewStore() *Store {
	return &Store{cards: make(map[string]models.ReviewCard)}
}

// InsertIfAbsent adds a card unless one with the same word id already
// exists. It reports whether the card was added, so repeated ingestion
// of the same word is a silent no-op.
func (s *Store) InsertIfAbsent(card models.ReviewCard) bool {
	if _, ok := s.cards[card.WordID]; ok {
		return false
	}
	s.cards[card.WordID] = card
	s.order = append(s.order, card.WordID)
	return true
}

// Update replaces the stored card for the given word id. It reports
// whether the card existed; updating a missing id is a no-op and
// callers are expected to check existence first.
func (s *Store) Update(wordID string, card models.ReviewCard) bool {
	if _, ok := s.cards[wordID]; !ok {
		return false
	}
	card.WordID = wordID
	s.cards[wordID] = card
	return true
}

// Remove deletes a card. Removing a missing id is a no-op.
func (s *Store) Remove(wordID string) bool {
	if _, ok := s.cards[wordID]; !ok {
		return false
	}
	delete(s.cards, wordID)
	for i, id := range s.order {
		if id == wordID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the card for a word id.
func (s *Store) Get(wordID string) (models.ReviewCard, bool) {
	card, ok := s.cards[wordID]
	return card, ok
}

// All returns every card in insertion order.
func (s *Store) All() []models.ReviewCard {
	out := make([]models.ReviewCard, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.cards[id])
	}
	return out
}

// Len returns the number of stored cards.
func (s *Store) Len() int {
	return len(s.order)
}

// Clear removes every card.
func (s *Store) Clear() {
	s.order = nil
	s.cards = make(map[string]models.ReviewCard)
}
