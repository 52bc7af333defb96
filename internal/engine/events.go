package engine

import "time"

// ChangeKind identifies what mutated the card collection.
type ChangeKind string

const (
	ChangeCardsAdded   ChangeKind = "cards_added"
	ChangeCardReviewed ChangeKind = "card_reviewed"
	ChangeCardRemoved  ChangeKind = "card_removed"
	ChangeReset        ChangeKind = "reset"
)

// ChangeEvent describes one mutation of the card collection. Hosts use
// it to refresh derived views without polling the engine.
type ChangeEvent struct {
	Kind    ChangeKind
	WordIDs []string
	At      time.Time
}

// Listener receives change events after each mutation. Listeners are
// called synchronously on the mutating goroutine and must not call
// back into the engine.
type Listener interface {
	CardsChanged(event ChangeEvent)
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(event ChangeEvent)

// CardsChanged implements Listener.
func (f ListenerFunc) CardsChanged(event ChangeEvent) {
	f(event)
}
