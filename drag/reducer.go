// Package drag translates raw pointer drag gestures into concrete board
// operations. Drop targets are ambiguous at the pointer level (a column
// body, a specific card); the reducer resolves them into exactly one
// reorder or move, committed only at drag-end.
package drag

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"zainzo-board/domain"
)

// Kind discriminates drag payloads.
type Kind int

const (
	// KindNone marks the absence of a payload (dropped outside any target).
	KindNone Kind = iota
	KindCard
	KindColumn
)

// ParseKind maps the wire discriminator to a Kind.
func ParseKind(s string) Kind {
	switch s {
	case "card":
		return KindCard
	case "column":
		return KindColumn
	default:
		return KindNone
	}
}

// Item identifies a dragged or hovered board element.
type Item struct {
	Kind     Kind
	CardID   string
	ColumnID string
}

// Board is the store surface the reducer drives.
type Board interface {
	Snapshot() domain.Board
	MoveCard(ctx context.Context, cardID, fromColumnID, toColumnID string) error
	ReorderCards(columnID string, oldIndex, newIndex int) error
	ReorderColumns(oldIndex, newIndex int) error
}

// Reducer tracks one drag gesture at a time.
type Reducer struct {
	store  Board
	logger *log.Logger

	mu     sync.Mutex
	active Item
	hover  Item
}

// New creates a Reducer over the given store.
func New(store Board, logger *log.Logger) *Reducer {
	if store == nil {
		panic("drag.New: board store is required")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Reducer{store: store, logger: logger}
}

// Start begins a gesture. Completed cards are not draggable; starting on
// one leaves the reducer inactive so the matching End is a no-op.
func (r *Reducer) Start(item Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = Item{}
	r.hover = Item{}

	switch item.Kind {
	case KindCard:
		b := r.store.Snapshot()
		card, ok := b.Cards[item.CardID]
		if !ok || card.Completed {
			r.logger.Debugf("drag: refusing gesture on card %s", item.CardID)
			return
		}
		r.active = item
	case KindColumn:
		r.active = item
	case KindNone:
	}
}

// Over records the current hover target for visual affordance only. It
// never mutates the board; commitment happens exclusively at drag-end.
func (r *Reducer) Over(item Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active.Kind == KindNone {
		return
	}
	r.hover = item
}

// Hover returns the transient drop target, for highlight rendering.
func (r *Reducer) Hover() Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hover
}

// End resolves the gesture against the drop target and commits the
// resulting board operation, if any.
func (r *Reducer) End(ctx context.Context, over Item) error {
	r.mu.Lock()
	active := r.active
	r.active = Item{}
	r.hover = Item{}
	r.mu.Unlock()

	if active.Kind == KindNone || over.Kind == KindNone {
		return nil
	}

	switch active.Kind {
	case KindColumn:
		if over.Kind != KindColumn || over.ColumnID == active.ColumnID {
			return nil
		}
		return r.reorderColumns(active.ColumnID, over.ColumnID)

	case KindCard:
		switch over.Kind {
		case KindColumn:
			// Dropped on a column's empty area: cross-column move, appended.
			if over.ColumnID == active.ColumnID {
				return nil
			}
			return r.store.MoveCard(ctx, active.CardID, active.ColumnID, over.ColumnID)

		case KindCard:
			if over.CardID == active.CardID {
				return nil
			}
			if over.ColumnID != active.ColumnID {
				// Dropped over a card in another column: the target card's
				// position is ignored, the card is appended.
				return r.store.MoveCard(ctx, active.CardID, active.ColumnID, over.ColumnID)
			}
			return r.reorderWithin(active.ColumnID, active.CardID, over.CardID)
		}
	}
	return nil
}

func (r *Reducer) reorderColumns(activeID, overID string) error {
	b := r.store.Snapshot()
	oldIndex, newIndex := -1, -1
	for i, col := range b.Columns {
		if col.ID == activeID {
			oldIndex = i
		}
		if col.ID == overID {
			newIndex = i
		}
	}
	if oldIndex < 0 || newIndex < 0 || oldIndex == newIndex {
		return nil
	}
	return r.store.ReorderColumns(oldIndex, newIndex)
}

func (r *Reducer) reorderWithin(columnID, activeCardID, overCardID string) error {
	b := r.store.Snapshot()
	var col *domain.Column
	for i := range b.Columns {
		if b.Columns[i].ID == columnID {
			col = &b.Columns[i]
			break
		}
	}
	if col == nil {
		return nil
	}
	oldIndex, newIndex := -1, -1
	for i, id := range col.CardIDs {
		if id == activeCardID {
			oldIndex = i
		}
		if id == overCardID {
			newIndex = i
		}
	}
	if oldIndex < 0 || newIndex < 0 || oldIndex == newIndex {
		return nil
	}
	return r.store.ReorderCards(columnID, oldIndex, newIndex)
}
