package domain

import "encoding/json"

// Board event types, broadcast to stream subscribers.
const (
	BoardLoaded      = "board-loaded"
	ColumnAdded      = "column-added"
	ColumnRemoved    = "column-removed"
	ColumnsReordered = "columns-reordered"
	ColumnColorSet   = "column-color-set"
	CardAdded        = "card-added"
	CardUpdated      = "card-updated"
	CardRemoved      = "card-removed"
	CardMoved        = "card-moved"
	CardsReordered   = "cards-reordered"
	UserLoggedOut    = "user-logged-out"

	// CardRemapped fires when a cross-column move recreates a task under a
	// new remote id. Clients holding the old id must re-resolve.
	CardRemapped = "card-remapped"
)

// CardRemappedData carries the identity rewrite of a moved card.
type CardRemappedData struct {
	OldID    string `json:"oldId"`
	NewID    string `json:"newId"`
	ColumnID string `json:"columnId"`
}

// Event is a single board change notification.
type Event struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	ColumnID string          `json:"columnId,omitempty"`
	CardID   string          `json:"cardId,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}
