package api

import (
	"context"

	"zainzo-board/board"
	"zainzo-board/domain"
	"zainzo-board/drag"
)

// BoardStore is the kanban engine surface the facade exposes over HTTP.
type BoardStore interface {
	Snapshot() domain.Board
	Load(ctx context.Context) error
	AddColumn(ctx context.Context, title string) (domain.Column, error)
	RemoveColumn(ctx context.Context, columnID string) error
	AddCard(ctx context.Context, columnID string, fields board.CardFields) (domain.Card, error)
	UpdateCard(cardID string, patch domain.CardPatch)
	RemoveCard(ctx context.Context, cardID string) error
	MoveCard(ctx context.Context, cardID, fromColumnID, toColumnID string) error
	ReorderColumns(oldIndex, newIndex int) error
	ReorderCards(columnID string, oldIndex, newIndex int) error
	SetColumnColor(ctx context.Context, columnID, color string) error
	Broker() *board.Broker
}

// Dragger resolves drag gestures into board operations.
type Dragger interface {
	Start(item drag.Item)
	Over(item drag.Item)
	End(ctx context.Context, over drag.Item) error
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}
