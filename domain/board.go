package domain

// Card represents a single task on the board.
type Card struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Completed   bool     `json:"completed"`
	DueDate     string   `json:"dueDate,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Image       string   `json:"image,omitempty"`
}

// Column is an ordered bucket of cards, backed remotely by a task list.
// CardIDs order defines on-screen position.
type Column struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	CardIDs []string `json:"cardIds"`
	Color   string   `json:"color,omitempty"`
}

// Board is the full in-memory kanban model. Every id referenced by a
// column's CardIDs exists as a key in Cards, and every key in Cards is
// referenced by exactly one column.
type Board struct {
	Columns []Column        `json:"columns"`
	Cards   map[string]Card `json:"cards"`
}

// Clone returns a deep copy of the board so readers never observe a
// partially applied mutation.
func (b Board) Clone() Board {
	out := Board{
		Columns: make([]Column, len(b.Columns)),
		Cards:   make(map[string]Card, len(b.Cards)),
	}
	for i, col := range b.Columns {
		cp := col
		cp.CardIDs = append([]string(nil), col.CardIDs...)
		out.Columns[i] = cp
	}
	for id, card := range b.Cards {
		cp := card
		cp.Labels = append([]string(nil), card.Labels...)
		out.Cards[id] = cp
	}
	return out
}

// ColumnOf returns the column owning the given card id, or nil.
func (b *Board) ColumnOf(cardID string) *Column {
	for i := range b.Columns {
		for _, id := range b.Columns[i].CardIDs {
			if id == cardID {
				return &b.Columns[i]
			}
		}
	}
	return nil
}

// CardPatch is a partial update to a card. Nil fields are untouched.
// An empty DueDate string is the explicit "clear due date" sentinel.
type CardPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Completed   *bool     `json:"completed,omitempty"`
	DueDate     *string   `json:"dueDate,omitempty"`
	Labels      *[]string `json:"labels,omitempty"`
	Image       *string   `json:"image,omitempty"`
}
