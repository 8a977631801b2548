package drag

import (
	"context"
	"testing"

	"zainzo-board/domain"
)

type op struct {
	name   string
	args   []string
	oldIdx int
	newIdx int
}

type stubBoard struct {
	board domain.Board
	ops   []op
}

func (s *stubBoard) Snapshot() domain.Board {
	return s.board.Clone()
}

func (s *stubBoard) MoveCard(ctx context.Context, cardID, fromColumnID, toColumnID string) error {
	s.ops = append(s.ops, op{name: "move", args: []string{cardID, fromColumnID, toColumnID}})
	return nil
}

func (s *stubBoard) ReorderCards(columnID string, oldIndex, newIndex int) error {
	s.ops = append(s.ops, op{name: "reorderCards", args: []string{columnID}, oldIdx: oldIndex, newIdx: newIndex})
	return nil
}

func (s *stubBoard) ReorderColumns(oldIndex, newIndex int) error {
	s.ops = append(s.ops, op{name: "reorderColumns", oldIdx: oldIndex, newIdx: newIndex})
	return nil
}

func testBoard() domain.Board {
	return domain.Board{
		Columns: []domain.Column{
			{ID: "L1", CardIDs: []string{"a", "b"}},
			{ID: "L2", CardIDs: []string{"c"}},
			{ID: "L3", CardIDs: []string{}},
		},
		Cards: map[string]domain.Card{
			"a": {ID: "a"},
			"b": {ID: "b"},
			"c": {ID: "c"},
			"d": {ID: "d", Completed: true},
		},
	}
}

func TestCardOverOtherColumnMoves(t *testing.T) {
	sb := &stubBoard{board: testBoard()}
	r := New(sb, nil)

	r.Start(Item{Kind: KindCard, CardID: "a", ColumnID: "L1"})
	if err := r.End(context.Background(), Item{Kind: KindColumn, ColumnID: "L2"}); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(sb.ops) != 1 || sb.ops[0].name != "move" {
		t.Fatalf("expected one move, got %#v", sb.ops)
	}
	got := sb.ops[0].args
	if got[0] != "a" || got[1] != "L1" || got[2] != "L2" {
		t.Fatalf("unexpected move args: %v", got)
	}
}

func TestCardOverOwnColumnIsNoop(t *testing.T) {
	sb := &stubBoard{board: testBoard()}
	r := New(sb, nil)

	r.Start(Item{Kind: KindCard, CardID: "a", ColumnID: "L1"})
	if err := r.End(context.Background(), Item{Kind: KindColumn, ColumnID: "L1"}); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(sb.ops) != 0 {
		t.Fatalf("expected no ops, got %#v", sb.ops)
	}
}

func TestCardOverCardSameColumnReorders(t *testing.T) {
	sb := &stubBoard{board: testBoard()}
	r := New(sb, nil)

	r.Start(Item{Kind: KindCard, CardID: "a", ColumnID: "L1"})
	if err := r.End(context.Background(), Item{Kind: KindCard, CardID: "b", ColumnID: "L1"}); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(sb.ops) != 1 || sb.ops[0].name != "reorderCards" {
		t.Fatalf("expected reorder, got %#v", sb.ops)
	}
	if sb.ops[0].args[0] != "L1" || sb.ops[0].oldIdx != 0 || sb.ops[0].newIdx != 1 {
		t.Fatalf("unexpected reorder: %#v", sb.ops[0])
	}
}

func TestCardOverCardOtherColumnMoves(t *testing.T) {
	sb := &stubBoard{board: testBoard()}
	r := New(sb, nil)

	r.Start(Item{Kind: KindCard, CardID: "a", ColumnID: "L1"})
	if err := r.End(context.Background(), Item{Kind: KindCard, CardID: "c", ColumnID: "L2"}); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(sb.ops) != 1 || sb.ops[0].name != "move" {
		t.Fatalf("expected move, got %#v", sb.ops)
	}
}

func TestColumnOverColumnReorders(t *testing.T) {
	sb := &stubBoard{board: testBoard()}
	r := New(sb, nil)

	r.Start(Item{Kind: KindColumn, ColumnID: "L1"})
	if err := r.End(context.Background(), Item{Kind: KindColumn, ColumnID: "L3"}); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(sb.ops) != 1 || sb.ops[0].name != "reorderColumns" {
		t.Fatalf("expected column reorder, got %#v", sb.ops)
	}
	if sb.ops[0].oldIdx != 0 || sb.ops[0].newIdx != 2 {
		t.Fatalf("unexpected indexes: %#v", sb.ops[0])
	}
}

func TestCompletedCardIsNotDraggable(t *testing.T) {
	b := testBoard()
	b.Columns[1].CardIDs = append(b.Columns[1].CardIDs, "d")
	sb := &stubBoard{board: b}
	r := New(sb, nil)

	r.Start(Item{Kind: KindCard, CardID: "d", ColumnID: "L2"})
	if err := r.End(context.Background(), Item{Kind: KindColumn, ColumnID: "L1"}); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(sb.ops) != 0 {
		t.Fatalf("completed card must not produce ops, got %#v", sb.ops)
	}
}

func TestDropOutsideTargetIsNoop(t *testing.T) {
	sb := &stubBoard{board: testBoard()}
	r := New(sb, nil)

	r.Start(Item{Kind: KindCard, CardID: "a", ColumnID: "L1"})
	if err := r.End(context.Background(), Item{}); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(sb.ops) != 0 {
		t.Fatalf("expected no ops, got %#v", sb.ops)
	}
}

func TestDropOnSelfIsNoop(t *testing.T) {
	sb := &stubBoard{board: testBoard()}
	r := New(sb, nil)

	r.Start(Item{Kind: KindCard, CardID: "a", ColumnID: "L1"})
	if err := r.End(context.Background(), Item{Kind: KindCard, CardID: "a", ColumnID: "L1"}); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(sb.ops) != 0 {
		t.Fatalf("expected no ops, got %#v", sb.ops)
	}
}

func TestOverOnlyTracksHover(t *testing.T) {
	sb := &stubBoard{board: testBoard()}
	r := New(sb, nil)

	r.Start(Item{Kind: KindCard, CardID: "a", ColumnID: "L1"})
	r.Over(Item{Kind: KindColumn, ColumnID: "L2"})
	if len(sb.ops) != 0 {
		t.Fatalf("drag-over must not mutate the board, got %#v", sb.ops)
	}
	if h := r.Hover(); h.Kind != KindColumn || h.ColumnID != "L2" {
		t.Fatalf("unexpected hover: %#v", h)
	}

	// Gesture resets after end.
	_ = r.End(context.Background(), Item{Kind: KindColumn, ColumnID: "L2"})
	if h := r.Hover(); h.Kind != KindNone {
		t.Fatalf("hover must reset, got %#v", h)
	}
}

func TestParseKind(t *testing.T) {
	if ParseKind("card") != KindCard || ParseKind("column") != KindColumn || ParseKind("x") != KindNone {
		t.Fatal("unexpected kind mapping")
	}
}
