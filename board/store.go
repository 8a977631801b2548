// Package board owns the normalized in-memory kanban model and every
// mutation on it. Mutations apply locally first where the operation is
// optimistic (update, move) and reconcile against the remote task store;
// structural inserts (columns, cards) wait for remote confirmation so ids
// are always remote-assigned.
package board

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"zainzo-board/domain"
	"zainzo-board/gtasks"
	"zainzo-board/notes"
)

// TasksClient is the remote task store surface the board depends on.
type TasksClient interface {
	ListTaskLists(ctx context.Context) ([]gtasks.TaskList, error)
	CreateTaskList(ctx context.Context, title string) (gtasks.TaskList, error)
	DeleteTaskList(ctx context.Context, listID string) error
	ListTasks(ctx context.Context, listID string) ([]gtasks.Task, error)
	CreateTask(ctx context.Context, listID string, task gtasks.NewTask) (gtasks.Task, error)
	DeleteTask(ctx context.Context, listID, taskID string) error
}

// Patcher batches field edits into debounced remote patches.
type Patcher interface {
	Enqueue(listID, taskID string, patch gtasks.TaskPatch)
}

// ColorSidecar persists the column color map locally.
type ColorSidecar interface {
	Load(ctx context.Context) map[string]string
	Set(ctx context.Context, columnID, color string)
	Remove(ctx context.Context, columnIDs ...string)
}

// CardFields is the caller-supplied state for a new card.
type CardFields struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Image       string   `json:"image,omitempty"`
}

// Store is the single writer for the board. Readers always get a deep-copy
// snapshot, so an in-flight mutation can never be observed half-applied.
type Store struct {
	client  TasksClient
	patches Patcher
	colors  ColorSidecar
	logger  *log.Logger
	broker  *Broker

	mu    sync.Mutex
	board domain.Board

	// loadGen serializes hydrations: a load only commits if no newer load
	// started while it was fetching.
	loadGen atomic.Uint64
}

// New creates a Store. The broker may be shared with the stream layer.
func New(client TasksClient, patches Patcher, colors ColorSidecar, broker *Broker, logger *log.Logger) *Store {
	if client == nil {
		panic("board.New: tasks client is required")
	}
	if patches == nil {
		panic("board.New: patcher is required")
	}
	if colors == nil {
		panic("board.New: color sidecar is required")
	}
	if broker == nil {
		broker = NewBroker()
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{
		client:  client,
		patches: patches,
		colors:  colors,
		logger:  logger,
		broker:  broker,
		board:   domain.Board{Cards: map[string]domain.Card{}},
	}
}

// Broker exposes the event broker for stream subscribers.
func (s *Store) Broker() *Broker {
	return s.broker
}

// Snapshot returns a deep copy of the current board.
func (s *Store) Snapshot() domain.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Clone()
}

// Load hydrates the whole board from the remote store: all lists, then all
// tasks per list, completed and hidden included. On failure the previous
// board is left untouched. Loads racing each other (mount plus a burst of
// visibility-regain signals) are serialized by generation: a stale fetch
// can never overwrite a newer one.
func (s *Store) Load(ctx context.Context) error {
	gen := s.loadGen.Add(1)

	lists, err := s.client.ListTaskLists(ctx)
	if err != nil {
		return fmt.Errorf("load board: %w", err)
	}

	columns := make([]domain.Column, 0, len(lists))
	cards := make(map[string]domain.Card)
	for _, list := range lists {
		tasks, err := s.client.ListTasks(ctx, list.ID)
		if err != nil {
			return fmt.Errorf("load board: list %s: %w", list.ID, err)
		}
		col := domain.Column{ID: list.ID, Title: list.Title, CardIDs: make([]string, 0, len(tasks))}
		for _, t := range tasks {
			col.CardIDs = append(col.CardIDs, t.ID)
			cards[t.ID] = cardFromTask(t)
		}
		columns = append(columns, col)
	}

	colors := s.colors.Load(ctx)
	live := make(map[string]struct{}, len(columns))
	for i := range columns {
		live[columns[i].ID] = struct{}{}
		columns[i].Color = colors[columns[i].ID]
	}

	s.mu.Lock()
	if s.loadGen.Load() != gen {
		s.mu.Unlock()
		s.logger.Debug("board: discarding stale load")
		return nil
	}
	s.board = domain.Board{Columns: columns, Cards: cards}
	s.mu.Unlock()

	// Sidecar GC only after the load committed: a discarded stale load must
	// not delete colors for columns that only a newer load knows about.
	var stale []string
	for id := range colors {
		if _, ok := live[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		s.colors.Remove(ctx, stale...)
	}

	s.publish(domain.Event{Type: domain.BoardLoaded})
	return nil
}

// AddColumn creates a task list remotely and appends the confirmed column.
// Column creation is not optimistic: the column only exists once the remote
// store assigned its id.
func (s *Store) AddColumn(ctx context.Context, title string) (domain.Column, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Column{}, ErrEmptyTitle
	}

	list, err := s.client.CreateTaskList(ctx, title)
	if err != nil {
		return domain.Column{}, fmt.Errorf("add column: %w", err)
	}

	col := domain.Column{ID: list.ID, Title: list.Title, CardIDs: []string{}}
	s.mu.Lock()
	s.board.Columns = append(s.board.Columns, col)
	s.mu.Unlock()

	s.publish(domain.Event{Type: domain.ColumnAdded, ColumnID: col.ID})
	return col, nil
}

// RemoveColumn deletes the task list remotely, then drops the column and
// cascades removal of all its cards.
func (s *Store) RemoveColumn(ctx context.Context, columnID string) error {
	s.mu.Lock()
	if s.findColumn(columnID) == nil {
		s.mu.Unlock()
		return ErrColumnNotFound
	}
	s.mu.Unlock()

	if err := s.client.DeleteTaskList(ctx, columnID); err != nil {
		return fmt.Errorf("remove column: %w", err)
	}

	s.mu.Lock()
	if col := s.findColumn(columnID); col != nil {
		for _, id := range col.CardIDs {
			delete(s.board.Cards, id)
		}
		cols := s.board.Columns[:0]
		for _, c := range s.board.Columns {
			if c.ID != columnID {
				cols = append(cols, c)
			}
		}
		s.board.Columns = cols
	}
	s.mu.Unlock()

	s.colors.Remove(ctx, columnID)
	s.publish(domain.Event{Type: domain.ColumnRemoved, ColumnID: columnID})
	return nil
}

// AddCard creates a task remotely and inserts the confirmed card at the end
// of the column. Not optimistic; a failure is returned to the caller and the
// board is untouched.
func (s *Store) AddCard(ctx context.Context, columnID string, fields CardFields) (domain.Card, error) {
	if strings.TrimSpace(fields.Title) == "" {
		return domain.Card{}, ErrEmptyTitle
	}
	s.mu.Lock()
	if s.findColumn(columnID) == nil {
		s.mu.Unlock()
		return domain.Card{}, ErrColumnNotFound
	}
	s.mu.Unlock()

	payload := gtasks.NewTask{
		Title: fields.Title,
		Notes: notes.Encode(fields.Description, notes.Metadata{Labels: fields.Labels, Image: fields.Image}),
		Due:   normalizeDue(fields.DueDate),
	}
	task, err := s.client.CreateTask(ctx, columnID, payload)
	if err != nil {
		return domain.Card{}, fmt.Errorf("add card: %w", err)
	}

	card := cardFromTask(task)
	s.mu.Lock()
	col := s.findColumn(columnID)
	if col == nil {
		// The column vanished while the create was in flight; the remote
		// task will reappear on the next full load if its list survived.
		s.mu.Unlock()
		s.logger.Warnf("board: column %s disappeared during add card", columnID)
		return domain.Card{}, ErrColumnNotFound
	}
	s.board.Cards[card.ID] = card
	col.CardIDs = append(col.CardIDs, card.ID)
	s.mu.Unlock()

	s.publish(domain.Event{Type: domain.CardAdded, ColumnID: columnID, CardID: card.ID})
	return card, nil
}

// UpdateCard optimistically merges the patch into the in-memory card and
// enqueues the matching remote patch on the batching queue. Unknown cards
// and orphaned cards are a no-op.
func (s *Store) UpdateCard(cardID string, patch domain.CardPatch) {
	s.mu.Lock()
	card, ok := s.board.Cards[cardID]
	if !ok {
		s.mu.Unlock()
		return
	}
	col := s.board.ColumnOf(cardID)
	if col == nil {
		s.mu.Unlock()
		return
	}
	columnID := col.ID

	var tp gtasks.TaskPatch
	notesDirty := false

	if patch.Title != nil {
		card.Title = *patch.Title
		tp.Title = patch.Title
	}
	if patch.Description != nil {
		card.Description = *patch.Description
		notesDirty = true
	}
	if patch.Labels != nil {
		card.Labels = append([]string(nil), (*patch.Labels)...)
		notesDirty = true
	}
	if patch.Image != nil {
		card.Image = *patch.Image
		notesDirty = true
	}
	if patch.Completed != nil {
		card.Completed = *patch.Completed
		status := gtasks.StatusNeedsAction
		if card.Completed {
			status = gtasks.StatusCompleted
		}
		tp.Status = &status
	}
	if patch.DueDate != nil {
		if *patch.DueDate == "" {
			// Empty string is the transient "clear" sentinel; the remote
			// store needs an explicit null, not an absent field.
			card.DueDate = ""
			tp.ClearDue = true
		} else {
			due := normalizeDue(*patch.DueDate)
			card.DueDate = due
			tp.Due = &due
		}
	}
	if notesDirty {
		// Re-encode with the card's labels and image so a description edit
		// cannot strip the metadata blob off the remote notes.
		encoded := notes.Encode(card.Description, notes.Metadata{Labels: card.Labels, Image: card.Image})
		tp.Notes = &encoded
	}

	s.board.Cards[cardID] = card
	s.mu.Unlock()

	if !tp.Empty() {
		s.patches.Enqueue(columnID, cardID, tp)
	}
	s.publish(domain.Event{Type: domain.CardUpdated, ColumnID: columnID, CardID: cardID})
}

// RemoveCard deletes the task remotely, then removes the card locally. A
// failed delete leaves the board unchanged so no dangling reference can
// appear.
func (s *Store) RemoveCard(ctx context.Context, cardID string) error {
	s.mu.Lock()
	col := s.board.ColumnOf(cardID)
	if col == nil {
		s.mu.Unlock()
		return ErrCardNotFound
	}
	columnID := col.ID
	s.mu.Unlock()

	if err := s.client.DeleteTask(ctx, columnID, cardID); err != nil {
		return fmt.Errorf("remove card: %w", err)
	}

	s.mu.Lock()
	delete(s.board.Cards, cardID)
	if col := s.findColumn(columnID); col != nil {
		col.CardIDs = removeID(col.CardIDs, cardID)
	}
	s.mu.Unlock()

	s.publish(domain.Event{Type: domain.CardRemoved, ColumnID: columnID, CardID: cardID})
	return nil
}

// MoveCard relocates a card across columns. The remote store has no
// cross-list move, so reconciliation is delete-then-recreate, which assigns
// the card a new identity; all references are rewritten and a card-remapped
// event announces the change. Either remote step failing rolls the
// optimistic relocation back.
func (s *Store) MoveCard(ctx context.Context, cardID, fromColumnID, toColumnID string) error {
	if fromColumnID == toColumnID {
		return nil
	}

	s.mu.Lock()
	card, ok := s.board.Cards[cardID]
	if !ok {
		s.mu.Unlock()
		return ErrCardNotFound
	}
	if card.Completed {
		s.mu.Unlock()
		return ErrCardCompleted
	}
	from := s.findColumn(fromColumnID)
	to := s.findColumn(toColumnID)
	if from == nil || to == nil {
		s.mu.Unlock()
		return ErrColumnNotFound
	}
	fromIdx := indexOf(from.CardIDs, cardID)
	if fromIdx < 0 {
		s.mu.Unlock()
		return ErrCardNotFound
	}

	// Optimistic relocation: the card leaves its column and lands at the
	// end of the target before any remote work happens.
	from.CardIDs = removeID(from.CardIDs, cardID)
	to.CardIDs = append(to.CardIDs, cardID)
	s.mu.Unlock()

	s.publish(domain.Event{Type: domain.CardMoved, ColumnID: toColumnID, CardID: cardID})

	rollback := func() {
		s.mu.Lock()
		if to := s.findColumn(toColumnID); to != nil {
			to.CardIDs = removeID(to.CardIDs, cardID)
		}
		if from := s.findColumn(fromColumnID); from != nil && indexOf(from.CardIDs, cardID) < 0 {
			from.CardIDs = insertAt(from.CardIDs, fromIdx, cardID)
		}
		s.mu.Unlock()
		s.publish(domain.Event{Type: domain.CardMoved, ColumnID: fromColumnID, CardID: cardID})
	}

	if err := s.client.DeleteTask(ctx, fromColumnID, cardID); err != nil {
		rollback()
		return fmt.Errorf("move card: delete: %w", err)
	}

	created, err := s.client.CreateTask(ctx, toColumnID, taskFromCard(card))
	if err != nil {
		// The old task is already gone remotely; the board rolls back so
		// the user sees the card where it was, and the next load converges
		// on whatever the remote store holds.
		rollback()
		s.logger.WithError(err).Error("board: move recreate failed after delete; board and remote diverge until next load")
		return fmt.Errorf("move card: recreate: %w", err)
	}

	newCard := cardFromTask(created)
	s.mu.Lock()
	delete(s.board.Cards, cardID)
	s.board.Cards[newCard.ID] = newCard
	if to := s.findColumn(toColumnID); to != nil {
		if i := indexOf(to.CardIDs, cardID); i >= 0 {
			to.CardIDs[i] = newCard.ID
		} else {
			to.CardIDs = append(to.CardIDs, newCard.ID)
		}
	}
	s.mu.Unlock()

	data, _ := sonic.Marshal(domain.CardRemappedData{OldID: cardID, NewID: newCard.ID, ColumnID: toColumnID})
	s.publish(domain.Event{Type: domain.CardRemapped, ColumnID: toColumnID, CardID: newCard.ID, Data: data})
	return nil
}

// ReorderColumns moves a column to a new index. Column order has no remote
// correlate; it is local-only and resets on reload.
func (s *Store) ReorderColumns(oldIndex, newIndex int) error {
	s.mu.Lock()
	n := len(s.board.Columns)
	if oldIndex < 0 || oldIndex >= n || newIndex < 0 || newIndex >= n {
		s.mu.Unlock()
		return ErrBadIndex
	}
	if oldIndex != newIndex {
		col := s.board.Columns[oldIndex]
		cols := append(s.board.Columns[:oldIndex], s.board.Columns[oldIndex+1:]...)
		cols = insertColumnAt(cols, newIndex, col)
		s.board.Columns = cols
	}
	s.mu.Unlock()

	s.publish(domain.Event{Type: domain.ColumnsReordered})
	return nil
}

// ReorderCards moves a card to a new index within one column. Like column
// order this is local-only; the remote "move within list" endpoint exists
// but the board deliberately does not persist intra-column order.
func (s *Store) ReorderCards(columnID string, oldIndex, newIndex int) error {
	s.mu.Lock()
	col := s.findColumn(columnID)
	if col == nil {
		s.mu.Unlock()
		return ErrColumnNotFound
	}
	n := len(col.CardIDs)
	if oldIndex < 0 || oldIndex >= n || newIndex < 0 || newIndex >= n {
		s.mu.Unlock()
		return ErrBadIndex
	}
	if oldIndex != newIndex {
		id := col.CardIDs[oldIndex]
		ids := append(col.CardIDs[:oldIndex], col.CardIDs[oldIndex+1:]...)
		col.CardIDs = insertAt(ids, newIndex, id)
	}
	s.mu.Unlock()

	s.publish(domain.Event{Type: domain.CardsReordered, ColumnID: columnID})
	return nil
}

// SetColumnColor updates the presentation-only column color and persists it
// to the local sidecar. Never sent to the remote store.
func (s *Store) SetColumnColor(ctx context.Context, columnID, color string) error {
	s.mu.Lock()
	col := s.findColumn(columnID)
	if col == nil {
		s.mu.Unlock()
		return ErrColumnNotFound
	}
	col.Color = color
	s.mu.Unlock()

	s.colors.Set(ctx, columnID, color)
	s.publish(domain.Event{Type: domain.ColumnColorSet, ColumnID: columnID})
	return nil
}

// EmitLoggedOut broadcasts the session loss so stream clients can react.
func (s *Store) EmitLoggedOut() {
	s.publish(domain.Event{Type: domain.UserLoggedOut})
}

func (s *Store) publish(ev domain.Event) {
	ev.ID = uuid.NewString()
	s.broker.Publish(ev)
}

// findColumn returns a pointer into the live columns slice; callers must
// hold s.mu.
func (s *Store) findColumn(columnID string) *domain.Column {
	for i := range s.board.Columns {
		if s.board.Columns[i].ID == columnID {
			return &s.board.Columns[i]
		}
	}
	return nil
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func insertAt(ids []string, idx int, id string) []string {
	if idx < 0 {
		idx = 0
	}
	if idx > len(ids) {
		idx = len(ids)
	}
	ids = append(ids, "")
	copy(ids[idx+1:], ids[idx:])
	ids[idx] = id
	return ids
}

func insertColumnAt(cols []domain.Column, idx int, col domain.Column) []domain.Column {
	if idx < 0 {
		idx = 0
	}
	if idx > len(cols) {
		idx = len(cols)
	}
	cols = append(cols, domain.Column{})
	copy(cols[idx+1:], cols[idx:])
	cols[idx] = col
	return cols
}
